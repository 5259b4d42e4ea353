package candidatestageapimodels

import (
	"strings"

	"github.com/pkg/errors"
)

type StageView struct {
	ID             string `json:"id"`
	FormTemplateID string `json:"form_template_id"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Sequence       int    `json:"sequence"`
	IsDefault      bool   `json:"is_default"`      // Новые кандидаты попадают на этот этап
	Fold           bool   `json:"fold"`            // Свернут в канбане
	CandidateCount int64  `json:"candidate_count"` // Кандидатов на этапе
}

type StageData struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Sequence    int    `json:"sequence"`
	Fold        bool   `json:"fold"`
	IsDefault   bool   `json:"is_default"` // Учитывается только при создании
}

func (r StageData) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("не указано название этапа")
	}
	if strings.TrimSpace(r.Code) == "" {
		return errors.New("не указан код этапа")
	}
	return nil
}
