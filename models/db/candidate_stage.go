package dbmodels

import (
	candidatestageapimodels "admission-backend/models/api/candidate-stage"
)

// CandidateStage этап воронки отбора в рамках анкеты
type CandidateStage struct {
	BaseModel
	FormTemplateID string `gorm:"type:varchar(36);index;not null"`
	Code           string `gorm:"type:varchar(64)"`
	Name           string
	Description    string
	Sequence       int
	IsDefault      bool
	Fold           bool
}

func (s CandidateStage) ToModel() candidatestageapimodels.StageView {
	return candidatestageapimodels.StageView{
		ID:             s.ID,
		FormTemplateID: s.FormTemplateID,
		Code:           s.Code,
		Name:           s.Name,
		Description:    s.Description,
		Sequence:       s.Sequence,
		IsDefault:      s.IsDefault,
		Fold:           s.Fold,
	}
}
