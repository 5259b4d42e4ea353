package importbatchapimodels

import (
	"admission-backend/models"
	apimodels "admission-backend/models/api"
)

type ImportBatchView struct {
	ID             string                  `json:"id"`
	FormTemplateID string                  `json:"form_template_id"`
	Source         models.ImportSource     `json:"source"` // limesurvey/xlsx/auto_import
	State          models.ImportBatchState `json:"state"`  // running/done/partial/failed
	TotalCount     int                     `json:"total_count"`
	ImportedCount  int                     `json:"imported_count"`
	SkippedCount   int                     `json:"skipped_count"`
	ErrorCount     int                     `json:"error_count"`
	StartedAt      string                  `json:"started_at"`
	FinishedAt     string                  `json:"finished_at"`
	Duration       float64                 `json:"duration"`     // Длительность, сек
	SuccessRate    float64                 `json:"success_rate"` // Доля импортированных, %
	ErrorLines     []string                `json:"error_lines"`  // Первые строки ошибок
	Message        string                  `json:"message"`
}

type ListFilter struct {
	apimodels.Pagination
	FormTemplateID string                  `json:"form_template_id"`
	State          models.ImportBatchState `json:"state"`
}

func (r ListFilter) Validate() error {
	return nil
}
