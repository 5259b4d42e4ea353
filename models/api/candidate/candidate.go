package candidateapimodels

import (
	"admission-backend/models"
	apimodels "admission-backend/models/api"

	"github.com/pkg/errors"
)

type CandidateView struct {
	ID             string                 `json:"id"`
	FormTemplateID string                 `json:"form_template_id"`
	ImportBatchID  string                 `json:"import_batch_id"`
	ResponseID     string                 `json:"response_id"`     // Идентификатор ответа в LimeSurvey
	Name           string                 `json:"name"`            // Имя и фамилия
	Status         models.CandidateStatus `json:"status"`          // Этап: new/complete/shortlisted/invited/accepted/refused
	SubmissionDate string                 `json:"submission_date"` // Дата отправки анкеты
	MappingPending bool                   `json:"mapping_pending"` // Ответ сохранен без сопоставления
	Fields         map[string]any         `json:"fields"`          // Заполненные поля карточки
	CustomFields   map[string]any         `json:"custom_fields"`   // Пользовательские поля
	StageID        string                 `json:"stage_id"`        // Этап воронки отбора

	EvaluationStatus models.EvaluationStatus `json:"evaluation_status"` // pending/in_progress/completed
	EvaluationScore  float64                 `json:"evaluation_score"`  // Среднее ненулевых оценок
	EvaluatedAt      string                  `json:"evaluated_at"`
	IsComplete       bool                    `json:"is_complete"` // Досье полное
}

type CandidateViewExt struct {
	CandidateView
	ResponseData map[string]any   `json:"response_data"` // Исходный ответ
	Attachments  []AttachmentView `json:"attachments"`
}

type AttachmentView struct {
	ID           string             `json:"id"`
	QuestionCode string             `json:"question_code"`
	TargetField  models.TargetField `json:"target_field"`
	Name         string             `json:"name"`
	MimeType     string             `json:"mime_type"`
	Size         int64              `json:"size"`
}

type ListFilter struct {
	apimodels.Pagination
	FormTemplateID string                 `json:"form_template_id"`
	ImportBatchID  string                 `json:"import_batch_id"`
	Status         models.CandidateStatus `json:"status"`
	Search         string                 `json:"search"` // Поиск по имени, email, номеру ответа
	StageID        string                 `json:"stage_id"`
}

func (r ListFilter) Validate() error {
	if r.Status != "" && !r.Status.IsValid() {
		return errors.New("некорректный статус кандидата")
	}
	return nil
}

type ChangeStatusRequest struct {
	Status models.CandidateStatus `json:"status"`
}

func (r ChangeStatusRequest) Validate() error {
	if !r.Status.IsValid() {
		return errors.New("некорректный статус кандидата")
	}
	return nil
}

type EvaluationRequest struct {
	AcademicScore   *float64 `json:"academic_score"`
	ExperienceScore *float64 `json:"experience_score"`
	MotivationScore *float64 `json:"motivation_score"`
	EvaluationNote  *string  `json:"evaluation_note"`
}

func (r EvaluationRequest) Validate() error {
	for _, score := range []*float64{r.AcademicScore, r.ExperienceScore, r.MotivationScore} {
		if score != nil && *score < 0 {
			return errors.New("оценка не может быть отрицательной")
		}
	}
	return nil
}

type ChangeStageRequest struct {
	StageID string `json:"stage_id"`
}

func (r ChangeStageRequest) Validate() error {
	if r.StageID == "" {
		return errors.New("не указан этап")
	}
	return nil
}
