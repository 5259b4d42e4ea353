package ingestionapimodels

import (
	apimodels "admission-backend/models/api"
	"bytes"
	"encoding/json"
)

type WebhookSubmission struct {
	FormID       apimodels.FlexString `json:"form_id"`       // Идентификатор анкеты LimeSurvey (sid)
	SurveyID     apimodels.FlexString `json:"survey_id"`     // Синоним form_id
	ResponseID   apimodels.FlexString `json:"response_id"`   // Идентификатор ответа
	SubmitDate   string               `json:"submit_date"`   // Дата отправки
	ResponseData json.RawMessage      `json:"response_data"` // Ответы: код вопроса -> значение
	Attachments  []WebhookAttachment  `json:"attachments"`   // Файлы ответа
}

type WebhookAttachment struct {
	QuestionCode string `json:"question_code"` // Код вопроса загрузки файла
	Name         string `json:"name"`
	Content      string `json:"content"` // base64
	MimeType     string `json:"mime_type"`
	Type         string `json:"type"` // синоним mime_type
}

func (a WebhookAttachment) GetMimeType() string {
	if a.MimeType != "" {
		return a.MimeType
	}
	return a.Type
}

func (r WebhookSubmission) GetSurveyID() string {
	if r.FormID != "" {
		return r.FormID.String()
	}
	return r.SurveyID.String()
}

// MissingKeys отсутствующие обязательные ключи запроса
func (r WebhookSubmission) MissingKeys() []string {
	missing := []string{}
	if r.GetSurveyID() == "" {
		missing = append(missing, "form_id")
	}
	if r.ResponseID == "" {
		missing = append(missing, "response_id")
	}
	data := bytes.TrimSpace(r.ResponseData)
	if len(data) == 0 || string(data) == "null" {
		missing = append(missing, "response_data")
	}
	return missing
}

type SubmitResultView struct {
	CandidateID    string           `json:"candidate_id"`
	Created        bool             `json:"created"`         // false - ответ уже был обработан ранее
	MappingPending bool             `json:"mapping_pending"` // Ответ сохранен без сопоставления
	Diagnostics    []FieldErrorView `json:"diagnostics"`     // Пропущенные поля
}

type FieldErrorView struct {
	QuestionCode string `json:"question_code"`
	TargetField  string `json:"target_field"`
	Kind         string `json:"kind"`
	Message      string `json:"message"`
}
