package ingestion

import (
	"fmt"
	"strings"
)

const (
	CodeFormNotFound         = "form_not_found"
	CodeUnauthorized         = "unauthorized"
	CodeMissingFields        = "missing_fields"
	CodeMalformedPayload     = "malformed_payload"
	CodeNoValidatedMapping   = "no_validated_mapping"
	CodeResponsesFetchFailed = "responses_fetch_failed"
)

// FormNotFoundError нет шаблона для идентификатора анкеты
type FormNotFoundError struct {
	SurveyID string
}

func (e FormNotFoundError) Error() string {
	return fmt.Sprintf("анкета %s не найдена", e.SurveyID)
}

func (e FormNotFoundError) Code() string {
	return CodeFormNotFound
}

// UnauthorizedError токен запроса не совпал с токеном сервера анкеты
type UnauthorizedError struct {
	SurveyID string
}

func (e UnauthorizedError) Error() string {
	return "неверный токен вебхука"
}

func (e UnauthorizedError) Code() string {
	return CodeUnauthorized
}

// MissingFieldsError в запросе нет обязательных ключей, сопоставление не запускалось
type MissingFieldsError struct {
	Keys []string
}

func (e MissingFieldsError) Error() string {
	return "отсутствуют обязательные поля: " + strings.Join(e.Keys, ", ")
}

func (e MissingFieldsError) Code() string {
	return CodeMissingFields
}

// ResponsesFetchError источник ответов недоступен, пакет завершается со статусом failed
type ResponsesFetchError struct {
	Err error
}

func (e ResponsesFetchError) Error() string {
	return fmt.Sprintf("ошибка получения ответов: %v", e.Err)
}

func (e ResponsesFetchError) Unwrap() error {
	return e.Err
}

func (e ResponsesFetchError) Code() string {
	return CodeResponsesFetchFailed
}
