package formtemplateapimodels

import (
	"admission-backend/models"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

type ServerData struct {
	Name        string `json:"name"`         // Название сервера
	BaseURL     string `json:"base_url"`     // Адрес LimeSurvey, например https://survey.example.com
	APIUsername string `json:"api_username"` // Пользователь RemoteControl API
	APIPassword string `json:"api_password"` // Пароль RemoteControl API
}

func (r ServerData) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("не указано название сервера")
	}
	u, err := url.Parse(r.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("некорректный адрес сервера")
	}
	if r.APIUsername == "" {
		return errors.New("не указан пользователь API")
	}
	return nil
}

type ServerView struct {
	ID                 string                  `json:"id"`
	Name               string                  `json:"name"`
	BaseURL            string                  `json:"base_url"`
	RPCPath            string                  `json:"rpc_path"`
	APIUsername        string                  `json:"api_username"`
	ConnectionStatus   models.ConnectionStatus `json:"connection_status"`    // Статус подключения not_tested/connected/failed
	ConnectionError    string                  `json:"connection_error"`     // Ошибка последней проверки
	LastConnectionTest string                  `json:"last_connection_test"` // Дата последней проверки
}

type ServerTokenView struct {
	WebhookToken string `json:"webhook_token"` // Токен для заголовка X-Webhook-Token
}

type RemoteSurvey struct {
	SurveyID string `json:"survey_id"`
	Title    string `json:"title"`
	Active   bool   `json:"active"`
}

type SyncFormsResult struct {
	Total   int      `json:"total"`   // Анкет на сервере
	Created int      `json:"created"` // Добавлено шаблонов
	Updated int      `json:"updated"` // Обновлено названий
	Errors  []string `json:"errors"`
}

type FormTemplateData struct {
	ServerID             string   `json:"server_id"`              // Идентификатор сервера LimeSurvey
	SurveyID             string   `json:"survey_id"`              // Идентификатор анкеты (sid)
	Title                string   `json:"title"`                  // Название
	RequiredResponseKeys []string `json:"required_response_keys"` // Коды вопросов, обязательные в ответе вебхука
}

func (r FormTemplateData) Validate() error {
	if r.ServerID == "" {
		return errors.New("не указан сервер LimeSurvey")
	}
	if strings.TrimSpace(r.SurveyID) == "" {
		return errors.New("не указан идентификатор анкеты")
	}
	return nil
}

type FormTemplateView struct {
	ID                    string                  `json:"id"`
	ServerID              string                  `json:"server_id"`
	SurveyID              string                  `json:"survey_id"`
	Title                 string                  `json:"title"`
	QuestionCount         int                     `json:"question_count"`
	SyncStatus            models.SyncStatus       `json:"sync_status"` // draft/synced/error
	SyncError             string                  `json:"sync_error"`
	LastSyncDate          string                  `json:"last_sync_date"`
	MappingValidated      bool                    `json:"mapping_validated"`
	AutoCreateStatus      models.AutoCreateStatus `json:"auto_create_status"` // disabled/enabled/paused
	RequiredResponseKeys  []string                `json:"required_response_keys"`
	TotalAutoCreated      int                     `json:"total_auto_created"`
	LastCandidateCreation string                  `json:"last_candidate_creation"`
}

type FormTemplateViewExt struct {
	FormTemplateView
	Questions []models.Question `json:"questions"`
}

type SyncResult struct {
	QuestionCount int `json:"question_count"` // Вопросов в анкете
	NewLines      int `json:"new_lines"`      // Добавлено строк сопоставления
	UpdatedLines  int `json:"updated_lines"`  // Обновлено строк сопоставления
	Suggested     int `json:"suggested"`      // Строк с примененной подсказкой
}

type DiagnosticCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type DiagnosticView struct {
	Ready  bool              `json:"ready"` // Анкета готова к автоматическому созданию кандидатов
	Checks []DiagnosticCheck `json:"checks"`
}

type AutoCreateRequest struct {
	Status models.AutoCreateStatus `json:"status"` // disabled/enabled/paused
}

func (r AutoCreateRequest) Validate() error {
	switch r.Status {
	case models.AutoCreateDisabled, models.AutoCreateEnabled, models.AutoCreatePaused:
		return nil
	}
	return errors.New("некорректный статус автоматического создания")
}

type ListFilter struct {
	ServerID string `json:"server_id"` // Пусто - анкеты всех серверов
}
