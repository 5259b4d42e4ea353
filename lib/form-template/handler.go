package formtemplate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"admission-backend/db"
	candidatestage "admission-backend/lib/candidate-stage"
	formschema "admission-backend/lib/form-schema"
	limesurveyserverstore "admission-backend/lib/form-template/server-store"
	formtemplatestore "admission-backend/lib/form-template/store"
	limesurveyclient "admission-backend/lib/limesurvey/client"
	"admission-backend/lib/mapping"
	mappingstore "admission-backend/lib/mapping/store"
	"admission-backend/lib/utils/helpers"
	"admission-backend/models"
	formtemplateapimodels "admission-backend/models/api/form-template"
	dbmodels "admission-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

var (
	ErrServerNotFound      = errors.New("сервер LimeSurvey не найден")
	ErrServerInUse         = errors.New("сервер используется анкетами")
	ErrTemplateNotFound    = errors.New("шаблон анкеты не найден")
	ErrTemplateExists      = errors.New("анкета уже добавлена для этого сервера")
	ErrMappingNotValidated = errors.New("автоматическое создание кандидатов доступно после проверки сопоставления")
)

// MappingRegenerator сверка сопоставления с новой схемой анкеты
type MappingRegenerator interface {
	RegenerateFor(templateID string, questions []models.Question) (mapping.RegenerateStats, error)
}

// StagePipeline этапы воронки отбора анкеты
type StagePipeline interface {
	CreateDefaults(templateID string) error
	DeleteAll(templateID string) error
}

type Provider interface {
	CreateServer(request formtemplateapimodels.ServerData) (id string, err error)
	UpdateServer(id string, request formtemplateapimodels.ServerData) error
	GetServer(id string) (*formtemplateapimodels.ServerView, error)
	ListServers() ([]formtemplateapimodels.ServerView, error)
	DeleteServer(id string) error
	GetWebhookToken(id string) (*formtemplateapimodels.ServerTokenView, error)
	RegenerateToken(id string) (*formtemplateapimodels.ServerTokenView, error)
	// TestConnection подбирает адрес RemoteControl API и сохраняет статус подключения
	TestConnection(ctx context.Context, id string) (*formtemplateapimodels.ServerView, error)
	ListRemoteSurveys(ctx context.Context, id string) ([]formtemplateapimodels.RemoteSurvey, error)
	// SyncForms добавляет шаблоны для всех анкет сервера и обновляет названия уже добавленных
	SyncForms(ctx context.Context, id string) (*formtemplateapimodels.SyncFormsResult, error)

	Create(request formtemplateapimodels.FormTemplateData) (id string, err error)
	Update(id string, request formtemplateapimodels.FormTemplateData) error
	Get(id string) (*formtemplateapimodels.FormTemplateViewExt, error)
	List(serverID string) ([]formtemplateapimodels.FormTemplateView, error)
	Delete(id string) error
	// Sync загружает схему анкеты и пересобирает строки сопоставления
	Sync(ctx context.Context, id string) (*formtemplateapimodels.SyncResult, error)
	Diagnose(id string) (*formtemplateapimodels.DiagnosticView, error)
	SetAutoCreate(id string, status models.AutoCreateStatus) (*formtemplateapimodels.FormTemplateView, error)
}

var Instance Provider

func NewHandler() {
	Instance = NewInstance(
		limesurveyserverstore.NewInstance(db.DB),
		formtemplatestore.NewInstance(db.DB),
		mappingstore.NewInstance(db.DB),
		limesurveyclient.Instance,
		formschema.Instance,
		mapping.Instance,
		candidatestage.Instance,
	)
}

func NewInstance(serverStore limesurveyserverstore.Provider, templateStore formtemplatestore.Provider, mappingStore mappingstore.Provider,
	client limesurveyclient.Provider, ingestor formschema.Provider, regenerator MappingRegenerator, stages StagePipeline) Provider {
	return &impl{
		serverStore:   serverStore,
		templateStore: templateStore,
		mappingStore:  mappingStore,
		client:        client,
		ingestor:      ingestor,
		regenerator:   regenerator,
		stages:        stages,
	}
}

type impl struct {
	serverStore   limesurveyserverstore.Provider
	templateStore formtemplatestore.Provider
	mappingStore  mappingstore.Provider
	client        limesurveyclient.Provider
	ingestor      formschema.Provider
	regenerator   MappingRegenerator
	stages        StagePipeline
}

func (i impl) CreateServer(request formtemplateapimodels.ServerData) (id string, err error) {
	rec := dbmodels.LimeSurveyServer{
		Name:             strings.TrimSpace(request.Name),
		BaseURL:          strings.TrimRight(request.BaseURL, "/"),
		APIUsername:      request.APIUsername,
		APIPassword:      request.APIPassword,
		WebhookToken:     db.NewWebhookToken(),
		ConnectionStatus: models.ConnectionNotTested,
	}
	id, err = i.serverStore.Create(rec)
	if err != nil {
		return "", errors.Wrap(err, "ошибка добавления сервера LimeSurvey")
	}
	log.WithField("server_id", id).Info("добавлен сервер LimeSurvey")
	return id, nil
}

func (i impl) UpdateServer(id string, request formtemplateapimodels.ServerData) error {
	if _, err := i.getServer(id); err != nil {
		return err
	}
	updMap := map[string]interface{}{
		"name":              strings.TrimSpace(request.Name),
		"base_url":          strings.TrimRight(request.BaseURL, "/"),
		"api_username":      request.APIUsername,
		"rpc_path":          "",
		"connection_status": models.ConnectionNotTested,
		"connection_error":  "",
	}
	// пустой пароль - пароль не меняется
	if request.APIPassword != "" {
		updMap["api_password"] = request.APIPassword
	}
	return i.serverStore.Update(id, updMap)
}

func (i impl) GetServer(id string) (*formtemplateapimodels.ServerView, error) {
	rec, err := i.getServer(id)
	if err != nil {
		return nil, err
	}
	view := rec.ToModel()
	return &view, nil
}

func (i impl) ListServers() ([]formtemplateapimodels.ServerView, error) {
	list, err := i.serverStore.List()
	if err != nil {
		return nil, err
	}
	result := make([]formtemplateapimodels.ServerView, 0, len(list))
	for _, rec := range list {
		result = append(result, rec.ToModel())
	}
	return result, nil
}

func (i impl) DeleteServer(id string) error {
	if _, err := i.getServer(id); err != nil {
		return err
	}
	count, err := i.templateStore.CountByServer(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrServerInUse
	}
	return i.serverStore.Delete(id)
}

func (i impl) GetWebhookToken(id string) (*formtemplateapimodels.ServerTokenView, error) {
	rec, err := i.getServer(id)
	if err != nil {
		return nil, err
	}
	return &formtemplateapimodels.ServerTokenView{WebhookToken: rec.WebhookToken}, nil
}

func (i impl) RegenerateToken(id string) (*formtemplateapimodels.ServerTokenView, error) {
	if _, err := i.getServer(id); err != nil {
		return nil, err
	}
	token := db.NewWebhookToken()
	if err := i.serverStore.Update(id, map[string]interface{}{"webhook_token": token}); err != nil {
		return nil, err
	}
	log.WithField("server_id", id).Info("токен вебхука сервера LimeSurvey изменен")
	return &formtemplateapimodels.ServerTokenView{WebhookToken: token}, nil
}

func (i impl) TestConnection(ctx context.Context, id string) (*formtemplateapimodels.ServerView, error) {
	rec, err := i.getServer(id)
	if err != nil {
		return nil, err
	}
	logger := log.WithField("server_id", id)
	now := time.Now()
	updMap := map[string]interface{}{
		"last_connection_test": now,
	}
	rpcPath, connErr := i.client.TestConnection(ctx, limesurveyclient.ConnectionOf(*rec))
	if connErr != nil {
		logger.WithError(connErr).Warn("нет подключения к серверу LimeSurvey")
		updMap["connection_status"] = models.ConnectionFailed
		updMap["connection_error"] = helpers.Truncate(connErr.Error(), 1000)
	} else {
		updMap["connection_status"] = models.ConnectionConnected
		updMap["connection_error"] = ""
		updMap["rpc_path"] = rpcPath
	}
	if err = i.serverStore.Update(id, updMap); err != nil {
		return nil, err
	}
	return i.GetServer(id)
}

func (i impl) ListRemoteSurveys(ctx context.Context, id string) ([]formtemplateapimodels.RemoteSurvey, error) {
	rec, err := i.getServer(id)
	if err != nil {
		return nil, err
	}
	list, err := i.client.ListSurveys(ctx, limesurveyclient.ConnectionOf(*rec))
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения списка анкет LimeSurvey")
	}
	result := make([]formtemplateapimodels.RemoteSurvey, 0, len(list))
	for _, survey := range list {
		result = append(result, formtemplateapimodels.RemoteSurvey{
			SurveyID: survey.SID.String(),
			Title:    survey.SurveyLSTitle,
			Active:   strings.EqualFold(survey.Active, "Y"),
		})
	}
	return result, nil
}

func (i impl) SyncForms(ctx context.Context, id string) (*formtemplateapimodels.SyncFormsResult, error) {
	rec, err := i.getServer(id)
	if err != nil {
		return nil, err
	}
	logger := log.WithField("server_id", id)
	surveys, err := i.client.ListSurveys(ctx, limesurveyclient.ConnectionOf(*rec))
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения списка анкет LimeSurvey")
	}
	existing, err := i.templateStore.List(id)
	if err != nil {
		return nil, err
	}
	bySurvey := make(map[string]dbmodels.FormTemplate, len(existing))
	for _, template := range existing {
		bySurvey[template.SurveyID] = template
	}

	result := &formtemplateapimodels.SyncFormsResult{Total: len(surveys), Errors: []string{}}
	for _, survey := range surveys {
		surveyID := strings.TrimSpace(survey.SID.String())
		if surveyID == "" {
			continue
		}
		title := strings.TrimSpace(survey.SurveyLSTitle)
		if template, ok := bySurvey[surveyID]; ok {
			if title == "" || title == template.Title {
				continue
			}
			if err = i.templateStore.Update(template.ID, map[string]interface{}{"title": title}); err != nil {
				logger.WithError(err).WithField("survey_id", surveyID).Warn("ошибка обновления названия анкеты")
				result.Errors = append(result.Errors, surveyID+": "+err.Error())
				continue
			}
			result.Updated++
			continue
		}
		templateID, err := i.Create(formtemplateapimodels.FormTemplateData{ServerID: id, SurveyID: surveyID, Title: title})
		if err != nil {
			logger.WithError(err).WithField("survey_id", surveyID).Warn("ошибка добавления анкеты")
			result.Errors = append(result.Errors, surveyID+": "+err.Error())
			continue
		}
		bySurvey[surveyID] = dbmodels.FormTemplate{BaseModel: dbmodels.BaseModel{ID: templateID}, SurveyID: surveyID, Title: title}
		result.Created++
	}
	logger.
		WithField("created", result.Created).
		WithField("updated", result.Updated).
		Info("анкеты сервера LimeSurvey синхронизированы")
	return result, nil
}

func (i impl) Create(request formtemplateapimodels.FormTemplateData) (id string, err error) {
	if _, err = i.getServer(request.ServerID); err != nil {
		return "", err
	}
	surveyID := strings.TrimSpace(request.SurveyID)
	title := strings.TrimSpace(request.Title)
	if title == "" {
		title = fmt.Sprintf("Анкета %s", surveyID)
	}
	rec := dbmodels.FormTemplate{
		ServerID:             request.ServerID,
		SurveyID:             surveyID,
		Title:                title,
		Questions:            datatypes.NewJSONType([]models.Question{}),
		SyncStatus:           models.SyncStatusDraft,
		AutoCreateStatus:     models.AutoCreateDisabled,
		RequiredResponseKeys: datatypes.NewJSONType(requiredKeys(request.RequiredResponseKeys)),
	}
	id, err = i.templateStore.Create(rec)
	if err != nil {
		if db.IsDuplicateKeyError(err) {
			return "", ErrTemplateExists
		}
		return "", errors.Wrap(err, "ошибка добавления шаблона анкеты")
	}
	if err = i.mappingStore.Save(mapping.NewMapping(id)); err != nil {
		log.WithError(err).WithField("form_template_id", id).Error("ошибка создания сопоставления")
	}
	if i.stages != nil {
		if err = i.stages.CreateDefaults(id); err != nil {
			log.WithError(err).WithField("form_template_id", id).Error("ошибка создания этапов отбора")
		}
	}
	log.
		WithField("form_template_id", id).
		WithField("survey_id", rec.SurveyID).
		Info("добавлен шаблон анкеты")
	return id, nil
}

func (i impl) Update(id string, request formtemplateapimodels.FormTemplateData) error {
	if _, err := i.getTemplate(id); err != nil {
		return err
	}
	updMap := map[string]interface{}{
		"required_response_keys": datatypes.NewJSONType(requiredKeys(request.RequiredResponseKeys)),
	}
	if title := strings.TrimSpace(request.Title); title != "" {
		updMap["title"] = title
	}
	return i.templateStore.Update(id, updMap)
}

func (i impl) Get(id string) (*formtemplateapimodels.FormTemplateViewExt, error) {
	rec, err := i.getTemplate(id)
	if err != nil {
		return nil, err
	}
	return &formtemplateapimodels.FormTemplateViewExt{
		FormTemplateView: rec.ToModel(),
		Questions:        rec.GetQuestions(),
	}, nil
}

func (i impl) List(serverID string) ([]formtemplateapimodels.FormTemplateView, error) {
	list, err := i.templateStore.List(serverID)
	if err != nil {
		return nil, err
	}
	result := make([]formtemplateapimodels.FormTemplateView, 0, len(list))
	for _, rec := range list {
		result = append(result, rec.ToModel())
	}
	return result, nil
}

func (i impl) Delete(id string) error {
	if _, err := i.getTemplate(id); err != nil {
		return err
	}
	if err := i.mappingStore.DeleteByTemplate(id); err != nil {
		return errors.Wrap(err, "ошибка удаления сопоставления")
	}
	if i.stages != nil {
		if err := i.stages.DeleteAll(id); err != nil {
			return errors.Wrap(err, "ошибка удаления этапов отбора")
		}
	}
	return i.templateStore.Delete(id)
}

func (i impl) Sync(ctx context.Context, id string) (*formtemplateapimodels.SyncResult, error) {
	rec, err := i.getTemplate(id)
	if err != nil {
		return nil, err
	}
	if rec.Server == nil {
		return nil, ErrServerNotFound
	}
	logger := log.
		WithField("form_template_id", id).
		WithField("survey_id", rec.SurveyID)

	questions, err := i.ingestor.Fetch(ctx, limesurveyclient.ConnectionOf(*rec.Server), rec.SurveyID)
	now := time.Now()
	if err != nil {
		updErr := i.templateStore.Update(id, map[string]interface{}{
			"sync_status":    models.SyncStatusError,
			"sync_error":     helpers.Truncate(err.Error(), 1000),
			"last_sync_date": now,
		})
		if updErr != nil {
			logger.WithError(updErr).Error("ошибка сохранения статуса синхронизации")
		}
		return nil, err
	}
	err = i.templateStore.Update(id, map[string]interface{}{
		"questions":      datatypes.NewJSONType(questions),
		"question_count": len(questions),
		"sync_status":    models.SyncStatusSynced,
		"sync_error":     "",
		"last_sync_date": now,
	})
	if err != nil {
		return nil, errors.Wrap(err, "ошибка сохранения схемы анкеты")
	}
	stats, err := i.regenerator.RegenerateFor(id, questions)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка обновления сопоставления")
	}
	logger.
		WithField("questions", len(questions)).
		WithField("new_lines", stats.NewLines).
		Info("схема анкеты синхронизирована")
	return &formtemplateapimodels.SyncResult{
		QuestionCount: len(questions),
		NewLines:      stats.NewLines,
		UpdatedLines:  stats.UpdatedLines,
		Suggested:     stats.Suggested,
	}, nil
}

func (i impl) Diagnose(id string) (*formtemplateapimodels.DiagnosticView, error) {
	rec, err := i.getTemplate(id)
	if err != nil {
		return nil, err
	}
	checks := []formtemplateapimodels.DiagnosticCheck{}
	add := func(name string, ok bool, message string) {
		checks = append(checks, formtemplateapimodels.DiagnosticCheck{Name: name, OK: ok, Message: message})
	}

	switch {
	case rec.Server == nil:
		add("server", false, "сервер LimeSurvey не найден")
	case rec.Server.ConnectionStatus == models.ConnectionConnected:
		add("server", true, "подключение к серверу проверено")
	case rec.Server.ConnectionStatus == models.ConnectionFailed:
		add("server", false, "нет подключения к серверу: "+rec.Server.ConnectionError)
	default:
		add("server", false, "подключение к серверу не проверялось")
	}

	switch rec.SyncStatus {
	case models.SyncStatusSynced:
		add("schema", rec.QuestionCount > 0, fmt.Sprintf("вопросов в анкете: %d", rec.QuestionCount))
	case models.SyncStatusError:
		add("schema", false, "ошибка синхронизации: "+rec.SyncError)
	default:
		add("schema", false, "схема анкеты не загружена")
	}

	mappingRec, err := i.mappingStore.GetByTemplate(id)
	if err != nil {
		return nil, err
	}
	if mappingRec == nil {
		mappingRec = mapping.NewMapping(id)
	}
	if mappingRec.IsValidated() {
		add("mapping", true, "сопоставление проверено")
	} else {
		add("mapping", false, "сопоставление не проверено")
	}
	missing := []string{}
	for _, line := range mappingRec.Lines {
		if line.IsRequired && line.TargetField.IsEmpty() {
			missing = append(missing, line.QuestionCode)
		}
	}
	if len(missing) == 0 {
		add("required_lines", true, "обязательные вопросы сопоставлены")
	} else {
		add("required_lines", false, "не сопоставлены обязательные вопросы: "+strings.Join(missing, ", "))
	}

	switch rec.AutoCreateStatus {
	case models.AutoCreateEnabled:
		add("auto_create", true, "автоматическое создание кандидатов включено")
	case models.AutoCreatePaused:
		add("auto_create", false, "автоматическое создание кандидатов приостановлено")
	default:
		add("auto_create", false, "автоматическое создание кандидатов выключено")
	}

	ready := true
	for _, check := range checks {
		ready = ready && check.OK
	}
	return &formtemplateapimodels.DiagnosticView{Ready: ready, Checks: checks}, nil
}

func (i impl) SetAutoCreate(id string, status models.AutoCreateStatus) (*formtemplateapimodels.FormTemplateView, error) {
	rec, err := i.getTemplate(id)
	if err != nil {
		return nil, err
	}
	if status == models.AutoCreateEnabled && !rec.MappingValidated {
		return nil, ErrMappingNotValidated
	}
	if err = i.templateStore.Update(id, map[string]interface{}{"auto_create_status": status}); err != nil {
		return nil, err
	}
	log.
		WithField("form_template_id", id).
		WithField("auto_create_status", status).
		Info("изменен режим автоматического создания кандидатов")
	rec.AutoCreateStatus = status
	view := rec.ToModel()
	return &view, nil
}

func (i impl) getServer(id string) (*dbmodels.LimeSurveyServer, error) {
	rec, err := i.serverStore.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrServerNotFound
	}
	return rec, nil
}

func (i impl) getTemplate(id string) (*dbmodels.FormTemplate, error) {
	rec, err := i.templateStore.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrTemplateNotFound
	}
	return rec, nil
}

func requiredKeys(keys []string) []string {
	result := []string{}
	for _, key := range keys {
		if key = strings.TrimSpace(key); key != "" {
			result = append(result, key)
		}
	}
	return result
}
