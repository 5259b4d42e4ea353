package formtemplate

import (
	"context"
	"testing"
	"time"

	"admission-backend/db/dbtest"
	candidatestage "admission-backend/lib/candidate-stage"
	candidatestagestore "admission-backend/lib/candidate-stage/store"
	formschema "admission-backend/lib/form-schema"
	limesurveyserverstore "admission-backend/lib/form-template/server-store"
	formtemplatestore "admission-backend/lib/form-template/store"
	limesurveyclient "admission-backend/lib/limesurvey/client"
	"admission-backend/lib/mapping"
	mappingstore "admission-backend/lib/mapping/store"
	"admission-backend/lib/snippet"
	"admission-backend/models"
	formtemplateapimodels "admission-backend/models/api/form-template"
	limesurveyapimodels "admission-backend/models/api/limesurvey"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeClient struct {
	limesurveyclient.Provider
	connErr error
}

func (f fakeClient) TestConnection(ctx context.Context, conn limesurveyclient.Connection) (string, error) {
	if f.connErr != nil {
		return "", f.connErr
	}
	return "/index.php/admin/remotecontrol", nil
}

func (f fakeClient) ListSurveys(ctx context.Context, conn limesurveyclient.Connection) ([]limesurveyapimodels.SurveyInfo, error) {
	return []limesurveyapimodels.SurveyInfo{
		{SID: "123456", SurveyLSTitle: "Admission 2026", Active: "Y"},
		{SID: "654321", SurveyLSTitle: "Archive", Active: "N"},
	}, nil
}

type fakeIngestor struct {
	questions []models.Question
	err       error
}

func (f *fakeIngestor) Fetch(ctx context.Context, conn limesurveyclient.Connection, surveyID string) ([]models.Question, error) {
	if f.err != nil {
		return nil, formschema.SchemaFetchError{SurveyID: surveyID, Err: f.err}
	}
	return f.questions, nil
}

var testQuestions = []models.Question{
	{Code: "G01Q01", Text: "Nom", Type: models.QuestionTypeText, Required: true},
	{Code: "G01Q02", Text: "Prénom", Type: models.QuestionTypeText},
	{Code: "G01Q03", Text: "Sport préféré", Type: models.QuestionTypeText, Required: true},
}

type env struct {
	handler  Provider
	ingestor *fakeIngestor
	mapping  mapping.Provider
	stages   candidatestage.Provider
}

func newEnv(t *testing.T, conn *gorm.DB, client limesurveyclient.Provider) env {
	templateStore := formtemplatestore.NewInstance(conn)
	mStore := mappingstore.NewInstance(conn)
	mappingHandler := mapping.NewInstance(mStore, templateStore, snippet.NewInstance(time.Second), nil)
	ingestor := &fakeIngestor{questions: testQuestions}
	stages := candidatestage.NewInstance(candidatestagestore.NewInstance(conn), templateStore)
	return env{
		handler:  NewInstance(limesurveyserverstore.NewInstance(conn), templateStore, mStore, client, ingestor, mappingHandler, stages),
		ingestor: ingestor,
		mapping:  mappingHandler,
		stages:   stages,
	}
}

func serverData() formtemplateapimodels.ServerData {
	return formtemplateapimodels.ServerData{
		Name:        " main ",
		BaseURL:     "https://survey.example.com/",
		APIUsername: "admin",
		APIPassword: "secret",
	}
}

func TestServers(t *testing.T) {
	t.Run(`server lifecycle check`, func(t *testing.T) {
		e := newEnv(t, dbtest.New(t), fakeClient{})
		id, err := e.handler.CreateServer(serverData())
		require.Nil(t, err)

		view, err := e.handler.GetServer(id)
		require.Nil(t, err)
		require.Equal(t, "main", view.Name)
		require.Equal(t, "https://survey.example.com", view.BaseURL)
		require.Equal(t, models.ConnectionNotTested, view.ConnectionStatus)

		token, err := e.handler.GetWebhookToken(id)
		require.Nil(t, err)
		require.NotEmpty(t, token.WebhookToken)
		newToken, err := e.handler.RegenerateToken(id)
		require.Nil(t, err)
		require.NotEqual(t, token.WebhookToken, newToken.WebhookToken)

		view, err = e.handler.TestConnection(context.TODO(), id)
		require.Nil(t, err)
		require.Equal(t, models.ConnectionConnected, view.ConnectionStatus)
		require.Equal(t, "/index.php/admin/remotecontrol", view.RPCPath)
		require.NotEmpty(t, view.LastConnectionTest)

		update := serverData()
		update.APIPassword = ""
		update.Name = "renamed"
		require.Nil(t, e.handler.UpdateServer(id, update))
		view, err = e.handler.GetServer(id)
		require.Nil(t, err)
		require.Equal(t, "renamed", view.Name)
		require.Equal(t, models.ConnectionNotTested, view.ConnectionStatus)

		surveys, err := e.handler.ListRemoteSurveys(context.TODO(), id)
		require.Nil(t, err)
		require.Len(t, surveys, 2)
		require.True(t, surveys[0].Active)
		require.False(t, surveys[1].Active)

		list, err := e.handler.ListServers()
		require.Nil(t, err)
		require.Len(t, list, 1)

		require.Nil(t, e.handler.DeleteServer(id))
		_, err = e.handler.GetServer(id)
		require.ErrorIs(t, err, ErrServerNotFound)
	})

	t.Run(`SyncForms check`, func(t *testing.T) {
		e := newEnv(t, dbtest.New(t), fakeClient{})
		serverID, err := e.handler.CreateServer(serverData())
		require.Nil(t, err)
		existingID, err := e.handler.Create(formtemplateapimodels.FormTemplateData{ServerID: serverID, SurveyID: "123456"})
		require.Nil(t, err)

		result, err := e.handler.SyncForms(context.TODO(), serverID)
		require.Nil(t, err)
		require.Equal(t, 2, result.Total)
		require.Equal(t, 1, result.Created)
		require.Equal(t, 1, result.Updated)
		require.Empty(t, result.Errors)

		list, err := e.handler.List(serverID)
		require.Nil(t, err)
		require.Len(t, list, 2)
		existing, err := e.handler.Get(existingID)
		require.Nil(t, err)
		require.Equal(t, "Admission 2026", existing.Title)
		for _, template := range list {
			if template.SurveyID == "654321" {
				require.Equal(t, "Archive", template.Title)
				require.Equal(t, models.SyncStatusDraft, template.SyncStatus)
				stages, err := e.stages.List(template.ID)
				require.Nil(t, err)
				require.Len(t, stages, 10)
			}
		}

		result, err = e.handler.SyncForms(context.TODO(), serverID)
		require.Nil(t, err)
		require.Equal(t, 0, result.Created)
		require.Equal(t, 0, result.Updated)

		_, err = e.handler.SyncForms(context.TODO(), "missing")
		require.ErrorIs(t, err, ErrServerNotFound)
	})

	t.Run(`failed connection check`, func(t *testing.T) {
		e := newEnv(t, dbtest.New(t), fakeClient{connErr: errors.New("connection refused")})
		id, err := e.handler.CreateServer(serverData())
		require.Nil(t, err)
		view, err := e.handler.TestConnection(context.TODO(), id)
		require.Nil(t, err)
		require.Equal(t, models.ConnectionFailed, view.ConnectionStatus)
		require.Equal(t, "connection refused", view.ConnectionError)
	})

	t.Run(`server in use check`, func(t *testing.T) {
		e := newEnv(t, dbtest.New(t), fakeClient{})
		serverID, err := e.handler.CreateServer(serverData())
		require.Nil(t, err)
		_, err = e.handler.Create(formtemplateapimodels.FormTemplateData{ServerID: serverID, SurveyID: "123456"})
		require.Nil(t, err)
		require.ErrorIs(t, e.handler.DeleteServer(serverID), ErrServerInUse)
	})
}

func TestTemplates(t *testing.T) {
	t.Run(`Create check`, func(t *testing.T) {
		e := newEnv(t, dbtest.New(t), fakeClient{})
		serverID, err := e.handler.CreateServer(serverData())
		require.Nil(t, err)

		_, err = e.handler.Create(formtemplateapimodels.FormTemplateData{ServerID: "missing", SurveyID: "123456"})
		require.ErrorIs(t, err, ErrServerNotFound)

		id, err := e.handler.Create(formtemplateapimodels.FormTemplateData{
			ServerID:             serverID,
			SurveyID:             " 123456 ",
			RequiredResponseKeys: []string{"G01Q01", " "},
		})
		require.Nil(t, err)
		_, err = e.handler.Create(formtemplateapimodels.FormTemplateData{ServerID: serverID, SurveyID: "123456"})
		require.ErrorIs(t, err, ErrTemplateExists)

		view, err := e.handler.Get(id)
		require.Nil(t, err)
		require.Equal(t, "123456", view.SurveyID)
		require.Equal(t, "Анкета 123456", view.Title)
		require.Equal(t, models.SyncStatusDraft, view.SyncStatus)
		require.Equal(t, models.AutoCreateDisabled, view.AutoCreateStatus)
		require.Equal(t, []string{"G01Q01"}, view.RequiredResponseKeys)

		mappingView, err := e.mapping.Get(id)
		require.Nil(t, err)
		require.Equal(t, models.MappingStateDraft, mappingView.State)

		stages, err := e.stages.List(id)
		require.Nil(t, err)
		require.Len(t, stages, 10)
		require.True(t, stages[0].IsDefault)

		require.Nil(t, e.handler.Update(id, formtemplateapimodels.FormTemplateData{Title: "Admission"}))
		list, err := e.handler.List(serverID)
		require.Nil(t, err)
		require.Len(t, list, 1)
		require.Equal(t, "Admission", list[0].Title)
		require.Empty(t, list[0].RequiredResponseKeys)

		require.Nil(t, e.handler.Delete(id))
		_, err = e.handler.Get(id)
		require.ErrorIs(t, err, ErrTemplateNotFound)
	})

	t.Run(`Sync check`, func(t *testing.T) {
		e := newEnv(t, dbtest.New(t), fakeClient{})
		serverID, err := e.handler.CreateServer(serverData())
		require.Nil(t, err)
		id, err := e.handler.Create(formtemplateapimodels.FormTemplateData{ServerID: serverID, SurveyID: "123456"})
		require.Nil(t, err)

		result, err := e.handler.Sync(context.TODO(), id)
		require.Nil(t, err)
		require.Equal(t, 3, result.QuestionCount)
		require.Equal(t, 3, result.NewLines)

		view, err := e.handler.Get(id)
		require.Nil(t, err)
		require.Equal(t, models.SyncStatusSynced, view.SyncStatus)
		require.Len(t, view.Questions, 3)
		require.NotEmpty(t, view.LastSyncDate)

		result, err = e.handler.Sync(context.TODO(), id)
		require.Nil(t, err)
		require.Equal(t, 0, result.NewLines)

		e.ingestor.err = errors.New("timeout")
		_, err = e.handler.Sync(context.TODO(), id)
		var fetchErr formschema.SchemaFetchError
		require.ErrorAs(t, err, &fetchErr)
		view, err = e.handler.Get(id)
		require.Nil(t, err)
		require.Equal(t, models.SyncStatusError, view.SyncStatus)
		require.Contains(t, view.SyncError, "timeout")
		// схема прошлой синхронизации сохраняется
		require.Len(t, view.Questions, 3)
	})

	t.Run(`Diagnose check`, func(t *testing.T) {
		e := newEnv(t, dbtest.New(t), fakeClient{})
		serverID, err := e.handler.CreateServer(serverData())
		require.Nil(t, err)
		id, err := e.handler.Create(formtemplateapimodels.FormTemplateData{ServerID: serverID, SurveyID: "123456"})
		require.Nil(t, err)

		diag, err := e.handler.Diagnose(id)
		require.Nil(t, err)
		require.False(t, diag.Ready)
		require.Len(t, diag.Checks, 5)
		require.Equal(t, "server", diag.Checks[0].Name)
		require.False(t, diag.Checks[0].OK)

		_, err = e.handler.TestConnection(context.TODO(), serverID)
		require.Nil(t, err)
		_, err = e.handler.Sync(context.TODO(), id)
		require.Nil(t, err)
		diag, err = e.handler.Diagnose(id)
		require.Nil(t, err)
		require.True(t, diag.Checks[0].OK)
		require.True(t, diag.Checks[1].OK)
		// Sport préféré обязателен, но цели для него нет
		require.False(t, diag.Checks[3].OK)
		require.Contains(t, diag.Checks[3].Message, "G01Q03")
	})

	t.Run(`SetAutoCreate check`, func(t *testing.T) {
		e := newEnv(t, dbtest.New(t), fakeClient{})
		serverID, err := e.handler.CreateServer(serverData())
		require.Nil(t, err)
		id, err := e.handler.Create(formtemplateapimodels.FormTemplateData{ServerID: serverID, SurveyID: "123456"})
		require.Nil(t, err)

		_, err = e.handler.SetAutoCreate(id, models.AutoCreateEnabled)
		require.ErrorIs(t, err, ErrMappingNotValidated)

		view, err := e.handler.SetAutoCreate(id, models.AutoCreatePaused)
		require.Nil(t, err)
		require.Equal(t, models.AutoCreatePaused, view.AutoCreateStatus)

		_, err = e.handler.SetAutoCreate("missing", models.AutoCreatePaused)
		require.ErrorIs(t, err, ErrTemplateNotFound)
	})
}
