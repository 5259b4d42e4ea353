package mapping

import (
	"context"
	"testing"
	"time"

	"admission-backend/db/dbtest"
	formtemplatestore "admission-backend/lib/form-template/store"
	limesurveyserverstore "admission-backend/lib/form-template/server-store"
	mappingstore "admission-backend/lib/mapping/store"
	"admission-backend/lib/snippet"
	"admission-backend/models"
	mappingapimodels "admission-backend/models/api/mapping"
	dbmodels "admission-backend/models/db"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fakeReprocessor struct {
	calls []string
}

func (f *fakeReprocessor) Reprocess(ctx context.Context, templateID string) (int, error) {
	f.calls = append(f.calls, templateID)
	return 0, nil
}

func createTemplate(t *testing.T, conn *gorm.DB, status models.AutoCreateStatus) string {
	serverID, err := limesurveyserverstore.NewInstance(conn).Create(dbmodels.LimeSurveyServer{
		Name:    "srv",
		BaseURL: "http://limesurvey.local",
	})
	require.Nil(t, err)
	templateID, err := formtemplatestore.NewInstance(conn).Create(dbmodels.FormTemplate{
		ServerID:         serverID,
		SurveyID:         "123456",
		Title:            "Admission 2026",
		Questions:        datatypes.NewJSONType(testQuestions),
		SyncStatus:       models.SyncStatusSynced,
		AutoCreateStatus: status,
	})
	require.Nil(t, err)
	return templateID
}

func TestHandler(t *testing.T) {
	t.Run(`Validate check`, func(t *testing.T) {
		conn := dbtest.New(t)
		templateID := createTemplate(t, conn, models.AutoCreateDisabled)
		reprocessor := &fakeReprocessor{}
		templateStore := formtemplatestore.NewInstance(conn)
		handler := NewInstance(mappingstore.NewInstance(conn), templateStore, snippet.NewInstance(time.Second), reprocessor)

		stats, err := handler.Regenerate(templateID)
		require.Nil(t, err)
		require.Equal(t, 5, stats.NewLines)

		view, err := handler.Validate(context.TODO(), templateID)
		require.Nil(t, err)
		require.Equal(t, models.MappingStateValidated, view.State)
		require.Equal(t, 5, view.Stats.Total)
		require.Equal(t, []string{templateID}, reprocessor.calls)

		template, err := templateStore.GetByID(templateID)
		require.Nil(t, err)
		require.True(t, template.MappingValidated)
		require.Equal(t, models.AutoCreateEnabled, template.AutoCreateStatus)

		view, err = handler.ResetToDraft(templateID)
		require.Nil(t, err)
		require.Equal(t, models.MappingStateDraft, view.State)
		template, err = templateStore.GetByID(templateID)
		require.Nil(t, err)
		require.False(t, template.MappingValidated)
		require.Equal(t, models.AutoCreateDisabled, template.AutoCreateStatus)
	})

	t.Run(`Validate paused check`, func(t *testing.T) {
		conn := dbtest.New(t)
		templateID := createTemplate(t, conn, models.AutoCreatePaused)
		templateStore := formtemplatestore.NewInstance(conn)
		handler := NewInstance(mappingstore.NewInstance(conn), templateStore, snippet.NewInstance(time.Second), nil)

		_, err := handler.Regenerate(templateID)
		require.Nil(t, err)
		_, err = handler.Validate(context.TODO(), templateID)
		require.Nil(t, err)
		template, err := templateStore.GetByID(templateID)
		require.Nil(t, err)
		require.Equal(t, models.AutoCreatePaused, template.AutoCreateStatus)
	})

	t.Run(`Validate empty check`, func(t *testing.T) {
		conn := dbtest.New(t)
		templateID := createTemplate(t, conn, models.AutoCreateDisabled)
		handler := NewInstance(mappingstore.NewInstance(conn), formtemplatestore.NewInstance(conn), snippet.NewInstance(time.Second), nil)

		_, err := handler.Validate(context.TODO(), templateID)
		var validationErr ValidationError
		require.ErrorAs(t, err, &validationErr)

		view, err := handler.Get(templateID)
		require.Nil(t, err)
		require.Equal(t, models.MappingStateDraft, view.State)

		_, err = handler.Get("missing")
		require.ErrorIs(t, err, ErrTemplateNotFound)
	})

	t.Run(`line operations check`, func(t *testing.T) {
		conn := dbtest.New(t)
		templateID := createTemplate(t, conn, models.AutoCreateDisabled)
		handler := NewInstance(mappingstore.NewInstance(conn), formtemplatestore.NewInstance(conn), snippet.NewInstance(time.Second), nil)
		_, err := handler.Regenerate(templateID)
		require.Nil(t, err)
		view, err := handler.Get(templateID)
		require.Nil(t, err)

		var sportID, scanID string
		for _, line := range view.Lines {
			switch line.QuestionCode {
			case "G01Q04":
				sportID = line.ID
			case "G02Q01":
				scanID = line.ID
			}
		}

		target := "x_sport"
		kind := models.MappingKindTransform
		transform := `upper(value)`
		line, err := handler.UpdateLine(templateID, sportID, mappingapimodels.LineUpdate{
			TargetField:   &target,
			MappingKind:   &kind,
			TransformCode: &transform,
		})
		require.Nil(t, err)
		require.Equal(t, models.CustomField("sport"), line.TargetField)
		require.Equal(t, models.MappingLineToVerify, line.Status)
		require.Equal(t, 50, line.ConfidenceScore)

		broken := `upper(`
		_, err = handler.UpdateLine(templateID, sportID, mappingapimodels.LineUpdate{TransformCode: &broken})
		var compileErr snippet.CompileError
		require.ErrorAs(t, err, &compileErr)

		_, err = handler.UpdateLine(templateID, scanID, mappingapimodels.LineUpdate{MappingKind: &kind, TransformCode: &transform})
		require.ErrorIs(t, err, dbmodels.ErrAttachmentKind)

		result, err := handler.TestLine(context.TODO(), templateID, sportID, "tennis")
		require.Nil(t, err)
		require.Equal(t, "TENNIS", result.Value)
		require.True(t, result.IsValid)

		line, err = handler.LineAction(templateID, sportID, LineActionValidate)
		require.Nil(t, err)
		require.Equal(t, models.MappingLineValidated, line.Status)
		line, err = handler.LineAction(templateID, sportID, LineActionReset)
		require.Nil(t, err)
		require.Equal(t, models.MappingLineDraft, line.Status)

		options, err := handler.FieldOptions(templateID)
		require.Nil(t, err)
		require.Len(t, options, len(models.KnownTargetFields())+1)
		require.True(t, options[len(options)-1].Custom)

		suggestions, err := handler.LineSuggestions(templateID, scanID)
		require.Nil(t, err)
		require.Equal(t, models.FieldBacScan, suggestions[0].TargetField)

		otherTemplateID := createTemplateWithSurvey(t, conn, "654321")
		_, err = handler.LineAction(otherTemplateID, sportID, LineActionValidate)
		require.ErrorIs(t, err, ErrLineNotFound)
	})

	t.Run(`bulk operations check`, func(t *testing.T) {
		conn := dbtest.New(t)
		templateID := createTemplate(t, conn, models.AutoCreateDisabled)
		handler := NewInstance(mappingstore.NewInstance(conn), formtemplatestore.NewInstance(conn), snippet.NewInstance(time.Second), nil)
		_, err := handler.Regenerate(templateID)
		require.Nil(t, err)

		result, err := handler.ValidateHighConfidence(templateID)
		require.Nil(t, err)
		require.Equal(t, 0, result.Affected)

		result, err = handler.ApplySuggestions(templateID)
		require.Nil(t, err)
		require.Equal(t, 0, result.Affected)

		result, err = handler.ValidateAllMapped(templateID)
		require.Nil(t, err)
		require.Equal(t, 0, result.Affected)
	})
}

func createTemplateWithSurvey(t *testing.T, conn *gorm.DB, surveyID string) string {
	serverID, err := limesurveyserverstore.NewInstance(conn).Create(dbmodels.LimeSurveyServer{
		Name:    "srv-" + surveyID,
		BaseURL: "http://limesurvey.local",
	})
	require.Nil(t, err)
	templateID, err := formtemplatestore.NewInstance(conn).Create(dbmodels.FormTemplate{
		ServerID: serverID,
		SurveyID: surveyID,
	})
	require.Nil(t, err)
	return templateID
}
