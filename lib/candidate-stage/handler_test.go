package candidatestage

import (
	"testing"

	"admission-backend/db/dbtest"
	candidatestagestore "admission-backend/lib/candidate-stage/store"
	limesurveyserverstore "admission-backend/lib/form-template/server-store"
	formtemplatestore "admission-backend/lib/form-template/store"
	"admission-backend/models"
	candidatestageapimodels "admission-backend/models/api/candidate-stage"
	dbmodels "admission-backend/models/db"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func createTemplate(t *testing.T, conn *gorm.DB, surveyID string) string {
	serverID, err := limesurveyserverstore.NewInstance(conn).Create(dbmodels.LimeSurveyServer{
		Name:    "srv",
		BaseURL: "http://limesurvey.local",
	})
	require.Nil(t, err)
	id, err := formtemplatestore.NewInstance(conn).Create(dbmodels.FormTemplate{
		ServerID:             serverID,
		SurveyID:             surveyID,
		Title:                "Admission 2026",
		SyncStatus:           models.SyncStatusDraft,
		AutoCreateStatus:     models.AutoCreateDisabled,
		RequiredResponseKeys: datatypes.NewJSONType([]string{}),
	})
	require.Nil(t, err)
	return id
}

func defaultCount(list []candidatestageapimodels.StageView) int {
	count := 0
	for _, stage := range list {
		if stage.IsDefault {
			count++
		}
	}
	return count
}

func TestHandler(t *testing.T) {
	t.Run(`CreateDefaults check`, func(t *testing.T) {
		conn := dbtest.New(t)
		templateID := createTemplate(t, conn, "123456")
		handler := NewInstance(candidatestagestore.NewInstance(conn), formtemplatestore.NewInstance(conn))

		require.Nil(t, handler.CreateDefaults(templateID))
		require.Nil(t, handler.CreateDefaults(templateID))

		list, err := handler.List(templateID)
		require.Nil(t, err)
		require.Len(t, list, 10)
		require.Equal(t, "new", list[0].Code)
		require.True(t, list[0].IsDefault)
		require.Equal(t, 1, defaultCount(list))
		require.True(t, list[9].Fold)

		_, err = handler.List("missing")
		require.ErrorIs(t, err, ErrTemplateNotFound)
	})

	t.Run(`single default stage check`, func(t *testing.T) {
		conn := dbtest.New(t)
		templateID := createTemplate(t, conn, "123456")
		otherID := createTemplate(t, conn, "654321")
		handler := NewInstance(candidatestagestore.NewInstance(conn), formtemplatestore.NewInstance(conn))

		firstID, err := handler.Create(templateID, candidatestageapimodels.StageData{Code: "new", Name: "Новая", Sequence: 1})
		require.Nil(t, err)
		secondID, err := handler.Create(templateID, candidatestageapimodels.StageData{Code: "review", Name: "Проверка", Sequence: 2})
		require.Nil(t, err)
		_, err = handler.Create(templateID, candidatestageapimodels.StageData{Code: "done", Name: "Готово", Sequence: 3, IsDefault: true})
		require.ErrorIs(t, err, ErrDefaultExists)
		_, err = handler.Create(otherID, candidatestageapimodels.StageData{Code: "new", Name: "Новая", IsDefault: true})
		require.Nil(t, err)

		list, err := handler.List(templateID)
		require.Nil(t, err)
		require.Len(t, list, 2)
		require.Equal(t, firstID, list[0].ID)
		require.True(t, list[0].IsDefault)
		require.Equal(t, 1, defaultCount(list))

		view, err := handler.SetDefault(secondID)
		require.Nil(t, err)
		require.True(t, view.IsDefault)
		list, err = handler.List(templateID)
		require.Nil(t, err)
		require.Equal(t, 1, defaultCount(list))
		require.False(t, list[0].IsDefault)

		other, err := handler.List(otherID)
		require.Nil(t, err)
		require.Equal(t, 1, defaultCount(other))

		require.ErrorIs(t, handler.Delete(secondID), ErrDefaultStage)
		_, err = handler.SetDefault("missing")
		require.ErrorIs(t, err, ErrStageNotFound)
	})

	t.Run(`Update and Delete check`, func(t *testing.T) {
		conn := dbtest.New(t)
		templateID := createTemplate(t, conn, "123456")
		handler := NewInstance(candidatestagestore.NewInstance(conn), formtemplatestore.NewInstance(conn))

		_, err := handler.Create(templateID, candidatestageapimodels.StageData{Code: "new", Name: "Новая", Sequence: 1})
		require.Nil(t, err)
		stageID, err := handler.Create(templateID, candidatestageapimodels.StageData{Code: "review", Name: "Проверка", Sequence: 2})
		require.Nil(t, err)

		view, err := handler.Update(stageID, candidatestageapimodels.StageData{Code: "review", Name: " Проверка документов ", Sequence: 5, Fold: true})
		require.Nil(t, err)
		require.Equal(t, "Проверка документов", view.Name)
		require.Equal(t, 5, view.Sequence)
		require.True(t, view.Fold)
		require.False(t, view.IsDefault)

		require.Nil(t, conn.Create(&dbmodels.Candidate{
			FormTemplateID: templateID,
			ResponseID:     "1",
			Status:         models.CandidateStatusNew,
			StageID:        &stageID,
		}).Error)
		list, err := handler.List(templateID)
		require.Nil(t, err)
		require.Equal(t, int64(1), list[1].CandidateCount)
		require.ErrorIs(t, handler.Delete(stageID), ErrStageInUse)

		require.Nil(t, conn.Model(&dbmodels.Candidate{}).Where("response_id = ?", "1").Update("stage_id", nil).Error)
		require.Nil(t, handler.Delete(stageID))
		list, err = handler.List(templateID)
		require.Nil(t, err)
		require.Len(t, list, 1)

		require.Nil(t, handler.DeleteAll(templateID))
		list, err = handler.List(templateID)
		require.Nil(t, err)
		require.Empty(t, list)
	})
}
