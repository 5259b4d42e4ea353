package candidate

import (
	"context"
	"testing"

	"admission-backend/db/dbtest"
	candidatestagestore "admission-backend/lib/candidate-stage/store"
	candidatestore "admission-backend/lib/candidate/store"
	filestorage "admission-backend/lib/file-storage"
	"admission-backend/models"
	candidateapimodels "admission-backend/models/api/candidate"
	dbmodels "admission-backend/models/db"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeFiles struct {
	filestorage.Provider
	objects map[string][]byte
}

func (f fakeFiles) Get(ctx context.Context, objectKey string) ([]byte, error) {
	data, ok := f.objects[objectKey]
	if !ok {
		return nil, filestorage.ErrNotConfigured
	}
	return data, nil
}

func TestHandler(t *testing.T) {
	conn := dbtest.New(t)
	store := candidatestore.NewInstance(conn)
	files := fakeFiles{objects: map[string][]byte{"candidates/c1/scan.pdf": []byte("%PDF")}}
	stageStore := candidatestagestore.NewInstance(conn)
	handler := NewInstance(store, stageStore, files)

	rec := &dbmodels.Candidate{
		FormTemplateID: "tpl",
		ResponseID:     "17",
		Status:         models.CandidateStatusNew,
		FirstName:      "Amine",
		LastName:       "Benali",
		Email:          "amine@example.com",
	}
	require.Nil(t, store.Create(rec))
	require.Nil(t, store.Create(&dbmodels.Candidate{
		FormTemplateID: "tpl",
		ResponseID:     "18",
		Status:         models.CandidateStatusNew,
		FirstName:      "Sara",
	}))
	scan := &dbmodels.CandidateAttachment{CandidateID: rec.ID, Name: "scan.pdf", MimeType: "application/pdf", ObjectKey: "candidates/c1/scan.pdf"}
	require.Nil(t, store.AddAttachment(scan))
	metaOnly := &dbmodels.CandidateAttachment{CandidateID: rec.ID, Name: "photo.jpg"}
	require.Nil(t, store.AddAttachment(metaOnly))

	t.Run(`List check`, func(t *testing.T) {
		list, rowCount, err := handler.List(candidateapimodels.ListFilter{FormTemplateID: "tpl"})
		require.Nil(t, err)
		require.Equal(t, int64(2), rowCount)
		require.Len(t, list, 2)

		list, rowCount, err = handler.List(candidateapimodels.ListFilter{Search: "benali"})
		require.Nil(t, err)
		require.Equal(t, int64(1), rowCount)
		require.Equal(t, "Amine Benali", list[0].Name)
	})

	t.Run(`Get check`, func(t *testing.T) {
		view, err := handler.Get(rec.ID)
		require.Nil(t, err)
		require.Equal(t, "17", view.ResponseID)
		require.Len(t, view.Attachments, 2)

		_, err = handler.Get("missing")
		require.ErrorIs(t, err, ErrCandidateNotFound)
	})

	t.Run(`ChangeStatus check`, func(t *testing.T) {
		_, err := handler.ChangeStatus(rec.ID, models.CandidateStatusAccepted)
		var statusErr StatusError
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, models.CandidateStatusNew, statusErr.From)

		view, err := handler.ChangeStatus(rec.ID, models.CandidateStatusComplete)
		require.Nil(t, err)
		require.Equal(t, models.CandidateStatusComplete, view.Status)

		view, err = handler.ChangeStatus(rec.ID, models.CandidateStatusComplete)
		require.Nil(t, err)
		require.Equal(t, models.CandidateStatusComplete, view.Status)

		stored, err := store.GetByID(rec.ID)
		require.Nil(t, err)
		require.Equal(t, models.CandidateStatusComplete, stored.Status)
	})

	t.Run(`GetAttachment check`, func(t *testing.T) {
		file, err := handler.GetAttachment(context.TODO(), rec.ID, scan.ID)
		require.Nil(t, err)
		require.Equal(t, "scan.pdf", file.Name)
		require.Equal(t, []byte("%PDF"), file.Data)

		_, err = handler.GetAttachment(context.TODO(), rec.ID, metaOnly.ID)
		require.ErrorIs(t, err, ErrAttachmentNoFile)

		_, err = handler.GetAttachment(context.TODO(), "other", scan.ID)
		require.ErrorIs(t, err, ErrAttachmentNotFound)
	})

	t.Run(`evaluation workflow check`, func(t *testing.T) {
		view, err := handler.Get(rec.ID)
		require.Nil(t, err)
		require.Equal(t, models.EvaluationPending, view.EvaluationStatus)

		_, err = handler.CompleteEvaluation(rec.ID)
		var evalErr EvaluationError
		require.ErrorAs(t, err, &evalErr)
		_, err = handler.ResetEvaluation(rec.ID)
		require.ErrorAs(t, err, &evalErr)
		_, err = handler.Evaluate(rec.ID, candidateapimodels.EvaluationRequest{AcademicScore: score(15)})
		require.ErrorAs(t, err, &evalErr)

		started, err := handler.StartEvaluation(rec.ID)
		require.Nil(t, err)
		require.Equal(t, models.EvaluationInProgress, started.EvaluationStatus)
		_, err = handler.StartEvaluation(rec.ID)
		require.ErrorAs(t, err, &evalErr)

		evaluated, err := handler.Evaluate(rec.ID, candidateapimodels.EvaluationRequest{AcademicScore: score(15), MotivationScore: score(12)})
		require.Nil(t, err)
		// опыт не выставлен и в среднее не входит
		require.InDelta(t, 13.5, evaluated.EvaluationScore, 0.0001)
		_, err = handler.CompleteEvaluation(rec.ID)
		require.ErrorAs(t, err, &evalErr)

		note := "сильная мотивация"
		evaluated, err = handler.Evaluate(rec.ID, candidateapimodels.EvaluationRequest{ExperienceScore: score(9), EvaluationNote: &note})
		require.Nil(t, err)
		require.InDelta(t, 12.0, evaluated.EvaluationScore, 0.0001)

		completed, err := handler.CompleteEvaluation(rec.ID)
		require.Nil(t, err)
		require.Equal(t, models.EvaluationCompleted, completed.EvaluationStatus)
		require.NotEmpty(t, completed.EvaluatedAt)

		reset, err := handler.ResetEvaluation(rec.ID)
		require.Nil(t, err)
		require.Equal(t, models.EvaluationPending, reset.EvaluationStatus)
		require.Equal(t, 0.0, reset.EvaluationScore)
		require.Empty(t, reset.EvaluatedAt)

		stored, err := store.GetByID(rec.ID)
		require.Nil(t, err)
		require.Nil(t, stored.AcademicScore)
		require.Empty(t, stored.EvaluationNote)

		_, err = handler.StartEvaluation("missing")
		require.ErrorIs(t, err, ErrCandidateNotFound)
	})

	t.Run(`is_complete check`, func(t *testing.T) {
		view, err := handler.Get(rec.ID)
		require.Nil(t, err)
		require.False(t, view.IsComplete)

		require.Nil(t, store.Update(rec.ID, map[string]interface{}{
			"response_data":       datatypes.JSON(`{"G01Q01":"Benali"}`),
			"payment_confirmed":   true,
			"documents_validated": true,
		}))
		view, err = handler.Get(rec.ID)
		require.Nil(t, err)
		require.False(t, view.IsComplete)

		require.Nil(t, store.Update(rec.ID, map[string]interface{}{"identity_verified": true}))
		view, err = handler.Get(rec.ID)
		require.Nil(t, err)
		require.True(t, view.IsComplete)

		list, _, err := handler.List(candidateapimodels.ListFilter{Search: "benali"})
		require.Nil(t, err)
		require.True(t, list[0].IsComplete)
	})

	t.Run(`ChangeStage check`, func(t *testing.T) {
		stage := &dbmodels.CandidateStage{FormTemplateID: "tpl", Code: "interview", Name: "Собеседование", Sequence: 6}
		require.Nil(t, stageStore.Create(stage))
		foreign := &dbmodels.CandidateStage{FormTemplateID: "other", Code: "interview", Name: "Собеседование"}
		require.Nil(t, stageStore.Create(foreign))

		view, err := handler.ChangeStage(rec.ID, stage.ID)
		require.Nil(t, err)
		require.Equal(t, stage.ID, view.StageID)

		_, err = handler.ChangeStage(rec.ID, foreign.ID)
		require.ErrorIs(t, err, ErrStageNotFound)
		_, err = handler.ChangeStage(rec.ID, "missing")
		require.ErrorIs(t, err, ErrStageNotFound)

		list, rowCount, err := handler.List(candidateapimodels.ListFilter{StageID: stage.ID})
		require.Nil(t, err)
		require.Equal(t, int64(1), rowCount)
		require.Equal(t, rec.ID, list[0].ID)
	})
}

func score(value float64) *float64 {
	return &value
}
