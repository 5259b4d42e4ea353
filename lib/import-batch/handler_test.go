package importbatch

import (
	"bytes"
	"context"
	"testing"
	"time"

	"admission-backend/db/dbtest"
	candidatestore "admission-backend/lib/candidate/store"
	xlsexport "admission-backend/lib/export/xls"
	limesurveyserverstore "admission-backend/lib/form-template/server-store"
	formtemplatestore "admission-backend/lib/form-template/store"
	importbatchstore "admission-backend/lib/import-batch/store"
	"admission-backend/lib/ingestion"
	"admission-backend/lib/utils/lock"
	"admission-backend/models"
	importbatchapimodels "admission-backend/models/api/import-batch"
	dbmodels "admission-backend/models/db"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// fakeGateway сохраняет пакет с одним кандидатом на каждый ответ источника
type fakeGateway struct {
	ingestion.Provider
	conn    *gorm.DB
	sources []models.ImportSource
}

func (f *fakeGateway) ImportBatch(ctx context.Context, templateID string, source ingestion.ResponseSource) (*dbmodels.ImportBatch, error) {
	f.sources = append(f.sources, source.Kind())
	batch := &dbmodels.ImportBatch{
		FormTemplateID: templateID,
		Source:         source.Kind(),
		State:          models.ImportBatchRunning,
		StartedAt:      time.Now(),
	}
	if err := importbatchstore.NewInstance(f.conn).Create(batch); err != nil {
		return nil, err
	}
	list, err := source.Responses(ctx)
	if err != nil {
		batch.Fail(time.Now(), err)
		_ = importbatchstore.NewInstance(f.conn).Save(batch)
		return batch, ingestion.ResponsesFetchError{Err: err}
	}
	for _, response := range list {
		batch.TotalCount++
		responseID := ingestion.ResponseIDOf(response)
		if responseID == "" {
			batch.AddError("-", errors.New("нет идентификатора ответа"))
			continue
		}
		err = candidatestore.NewInstance(f.conn).Create(&dbmodels.Candidate{
			FormTemplateID: templateID,
			ResponseID:     responseID,
			ImportBatchID:  &batch.ID,
			Status:         models.CandidateStatusNew,
		})
		if err != nil {
			return nil, err
		}
		batch.ImportedCount++
	}
	batch.Finish(time.Now())
	return batch, importbatchstore.NewInstance(f.conn).Save(batch)
}

func xlsxFile(t *testing.T, rows ...[]interface{}) []byte {
	f := excelize.NewFile()
	for idx, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, idx+1)
		require.Nil(t, err)
		require.Nil(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.Nil(t, err)
	return buf.Bytes()
}

func TestHandler(t *testing.T) {
	conn := dbtest.New(t)
	serverID, err := limesurveyserverstore.NewInstance(conn).Create(dbmodels.LimeSurveyServer{Name: "srv", BaseURL: "http://limesurvey.local"})
	require.Nil(t, err)
	templateID, err := formtemplatestore.NewInstance(conn).Create(dbmodels.FormTemplate{ServerID: serverID, SurveyID: "123456"})
	require.Nil(t, err)

	gateway := &fakeGateway{conn: conn}
	handler := NewInstance(
		importbatchstore.NewInstance(conn),
		candidatestore.NewInstance(conn),
		formtemplatestore.NewInstance(conn),
		gateway,
		nil,
		xlsexport.NewInstance(),
		1,
	)

	var batchID string
	t.Run(`ImportFromXlsx check`, func(t *testing.T) {
		_, err := handler.ImportFromXlsx(context.TODO(), templateID, nil)
		require.ErrorIs(t, err, ErrEmptyFile)

		data := xlsxFile(t,
			[]interface{}{"id", "G01Q02"},
			[]interface{}{"15", "Dupont"},
			[]interface{}{"", "Martin"},
			[]interface{}{"16", "Durand"},
		)
		view, err := handler.ImportFromXlsx(context.TODO(), templateID, data)
		require.Nil(t, err)
		require.Equal(t, models.ImportSourceXlsx, view.Source)
		require.Equal(t, models.ImportBatchPartial, view.State)
		require.Equal(t, 3, view.TotalCount)
		require.Equal(t, 2, view.ImportedCount)
		require.Equal(t, []string{"-: нет идентификатора ответа"}, view.ErrorLines)
		batchID = view.ID
	})

	t.Run(`import running check`, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		release := make(chan struct{})
		done := make(chan struct{})
		go func() {
			_, _ = lock.WithDelay(context.Background(), lock.ImportKey(templateID), time.Second, func() error {
				close(done)
				<-release
				return nil
			})
		}()
		<-done
		cancel()
		_, err := handler.ImportFromXlsx(ctx, templateID, []byte("x"))
		require.ErrorIs(t, err, ErrImportRunning)
		close(release)
	})

	t.Run(`ImportFromLimeSurvey check`, func(t *testing.T) {
		_, err := handler.ImportFromLimeSurvey(context.TODO(), "missing")
		require.ErrorIs(t, err, ErrTemplateNotFound)
	})

	t.Run(`Get and List check`, func(t *testing.T) {
		view, err := handler.Get(batchID)
		require.Nil(t, err)
		require.Equal(t, 2, view.ImportedCount)

		_, err = handler.Get("missing")
		require.ErrorIs(t, err, ErrBatchNotFound)

		list, rowCount, err := handler.List(importbatchapimodels.ListFilter{FormTemplateID: templateID})
		require.Nil(t, err)
		require.Equal(t, int64(1), rowCount)
		require.Len(t, list, 1)
	})

	t.Run(`Report check`, func(t *testing.T) {
		buf, err := handler.Report(batchID)
		require.Nil(t, err)
		f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
		require.Nil(t, err)
		defer f.Close()
		rows, err := f.GetRows("Кандидаты")
		require.Nil(t, err)
		require.Len(t, rows, 3)
	})
}
