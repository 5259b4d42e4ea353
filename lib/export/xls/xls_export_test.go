package xlsexport

import (
	"bytes"
	"testing"
	"time"

	"admission-backend/models"
	dbmodels "admission-backend/models/db"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportBatchReport(t *testing.T) {
	t.Run(`report check`, func(t *testing.T) {
		started := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
		batch := dbmodels.ImportBatch{
			FormTemplateID: "tpl",
			Source:         models.ImportSourceLimeSurvey,
			State:          models.ImportBatchRunning,
			StartedAt:      started,
			TotalCount:     3,
			ImportedCount:  1,
			SkippedCount:   1,
		}
		batch.ID = "batch-1"
		batch.AddError("17", errors.New("поле bac_year: не число"))
		batch.Finish(started.Add(2 * time.Second))

		buf, err := impl{}.ExportBatchReport(batch, []dbmodels.Candidate{
			{ResponseID: "15", FirstName: "Jean", LastName: "Dupont", Status: models.CandidateStatusNew},
		})
		require.Nil(t, err)

		f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
		require.Nil(t, err)
		defer f.Close()
		require.Equal(t, []string{"Итог", "Ошибки", "Кандидаты"}, f.GetSheetList())

		summary, err := f.GetRows("Итог")
		require.Nil(t, err)
		require.Equal(t, []string{"Пакет", "batch-1"}, summary[1])
		require.Equal(t, []string{"Состояние", "partial"}, summary[3])

		errorRows, err := f.GetRows("Ошибки")
		require.Nil(t, err)
		require.Len(t, errorRows, 2)
		require.Equal(t, []string{"17", "поле bac_year: не число"}, errorRows[1])

		candidateRows, err := f.GetRows("Кандидаты")
		require.Nil(t, err)
		require.Equal(t, "Jean Dupont", candidateRows[1][1])
	})
}

func TestReadResponses(t *testing.T) {
	t.Run(`read check`, func(t *testing.T) {
		f := excelize.NewFile()
		require.Nil(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"id", "G01Q02", "G01Q03", ""}))
		require.Nil(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"15", "Dupont", "Jean", "ignored"}))
		require.Nil(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"", "", ""}))
		require.Nil(t, f.SetSheetRow("Sheet1", "A4", &[]interface{}{"16", " Martin ", ""}))
		buf, err := f.WriteToBuffer()
		require.Nil(t, err)

		list, err := impl{}.ReadResponses(buf)
		require.Nil(t, err)
		require.Equal(t, []map[string]any{
			{"id": "15", "G01Q02": "Dupont", "G01Q03": "Jean"},
			{"id": "16", "G01Q02": "Martin"},
		}, list)
	})

	t.Run(`broken file check`, func(t *testing.T) {
		_, err := impl{}.ReadResponses(bytes.NewReader([]byte("not a zip")))
		require.Error(t, err)
	})
}
