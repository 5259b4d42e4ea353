package xlsexport

import (
	"bytes"
	"io"
	"strings"
	"time"

	dbmodels "admission-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

type Provider interface {
	// ExportBatchReport итог пакета импорта и полный журнал ошибок
	ExportBatchReport(batch dbmodels.ImportBatch, candidates []dbmodels.Candidate) (*bytes.Buffer, error)
	// ReadResponses ответы анкеты из первого листа: первая строка - коды вопросов
	ReadResponses(r io.Reader) ([]map[string]any, error)
}

var Instance Provider

func NewHandler() {
	Instance = NewInstance()
}

func NewInstance() Provider {
	return impl{}
}

type impl struct{}

var (
	summaryHeaders   = []string{"Показатель", "Значение"}
	errorHeaders     = []string{"Номер ответа", "Ошибка"}
	candidateHeaders = []string{"Номер ответа", "ФИО", "Email", "Статус", "Дата отправки", "Ожидает сопоставления"}
)

const reportDateFormat = "02.01.2006 15:04:05"

const (
	sheetSummary    = "Итог"
	sheetErrors     = "Ошибки"
	sheetCandidates = "Кандидаты"
)

func (i impl) ExportBatchReport(batch dbmodels.ImportBatch, candidates []dbmodels.Candidate) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Error("ошибка закрытия файла")
		}
	}()
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}
	if err := writeSummary(f, sheetSummary, batch); err != nil {
		return nil, errors.Wrap(err, "ошибка формирования итога пакета в xlsx")
	}
	if _, err := f.NewSheet(sheetErrors); err != nil {
		return nil, err
	}
	if err := writeErrors(f, sheetErrors, batch.ErrorLines(0)); err != nil {
		return nil, errors.Wrap(err, "ошибка формирования журнала ошибок в xlsx")
	}
	if _, err := f.NewSheet(sheetCandidates); err != nil {
		return nil, err
	}
	if err := writeCandidates(f, sheetCandidates, candidates); err != nil {
		return nil, errors.Wrap(err, "ошибка формирования списка кандидатов в xlsx")
	}
	return f.WriteToBuffer()
}

func writeSummary(f *excelize.File, sheet string, batch dbmodels.ImportBatch) error {
	row, err := writeHeader(f, sheet, summaryHeaders)
	if err != nil {
		return err
	}
	finished := ""
	if batch.FinishedAt != nil {
		finished = batch.FinishedAt.Format(reportDateFormat)
	}
	values := [][]interface{}{
		{"Пакет", batch.ID},
		{"Источник", string(batch.Source)},
		{"Состояние", string(batch.State)},
		{"Всего ответов", batch.TotalCount},
		{"Импортировано", batch.ImportedCount},
		{"Пропущено", batch.SkippedCount},
		{"Ошибок", batch.ErrorCount},
		{"Начало", batch.StartedAt.Format(reportDateFormat)},
		{"Окончание", finished},
		{"Длительность, сек", batch.Duration().Seconds()},
		{"Успешно, %", batch.SuccessRate()},
		{"Итог", batch.Message},
	}
	if err = applyDataCellStyle(f, sheet, 1, row+1, len(summaryHeaders), row+len(values)); err != nil {
		return err
	}
	for _, value := range values {
		row++
		if err = writeRow(f, sheet, row, value); err != nil {
			return err
		}
	}
	return nil
}

func writeErrors(f *excelize.File, sheet string, lines []string) error {
	row, err := writeHeader(f, sheet, errorHeaders)
	if err != nil {
		return err
	}
	if err = applyDataCellStyle(f, sheet, 1, row+1, len(errorHeaders), row+len(lines)); err != nil {
		return err
	}
	for _, line := range lines {
		row++
		// строка журнала: "<номер ответа>: <ошибка>"
		responseID, message, found := strings.Cut(line, ": ")
		if !found {
			responseID, message = "", line
		}
		if err = writeRow(f, sheet, row, []interface{}{responseID, message}); err != nil {
			return err
		}
	}
	return nil
}

func writeCandidates(f *excelize.File, sheet string, list []dbmodels.Candidate) error {
	row, err := writeHeader(f, sheet, candidateHeaders)
	if err != nil {
		return err
	}
	if err = applyDataCellStyle(f, sheet, 1, row+1, len(candidateHeaders), row+len(list)); err != nil {
		return err
	}
	for _, item := range list {
		row++
		var submitted interface{}
		if item.SubmissionDate != nil {
			submitted = item.SubmissionDate.Format(time.DateTime)
		}
		pending := "нет"
		if item.MappingPending {
			pending = "да"
		}
		values := []interface{}{item.ResponseID, item.Name(), item.Email, string(item.Status), submitted, pending}
		if err = writeRow(f, sheet, row, values); err != nil {
			return err
		}
	}
	return nil
}
