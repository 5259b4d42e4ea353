package xlsexport

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

func (i impl) ReadResponses(r io.Reader) ([]map[string]any, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка чтения файла xlsx")
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Error("ошибка закрытия файла")
		}
	}()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("в файле xlsx нет листов")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, "ошибка чтения строк xlsx")
	}
	if len(rows) == 0 {
		return []map[string]any{}, nil
	}
	headers := make([]string, len(rows[0]))
	for idx, header := range rows[0] {
		headers[idx] = strings.TrimSpace(header)
	}
	result := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		response := map[string]any{}
		for idx, value := range row {
			if idx >= len(headers) || headers[idx] == "" {
				continue
			}
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			response[headers[idx]] = value
		}
		if len(response) == 0 {
			continue
		}
		result = append(result, response)
	}
	return result, nil
}
