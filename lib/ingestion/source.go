package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	xlsexport "admission-backend/lib/export/xls"
	limesurveyclient "admission-backend/lib/limesurvey/client"
	"admission-backend/models"
)

// ResponseSource ответы анкеты для пакетного импорта
type ResponseSource interface {
	Kind() models.ImportSource
	Responses(ctx context.Context) ([]map[string]any, error)
}

// LimeSurveySource выгрузка завершенных ответов через RemoteControl API
type LimeSurveySource struct {
	Client   limesurveyclient.Provider
	Conn     limesurveyclient.Connection
	SurveyID string
}

func (s LimeSurveySource) Kind() models.ImportSource {
	return models.ImportSourceLimeSurvey
}

func (s LimeSurveySource) Responses(ctx context.Context) ([]map[string]any, error) {
	return s.Client.ExportResponses(ctx, s.Conn, s.SurveyID)
}

// StaticSource заранее полученные ответы
type StaticSource struct {
	Source models.ImportSource
	List   []map[string]any
}

func (s StaticSource) Kind() models.ImportSource {
	return s.Source
}

func (s StaticSource) Responses(ctx context.Context) ([]map[string]any, error) {
	return s.List, nil
}

// XlsxSource ответы из загруженного файла xlsx
type XlsxSource struct {
	Reader xlsexport.Provider
	Data   []byte
}

func (s XlsxSource) Kind() models.ImportSource {
	return models.ImportSourceXlsx
}

func (s XlsxSource) Responses(ctx context.Context) ([]map[string]any, error) {
	return s.Reader.ReadResponses(bytes.NewReader(s.Data))
}

var responseIDKeys = []string{"id", "response_id", "responseid", "ResponseID"}

// ResponseIDOf идентификатор ответа в выгрузке
func ResponseIDOf(response map[string]any) string {
	for _, key := range responseIDKeys {
		value, ok := response[key]
		if !ok || value == nil {
			continue
		}
		var id string
		switch v := value.(type) {
		case string:
			id = strings.TrimSpace(v)
		case json.Number:
			id = v.String()
		case float64:
			id = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			id = fmt.Sprintf("%v", v)
		}
		if id != "" {
			return id
		}
	}
	return ""
}

// submitDateOf дата отправки ответа из выгрузки
func submitDateOf(response map[string]any) any {
	for _, key := range []string{"submitdate", "submit_date"} {
		if value, ok := response[key]; ok && value != nil {
			return value
		}
	}
	return nil
}
