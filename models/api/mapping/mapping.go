package mappingapimodels

import (
	"admission-backend/models"

	"github.com/pkg/errors"
)

type MappingView struct {
	ID             string                `json:"id"`
	FormTemplateID string                `json:"form_template_id"`
	State          models.MappingState   `json:"state"` // draft/validated
	ValidatedAt    string                `json:"validated_at"`
	Stats          MappingStats          `json:"stats"`
	Lines          []MappingLineView     `json:"lines"`
}

type MappingStats struct {
	Total     int `json:"total"`
	Mapped    int `json:"mapped"`
	Validated int `json:"validated"`
	ToVerify  int `json:"to_verify"`
	Draft     int `json:"draft"`
}

type MappingLineView struct {
	ID              string                   `json:"id"`
	Sequence        int                      `json:"sequence"`
	QuestionCode    string                   `json:"question_code"`
	QuestionText    string                   `json:"question_text"`
	QuestionType    models.QuestionType      `json:"question_type"`
	QuestionGroup   string                   `json:"question_group"`
	TargetField     models.TargetField       `json:"target_field"`
	MappingKind     models.MappingKind       `json:"mapping_kind"`
	TransformCode   string                   `json:"transform_code"`
	ValidationCode  string                   `json:"validation_code"`
	IsRequired      bool                     `json:"is_required"`
	IsAttachment    bool                     `json:"is_attachment"`
	ConfidenceScore int                      `json:"confidence_score"`
	Status          models.MappingLineStatus `json:"status"`  // draft/to_verify/validated
	Quality         models.MappingQuality    `json:"quality"` // confirmed/warning/unmatched
}

// LineUpdate изменение строки сопоставления, nil - поле не меняется
type LineUpdate struct {
	TargetField     *string             `json:"target_field"`     // Поле кандидата, пустая строка - снять сопоставление
	ConfidenceScore *int                `json:"confidence_score"` // Уверенность 0-100
	MappingKind     *models.MappingKind `json:"mapping_kind"`     // direct/transform
	TransformCode   *string             `json:"transform_code"`   // Выражение преобразования
	ValidationCode  *string             `json:"validation_code"`  // Выражение проверки
	IsRequired      *bool               `json:"is_required"`
}

func (r LineUpdate) Validate() error {
	if r.ConfidenceScore != nil && (*r.ConfidenceScore < 0 || *r.ConfidenceScore > models.ConfidenceMax) {
		return errors.New("уверенность должна быть в диапазоне от 0 до 100")
	}
	if r.MappingKind != nil && !r.MappingKind.IsValid() {
		return errors.New("некорректный тип сопоставления")
	}
	if r.TargetField != nil && *r.TargetField != "" {
		if _, err := models.ParseTargetField(*r.TargetField); err != nil {
			return err
		}
	}
	return nil
}

type BulkResult struct {
	Affected int    `json:"affected"` // Количество измененных строк
	Message  string `json:"message"`
}

type Suggestion struct {
	TargetField models.TargetField `json:"target_field"`
	Confidence  int                `json:"confidence"`
	Keyword     string             `json:"keyword"`
}

type LineTestRequest struct {
	Value any `json:"value"` // Пример значения из ответа
}

type LineTestResult struct {
	Value            any    `json:"value"`             // Значение после преобразования
	TransformError   string `json:"transform_error"`   // Ошибка преобразования
	IsValid          bool   `json:"is_valid"`          // Результат проверки
	ValidationMessage string `json:"validation_message"` // Сообщение проверки
}
