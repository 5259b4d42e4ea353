package mapping

import (
	"fmt"
	"strings"
	"time"

	"admission-backend/lib/mapping/suggest"
	"admission-backend/models"
	dbmodels "admission-backend/models/db"
)

// ValidationError набор нельзя перевести в validated, состояние не меняется
type ValidationError struct {
	Reason       string
	MissingCodes []string
}

func (e ValidationError) Error() string {
	if len(e.MissingCodes) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.MissingCodes, ", "))
}

// RegenerateStats итог пересоздания строк по схеме анкеты
type RegenerateStats struct {
	NewLines     int
	UpdatedLines int
	Suggested    int
}

// NewMapping пустой набор для шаблона
func NewMapping(templateID string) *dbmodels.FormMapping {
	return &dbmodels.FormMapping{
		FormTemplateID: templateID,
		State:          models.MappingStateDraft,
	}
}

// Validate переводит набор в validated. Нужны строки, у каждой обязательной строки
// проверенная цель, у всех строк известные поля кандидата
func Validate(m *dbmodels.FormMapping, now time.Time) error {
	if len(m.Lines) == 0 {
		return ValidationError{Reason: "невозможно проверить пустое сопоставление"}
	}
	missing, unverified, unknown := []string{}, []string{}, []string{}
	for _, line := range m.Lines {
		if !line.TargetField.IsEmpty() {
			if _, err := models.ParseTargetField(string(line.TargetField)); err != nil {
				unknown = append(unknown, line.QuestionCode)
				continue
			}
		}
		if !line.IsRequired {
			continue
		}
		switch {
		case line.TargetField.IsEmpty():
			missing = append(missing, line.QuestionCode)
		case !line.IsValidated():
			unverified = append(unverified, line.QuestionCode)
		}
	}
	switch {
	case len(unknown) > 0:
		return ValidationError{Reason: "строки ссылаются на неизвестные поля кандидата", MissingCodes: unknown}
	case len(missing) > 0:
		return ValidationError{Reason: "обязательные вопросы не сопоставлены", MissingCodes: missing}
	case len(unverified) > 0:
		return ValidationError{Reason: "обязательные вопросы не проверены", MissingCodes: unverified}
	}
	m.State = models.MappingStateValidated
	m.ValidatedAt = &now
	return nil
}

func ResetToDraft(m *dbmodels.FormMapping) {
	m.State = models.MappingStateDraft
	m.ValidatedAt = nil
}

// Regenerate сверяет строки с текущей схемой анкеты.
// Новые коды получают строку с подсказкой, непроверенные строки обновляются,
// проверенные строки и строки с исчезнувшими кодами не трогаются
func Regenerate(m *dbmodels.FormMapping, questions []models.Question) (RegenerateStats, error) {
	stats := RegenerateStats{}
	byCode := map[string][]int{}
	for idx, line := range m.Lines {
		byCode[line.QuestionCode] = append(byCode[line.QuestionCode], idx)
	}

	for _, question := range questions {
		indexes, exists := byCode[question.Code]
		if !exists {
			line := newLine(question, m.NextSequence())
			applied, err := suggestLine(&line)
			if err != nil {
				return stats, err
			}
			if applied {
				stats.Suggested++
			}
			m.Lines = append(m.Lines, line)
			byCode[question.Code] = []int{len(m.Lines) - 1}
			stats.NewLines++
			continue
		}
		for _, idx := range indexes {
			line := &m.Lines[idx]
			if line.IsValidated() {
				continue
			}
			refreshLine(line, question)
			if line.TargetField.IsEmpty() {
				applied, err := suggestLine(line)
				if err != nil {
					return stats, err
				}
				if applied {
					stats.Suggested++
				}
			}
			stats.UpdatedLines++
		}
	}
	return stats, nil
}

// ValidateHighConfidence непроверенные строки с уверенностью от 90 становятся validated
func ValidateHighConfidence(m *dbmodels.FormMapping) int {
	count := 0
	for idx := range m.Lines {
		line := &m.Lines[idx]
		if line.IsValidated() || line.TargetField.IsEmpty() || line.ConfidenceScore < models.ConfidenceAutoValidate {
			continue
		}
		line.Status = models.MappingLineValidated
		count++
	}
	return count
}

// ValidateAllMapped все строки с выбранным полем становятся validated
func ValidateAllMapped(m *dbmodels.FormMapping) int {
	count := 0
	for idx := range m.Lines {
		line := &m.Lines[idx]
		if line.IsValidated() || line.TargetField.IsEmpty() {
			continue
		}
		if err := line.Validate(); err == nil {
			count++
		}
	}
	return count
}

// ApplySuggestions подсказки для всех черновых строк и проверка строк с высокой уверенностью
func ApplySuggestions(m *dbmodels.FormMapping) (suggested, validated int, err error) {
	for idx := range m.Lines {
		line := &m.Lines[idx]
		if line.Status != models.MappingLineDraft {
			continue
		}
		applied, err := suggestLine(line)
		if err != nil {
			return suggested, validated, err
		}
		if applied {
			suggested++
		}
	}
	validated = ValidateHighConfidence(m)
	return suggested, validated, nil
}

func newLine(question models.Question, sequence int) dbmodels.FormMappingLine {
	line := dbmodels.FormMappingLine{
		Sequence:    sequence,
		MappingKind: models.MappingKindDirect,
		Status:      models.MappingLineDraft,
	}
	refreshLine(&line, question)
	return line
}

func refreshLine(line *dbmodels.FormMappingLine, question models.Question) {
	line.QuestionCode = question.Code
	line.QuestionText = question.Text
	line.QuestionType = question.Type
	line.QuestionGroup = question.Group
	line.IsRequired = question.Required
	line.IsAttachment = question.IsAttachment()
	if line.IsAttachment {
		line.MappingKind = models.MappingKindDirect
		line.TransformCode = ""
		line.ValidationCode = ""
	}
}

func suggestLine(line *dbmodels.FormMappingLine) (bool, error) {
	best, ok := suggest.Suggest(line.QuestionText, line.IsAttachment)
	if !ok {
		return false, nil
	}
	return line.ApplySuggestion(best.TargetField, best.Confidence)
}
