package responseprocessor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"admission-backend/lib/snippet"
	"admission-backend/models"
	dbmodels "admission-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var ErrNoValidatedMapping = errors.New("сопоставление анкеты не проверено")

// MalformedPayloadError ответ не является объектом "код вопроса -> значение"
type MalformedPayloadError struct {
	Reason string
}

func (e MalformedPayloadError) Error() string {
	return "некорректный ответ анкеты: " + e.Reason
}

type FieldErrorKind string

const (
	FieldErrorNoMapping  FieldErrorKind = "no_validated_mapping"
	FieldErrorTransform  FieldErrorKind = "transform"
	FieldErrorValidation FieldErrorKind = "validation"
	FieldErrorAttachment FieldErrorKind = "attachment"
	FieldErrorCoercion   FieldErrorKind = "coercion"
)

// FieldError поле пропущено при обработке ответа, остальные поля записываются
type FieldError struct {
	QuestionCode string
	LineID       string
	TargetField  models.TargetField
	Kind         FieldErrorKind
	Message      string
}

func (e FieldError) String() string {
	if e.QuestionCode == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.QuestionCode, e.Message)
}

type Result struct {
	FieldValues map[models.TargetField]any
	Attachments []AttachmentDescriptor
	Errors      []FieldError
}

func (r *Result) addError(line dbmodels.FormMappingLine, kind FieldErrorKind, err error, message string) {
	if message == "" && err != nil {
		message = err.Error()
	}
	r.Errors = append(r.Errors, FieldError{
		QuestionCode: line.QuestionCode,
		LineID:       line.ID,
		TargetField:  line.TargetField,
		Kind:         kind,
		Message:      message,
	})
}

type Provider interface {
	Process(ctx context.Context, mapping *dbmodels.FormMapping, raw any) (*Result, error)
}

var Instance Provider

func NewHandler(maxAttachmentSize int64) {
	Instance = NewInstance(snippet.Instance, maxAttachmentSize)
}

func NewInstance(evaluator snippet.Provider, maxAttachmentSize int64) Provider {
	if maxAttachmentSize <= 0 {
		maxAttachmentSize = DefaultMaxAttachmentSize
	}
	return &impl{
		evaluator:         evaluator,
		maxAttachmentSize: maxAttachmentSize,
	}
}

type impl struct {
	evaluator         snippet.Provider
	maxAttachmentSize int64
}

func (i impl) Process(ctx context.Context, mapping *dbmodels.FormMapping, raw any) (*Result, error) {
	if mapping == nil || !mapping.IsValidated() {
		return &Result{
			FieldValues: map[models.TargetField]any{},
			Errors: []FieldError{{
				Kind:    FieldErrorNoMapping,
				Message: ErrNoValidatedMapping.Error(),
			}},
		}, ErrNoValidatedMapping
	}
	response, err := DecodeResponse(raw)
	if err != nil {
		return nil, err
	}

	logger := log.WithField("mapping_id", mapping.ID)
	lines := make([]dbmodels.FormMappingLine, len(mapping.Lines))
	copy(lines, mapping.Lines)
	sort.SliceStable(lines, func(a, b int) bool {
		return lines[a].Sequence < lines[b].Sequence
	})

	result := &Result{FieldValues: map[models.TargetField]any{}}
	writtenBy := map[models.TargetField]string{}
	for _, line := range lines {
		if !line.IsValidated() || line.TargetField.IsEmpty() {
			continue
		}
		value, ok := lookupValue(response, line)
		if !ok || models.IsEmptyValue(value) {
			continue
		}

		if line.IsAttachment || line.TargetField.IsAttachment() {
			i.processAttachment(result, line, value)
			continue
		}

		if line.MappingKind == models.MappingKindTransform {
			value, err = i.evaluator.Transform(ctx, line.TransformCode, value)
			if err != nil {
				logger.
					WithField("question_code", line.QuestionCode).
					WithField("line_id", line.ID).
					WithError(err).
					Warn("ошибка преобразования значения, поле пропущено")
				result.addError(line, FieldErrorTransform, err, "")
				continue
			}
		}
		if strings.TrimSpace(line.ValidationCode) != "" {
			validation, err := i.evaluator.Validate(ctx, line.ValidationCode, value)
			if err != nil {
				result.addError(line, FieldErrorValidation, err, "")
				continue
			}
			if !validation.IsValid {
				message := validation.Message
				if message == "" {
					message = "значение не прошло проверку"
				}
				result.addError(line, FieldErrorValidation, nil, message)
				continue
			}
		}

		if previous, ok := writtenBy[line.TargetField]; ok {
			logger.
				WithField("target_field", line.TargetField).
				WithField("question_code", line.QuestionCode).
				WithField("previous_question_code", previous).
				Debug("значение поля перезаписано строкой с большим номером")
		}
		result.FieldValues[line.TargetField] = value
		writtenBy[line.TargetField] = line.QuestionCode
	}
	return result, nil
}

func (i impl) processAttachment(result *Result, line dbmodels.FormMappingLine, value any) {
	objects, err := parseAttachmentValue(value)
	if err != nil {
		result.addError(line, FieldErrorAttachment, err, "")
		return
	}
	for _, obj := range objects {
		descriptor, err := buildDescriptor(obj)
		if err != nil {
			result.addError(line, FieldErrorAttachment, err, "")
			continue
		}
		descriptor.QuestionCode = line.QuestionCode
		descriptor.LineID = line.ID
		descriptor.TargetField = line.TargetField
		if err = CheckAttachment(descriptor, i.maxAttachmentSize); err != nil {
			result.addError(line, FieldErrorAttachment, err, "")
			continue
		}
		result.Attachments = append(result.Attachments, descriptor)
	}
}

// DecodeResponse приводит ответ к виду "код вопроса -> значение"
func DecodeResponse(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case map[string]any:
		return v, nil
	case json.RawMessage:
		return decodeJSONObject(v)
	case []byte:
		return decodeJSONObject(v)
	case string:
		return decodeJSONObject([]byte(v))
	case nil:
		return nil, MalformedPayloadError{Reason: "ответ отсутствует"}
	}
	return nil, MalformedPayloadError{Reason: fmt.Sprintf("ожидался объект, получено %T", raw)}
}

func decodeJSONObject(data []byte) (map[string]any, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, MalformedPayloadError{Reason: "ожидался json-объект"}
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	result := map[string]any{}
	if err := decoder.Decode(&result); err != nil {
		return nil, MalformedPayloadError{Reason: err.Error()}
	}
	return result, nil
}

// lookupValue значение ответа для строки. Если точного ключа нет, собираются
// подвопросы вида code[SQ001]: для множественного выбора - список отмеченных кодов, иначе объект
func lookupValue(response map[string]any, line dbmodels.FormMappingLine) (any, bool) {
	if value, ok := response[line.QuestionCode]; ok {
		return value, true
	}
	prefix := line.QuestionCode + "["
	keys := []string{}
	for key := range response {
		if strings.HasPrefix(key, prefix) && strings.HasSuffix(key, "]") {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil, false
	}
	sort.Strings(keys)

	if line.QuestionType == models.QuestionTypeMultiple {
		selected := []any{}
		for _, key := range keys {
			sub := key[len(prefix) : len(key)-1]
			value := response[key]
			if sub == "other" {
				if !models.IsEmptyValue(value) {
					selected = append(selected, value)
				}
				continue
			}
			if s, ok := value.(string); ok && strings.EqualFold(strings.TrimSpace(s), "Y") {
				selected = append(selected, sub)
			}
		}
		if len(selected) == 0 {
			return nil, false
		}
		return selected, true
	}

	values := map[string]any{}
	for _, key := range keys {
		if value := response[key]; !models.IsEmptyValue(value) {
			values[key[len(prefix):len(key)-1]] = value
		}
	}
	if len(values) == 0 {
		return nil, false
	}
	return values, true
}
