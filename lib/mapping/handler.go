package mapping

import (
	"context"
	"fmt"
	"time"

	"admission-backend/db"
	formtemplatestore "admission-backend/lib/form-template/store"
	"admission-backend/lib/mapping/suggest"
	mappingstore "admission-backend/lib/mapping/store"
	"admission-backend/lib/snippet"
	"admission-backend/models"
	mappingapimodels "admission-backend/models/api/mapping"
	dbmodels "admission-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	ErrTemplateNotFound = errors.New("шаблон анкеты не найден")
	ErrLineNotFound     = errors.New("строка сопоставления не найдена")
)

type LineAction string

const (
	LineActionValidate     LineAction = "validate"
	LineActionMarkToVerify LineAction = "mark_to_verify"
	LineActionReset        LineAction = "reset"
)

// Reprocessor повторная обработка ответов, сохраненных до проверки сопоставления
type Reprocessor interface {
	Reprocess(ctx context.Context, templateID string) (processed int, err error)
}

type Provider interface {
	Get(templateID string) (*mappingapimodels.MappingView, error)
	Validate(ctx context.Context, templateID string) (*mappingapimodels.MappingView, error)
	ResetToDraft(templateID string) (*mappingapimodels.MappingView, error)
	// Regenerate сверка строк с сохраненной схемой анкеты
	Regenerate(templateID string) (RegenerateStats, error)
	// RegenerateFor сверка строк с переданной схемой (после синхронизации)
	RegenerateFor(templateID string, questions []models.Question) (RegenerateStats, error)
	ValidateHighConfidence(templateID string) (mappingapimodels.BulkResult, error)
	ValidateAllMapped(templateID string) (mappingapimodels.BulkResult, error)
	ApplySuggestions(templateID string) (mappingapimodels.BulkResult, error)
	UpdateLine(templateID, lineID string, request mappingapimodels.LineUpdate) (*mappingapimodels.MappingLineView, error)
	LineAction(templateID, lineID string, action LineAction) (*mappingapimodels.MappingLineView, error)
	TestLine(ctx context.Context, templateID, lineID string, value any) (*mappingapimodels.LineTestResult, error)
	LineSuggestions(templateID, lineID string) ([]mappingapimodels.Suggestion, error)
	FieldOptions(templateID string) ([]models.TargetFieldSpec, error)
}

var Instance Provider

func NewHandler(reprocessor Reprocessor) {
	Instance = NewInstance(
		mappingstore.NewInstance(db.DB),
		formtemplatestore.NewInstance(db.DB),
		snippet.Instance,
		reprocessor,
	)
}

func NewInstance(store mappingstore.Provider, templateStore formtemplatestore.Provider, evaluator snippet.Provider, reprocessor Reprocessor) Provider {
	return &impl{
		store:         store,
		templateStore: templateStore,
		evaluator:     evaluator,
		reprocessor:   reprocessor,
	}
}

type impl struct {
	store         mappingstore.Provider
	templateStore formtemplatestore.Provider
	evaluator     snippet.Provider
	reprocessor   Reprocessor
}

func (i impl) getLogger(templateID string) *log.Entry {
	return log.WithField("form_template_id", templateID)
}

func (i impl) Get(templateID string) (*mappingapimodels.MappingView, error) {
	rec, err := i.getMapping(templateID)
	if err != nil {
		return nil, err
	}
	view := rec.ToModel()
	return &view, nil
}

func (i impl) Validate(ctx context.Context, templateID string) (*mappingapimodels.MappingView, error) {
	logger := i.getLogger(templateID)
	template, err := i.getTemplate(templateID)
	if err != nil {
		return nil, err
	}
	rec, err := i.getMapping(templateID)
	if err != nil {
		return nil, err
	}
	if err = Validate(rec, time.Now()); err != nil {
		return nil, err
	}
	if err = i.store.Save(rec); err != nil {
		logger.WithError(err).Error("ошибка сохранения сопоставления")
		return nil, err
	}

	updMap := map[string]interface{}{
		"mapping_validated": true,
	}
	if template.AutoCreateStatus != models.AutoCreatePaused {
		updMap["auto_create_status"] = models.AutoCreateEnabled
	}
	if err = i.templateStore.Update(templateID, updMap); err != nil {
		logger.WithError(err).Error("ошибка обновления шаблона анкеты")
		return nil, err
	}
	logger.Info("сопоставление проверено, автоматическое создание кандидатов включено")

	if i.reprocessor != nil {
		processed, err := i.reprocessor.Reprocess(ctx, templateID)
		if err != nil {
			logger.WithError(err).Error("ошибка повторной обработки отложенных ответов")
		} else if processed > 0 {
			logger.WithField("processed", processed).Info("отложенные ответы обработаны")
		}
	}
	view := rec.ToModel()
	return &view, nil
}

func (i impl) ResetToDraft(templateID string) (*mappingapimodels.MappingView, error) {
	rec, err := i.getMapping(templateID)
	if err != nil {
		return nil, err
	}
	ResetToDraft(rec)
	if err = i.store.Save(rec); err != nil {
		return nil, err
	}
	err = i.templateStore.Update(templateID, map[string]interface{}{
		"mapping_validated":  false,
		"auto_create_status": models.AutoCreateDisabled,
	})
	if err != nil {
		return nil, err
	}
	view := rec.ToModel()
	return &view, nil
}

func (i impl) Regenerate(templateID string) (RegenerateStats, error) {
	template, err := i.getTemplate(templateID)
	if err != nil {
		return RegenerateStats{}, err
	}
	return i.RegenerateFor(templateID, template.GetQuestions())
}

func (i impl) RegenerateFor(templateID string, questions []models.Question) (RegenerateStats, error) {
	rec, err := i.store.GetByTemplate(templateID)
	if err != nil {
		return RegenerateStats{}, err
	}
	if rec == nil {
		rec = NewMapping(templateID)
	}
	stats, err := Regenerate(rec, questions)
	if err != nil {
		return stats, err
	}
	if err = i.store.Save(rec); err != nil {
		return stats, err
	}
	i.getLogger(templateID).
		WithField("new_lines", stats.NewLines).
		WithField("updated_lines", stats.UpdatedLines).
		WithField("suggested", stats.Suggested).
		Info("строки сопоставления обновлены по схеме анкеты")
	return stats, nil
}

func (i impl) ValidateHighConfidence(templateID string) (mappingapimodels.BulkResult, error) {
	return i.bulk(templateID, func(rec *dbmodels.FormMapping) (int, string, error) {
		count := ValidateHighConfidence(rec)
		return count, fmt.Sprintf("Проверено строк с высокой уверенностью: %d", count), nil
	})
}

func (i impl) ValidateAllMapped(templateID string) (mappingapimodels.BulkResult, error) {
	return i.bulk(templateID, func(rec *dbmodels.FormMapping) (int, string, error) {
		count := ValidateAllMapped(rec)
		return count, fmt.Sprintf("Проверено сопоставленных строк: %d", count), nil
	})
}

func (i impl) ApplySuggestions(templateID string) (mappingapimodels.BulkResult, error) {
	return i.bulk(templateID, func(rec *dbmodels.FormMapping) (int, string, error) {
		suggested, validated, err := ApplySuggestions(rec)
		if err != nil {
			return 0, "", err
		}
		return suggested, fmt.Sprintf("Подсказок применено: %d, проверено автоматически: %d", suggested, validated), nil
	})
}

func (i impl) bulk(templateID string, fn func(rec *dbmodels.FormMapping) (int, string, error)) (mappingapimodels.BulkResult, error) {
	rec, err := i.getMapping(templateID)
	if err != nil {
		return mappingapimodels.BulkResult{}, err
	}
	affected, message, err := fn(rec)
	if err != nil {
		return mappingapimodels.BulkResult{}, err
	}
	if affected > 0 {
		if err = i.store.Save(rec); err != nil {
			return mappingapimodels.BulkResult{}, err
		}
	}
	return mappingapimodels.BulkResult{Affected: affected, Message: message}, nil
}

func (i impl) UpdateLine(templateID, lineID string, request mappingapimodels.LineUpdate) (*mappingapimodels.MappingLineView, error) {
	line, err := i.getLine(templateID, lineID)
	if err != nil {
		return nil, err
	}
	if request.TargetField != nil || request.ConfidenceScore != nil {
		field := line.TargetField
		if request.TargetField != nil {
			field, err = models.ParseTargetField(*request.TargetField)
			if err != nil {
				return nil, err
			}
		}
		score := 0
		if request.ConfidenceScore != nil {
			score = *request.ConfidenceScore
		}
		if err = line.AssignTarget(field, score); err != nil {
			return nil, err
		}
	}
	if request.MappingKind != nil || request.TransformCode != nil || request.ValidationCode != nil {
		kind, transformCode, validationCode := line.MappingKind, line.TransformCode, line.ValidationCode
		if request.MappingKind != nil {
			kind = *request.MappingKind
		}
		if request.TransformCode != nil {
			transformCode = *request.TransformCode
		}
		if request.ValidationCode != nil {
			validationCode = *request.ValidationCode
		}
		if kind == models.MappingKindTransform && transformCode != "" {
			if err = i.evaluator.Check(transformCode); err != nil {
				return nil, err
			}
		}
		if validationCode != "" {
			if err = i.evaluator.Check(validationCode); err != nil {
				return nil, err
			}
		}
		if err = line.SetKind(kind, transformCode, validationCode); err != nil {
			return nil, err
		}
	}
	if request.IsRequired != nil {
		line.IsRequired = *request.IsRequired
	}
	if err = i.store.SaveLine(line); err != nil {
		return nil, err
	}
	view := line.ToModel()
	return &view, nil
}

func (i impl) LineAction(templateID, lineID string, action LineAction) (*mappingapimodels.MappingLineView, error) {
	line, err := i.getLine(templateID, lineID)
	if err != nil {
		return nil, err
	}
	switch action {
	case LineActionValidate:
		err = line.Validate()
	case LineActionMarkToVerify:
		err = line.MarkToVerify()
	case LineActionReset:
		line.ResetToDraft()
	default:
		err = errors.Errorf("неизвестное действие %q", action)
	}
	if err != nil {
		return nil, err
	}
	if err = i.store.SaveLine(line); err != nil {
		return nil, err
	}
	view := line.ToModel()
	return &view, nil
}

// TestLine прогон преобразования и проверки на примере значения, без сохранения
func (i impl) TestLine(ctx context.Context, templateID, lineID string, value any) (*mappingapimodels.LineTestResult, error) {
	line, err := i.getLine(templateID, lineID)
	if err != nil {
		return nil, err
	}
	result := &mappingapimodels.LineTestResult{Value: value}
	if line.MappingKind == models.MappingKindTransform {
		transformed, err := i.evaluator.Transform(ctx, line.TransformCode, value)
		if err != nil {
			result.Value = nil
			result.TransformError = err.Error()
			return result, nil
		}
		result.Value = transformed
	}
	validation, err := i.evaluator.Validate(ctx, line.ValidationCode, result.Value)
	if err != nil {
		result.ValidationMessage = err.Error()
		return result, nil
	}
	result.IsValid = validation.IsValid
	result.ValidationMessage = validation.Message
	return result, nil
}

func (i impl) LineSuggestions(templateID, lineID string) ([]mappingapimodels.Suggestion, error) {
	line, err := i.getLine(templateID, lineID)
	if err != nil {
		return nil, err
	}
	list := suggest.Rank(line.QuestionText, line.IsAttachment)
	if list == nil {
		list = []mappingapimodels.Suggestion{}
	}
	return list, nil
}

// FieldOptions известные поля карточки и пользовательские поля, уже используемые в наборе
func (i impl) FieldOptions(templateID string) ([]models.TargetFieldSpec, error) {
	result := models.KnownTargetFields()
	rec, err := i.store.GetByTemplate(templateID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return result, nil
	}
	seen := map[models.TargetField]bool{}
	for _, line := range rec.Lines {
		if !line.TargetField.IsCustom() || seen[line.TargetField] {
			continue
		}
		seen[line.TargetField] = true
		if spec, ok := line.TargetField.Spec(); ok {
			result = append(result, spec)
		}
	}
	return result, nil
}

func (i impl) getTemplate(templateID string) (*dbmodels.FormTemplate, error) {
	template, err := i.templateStore.GetByID(templateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, ErrTemplateNotFound
	}
	return template, nil
}

// getMapping набор шаблона, создается при первом обращении
func (i impl) getMapping(templateID string) (*dbmodels.FormMapping, error) {
	rec, err := i.store.GetByTemplate(templateID)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}
	if _, err = i.getTemplate(templateID); err != nil {
		return nil, err
	}
	rec = NewMapping(templateID)
	if err = i.store.Save(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (i impl) getLine(templateID, lineID string) (*dbmodels.FormMappingLine, error) {
	rec, err := i.store.GetByTemplate(templateID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrLineNotFound
	}
	line, err := i.store.GetLine(lineID)
	if err != nil {
		return nil, err
	}
	if line == nil || line.MappingID != rec.ID {
		return nil, ErrLineNotFound
	}
	return line, nil
}
