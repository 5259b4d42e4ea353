package dbmodels

import (
	"admission-backend/models"
	mappingapimodels "admission-backend/models/api/mapping"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// FormMappingLine правило: код вопроса -> поле кандидата
type FormMappingLine struct {
	BaseModel
	MappingID       string                   `gorm:"type:varchar(36);index;not null"`
	Sequence        int                      `gorm:"index"`
	QuestionCode    string                   `gorm:"type:varchar(128);index"`
	QuestionText    string
	QuestionType    models.QuestionType      `gorm:"type:varchar(20)"`
	QuestionGroup   string
	TargetField     models.TargetField       `gorm:"type:varchar(128)"`
	MappingKind     models.MappingKind       `gorm:"type:varchar(20)"`
	TransformCode   string
	ValidationCode  string
	IsRequired      bool
	IsAttachment    bool
	ConfidenceScore int
	Status          models.MappingLineStatus `gorm:"type:varchar(20)"`
}

var (
	ErrConfidenceRange    = errors.New("уверенность должна быть в диапазоне от 0 до 100")
	ErrEmptyTarget        = errors.New("не выбрано поле кандидата")
	ErrAttachmentKind     = errors.New("для вложения допустимо только прямое сопоставление без выражений")
	ErrUnknownMappingKind = errors.New("некорректный тип сопоставления")
)

func (l *FormMappingLine) BeforeSave(tx *gorm.DB) error {
	return l.Check()
}

// Check проверка инвариантов строки перед записью
func (l FormMappingLine) Check() error {
	if l.ConfidenceScore < 0 || l.ConfidenceScore > models.ConfidenceMax {
		return ErrConfidenceRange
	}
	if l.MappingKind != "" && !l.MappingKind.IsValid() {
		return ErrUnknownMappingKind
	}
	if l.IsAttachment && (l.MappingKind == models.MappingKindTransform || l.TransformCode != "" || l.ValidationCode != "") {
		return ErrAttachmentKind
	}
	return nil
}

// SetConfidence изменяет уверенность и пересчитывает статус
func (l *FormMappingLine) SetConfidence(score int) error {
	if score < 0 || score > models.ConfidenceMax {
		return ErrConfidenceRange
	}
	l.ConfidenceScore = score
	l.applyConfidence()
	return nil
}

// AssignTarget выбор поля кандидата. Пустое поле сбрасывает строку в черновик
func (l *FormMappingLine) AssignTarget(field models.TargetField, score int) error {
	if field.IsEmpty() {
		l.TargetField = ""
		l.ConfidenceScore = 0
		l.Status = models.MappingLineDraft
		return nil
	}
	if _, err := models.ParseTargetField(string(field)); err != nil {
		return err
	}
	if score < 0 || score > models.ConfidenceMax {
		return ErrConfidenceRange
	}
	if score == 0 {
		score = models.ConfidenceManualDefault
	}
	l.TargetField = field
	l.ConfidenceScore = score
	l.applyConfidence()
	return nil
}

// ApplySuggestion применяет подсказку, если уверенность не ниже порога. Проверенные строки не меняются
func (l *FormMappingLine) ApplySuggestion(field models.TargetField, score int) (applied bool, err error) {
	if l.Status == models.MappingLineValidated || score < models.ConfidenceSuggestMin {
		return false, nil
	}
	if err = l.AssignTarget(field, score); err != nil {
		return false, err
	}
	return true, nil
}

func (l *FormMappingLine) applyConfidence() {
	switch {
	case l.TargetField.IsEmpty():
		l.Status = models.MappingLineDraft
	case l.ConfidenceScore >= models.ConfidenceAutoValidate:
		l.Status = models.MappingLineValidated
	default:
		l.Status = models.MappingLineToVerify
	}
}

// Validate ручное подтверждение строки оператором
func (l *FormMappingLine) Validate() error {
	if l.TargetField.IsEmpty() {
		return ErrEmptyTarget
	}
	l.Status = models.MappingLineValidated
	return nil
}

func (l *FormMappingLine) MarkToVerify() error {
	if l.TargetField.IsEmpty() {
		return ErrEmptyTarget
	}
	l.Status = models.MappingLineToVerify
	return nil
}

// ResetToDraft ручной сброс, допустим из любого статуса
func (l *FormMappingLine) ResetToDraft() {
	l.Status = models.MappingLineDraft
}

func (l *FormMappingLine) SetKind(kind models.MappingKind, transformCode, validationCode string) error {
	if !kind.IsValid() {
		return ErrUnknownMappingKind
	}
	if l.IsAttachment && (kind != models.MappingKindDirect || transformCode != "" || validationCode != "") {
		return ErrAttachmentKind
	}
	l.MappingKind = kind
	l.TransformCode = transformCode
	l.ValidationCode = validationCode
	return nil
}

func (l FormMappingLine) IsValidated() bool {
	return l.Status == models.MappingLineValidated
}

func (l FormMappingLine) Quality() models.MappingQuality {
	switch {
	case l.TargetField.IsEmpty():
		return models.MappingQualityUnmatched
	case l.ConfidenceScore >= 80:
		return models.MappingQualityConfirmed
	case l.ConfidenceScore >= 50:
		return models.MappingQualityWarning
	}
	return models.MappingQualityUnmatched
}

func (l FormMappingLine) ToModel() mappingapimodels.MappingLineView {
	return mappingapimodels.MappingLineView{
		ID:              l.ID,
		Sequence:        l.Sequence,
		QuestionCode:    l.QuestionCode,
		QuestionText:    l.QuestionText,
		QuestionType:    l.QuestionType,
		QuestionGroup:   l.QuestionGroup,
		TargetField:     l.TargetField,
		MappingKind:     l.MappingKind,
		TransformCode:   l.TransformCode,
		ValidationCode:  l.ValidationCode,
		IsRequired:      l.IsRequired,
		IsAttachment:    l.IsAttachment,
		ConfidenceScore: l.ConfidenceScore,
		Status:          l.Status,
		Quality:         l.Quality(),
	}
}
