package dbmodels

import (
	"admission-backend/models"
	mappingapimodels "admission-backend/models/api/mapping"
	"sort"
	"time"
)

// FormMapping набор правил сопоставления вопросов анкеты с полями кандидата
type FormMapping struct {
	BaseModel
	FormTemplateID string              `gorm:"type:varchar(36);uniqueIndex;not null"`
	State          models.MappingState `gorm:"type:varchar(20)"`
	ValidatedAt    *time.Time
	Lines          []FormMappingLine `gorm:"foreignKey:MappingID;constraint:OnDelete:CASCADE"`
}

func (m FormMapping) IsValidated() bool {
	return m.State == models.MappingStateValidated
}

// SortLines упорядочивает строки по sequence, при равенстве - по порядку создания
func (m *FormMapping) SortLines() {
	sort.SliceStable(m.Lines, func(i, j int) bool {
		return m.Lines[i].Sequence < m.Lines[j].Sequence
	})
}

func (m FormMapping) NextSequence() int {
	next := 0
	for _, line := range m.Lines {
		if line.Sequence > next {
			next = line.Sequence
		}
	}
	return next + 10
}

func (m FormMapping) Stats() mappingapimodels.MappingStats {
	stats := mappingapimodels.MappingStats{Total: len(m.Lines)}
	for _, line := range m.Lines {
		if !line.TargetField.IsEmpty() {
			stats.Mapped++
		}
		switch line.Status {
		case models.MappingLineValidated:
			stats.Validated++
		case models.MappingLineToVerify:
			stats.ToVerify++
		default:
			stats.Draft++
		}
	}
	return stats
}

func (m FormMapping) ToModel() mappingapimodels.MappingView {
	result := mappingapimodels.MappingView{
		ID:             m.ID,
		FormTemplateID: m.FormTemplateID,
		State:          m.State,
		Stats:          m.Stats(),
		Lines:          make([]mappingapimodels.MappingLineView, 0, len(m.Lines)),
	}
	if m.ValidatedAt != nil {
		result.ValidatedAt = m.ValidatedAt.Format(time.DateTime)
	}
	for _, line := range m.Lines {
		result.Lines = append(result.Lines, line.ToModel())
	}
	return result
}
