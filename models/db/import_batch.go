package dbmodels

import (
	"admission-backend/models"
	importbatchapimodels "admission-backend/models/api/import-batch"
	"fmt"
	"math"
	"strings"
	"time"
)

// ImportBatch учет одного пакетного импорта ответов
type ImportBatch struct {
	BaseModel
	FormTemplateID string                  `gorm:"type:varchar(36);index;not null"`
	Source         models.ImportSource     `gorm:"type:varchar(20)"`
	State          models.ImportBatchState `gorm:"type:varchar(20);index"`
	TotalCount     int
	ImportedCount  int
	SkippedCount   int
	ErrorCount     int
	ErrorDetails   string `gorm:"type:text"`
	Message        string
	StartedAt      time.Time
	FinishedAt     *time.Time
	Candidates     []Candidate `gorm:"foreignKey:ImportBatchID"`
}

func (b *ImportBatch) AddError(responseID string, err error) {
	b.ErrorCount++
	line := fmt.Sprintf("%s: %s", responseID, strings.ReplaceAll(err.Error(), "\n", " "))
	if b.ErrorDetails == "" {
		b.ErrorDetails = line
		return
	}
	b.ErrorDetails += "\n" + line
}

// Finish завершение пакета: done без ошибок, partial при наличии ошибок
func (b *ImportBatch) Finish(now time.Time) {
	b.FinishedAt = &now
	if b.ErrorCount == 0 {
		b.State = models.ImportBatchDone
	} else {
		b.State = models.ImportBatchPartial
	}
	b.Message = fmt.Sprintf("Импортировано: %d, пропущено: %d, ошибок: %d", b.ImportedCount, b.SkippedCount, b.ErrorCount)
}

func (b *ImportBatch) Fail(now time.Time, err error) {
	b.FinishedAt = &now
	b.State = models.ImportBatchFailed
	b.Message = err.Error()
}

func (b ImportBatch) Duration() time.Duration {
	if b.FinishedAt == nil {
		return 0
	}
	return b.FinishedAt.Sub(b.StartedAt)
}

func (b ImportBatch) SuccessRate() float64 {
	if b.TotalCount == 0 {
		return 0
	}
	rate := float64(b.ImportedCount) / float64(b.TotalCount) * 100
	return math.Round(rate*100) / 100
}

// ErrorLines первые limit строк журнала ошибок, limit <= 0 - все строки
func (b ImportBatch) ErrorLines(limit int) []string {
	if b.ErrorDetails == "" {
		return []string{}
	}
	lines := strings.Split(b.ErrorDetails, "\n")
	if limit > 0 && len(lines) > limit {
		return lines[:limit]
	}
	return lines
}

func (b ImportBatch) ToModel(errorPreview int) importbatchapimodels.ImportBatchView {
	result := importbatchapimodels.ImportBatchView{
		ID:             b.ID,
		FormTemplateID: b.FormTemplateID,
		Source:         b.Source,
		State:          b.State,
		TotalCount:     b.TotalCount,
		ImportedCount:  b.ImportedCount,
		SkippedCount:   b.SkippedCount,
		ErrorCount:     b.ErrorCount,
		StartedAt:      b.StartedAt.Format(time.DateTime),
		Duration:       b.Duration().Seconds(),
		SuccessRate:    b.SuccessRate(),
		ErrorLines:     b.ErrorLines(errorPreview),
		Message:        b.Message,
	}
	if b.FinishedAt != nil {
		result.FinishedAt = b.FinishedAt.Format(time.DateTime)
	}
	return result
}
