package models

// QuestionType канонический тип вопроса анкеты
type QuestionType string

const (
	QuestionTypeText     QuestionType = "text"
	QuestionTypeNumeric  QuestionType = "numeric"
	QuestionTypeDate     QuestionType = "date"
	QuestionTypeChoice   QuestionType = "choice"
	QuestionTypeMultiple QuestionType = "multiple"
	QuestionTypeUpload   QuestionType = "upload"
)

// Question вопрос анкеты LimeSurvey после нормализации
type Question struct {
	Code       string         `json:"code"`
	Text       string         `json:"text"`
	Type       QuestionType   `json:"type"`
	Group      string         `json:"group"`
	Required   bool           `json:"required"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

func (q Question) IsAttachment() bool {
	return q.Type == QuestionTypeUpload
}

type SyncStatus string

const (
	SyncStatusDraft  SyncStatus = "draft"
	SyncStatusSynced SyncStatus = "synced"
	SyncStatusError  SyncStatus = "error"
)

type AutoCreateStatus string

const (
	AutoCreateDisabled AutoCreateStatus = "disabled"
	AutoCreateEnabled  AutoCreateStatus = "enabled"
	AutoCreatePaused   AutoCreateStatus = "paused"
)

type ConnectionStatus string

const (
	ConnectionNotTested ConnectionStatus = "not_tested"
	ConnectionConnected ConnectionStatus = "connected"
	ConnectionFailed    ConnectionStatus = "failed"
)

type MappingKind string

const (
	MappingKindDirect    MappingKind = "direct"
	MappingKindTransform MappingKind = "transform"
)

func (k MappingKind) IsValid() bool {
	return k == MappingKindDirect || k == MappingKindTransform
}

type MappingLineStatus string

const (
	MappingLineDraft     MappingLineStatus = "draft"
	MappingLineToVerify  MappingLineStatus = "to_verify"
	MappingLineValidated MappingLineStatus = "validated"
)

type MappingState string

const (
	MappingStateDraft     MappingState = "draft"
	MappingStateValidated MappingState = "validated"
)

// MappingQuality оценка качества сопоставления для оператора
type MappingQuality string

const (
	MappingQualityConfirmed MappingQuality = "confirmed"
	MappingQualityWarning   MappingQuality = "warning"
	MappingQualityUnmatched MappingQuality = "unmatched"
)

const (
	// порог автоматической валидации строки сопоставления
	ConfidenceAutoValidate = 90
	// минимальная уверенность, при которой подсказка применяется
	ConfidenceSuggestMin = 50
	// уверенность по умолчанию при ручном выборе поля
	ConfidenceManualDefault = 50
	ConfidenceMax           = 100
)

type ImportBatchState string

const (
	ImportBatchRunning ImportBatchState = "running"
	ImportBatchDone    ImportBatchState = "done"
	ImportBatchPartial ImportBatchState = "partial"
	ImportBatchFailed  ImportBatchState = "failed"
)

type ImportSource string

const (
	ImportSourceLimeSurvey ImportSource = "limesurvey"
	ImportSourceXlsx       ImportSource = "xlsx"
	ImportSourceWorker     ImportSource = "auto_import"
)
