package models

type EvaluationStatus string

const (
	EvaluationPending    EvaluationStatus = "pending"
	EvaluationInProgress EvaluationStatus = "in_progress"
	EvaluationCompleted  EvaluationStatus = "completed"
)

func (s EvaluationStatus) IsValid() bool {
	switch s {
	case EvaluationPending, EvaluationInProgress, EvaluationCompleted:
		return true
	}
	return false
}
