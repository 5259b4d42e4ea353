package candidate

import (
	"context"
	"time"

	"admission-backend/db"
	candidatestagestore "admission-backend/lib/candidate-stage/store"
	candidatestore "admission-backend/lib/candidate/store"
	filestorage "admission-backend/lib/file-storage"
	"admission-backend/models"
	candidateapimodels "admission-backend/models/api/candidate"
	dbmodels "admission-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	ErrCandidateNotFound  = errors.New("кандидат не найден")
	ErrAttachmentNotFound = errors.New("документ не найден")
	ErrAttachmentNoFile   = errors.New("файл документа не загружен")
	ErrStageNotFound      = errors.New("этап не найден")
)

// StatusError переход между этапами не разрешен
type StatusError struct {
	From models.CandidateStatus
	To   models.CandidateStatus
}

func (e StatusError) Error() string {
	return "недопустимый переход статуса кандидата из " + string(e.From) + " в " + string(e.To)
}

// EvaluationError действие с оценкой недопустимо в текущем состоянии
type EvaluationError struct {
	Reason string
}

func (e EvaluationError) Error() string {
	return e.Reason
}

// AttachmentFile содержимое документа для выгрузки
type AttachmentFile struct {
	Name     string
	MimeType string
	Data     []byte
}

type Provider interface {
	List(filter candidateapimodels.ListFilter) ([]candidateapimodels.CandidateView, int64, error)
	Get(id string) (*candidateapimodels.CandidateViewExt, error)
	ChangeStatus(id string, status models.CandidateStatus) (*candidateapimodels.CandidateView, error)
	GetAttachment(ctx context.Context, candidateID, attachmentID string) (*AttachmentFile, error)
	// ChangeStage перевод на этап воронки той же анкеты
	ChangeStage(id, stageID string) (*candidateapimodels.CandidateView, error)

	StartEvaluation(id string) (*candidateapimodels.CandidateView, error)
	// Evaluate оценки и комментарий, только для начатой оценки
	Evaluate(id string, request candidateapimodels.EvaluationRequest) (*candidateapimodels.CandidateView, error)
	CompleteEvaluation(id string) (*candidateapimodels.CandidateView, error)
	// ResetEvaluation возврат в pending, оценки очищаются
	ResetEvaluation(id string) (*candidateapimodels.CandidateView, error)
}

var Instance Provider

func NewHandler() {
	Instance = NewInstance(candidatestore.NewInstance(db.DB), candidatestagestore.NewInstance(db.DB), filestorage.Instance)
}

func NewInstance(store candidatestore.Provider, stageStore candidatestagestore.Provider, files filestorage.Provider) Provider {
	return &impl{
		store:      store,
		stageStore: stageStore,
		files:      files,
	}
}

type impl struct {
	store      candidatestore.Provider
	stageStore candidatestagestore.Provider
	files      filestorage.Provider
}

func (i impl) List(filter candidateapimodels.ListFilter) ([]candidateapimodels.CandidateView, int64, error) {
	list, rowCount, err := i.store.List(filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]candidateapimodels.CandidateView, 0, len(list))
	for _, rec := range list {
		result = append(result, rec.ToModel())
	}
	return result, rowCount, nil
}

func (i impl) Get(id string) (*candidateapimodels.CandidateViewExt, error) {
	rec, err := i.get(id)
	if err != nil {
		return nil, err
	}
	result := rec.ToModelExt()
	return &result, nil
}

func (i impl) ChangeStatus(id string, status models.CandidateStatus) (*candidateapimodels.CandidateView, error) {
	rec, err := i.get(id)
	if err != nil {
		return nil, err
	}
	if rec.Status == status {
		result := rec.ToModel()
		return &result, nil
	}
	if !rec.Status.CanMoveTo(status) {
		return nil, StatusError{From: rec.Status, To: status}
	}
	if err = i.store.UpdateStatus(id, status); err != nil {
		return nil, errors.Wrap(err, "ошибка изменения статуса кандидата")
	}
	log.
		WithField("candidate_id", id).
		WithField("from", rec.Status).
		WithField("to", status).
		Info("изменен статус кандидата")
	rec.Status = status
	result := rec.ToModel()
	return &result, nil
}

func (i impl) GetAttachment(ctx context.Context, candidateID, attachmentID string) (*AttachmentFile, error) {
	rec, err := i.store.GetAttachment(candidateID, attachmentID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrAttachmentNotFound
	}
	if rec.ObjectKey == "" {
		return nil, ErrAttachmentNoFile
	}
	data, err := i.files.Get(ctx, rec.ObjectKey)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения файла документа")
	}
	return &AttachmentFile{
		Name:     rec.Name,
		MimeType: rec.MimeType,
		Data:     data,
	}, nil
}

func (i impl) ChangeStage(id, stageID string) (*candidateapimodels.CandidateView, error) {
	rec, err := i.get(id)
	if err != nil {
		return nil, err
	}
	stage, err := i.stageStore.GetByID(stageID)
	if err != nil {
		return nil, err
	}
	if stage == nil || stage.FormTemplateID != rec.FormTemplateID {
		return nil, ErrStageNotFound
	}
	if err = i.store.Update(id, map[string]interface{}{"stage_id": stageID}); err != nil {
		return nil, errors.Wrap(err, "ошибка перевода кандидата на этап")
	}
	log.
		WithField("candidate_id", id).
		WithField("stage", stage.Code).
		Info("кандидат переведен на этап")
	rec.StageID = &stageID
	result := rec.ToModel()
	return &result, nil
}

func (i impl) StartEvaluation(id string) (*candidateapimodels.CandidateView, error) {
	rec, err := i.get(id)
	if err != nil {
		return nil, err
	}
	if rec.GetEvaluationStatus() != models.EvaluationPending {
		return nil, EvaluationError{Reason: "оценку можно начать только для кандидата, ожидающего оценки"}
	}
	return i.updateEvaluation(rec, map[string]interface{}{
		"evaluation_status": models.EvaluationInProgress,
	})
}

func (i impl) Evaluate(id string, request candidateapimodels.EvaluationRequest) (*candidateapimodels.CandidateView, error) {
	rec, err := i.get(id)
	if err != nil {
		return nil, err
	}
	if rec.GetEvaluationStatus() != models.EvaluationInProgress {
		return nil, EvaluationError{Reason: "оценки выставляются только во время оценки"}
	}
	updMap := map[string]interface{}{}
	if request.AcademicScore != nil {
		updMap["academic_score"] = *request.AcademicScore
	}
	if request.ExperienceScore != nil {
		updMap["experience_score"] = *request.ExperienceScore
	}
	if request.MotivationScore != nil {
		updMap["motivation_score"] = *request.MotivationScore
	}
	if request.EvaluationNote != nil {
		updMap["evaluation_note"] = *request.EvaluationNote
	}
	if len(updMap) == 0 {
		result := rec.ToModel()
		return &result, nil
	}
	return i.updateEvaluation(rec, updMap)
}

func (i impl) CompleteEvaluation(id string) (*candidateapimodels.CandidateView, error) {
	rec, err := i.get(id)
	if err != nil {
		return nil, err
	}
	if rec.GetEvaluationStatus() != models.EvaluationInProgress {
		return nil, EvaluationError{Reason: "завершить можно только начатую оценку"}
	}
	if !rec.HasAllScores() {
		return nil, EvaluationError{Reason: "перед завершением оценки нужно выставить все оценки"}
	}
	return i.updateEvaluation(rec, map[string]interface{}{
		"evaluation_status": models.EvaluationCompleted,
		"evaluated_at":      time.Now(),
	})
}

func (i impl) ResetEvaluation(id string) (*candidateapimodels.CandidateView, error) {
	rec, err := i.get(id)
	if err != nil {
		return nil, err
	}
	if rec.GetEvaluationStatus() == models.EvaluationPending {
		return nil, EvaluationError{Reason: "кандидат уже ожидает оценки"}
	}
	return i.updateEvaluation(rec, map[string]interface{}{
		"evaluation_status": models.EvaluationPending,
		"academic_score":    nil,
		"experience_score":  nil,
		"motivation_score":  nil,
		"evaluation_note":   "",
		"evaluated_at":      nil,
	})
}

func (i impl) updateEvaluation(rec *dbmodels.Candidate, updMap map[string]interface{}) (*candidateapimodels.CandidateView, error) {
	if err := i.store.Update(rec.ID, updMap); err != nil {
		return nil, errors.Wrap(err, "ошибка сохранения оценки кандидата")
	}
	log.
		WithField("candidate_id", rec.ID).
		WithField("evaluation_status", updMap["evaluation_status"]).
		Info("изменена оценка кандидата")
	return i.view(rec.ID)
}

func (i impl) view(id string) (*candidateapimodels.CandidateView, error) {
	rec, err := i.get(id)
	if err != nil {
		return nil, err
	}
	result := rec.ToModel()
	return &result, nil
}

func (i impl) get(id string) (*dbmodels.Candidate, error) {
	rec, err := i.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrCandidateNotFound
	}
	return rec, nil
}
