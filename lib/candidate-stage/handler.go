package candidatestage

import (
	"strings"

	"admission-backend/db"
	candidatestagestore "admission-backend/lib/candidate-stage/store"
	formtemplatestore "admission-backend/lib/form-template/store"
	candidatestageapimodels "admission-backend/models/api/candidate-stage"
	dbmodels "admission-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	ErrTemplateNotFound = errors.New("шаблон анкеты не найден")
	ErrStageNotFound    = errors.New("этап не найден")
	ErrDefaultExists    = errors.New("у анкеты уже есть этап по умолчанию")
	ErrDefaultStage     = errors.New("этап по умолчанию нельзя удалить")
	ErrStageInUse       = errors.New("на этапе есть кандидаты")
)

type Provider interface {
	List(templateID string) ([]candidatestageapimodels.StageView, error)
	Create(templateID string, request candidatestageapimodels.StageData) (id string, err error)
	Update(id string, request candidatestageapimodels.StageData) (*candidatestageapimodels.StageView, error)
	Delete(id string) error
	SetDefault(id string) (*candidatestageapimodels.StageView, error)
	// CreateDefaults набор этапов для новой анкеты, первый этап - по умолчанию
	CreateDefaults(templateID string) error
	DeleteAll(templateID string) error
}

var Instance Provider

func NewHandler() {
	Instance = NewInstance(candidatestagestore.NewInstance(db.DB), formtemplatestore.NewInstance(db.DB))
}

func NewInstance(store candidatestagestore.Provider, templateStore formtemplatestore.Provider) Provider {
	return &impl{
		store:         store,
		templateStore: templateStore,
	}
}

type impl struct {
	store         candidatestagestore.Provider
	templateStore formtemplatestore.Provider
}

var defaultStages = []dbmodels.CandidateStage{
	{Sequence: 1, Code: "new", Name: "Новая заявка", Description: "Кандидат только что создан из ответа", IsDefault: true},
	{Sequence: 2, Code: "pending_review", Name: "Проверка документов", Description: "Ожидает проверки документов"},
	{Sequence: 3, Code: "complete", Name: "Досье полное", Description: "Готов к оценке"},
	{Sequence: 4, Code: "under_review", Name: "Оценка", Description: "Рассмотрение комиссией"},
	{Sequence: 5, Code: "waitlist", Name: "Лист ожидания", Description: "Ожидает решения"},
	{Sequence: 6, Code: "interview", Name: "Собеседование", Description: "Назначено собеседование"},
	{Sequence: 7, Code: "preselected", Name: "Предварительно отобран", Description: "Принят условно"},
	{Sequence: 8, Code: "accepted", Name: "Зачислен", Description: "Зачисление подтверждено"},
	{Sequence: 9, Code: "rejected", Name: "Отклонен", Description: "Кандидат не прошел отбор", Fold: true},
	{Sequence: 10, Code: "archived", Name: "Архив", Description: "Вне кампании или заявка перенесена", Fold: true},
}

func (i impl) List(templateID string) ([]candidatestageapimodels.StageView, error) {
	if err := i.checkTemplate(templateID); err != nil {
		return nil, err
	}
	list, err := i.store.List(templateID)
	if err != nil {
		return nil, err
	}
	counts, err := i.store.CandidateCounts(templateID)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка подсчета кандидатов по этапам")
	}
	result := make([]candidatestageapimodels.StageView, 0, len(list))
	for _, rec := range list {
		view := rec.ToModel()
		view.CandidateCount = counts[rec.ID]
		result = append(result, view)
	}
	return result, nil
}

func (i impl) Create(templateID string, request candidatestageapimodels.StageData) (id string, err error) {
	if err = i.checkTemplate(templateID); err != nil {
		return "", err
	}
	current, err := i.store.GetDefault(templateID)
	if err != nil {
		return "", err
	}
	if request.IsDefault && current != nil {
		return "", ErrDefaultExists
	}
	rec := dbmodels.CandidateStage{
		FormTemplateID: templateID,
		Code:           strings.TrimSpace(request.Code),
		Name:           strings.TrimSpace(request.Name),
		Description:    request.Description,
		Sequence:       request.Sequence,
		Fold:           request.Fold,
		// у анкеты всегда ровно один этап по умолчанию
		IsDefault: current == nil,
	}
	if err = i.store.Create(&rec); err != nil {
		return "", errors.Wrap(err, "ошибка добавления этапа")
	}
	return rec.ID, nil
}

func (i impl) Update(id string, request candidatestageapimodels.StageData) (*candidatestageapimodels.StageView, error) {
	if _, err := i.get(id); err != nil {
		return nil, err
	}
	updMap := map[string]interface{}{
		"code":        strings.TrimSpace(request.Code),
		"name":        strings.TrimSpace(request.Name),
		"description": request.Description,
		"sequence":    request.Sequence,
		"fold":        request.Fold,
	}
	if err := i.store.Update(id, updMap); err != nil {
		return nil, err
	}
	rec, err := i.get(id)
	if err != nil {
		return nil, err
	}
	view := rec.ToModel()
	return &view, nil
}

func (i impl) Delete(id string) error {
	rec, err := i.get(id)
	if err != nil {
		return err
	}
	if rec.IsDefault {
		return ErrDefaultStage
	}
	counts, err := i.store.CandidateCounts(rec.FormTemplateID)
	if err != nil {
		return err
	}
	if counts[id] > 0 {
		return ErrStageInUse
	}
	return i.store.Delete(id)
}

func (i impl) SetDefault(id string) (*candidatestageapimodels.StageView, error) {
	rec, err := i.get(id)
	if err != nil {
		return nil, err
	}
	if !rec.IsDefault {
		if err = i.store.SetDefault(rec.FormTemplateID, id); err != nil {
			return nil, errors.Wrap(err, "ошибка изменения этапа по умолчанию")
		}
		log.
			WithField("form_template_id", rec.FormTemplateID).
			WithField("stage_id", id).
			Info("изменен этап по умолчанию")
		rec.IsDefault = true
	}
	view := rec.ToModel()
	return &view, nil
}

func (i impl) CreateDefaults(templateID string) error {
	existing, err := i.store.List(templateID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	list := make([]dbmodels.CandidateStage, 0, len(defaultStages))
	for _, stage := range defaultStages {
		stage.FormTemplateID = templateID
		list = append(list, stage)
	}
	return i.store.CreateList(list)
}

func (i impl) DeleteAll(templateID string) error {
	return i.store.DeleteByTemplate(templateID)
}

func (i impl) checkTemplate(templateID string) error {
	rec, err := i.templateStore.GetByID(templateID)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrTemplateNotFound
	}
	return nil
}

func (i impl) get(id string) (*dbmodels.CandidateStage, error) {
	rec, err := i.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrStageNotFound
	}
	return rec, nil
}
