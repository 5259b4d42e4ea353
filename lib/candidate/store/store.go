package candidatestore

import (
	"strings"

	"admission-backend/models"
	candidateapimodels "admission-backend/models/api/candidate"
	dbmodels "admission-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	Create(rec *dbmodels.Candidate) error
	// UpdateColumns сохраняет только перечисленные колонки карточки
	UpdateColumns(rec *dbmodels.Candidate, columns []string) error
	GetByID(id string) (rec *dbmodels.Candidate, err error)
	GetByResponse(templateID, responseID string) (rec *dbmodels.Candidate, err error)
	// ResponseIDs номера уже обработанных ответов шаблона
	ResponseIDs(templateID string) (ids map[string]bool, err error)
	ListPending(templateID string) (list []dbmodels.Candidate, err error)
	ListByBatch(batchID string) (list []dbmodels.Candidate, err error)
	List(filter candidateapimodels.ListFilter) (list []dbmodels.Candidate, rowCount int64, err error)
	UpdateStatus(id string, status models.CandidateStatus) error
	Update(id string, updMap map[string]interface{}) error
	AddAttachment(rec *dbmodels.CandidateAttachment) error
	UpdateAttachmentTarget(id string, field models.TargetField) error
	GetAttachment(candidateID, id string) (rec *dbmodels.CandidateAttachment, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec *dbmodels.Candidate) error {
	return i.db.
		Omit(clause.Associations).
		Create(rec).
		Error
}

func (i impl) UpdateColumns(rec *dbmodels.Candidate, columns []string) error {
	tx := i.db.
		Model(rec).
		Select(columns).
		Omit(clause.Associations).
		Updates(rec)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("запись не найдена")
	}
	return nil
}

func (i impl) GetByID(id string) (*dbmodels.Candidate, error) {
	rec := dbmodels.Candidate{}
	err := i.db.
		Where("id = ?", id).
		Preload("Attachments").
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) GetByResponse(templateID, responseID string) (*dbmodels.Candidate, error) {
	rec := dbmodels.Candidate{}
	err := i.db.
		Where("form_template_id = ?", templateID).
		Where("response_id = ?", responseID).
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) ResponseIDs(templateID string) (map[string]bool, error) {
	list := []string{}
	err := i.db.
		Model(dbmodels.Candidate{}).
		Where("form_template_id = ?", templateID).
		Pluck("response_id", &list).
		Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]bool, len(list))
	for _, id := range list {
		result[id] = true
	}
	return result, nil
}

func (i impl) ListPending(templateID string) (list []dbmodels.Candidate, err error) {
	list = []dbmodels.Candidate{}
	err = i.db.
		Where("form_template_id = ?", templateID).
		Where("mapping_pending = ?", true).
		Preload("Attachments").
		Order("created_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListByBatch(batchID string) (list []dbmodels.Candidate, err error) {
	list = []dbmodels.Candidate{}
	err = i.db.
		Where("import_batch_id = ?", batchID).
		Order("created_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) List(filter candidateapimodels.ListFilter) (list []dbmodels.Candidate, rowCount int64, err error) {
	list = []dbmodels.Candidate{}
	err = i.filtered(filter).Count(&rowCount).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "ошибка получения количества кандидатов")
	}
	_, limit := filter.GetPage()
	err = i.filtered(filter).
		Preload("Attachments").
		Order("created_at desc").
		Limit(limit).
		Offset(filter.Offset()).
		Find(&list).
		Error
	if err != nil {
		return nil, 0, err
	}
	return list, rowCount, nil
}

func (i impl) filtered(filter candidateapimodels.ListFilter) *gorm.DB {
	tx := i.db.
		Model(dbmodels.Candidate{})
	if filter.FormTemplateID != "" {
		tx = tx.Where("form_template_id = ?", filter.FormTemplateID)
	}
	if filter.ImportBatchID != "" {
		tx = tx.Where("import_batch_id = ?", filter.ImportBatchID)
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", filter.Status)
	}
	if filter.StageID != "" {
		tx = tx.Where("stage_id = ?", filter.StageID)
	}
	if filter.Search != "" {
		searchValue := "%" + strings.ToLower(filter.Search) + "%"
		tx = tx.Where("LOWER(first_name || ' ' || last_name) like ? or LOWER(email) like ? or response_id like ?", searchValue, searchValue, searchValue)
	}
	return tx
}

func (i impl) UpdateStatus(id string, status models.CandidateStatus) error {
	tx := i.db.
		Model(&dbmodels.Candidate{}).
		Where("id = ?", id).
		Update("status", status)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("запись не найдена")
	}
	return nil
}

func (i impl) Update(id string, updMap map[string]interface{}) error {
	tx := i.db.
		Model(&dbmodels.Candidate{}).
		Where("id = ?", id).
		Updates(updMap)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("запись не найдена")
	}
	return nil
}

func (i impl) AddAttachment(rec *dbmodels.CandidateAttachment) error {
	return i.db.
		Create(rec).
		Error
}

func (i impl) UpdateAttachmentTarget(id string, field models.TargetField) error {
	tx := i.db.
		Model(&dbmodels.CandidateAttachment{}).
		Where("id = ?", id).
		Update("target_field", field)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("запись не найдена")
	}
	return nil
}

func (i impl) GetAttachment(candidateID, id string) (*dbmodels.CandidateAttachment, error) {
	rec := dbmodels.CandidateAttachment{}
	err := i.db.
		Where("id = ?", id).
		Where("candidate_id = ?", candidateID).
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}
