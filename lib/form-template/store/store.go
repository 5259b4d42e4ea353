package formtemplatestore

import (
	"time"

	"admission-backend/models"
	dbmodels "admission-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	Create(rec dbmodels.FormTemplate) (id string, err error)
	GetByID(id string) (rec *dbmodels.FormTemplate, err error)
	// ListBySurveyID шаблоны с данным sid на всех серверах
	ListBySurveyID(surveyID string) (list []dbmodels.FormTemplate, err error)
	Update(id string, updMap map[string]interface{}) error
	Delete(id string) error
	List(serverID string) (list []dbmodels.FormTemplate, err error)
	ListByAutoCreateStatus(status models.AutoCreateStatus) (list []dbmodels.FormTemplate, err error)
	CountByServer(serverID string) (count int64, err error)
	// AddCreated увеличивает счетчик созданных кандидатов
	AddCreated(id string, count int, at time.Time) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.FormTemplate) (id string, err error) {
	err = i.db.
		Omit(clause.Associations).
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.FormTemplate, error) {
	rec := dbmodels.FormTemplate{}
	err := i.db.
		Where("id = ?", id).
		Preload(clause.Associations).
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

func (i impl) ListBySurveyID(surveyID string) (list []dbmodels.FormTemplate, err error) {
	list = []dbmodels.FormTemplate{}
	err = i.db.
		Where("survey_id = ?", surveyID).
		Preload(clause.Associations).
		Order("created_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) Update(id string, updMap map[string]interface{}) error {
	if len(updMap) == 0 {
		return nil
	}
	tx := i.db.
		Model(&dbmodels.FormTemplate{}).
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

func (i impl) Delete(id string) error {
	rec := dbmodels.FormTemplate{
		BaseModel: dbmodels.BaseModel{ID: id},
	}
	return i.db.
		Delete(&rec).
		Error
}

func (i impl) List(serverID string) (list []dbmodels.FormTemplate, err error) {
	list = []dbmodels.FormTemplate{}
	tx := i.db.
		Model(dbmodels.FormTemplate{})
	if serverID != "" {
		tx = tx.Where("server_id = ?", serverID)
	}
	err = tx.
		Preload(clause.Associations).
		Order("created_at desc").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListByAutoCreateStatus(status models.AutoCreateStatus) (list []dbmodels.FormTemplate, err error) {
	list = []dbmodels.FormTemplate{}
	err = i.db.
		Where("auto_create_status = ?", status).
		Preload(clause.Associations).
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) CountByServer(serverID string) (count int64, err error) {
	err = i.db.
		Model(dbmodels.FormTemplate{}).
		Where("server_id = ?", serverID).
		Count(&count).
		Error
	return count, err
}

func (i impl) AddCreated(id string, count int, at time.Time) error {
	if count == 0 {
		return nil
	}
	return i.db.
		Model(&dbmodels.FormTemplate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_auto_created":      gorm.Expr("total_auto_created + ?", count),
			"last_candidate_creation": at,
		}).
		Error
}
