package importbatchstore

import (
	dbmodels "admission-backend/models/db"
	importbatchapimodels "admission-backend/models/api/import-batch"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	Create(rec *dbmodels.ImportBatch) error
	Save(rec *dbmodels.ImportBatch) error
	GetByID(id string) (rec *dbmodels.ImportBatch, err error)
	List(filter importbatchapimodels.ListFilter) (list []dbmodels.ImportBatch, rowCount int64, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec *dbmodels.ImportBatch) error {
	return i.db.
		Omit(clause.Associations).
		Create(rec).
		Error
}

func (i impl) Save(rec *dbmodels.ImportBatch) error {
	return i.db.
		Omit(clause.Associations).
		Save(rec).
		Error
}

func (i impl) GetByID(id string) (*dbmodels.ImportBatch, error) {
	rec := dbmodels.ImportBatch{}
	err := i.db.
		Where("id = ?", id).
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

func (i impl) List(filter importbatchapimodels.ListFilter) (list []dbmodels.ImportBatch, rowCount int64, err error) {
	list = []dbmodels.ImportBatch{}
	err = i.filtered(filter).Count(&rowCount).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "ошибка получения количества пакетов импорта")
	}
	_, limit := filter.GetPage()
	err = i.filtered(filter).
		Order("started_at desc").
		Limit(limit).
		Offset(filter.Offset()).
		Find(&list).
		Error
	if err != nil {
		return nil, 0, err
	}
	return list, rowCount, nil
}

func (i impl) filtered(filter importbatchapimodels.ListFilter) *gorm.DB {
	tx := i.db.
		Model(dbmodels.ImportBatch{})
	if filter.FormTemplateID != "" {
		tx = tx.Where("form_template_id = ?", filter.FormTemplateID)
	}
	if filter.State != "" {
		tx = tx.Where("state = ?", filter.State)
	}
	return tx
}
