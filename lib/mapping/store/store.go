package mappingstore

import (
	dbmodels "admission-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	// GetByTemplate набор сопоставления шаблона со строками в порядке sequence
	GetByTemplate(templateID string) (rec *dbmodels.FormMapping, err error)
	GetLine(id string) (rec *dbmodels.FormMappingLine, err error)
	// Save сохраняет набор и его строки, строки, отсутствующие в наборе, удаляются
	Save(rec *dbmodels.FormMapping) error
	SaveLine(rec *dbmodels.FormMappingLine) error
	DeleteByTemplate(templateID string) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) GetByTemplate(templateID string) (*dbmodels.FormMapping, error) {
	rec := dbmodels.FormMapping{}
	err := i.db.
		Where("form_template_id = ?", templateID).
		Preload("Lines", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sequence").Order("created_at")
		}).
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

func (i impl) GetLine(id string) (*dbmodels.FormMappingLine, error) {
	rec := dbmodels.FormMappingLine{}
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

func (i impl) Save(rec *dbmodels.FormMapping) error {
	return i.db.Transaction(func(tx *gorm.DB) error {
		err := tx.
			Omit(clause.Associations).
			Save(rec).
			Error
		if err != nil {
			return errors.Wrap(err, "ошибка сохранения набора сопоставления")
		}
		ids := make([]string, 0, len(rec.Lines))
		for idx := range rec.Lines {
			line := &rec.Lines[idx]
			line.MappingID = rec.ID
			if err = tx.Save(line).Error; err != nil {
				return errors.Wrapf(err, "ошибка сохранения строки сопоставления %s", line.QuestionCode)
			}
			ids = append(ids, line.ID)
		}
		del := tx.Where("mapping_id = ?", rec.ID)
		if len(ids) > 0 {
			del = del.Where("id not in ?", ids)
		}
		err = del.Delete(&dbmodels.FormMappingLine{}).Error
		if err != nil {
			return errors.Wrap(err, "ошибка удаления строк сопоставления")
		}
		return nil
	})
}

func (i impl) SaveLine(rec *dbmodels.FormMappingLine) error {
	return i.db.
		Save(rec).
		Error
}

func (i impl) DeleteByTemplate(templateID string) error {
	return i.db.Transaction(func(tx *gorm.DB) error {
		ids := tx.
			Model(&dbmodels.FormMapping{}).
			Select("id").
			Where("form_template_id = ?", templateID)
		err := tx.
			Where("mapping_id in (?)", ids).
			Delete(&dbmodels.FormMappingLine{}).
			Error
		if err != nil {
			return err
		}
		return tx.
			Where("form_template_id = ?", templateID).
			Delete(&dbmodels.FormMapping{}).
			Error
	})
}
