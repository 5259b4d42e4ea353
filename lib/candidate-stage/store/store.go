package candidatestagestore

import (
	dbmodels "admission-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Provider interface {
	Create(rec *dbmodels.CandidateStage) error
	CreateList(list []dbmodels.CandidateStage) error
	GetByID(id string) (rec *dbmodels.CandidateStage, err error)
	// GetDefault этап, на который попадают новые кандидаты. nil - этапов у анкеты нет
	GetDefault(templateID string) (rec *dbmodels.CandidateStage, err error)
	List(templateID string) (list []dbmodels.CandidateStage, err error)
	Update(id string, updMap map[string]interface{}) error
	// SetDefault снимает признак со всех этапов анкеты и ставит его одному
	SetDefault(templateID, id string) error
	Delete(id string) error
	DeleteByTemplate(templateID string) error
	// CandidateCounts количество кандидатов по этапам анкеты
	CandidateCounts(templateID string) (counts map[string]int64, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec *dbmodels.CandidateStage) error {
	return i.db.
		Create(rec).
		Error
}

func (i impl) CreateList(list []dbmodels.CandidateStage) error {
	if len(list) == 0 {
		return nil
	}
	return i.db.
		Create(&list).
		Error
}

func (i impl) GetByID(id string) (*dbmodels.CandidateStage, error) {
	rec := dbmodels.CandidateStage{}
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

func (i impl) GetDefault(templateID string) (*dbmodels.CandidateStage, error) {
	rec := dbmodels.CandidateStage{}
	err := i.db.
		Where("form_template_id = ?", templateID).
		Where("is_default = ?", true).
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

func (i impl) List(templateID string) (list []dbmodels.CandidateStage, err error) {
	list = []dbmodels.CandidateStage{}
	err = i.db.
		Where("form_template_id = ?", templateID).
		Order("sequence, created_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) Update(id string, updMap map[string]interface{}) error {
	tx := i.db.
		Model(&dbmodels.CandidateStage{}).
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

func (i impl) SetDefault(templateID, id string) error {
	return i.db.Transaction(func(tx *gorm.DB) error {
		err := tx.
			Model(&dbmodels.CandidateStage{}).
			Where("form_template_id = ?", templateID).
			Where("is_default = ?", true).
			Update("is_default", false).
			Error
		if err != nil {
			return err
		}
		res := tx.
			Model(&dbmodels.CandidateStage{}).
			Where("id = ?", id).
			Where("form_template_id = ?", templateID).
			Update("is_default", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New("запись не найдена")
		}
		return nil
	})
}

func (i impl) Delete(id string) error {
	return i.db.
		Where("id = ?", id).
		Delete(&dbmodels.CandidateStage{}).
		Error
}

func (i impl) DeleteByTemplate(templateID string) error {
	return i.db.
		Where("form_template_id = ?", templateID).
		Delete(&dbmodels.CandidateStage{}).
		Error
}

func (i impl) CandidateCounts(templateID string) (map[string]int64, error) {
	rows := []struct {
		StageID string
		Count   int64
	}{}
	err := i.db.
		Model(&dbmodels.Candidate{}).
		Select("stage_id, count(*) as count").
		Where("form_template_id = ?", templateID).
		Where("stage_id is not null").
		Group("stage_id").
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.StageID] = row.Count
	}
	return result, nil
}
