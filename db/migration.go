package db

import (
	dbmodels "admission-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func AutoMigrateDB() error {
	log.Info("Запуск миграций")
	if err := Migrate(DB); err != nil {
		return err
	}
	log.Info("Миграция прошла успешно")
	return nil
}

// Migrate создание структуры БД для переданного подключения
func Migrate(tx *gorm.DB) error {
	if err := tx.AutoMigrate(&dbmodels.LimeSurveyServer{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры LimeSurveyServer")
	}
	if err := tx.AutoMigrate(&dbmodels.FormTemplate{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры FormTemplate")
	}
	if err := tx.AutoMigrate(&dbmodels.FormMapping{}, &dbmodels.FormMappingLine{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры FormMapping")
	}
	if err := tx.AutoMigrate(&dbmodels.CandidateStage{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры CandidateStage")
	}
	if err := tx.AutoMigrate(&dbmodels.ImportBatch{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры ImportBatch")
	}
	if err := tx.AutoMigrate(&dbmodels.Candidate{}, &dbmodels.CandidateAttachment{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры Candidate")
	}
	return nil
}
