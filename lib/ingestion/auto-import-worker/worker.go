package autoimportworker

import (
	"context"
	"time"

	"admission-backend/config"
	"admission-backend/db"
	formtemplatestore "admission-backend/lib/form-template/store"
	"admission-backend/lib/ingestion"
	baseworker "admission-backend/lib/utils/base-worker"
	"admission-backend/lib/utils/helpers"
	"admission-backend/lib/utils/lock"
	"admission-backend/models"
	dbmodels "admission-backend/models/db"
)

// Importer импорт новых ответов одного шаблона
type Importer interface {
	AutoImport(ctx context.Context, templateID string, maxResponses int) (*dbmodels.ImportBatch, error)
}

func StartWorker(ctx context.Context) {
	if config.Conf.Ingestion.AutoImportEnabled != nil && !*config.Conf.Ingestion.AutoImportEnabled {
		return
	}
	interval := time.Duration(config.Conf.Ingestion.AutoImportIntervalMin) * time.Minute
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	i := newInstance(formtemplatestore.NewInstance(db.DB), ingestion.Instance, config.Conf.Ingestion.AutoImportMaxPerRun, interval)
	go i.Run(ctx, i.handle)
}

func newInstance(templateStore formtemplatestore.Provider, importer Importer, maxPerRun int, interval time.Duration) *impl {
	return &impl{
		BaseImpl:      *baseworker.NewInstance("AutoImportWorker", 30*time.Second, interval),
		templateStore: templateStore,
		importer:      importer,
		maxPerRun:     maxPerRun,
	}
}

type impl struct {
	baseworker.BaseImpl
	templateStore formtemplatestore.Provider
	importer      Importer
	maxPerRun     int
}

func (i impl) handle(ctx context.Context) {
	logger := i.GetLogger()
	list, err := i.templateStore.ListByAutoCreateStatus(models.AutoCreateEnabled)
	if err != nil {
		logger.WithError(err).Error("ошибка получения списка шаблонов с автосозданием кандидатов")
		return
	}
	for _, template := range list {
		if helpers.IsContextDone(ctx) {
			return
		}
		if !template.MappingValidated {
			continue
		}
		templateLogger := logger.
			WithField("form_template_id", template.ID).
			WithField("survey_id", template.SurveyID)
		ok, err := lock.WithDelay(ctx, lock.ImportKey(template.ID), time.Second, func() error {
			batch, err := i.importer.AutoImport(ctx, template.ID, i.maxPerRun)
			if err != nil {
				return err
			}
			if batch != nil {
				templateLogger.
					WithField("batch_id", batch.ID).
					WithField("imported", batch.ImportedCount).
					Info("новые ответы импортированы")
			}
			return nil
		})
		if err != nil {
			templateLogger.WithError(err).Error("ошибка автоматического импорта ответов")
			continue
		}
		if !ok {
			templateLogger.Info("импорт ответов шаблона уже выполняется")
		}
	}
}
