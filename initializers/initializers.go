package initializers

import (
	"context"
	"time"

	"admission-backend/config"
	"admission-backend/fiberlog"
	"admission-backend/lib/candidate"
	candidatestage "admission-backend/lib/candidate-stage"
	"admission-backend/lib/events"
	xlsexport "admission-backend/lib/export/xls"
	formschema "admission-backend/lib/form-schema"
	formtemplate "admission-backend/lib/form-template"
	importbatch "admission-backend/lib/import-batch"
	"admission-backend/lib/ingestion"
	autoimportworker "admission-backend/lib/ingestion/auto-import-worker"
	limesurveyclient "admission-backend/lib/limesurvey/client"
	"admission-backend/lib/mapping"
	responseprocessor "admission-backend/lib/response-processor"
	"admission-backend/lib/snippet"

	log "github.com/sirupsen/logrus"
)

var LoggerConfig *fiberlog.Config

// InitAllServices порядок важен: обработчики берут зависимости из Instance уже созданных
func InitAllServices(ctx context.Context) {
	LoggerConfig = InitLogger()
	config.InitConfig()
	InitDBConnection()
	InitS3()
	events.NewHandler(config.Conf.KafkaBrokers(), config.Conf.Kafka.Topic)
	limesurveyclient.NewProvider(config.Conf.LimeSurveyTimeout(), InitSessionCache(),
		time.Duration(config.Conf.LimeSurvey.SessionTTLSec)*time.Second)
	snippet.NewHandler(config.Conf.SnippetTimeout())
	formschema.NewHandler()
	responseprocessor.NewHandler(config.Conf.Ingestion.MaxAttachmentSize)
	ingestion.NewHandler()
	mapping.NewHandler(ingestion.Instance)
	candidatestage.NewHandler()
	formtemplate.NewHandler()
	xlsexport.NewHandler()
	candidate.NewHandler()
	importbatch.NewHandler()
	go initWorkers(ctx)
}

func initWorkers(ctx context.Context) {
	if makeTimeGap(ctx) {
		// Задача импорта новых ответов LimeSurvey по шаблонам с включенным автосозданием
		autoimportworker.StartWorker(ctx)
	}
}

// пауза перед стартом воркеров, чтобы не нагружать LimeSurvey сразу после деплоя
func makeTimeGap(ctx context.Context) (canRun bool) {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(time.Second * 10):
		return true
	}
}

func CloseAll() {
	if err := events.Instance.Close(); err != nil {
		log.WithError(err).Warn("ошибка закрытия публикатора событий")
	}
	CloseRedis()
}
