package config

import (
	"time"

	"admission-backend/lib/utils/helpers"

	"github.com/gotify/configor"
)

var Conf *Configuration

type Configuration struct {
	App struct {
		ListenAddr   string `default:"" env:"APP_HOST"`
		Port         int    `default:"8080"  env:"APP_PORT"`
		BodyLimitMB  int    `default:"50" env:"APP_BODY_LIMIT_MB"`
		ErrNotifyURL string `default:"" env:"APP_ERR_NOTIFY_URL"`
	}
	Database struct {
		Host           string `default:"127.0.0.1" env:"DB_HOST"`
		Port           string `default:"5432" env:"DB_PORT"`
		Name           string `default:"admission" env:"DB_NAME"`
		User           string `default:"postgres" env:"DB_USER"`
		Password       string `default:"postgres" env:"DB_PASSWORD"`
		MigrateOnStart *bool  `default:"true" env:"DB_MIGRATE_ON_START"`
		DebugMode      *bool  `default:"false" env:"DB_DEBUG_MODE"`
	}
	Auth struct {
		JWTSecret        string `default:"" env:"JWT_SECRET"`
		JWTExpireInSec   int    `default:"86400" env:"JWT_EXPIRE_IN_SEC"`
		OperatorLogin    string `default:"admin" env:"AUTH_OPERATOR_LOGIN"`
		OperatorPassword string `default:"" env:"AUTH_OPERATOR_PASSWORD"`
	}
	S3 struct {
		Endpoint        string `default:"127.0.0.1:9000" env:"S3_ENDPOINT"`
		AccessKeyID     string `default:"" env:"S3_ACCESS_KEY_ID"`
		SecretAccessKey string `default:"" env:"S3_SECRET_ACCESS_KEY"`
		UseSSL          *bool  `default:"false" env:"S3_USE_SSL"`
		BucketName      string `default:"admission-attachments" env:"S3_BUCKET_NAME"`
	}
	Kafka struct {
		Brokers string `default:"" env:"KAFKA_BROKERS"` // через запятую
		Topic   string `default:"admission.events" env:"KAFKA_TOPIC"`
	}
	Redis struct {
		Addr     string `default:"" env:"REDIS_ADDR"`
		Password string `default:"" env:"REDIS_PASSWORD"`
		DB       int    `default:"0" env:"REDIS_DB"`
	}
	LimeSurvey struct {
		// сервер, добавляемый при старте, если его еще нет
		ServerName        string `default:"LimeSurvey" env:"LIMESURVEY_SERVER_NAME"`
		BaseURL           string `default:"" env:"LIMESURVEY_BASE_URL"`
		APIUsername       string `default:"" env:"LIMESURVEY_API_USERNAME"`
		APIPassword       string `default:"" env:"LIMESURVEY_API_PASSWORD"`
		WebhookToken      string `default:"" env:"LIMESURVEY_WEBHOOK_TOKEN"`
		RequestTimeoutSec int `default:"30" env:"LIMESURVEY_REQUEST_TIMEOUT_SEC"`
		SessionTTLSec     int `default:"600" env:"LIMESURVEY_SESSION_TTL_SEC"`
	}
	Ingestion struct {
		SnippetTimeoutMs      int   `default:"200" env:"INGESTION_SNIPPET_TIMEOUT_MS"`
		MaxAttachmentSize     int64 `default:"10485760" env:"INGESTION_MAX_ATTACHMENT_SIZE"`
		BatchErrorPreview     int   `default:"20" env:"INGESTION_BATCH_ERROR_PREVIEW"`
		AutoImportIntervalMin int   `default:"15" env:"INGESTION_AUTO_IMPORT_INTERVAL_MIN"`
		AutoImportEnabled     *bool `default:"true" env:"INGESTION_AUTO_IMPORT_ENABLED"`
		AutoImportMaxPerRun   int   `default:"500" env:"INGESTION_AUTO_IMPORT_MAX_PER_RUN"`
	}
}

func configFiles() []string {
	return []string{"config.yml"}
}

func InitConfig() {
	if Conf != nil {
		return
	}
	conf := new(Configuration)
	err := configor.New(&configor.Config{}).Load(conf, configFiles()...)
	if err != nil {
		panic(err)
	}
	Conf = conf
}

func (c *Configuration) KafkaBrokers() []string {
	return helpers.SplitList(c.Kafka.Brokers)
}

func (c *Configuration) LimeSurveyTimeout() time.Duration {
	return time.Duration(c.LimeSurvey.RequestTimeoutSec) * time.Second
}

func (c *Configuration) BodyLimit() int64 {
	return int64(c.App.BodyLimitMB) * 1024 * 1024
}

func (c *Configuration) SnippetTimeout() time.Duration {
	return time.Duration(c.Ingestion.SnippetTimeoutMs) * time.Millisecond
}
