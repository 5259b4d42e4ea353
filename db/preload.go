package db

import (
	"admission-backend/config"
	limesurveyserverstore "admission-backend/lib/form-template/server-store"
	"admission-backend/models"
	dbmodels "admission-backend/models/db"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

func InitPreload() {
	addDefaultServer()
}

// NewWebhookToken случайный токен для заголовка X-Webhook-Token
func NewWebhookToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

func addDefaultServer() {
	conf := config.Conf.LimeSurvey
	if conf.BaseURL == "" {
		log.Warn("сервер LimeSurvey не добавлен, отсутствует настройка LIMESURVEY_BASE_URL")
		return
	}
	serverStore := limesurveyserverstore.NewInstance(DB)
	existedRec, err := serverStore.GetByName(conf.ServerName)
	if err != nil {
		log.WithError(err).Error("ошибка добавления сервера LimeSurvey")
		return
	}
	if existedRec != nil {
		return
	}
	token := conf.WebhookToken
	if token == "" {
		token = NewWebhookToken()
	}
	rec := dbmodels.LimeSurveyServer{
		Name:             conf.ServerName,
		BaseURL:          strings.TrimRight(conf.BaseURL, "/"),
		APIUsername:      conf.APIUsername,
		APIPassword:      conf.APIPassword,
		WebhookToken:     token,
		ConnectionStatus: models.ConnectionNotTested,
	}
	_, err = serverStore.Create(rec)
	if err != nil {
		log.WithError(err).Error("ошибка добавления сервера LimeSurvey")
		return
	}
	log.WithField("server_name", rec.Name).Info("добавлен сервер LimeSurvey из настроек")
}
