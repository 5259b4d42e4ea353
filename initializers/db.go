package initializers

import (
	"admission-backend/config"
	"admission-backend/db"

	log "github.com/sirupsen/logrus"
)

func InitDBConnection() {
	conf := config.Conf.Database
	err := db.Connect(conf.Host, conf.Port, conf.Name, conf.User, conf.Password, *conf.DebugMode, *conf.MigrateOnStart)
	if err != nil {
		panic(err.Error())
	}
	if err = db.PingDB(); err != nil {
		log.WithError(err).Error("БД не отвечает после подключения")
	}

	db.InitPreload()
}
