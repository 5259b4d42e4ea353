package initializers

import (
	"context"
	"time"

	"admission-backend/config"
	limesurveyclient "admission-backend/lib/limesurvey/client"
	sessioncache "admission-backend/lib/limesurvey/session-cache"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

var redisClient *redis.Client

// InitSessionCache кэш сессионных ключей LimeSurvey. Без REDIS_ADDR ключ запрашивается на каждый вызов
func InitSessionCache() limesurveyclient.SessionCache {
	conf := config.Conf.Redis
	if conf.Addr == "" {
		log.Warn("кэш сессий LimeSurvey отключен, отсутствует настройка REDIS_ADDR")
		return nil
	}
	redisClient = redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.WithError(err).Error("Redis недоступен, кэш сессий LimeSurvey отключен")
		_ = redisClient.Close()
		redisClient = nil
		return nil
	}
	log.Info("Redis клиент успешно инициализирован")
	return sessioncache.NewInstance(redisClient)
}

func CloseRedis() {
	if redisClient == nil {
		return
	}
	if err := redisClient.Close(); err != nil {
		log.WithError(err).Warn("ошибка закрытия соединения с Redis")
	}
}
