package initializers

import (
	"context"
	filestorage "admission-backend/lib/file-storage"
	s3client "admission-backend/s3"

	log "github.com/sirupsen/logrus"
)

func InitS3() {
	minioClient, err := s3client.NewClient()
	if err != nil {
		log.WithError(err).Error("Ошибка инициализации клиента S3")
		filestorage.NewHandler(nil)
		return
	}
	s3client.Client = minioClient
	filestorage.NewHandler(minioClient)

	// Проверка соединения
	if err = filestorage.Instance.MakeBucket(context.Background()); err != nil {
		log.WithError(err).Error("S3 соединение не удалось, бакет для вложений недоступен")
		return
	}
	log.Info("S3 клиент успешно инициализирован")
}
