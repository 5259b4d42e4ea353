package filestorage

import (
	"admission-backend/config"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Provider хранилище вложений кандидатов
type Provider interface {
	Store(ctx context.Context, candidateID, name string, data []byte, mimeType string) (objectKey string, err error)
	Get(ctx context.Context, objectKey string) ([]byte, error)
	MakeBucket(ctx context.Context) error
}

var Instance Provider

var ErrNotConfigured = errors.New("хранилище файлов не настроено")

func NewHandler(s3client *minio.Client) {
	Instance = NewInstance(s3client, config.Conf.S3.BucketName)
}

func NewInstance(s3client *minio.Client, bucketName string) Provider {
	return &impl{
		s3client:   s3client,
		bucketName: bucketName,
	}
}

type impl struct {
	s3client   *minio.Client
	bucketName string
}

func (i impl) Store(ctx context.Context, candidateID, name string, data []byte, mimeType string) (objectKey string, err error) {
	if i.s3client == nil {
		return "", ErrNotConfigured
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	objectKey = ObjectKey(candidateID, uuid.New().String(), name)
	_, err = i.s3client.PutObject(ctx, i.bucketName, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: mimeType})
	if err != nil {
		return "", errors.Wrap(err, "ошибка загрузки файла в хранилище")
	}
	log.
		WithField("candidate_id", candidateID).
		WithField("object_key", objectKey).
		Debug("вложение сохранено")
	return objectKey, nil
}

func (i impl) Get(ctx context.Context, objectKey string) ([]byte, error) {
	if i.s3client == nil {
		return nil, ErrNotConfigured
	}
	object, err := i.s3client.GetObject(ctx, i.bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения файла из хранилища")
	}
	defer object.Close()
	body, err := io.ReadAll(object)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка чтения файла из хранилища")
	}
	return body, nil
}

func (i impl) MakeBucket(ctx context.Context) error {
	if i.s3client == nil {
		return ErrNotConfigured
	}
	location := "us-east-1"
	exists, err := i.s3client.BucketExists(ctx, i.bucketName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return i.s3client.MakeBucket(ctx, i.bucketName, minio.MakeBucketOptions{Region: location})
}

// ObjectKey путь объекта: candidates/<кандидат>/<id>-<имя файла>
func ObjectKey(candidateID, fileID, name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '?', '#', '%', '&':
			return '_'
		}
		return r
	}, name)
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return fmt.Sprintf("candidates/%s/%s-%s", candidateID, fileID, name)
}
