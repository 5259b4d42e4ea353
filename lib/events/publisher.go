package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

const (
	Source = "admission-backend"

	TypeCandidateCreated    = "candidate.created"
	TypeImportBatchFinished = "import_batch.finished"
)

type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Source    string         `json:"source"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// Provider публикация доменных событий
type Provider interface {
	Publish(ctx context.Context, eventType, key string, data map[string]any) error
	Close() error
}

var Instance Provider = noop{}

// NewHandler без брокеров события только пишутся в лог
func NewHandler(brokers []string, topic string) {
	Instance = NewInstance(brokers, topic)
}

func NewInstance(brokers []string, topic string) Provider {
	if len(brokers) == 0 {
		return noop{}
	}
	return &impl{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchSize:    1,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

type impl struct {
	writer *kafka.Writer
}

func (i impl) Publish(ctx context.Context, eventType, key string, data map[string]any) error {
	event := NewEvent(eventType, data)
	message, err := buildMessage(event, key)
	if err != nil {
		return err
	}
	logger := log.
		WithField("event_id", event.ID).
		WithField("event_type", eventType).
		WithField("topic", i.writer.Topic)
	if err = i.writer.WriteMessages(ctx, message); err != nil {
		logger.WithError(err).Error("ошибка публикации события")
		return errors.Wrap(err, "ошибка публикации события")
	}
	logger.Debug("событие опубликовано")
	return nil
}

func (i impl) Close() error {
	return i.writer.Close()
}

type noop struct{}

func (noop) Publish(ctx context.Context, eventType, key string, data map[string]any) error {
	log.
		WithField("event_type", eventType).
		WithField("key", key).
		Debug("брокер событий не настроен, событие не отправлено")
	return nil
}

func (noop) Close() error {
	return nil
}

func NewEvent(eventType string, data map[string]any) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    Source,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// buildMessage ключ сообщения - идентификатор объекта события
func buildMessage(event Event, key string) (kafka.Message, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "ошибка сериализации события")
	}
	if key == "" {
		key = event.ID
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: body,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
			{Key: "source", Value: []byte(event.Source)},
		},
	}, nil
}
