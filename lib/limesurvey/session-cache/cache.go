package sessioncache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// NewInstance кеш ключей сессий LimeSurvey в Redis
func NewInstance(client *redis.Client) *Cache {
	return &Cache{client: client}
}

type Cache struct {
	client *redis.Client
}

func (i Cache) Get(ctx context.Context, key string) (string, error) {
	value, err := i.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (i Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return i.client.Set(ctx, key, value, ttl).Err()
}

func (i Cache) Delete(ctx context.Context, key string) error {
	return i.client.Del(ctx, key).Err()
}
