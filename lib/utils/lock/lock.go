package lock

import (
	"context"
	"strings"
	"sync"
	"time"
)

var (
	lockMap sync.Map
)

// WithDelay выполняет safeCode под блокировкой key. Если блокировку не удалось
// получить за wait или контекст завершен, safeCode не выполняется и success = false
func WithDelay(ctx context.Context, key string, wait time.Duration, safeCode func() error) (success bool, err error) {
	isTimeout := time.After(wait)
	for {
		if _, loaded := lockMap.LoadOrStore(key, true); !loaded {
			break
		}
		select {
		case <-isTimeout:
			return false, nil
		case <-ctx.Done():
			return false, nil
		case <-time.After(50 * time.Millisecond):
		}
	}
	defer lockMap.Delete(key)
	return true, safeCode()
}

// ImportKey блокировка импорта ответов одного шаблона
func ImportKey(templateID string) string {
	return Key("import", templateID)
}

func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
