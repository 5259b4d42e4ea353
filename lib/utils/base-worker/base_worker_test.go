package baseworker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBaseWorker(t *testing.T) {
	t.Run(`RunOnce panic check`, func(t *testing.T) {
		worker := NewInstance("TestWorker", 0, time.Millisecond)
		require.True(t, worker.RunOnce(context.TODO(), func(ctx context.Context) {
			panic("boom")
		}))
		require.False(t, worker.RunOnce(context.TODO(), func(ctx context.Context) {}))
	})

	t.Run(`Run continues after panic check`, func(t *testing.T) {
		worker := NewInstance("TestWorker", time.Millisecond, time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		var runs int32
		done := make(chan struct{})
		go func() {
			worker.Run(ctx, func(ctx context.Context) {
				if atomic.AddInt32(&runs, 1) >= 3 {
					cancel()
				}
				panic("boom")
			})
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("задача не остановилась")
		}
		require.GreaterOrEqual(t, atomic.LoadInt32(&runs), int32(3))
	})
}
