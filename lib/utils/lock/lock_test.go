package lock

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestWithDelay(t *testing.T) {
	t.Run(`WithDelay check`, func(t *testing.T) {
		ok, err := WithDelay(context.TODO(), ImportKey("tpl"), time.Second, func() error {
			return nil
		})
		require.True(t, ok)
		require.Nil(t, err)

		ok, err = WithDelay(context.TODO(), ImportKey("tpl"), time.Second, func() error {
			return errors.New("fail")
		})
		require.True(t, ok)
		require.EqualError(t, err, "fail")
	})

	t.Run(`busy key check`, func(t *testing.T) {
		key := ImportKey("busy")
		_, err := WithDelay(context.TODO(), key, time.Second, func() error {
			ok, _ := WithDelay(context.TODO(), key, 100*time.Millisecond, func() error {
				t.Fatal("повторный захват блокировки")
				return nil
			})
			require.False(t, ok)
			return nil
		})
		require.Nil(t, err)
	})

	t.Run(`Key check`, func(t *testing.T) {
		require.Equal(t, "import:tpl", ImportKey("tpl"))
	})
}
