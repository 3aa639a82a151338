package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestBackoff(t *testing.T) {
	cfg := Config{InitialBackoff: time.Second, MaxBackoff: 5 * time.Second}
	assert.Equal(t, time.Second, Backoff(0, cfg))
	assert.Equal(t, 2*time.Second, Backoff(1, cfg))
	assert.Equal(t, 4*time.Second, Backoff(2, cfg))
	assert.Equal(t, 5*time.Second, Backoff(3, cfg))
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), nil, "ping", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_GivesUp(t *testing.T) {
	boom := errors.New("connection refused")
	calls := 0
	err := Do(context.Background(), fastConfig(), nil, "ping", func(context.Context) error {
		calls++
		return boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "ping failed after 3 retries")
	assert.Equal(t, 4, calls)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	boom := errors.New("bad credentials")
	calls := 0
	err := Do(context.Background(), fastConfig(), nil, "ping", func(context.Context) error {
		calls++
		return Permanent(boom)
	})
	assert.Equal(t, boom, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, Permanent(nil))
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, fastConfig(), nil, "ping", func(context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}
