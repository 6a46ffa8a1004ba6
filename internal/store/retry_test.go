package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	assert.True(t, isRetryable(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.True(t, isRetryable(errors.New("read tcp: connection reset by peer")))
	assert.False(t, isRetryable(nil))
	assert.False(t, isRetryable(errors.New("syntax error near SELECT")))
	assert.False(t, isRetryable(fmt.Errorf("tasks/t1: %w", ErrNotFound)))
	assert.False(t, isRetryable(fmt.Errorf("tasks/t1 expected v1, have v3: %w", ErrVersionConflict)))
}

func TestRetry_transientThenSuccess(t *testing.T) {
	t.Parallel()
	calls := 0
	got, err := retryValue(context.Background(), func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("database is locked")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestRetry_permanentErrorSingleAttempt(t *testing.T) {
	t.Parallel()
	calls := 0
	err := retry(context.Background(), func() error {
		calls++
		return fmt.Errorf("tasks/t1: %w", ErrVersionConflict)
	})
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, 1, calls)
}

func TestRetry_contextCancelStops(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retry(ctx, func() error { return errors.New("database is locked") })
	require.Error(t, err)
}

func TestWithRetry_idempotentWrap(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	wrapped := WithRetry(s)
	assert.Same(t, wrapped, WithRetry(wrapped))
}
