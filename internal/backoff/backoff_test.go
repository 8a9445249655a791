package backoff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsWithoutRetry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Config{}, func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesRateLimitThenSucceeds(t *testing.T) {
	calls := 0
	cfg := Config{BaseDelay: time.Millisecond, MaxAttempts: 3}
	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return &RateLimitError{Cause: assertErr("rate limited")}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoSurfacesNonRateLimitImmediately(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Config{}, func(ctx context.Context) error {
		calls++
		return assertErr("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	cfg := Config{BaseDelay: time.Millisecond, MaxAttempts: 2}
	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return &RateLimitError{Cause: assertErr("still limited")}
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

type simpleErr string

func (e simpleErr) Error() string { return string(e) }
func assertErr(s string) error    { return simpleErr(s) }
