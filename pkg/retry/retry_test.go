package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoExactAttemptCount(t *testing.T) {
	tests := []struct {
		name        string
		maxAttempts int
	}{
		{name: "single attempt", maxAttempts: 1},
		{name: "three attempts", maxAttempts: 3},
		{name: "five attempts", maxAttempts: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			policy := NewPolicy(tt.maxAttempts, time.Millisecond, nil)

			err := policy.Do(context.Background(), "never ready", func(ctx context.Context) error {
				attempts++
				return ErrNotReady
			})

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNotReady)
			assert.Equal(t, tt.maxAttempts, attempts,
				"policy must perform exactly MaxAttempts attempts, never more, never fewer")
		})
	}
}

func TestDoStopsOnSuccess(t *testing.T) {
	attempts := 0
	policy := NewPolicy(5, time.Millisecond, nil)

	err := policy.Do(context.Background(), "ready on third", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return ErrNotReady
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoRetriesTransportErrors(t *testing.T) {
	attempts := 0
	transportErr := errors.New("connection refused")
	policy := NewPolicy(4, time.Millisecond, nil)

	err := policy.Do(context.Background(), "flaky endpoint", func(ctx context.Context) error {
		attempts++
		return transportErr
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, transportErr, "the last observed error must be preserved")
	assert.Equal(t, 4, attempts, "transport errors consume the same attempt budget")
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	policy := NewPolicy(10, 50*time.Millisecond, nil)

	err := policy.Do(ctx, "cancelled", func(ctx context.Context) error {
		attempts++
		cancel()
		return ErrNotReady
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts, "no further attempts after cancellation")
}

func TestWithTimeoutExpires(t *testing.T) {
	err := WithTimeout(context.Background(), 20*time.Millisecond, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})

	assert.ErrorIs(t, err, ErrTimeout)
}

func TestWithTimeoutPassesThroughResult(t *testing.T) {
	err := WithTimeout(context.Background(), time.Second, func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)

	opErr := errors.New("bad response")
	err = WithTimeout(context.Background(), time.Second, func(ctx context.Context) error {
		return opErr
	})
	assert.ErrorIs(t, err, opErr, "non-deadline failures must not be rewritten")
}
