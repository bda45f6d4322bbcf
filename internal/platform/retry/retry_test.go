package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func retryAll(error) Action { return Retry }

func TestDoSucceedsFirstAttempt(t *testing.T) {
	policy := Policy{MaxAttempts: 3, Delay: time.Nanosecond}

	val, err := Do(context.Background(), policy, retryAll, func(attempt int) (string, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", val)
}

func TestDoPassesOneBasedAttemptNumbers(t *testing.T) {
	policy := Policy{MaxAttempts: 3, Delay: time.Nanosecond}

	var seen []int
	_, err := Do(context.Background(), policy, retryAll, func(attempt int) (string, error) {
		seen = append(seen, attempt)
		if attempt < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestDoExhaustsAttempts(t *testing.T) {
	policy := Policy{MaxAttempts: 2, Delay: time.Nanosecond}

	calls := 0
	_, err := Do(context.Background(), policy, retryAll, func(int) (int, error) {
		calls++
		return 0, errors.New("always fails")
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "failed after 2 attempts")
}

func TestDoStopsOnPermanentClassification(t *testing.T) {
	policy := Policy{MaxAttempts: 5, Delay: time.Nanosecond}

	calls := 0
	_, err := Do(context.Background(), policy, func(error) Action { return Stop },
		func(int) (int, error) {
			calls++
			return 0, errors.New("fatal")
		})

	var permanent *PermanentError
	require.ErrorAs(t, err, &permanent)
	assert.Equal(t, 1, calls)
}

func TestDoWaitsFixedDelayBetweenAttempts(t *testing.T) {
	clock := clockwork.NewFakeClock()
	policy := Policy{MaxAttempts: 2, Delay: time.Second, Clock: clock}

	done := make(chan error, 1)
	go func() {
		_, err := Do(context.Background(), policy, retryAll, func(attempt int) (int, error) {
			if attempt == 1 {
				return 0, errors.New("transient")
			}
			return 42, nil
		})
		done <- err
	}()

	// The loop must be parked on the inter-attempt delay, not spinning.
	clock.BlockUntil(1)
	select {
	case <-done:
		t.Fatal("second attempt ran before the delay elapsed")
	default:
	}

	clock.Advance(time.Second)
	require.NoError(t, <-done)
}

func TestDoHonorsContextCancellationDuringDelay(t *testing.T) {
	clock := clockwork.NewFakeClock()
	policy := Policy{MaxAttempts: 2, Delay: time.Minute, Clock: clock}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, policy, retryAll, func(int) (int, error) {
			return 0, errors.New("transient")
		})
		done <- err
	}()

	clock.BlockUntil(1)
	cancel()

	err := <-done
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoInvokesOnRetryCallback(t *testing.T) {
	var notified []int
	policy := Policy{
		MaxAttempts: 3,
		Delay:       time.Nanosecond,
		OnRetry: func(attempt int, err error) {
			notified = append(notified, attempt)
		},
	}

	_, err := Do(context.Background(), policy, retryAll, func(int) (int, error) {
		return 0, errors.New("always fails")
	})

	require.Error(t, err)
	// No callback after the final attempt.
	assert.Equal(t, []int{1, 2}, notified)
}
