// Package retry implements the bounded multi-attempt loop used for upstream
// delivery. Attempts are separated by a fixed delay so a throttling upstream
// is never hammered back-to-back.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

type Action int

const (
	Stop  Action = iota // permanent error, abort immediately
	Retry               // transient error, try the next attempt
)

type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Clock       clockwork.Clock
	OnRetry     func(attempt int, err error)
}

type Classify func(err error) Action

// Operation receives the 1-based attempt number so callers can vary the
// request configuration per attempt.
type Operation[T any] func(attempt int) (T, error)

func Do[T any](ctx context.Context, p Policy, classify Classify, op Operation[T]) (T, error) {
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	var zero T
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		val, err := op(attempt)
		if err == nil {
			return val, nil
		}

		if classify(err) == Stop {
			return zero, &PermanentError{Err: err}
		}

		if attempt == p.MaxAttempts {
			return zero, fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, err)
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}

		select {
		case <-clock.After(p.Delay):
		case <-ctx.Done():
			return zero, fmt.Errorf("context cancelled between attempts: %w", ctx.Err())
		}
	}

	panic("unreachable: MaxAttempts must be >= 1")
}

type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }
