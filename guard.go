package formz

import (
	"context"
	"errors"
	"time"

	"github.com/zoobzio/pipz"
)

// Pipeline identities for guarded validators.
var (
	guardStageID    = pipz.NewIdentity("formz:guard-validator", "Guarded validator call")
	guardRetryID    = pipz.NewIdentity("formz:guard-retry", "Retries transient validator failures")
	guardBackoffID  = pipz.NewIdentity("formz:guard-backoff", "Retries transient validator failures with backoff")
	guardTimeoutID  = pipz.NewIdentity("formz:guard-timeout", "Bounds validator run time")
	guardFallbackID = pipz.NewIdentity("formz:guard-fallback", "Falls back to alternative validators")
)

// TimeoutMessage is the message of a guarded validator that ran out of time.
const TimeoutMessage = "Validation timed out"

// attempt carries one value through a guarded validator. A ValidationError
// is a verdict, stored in Failure, and never retried; any other error is
// treated as transient and left to the middleware.
type attempt[T any] struct {
	Value   T
	Failure error
}

// GuardOption wraps a guarded validator's pipeline with middleware.
type GuardOption[T any] func(pipz.Chainable[*attempt[T]]) pipz.Chainable[*attempt[T]]

// Guard wraps v for validators backed by unreliable dependencies, such as a
// remote uniqueness check. Options apply in order, so the last one is the
// outermost.
//
//	formz.Guard(usernameFree,
//	    formz.WithBackoff[string](3, 50*time.Millisecond),
//	    formz.WithTimeout[string](2*time.Second),
//	)
//
// Only errors that are not ValidationErrors reach the middleware: a
// "username is taken" verdict is returned at once. A timeout becomes an
// Error result with TimeoutMessage.
func Guard[T any](v Validator[T], opts ...GuardOption[T]) Validator[T] {
	pipeline := guardStage(v)
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	return ValidatorFunc[T](func(ctx context.Context, value T) error {
		out, err := pipeline.Process(ctx, &attempt[T]{Value: value})
		if err != nil {
			if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
				return &ValidationError{Message: TimeoutMessage, Err: err}
			}
			return unwrapPipeline[*attempt[T]](err)
		}
		return out.Failure
	})
}

func guardStage[T any](v Validator[T]) pipz.Chainable[*attempt[T]] {
	return pipz.Apply(guardStageID, func(ctx context.Context, a *attempt[T]) (*attempt[T], error) {
		err := v.Validate(ctx, a.Value)
		var verr *ValidationError
		if err != nil && errors.As(err, &verr) {
			a.Failure = err
			return a, nil
		}
		a.Failure = nil
		return a, err
	})
}

// WithRetry retries transient failures immediately up to maxAttempts times.
func WithRetry[T any](maxAttempts int) GuardOption[T] {
	return func(p pipz.Chainable[*attempt[T]]) pipz.Chainable[*attempt[T]] {
		return pipz.NewRetry(guardRetryID, p, maxAttempts)
	}
}

// WithBackoff retries transient failures with delays of baseDelay,
// 2*baseDelay, 4*baseDelay and so on.
func WithBackoff[T any](maxAttempts int, baseDelay time.Duration) GuardOption[T] {
	return func(p pipz.Chainable[*attempt[T]]) pipz.Chainable[*attempt[T]] {
		return pipz.NewBackoff(guardBackoffID, p, maxAttempts, baseDelay)
	}
}

// WithTimeout bounds the run time of everything it wraps.
func WithTimeout[T any](d time.Duration) GuardOption[T] {
	return func(p pipz.Chainable[*attempt[T]]) pipz.Chainable[*attempt[T]] {
		return pipz.NewTimeout(guardTimeoutID, p, d)
	}
}

// WithFallback tries each fallback validator in order when the pipeline
// fails with a transient error.
func WithFallback[T any](fallbacks ...Validator[T]) GuardOption[T] {
	return func(p pipz.Chainable[*attempt[T]]) pipz.Chainable[*attempt[T]] {
		all := []pipz.Chainable[*attempt[T]]{p}
		for _, fb := range fallbacks {
			if fb != nil {
				all = append(all, guardStage(fb))
			}
		}
		return pipz.NewFallback(guardFallbackID, all...)
	}
}
