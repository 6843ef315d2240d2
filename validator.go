package formz

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/zoobzio/pipz"
)

// validate is the shared tag validator instance.
var validate = validator.New()

// Pipeline identities for validator chains.
var (
	chainID      = pipz.NewIdentity("formz:validator-chain", "Sequential validator chain")
	chainStageID = pipz.NewIdentity("formz:validator-stage", "Single validator stage")
)

// Validator checks a value. A nil error means the value is valid; any other
// error becomes an Error result carrying the error's message. Validators
// should honor ctx: it is cancelled when a newer value supersedes the one
// being validated, and the result is discarded anyway.
type Validator[T any] interface {
	Validate(ctx context.Context, value T) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc[T any] func(ctx context.Context, value T) error

// Validate calls f(ctx, value).
func (f ValidatorFunc[T]) Validate(ctx context.Context, value T) error {
	return f(ctx, value)
}

// ValidationError is a validator failure with a user-facing message.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Invalid returns a ValidationError with the given message.
func Invalid(message string) error {
	return &ValidationError{Message: message}
}

// Check builds a Validator from a predicate. When ok returns false the
// value fails with message.
func Check[T any](message string, ok func(T) bool) Validator[T] {
	return ValidatorFunc[T](func(_ context.Context, value T) error {
		if ok(value) {
			return nil
		}
		return Invalid(message)
	})
}

// Required fails with message when vt reports the value as empty.
func Required[T any](vt ValueType[T], message string) Validator[T] {
	vt = vt.withDefaults()
	return Check(message, func(v T) bool { return !vt.IsEmpty(v) })
}

// Chain runs validators in order and stops at the first failure. The chain
// is a pipz sequence, so cancellation of ctx between stages aborts it.
func Chain[T any](validators ...Validator[T]) Validator[T] {
	stages := make([]pipz.Chainable[T], 0, len(validators))
	for _, v := range validators {
		if v == nil {
			continue
		}
		stages = append(stages, pipz.Apply(chainStageID, func(ctx context.Context, value T) (T, error) {
			return value, v.Validate(ctx, value)
		}))
	}
	if len(stages) == 0 {
		return pass[T]()
	}
	seq := pipz.NewSequence(chainID, stages...)
	return ValidatorFunc[T](func(ctx context.Context, value T) error {
		_, err := seq.Process(ctx, value)
		return unwrapPipeline[T](err)
	})
}

// unwrapPipeline strips the pipz error envelope so messages stay user-facing.
func unwrapPipeline[T any](err error) error {
	var perr *pipz.Error[T]
	if errors.As(err, &perr) && perr.Err != nil {
		return perr.Err
	}
	return err
}

// All runs every validator and joins all failures.
func All[T any](validators ...Validator[T]) Validator[T] {
	return ValidatorFunc[T](func(ctx context.Context, value T) error {
		var errs []error
		for _, v := range validators {
			if v == nil {
				continue
			}
			if err := v.Validate(ctx, value); err != nil {
				errs = append(errs, err)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		return errors.Join(errs...)
	})
}

// Tag validates a value against a go-playground/validator tag such as
// "required,email" or "min=3". When message is empty, a message naming the
// failed tag is used.
func Tag[T any](tag, message string) Validator[T] {
	return ValidatorFunc[T](func(ctx context.Context, value T) error {
		err := validate.VarCtx(ctx, value, tag)
		if err == nil {
			return nil
		}
		if message != "" {
			return &ValidationError{Message: message, Err: err}
		}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			if fe.Param() != "" {
				return Invalid(fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param()))
			}
			return Invalid(fmt.Sprintf("must satisfy %s", fe.Tag()))
		}
		return err
	})
}

// checkTag reports malformed tags up front; go-playground panics on them at
// validation time.
func checkTag[T any](tag string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid validate tag %q: %v", tag, r)
		}
	}()
	var zero T
	_ = validate.Var(zero, tag) //nolint:errcheck // only panics matter here
	return nil
}

func pass[T any]() Validator[T] {
	return ValidatorFunc[T](func(context.Context, T) error { return nil })
}
