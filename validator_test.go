package formz

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCheck(t *testing.T) {
	v := Check("too short", func(s string) bool { return len(s) >= 3 })
	ctx := context.Background()

	if err := v.Validate(ctx, "abcd"); err != nil {
		t.Errorf("expected pass, got %v", err)
	}
	err := v.Validate(ctx, "ab")
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Message != "too short" {
		t.Errorf("expected ValidationError 'too short', got %v", err)
	}
}

func TestRequired(t *testing.T) {
	v := Required(String, "Is required")
	ctx := context.Background()

	if err := v.Validate(ctx, " "); err == nil || err.Error() != "Is required" {
		t.Errorf("expected 'Is required', got %v", err)
	}
	if err := v.Validate(ctx, "x"); err != nil {
		t.Errorf("expected pass, got %v", err)
	}
}

func TestChain_StopsAtFirstFailure(t *testing.T) {
	var calls []string
	step := func(name string, fail bool) Validator[string] {
		return ValidatorFunc[string](func(_ context.Context, _ string) error {
			calls = append(calls, name)
			if fail {
				return Invalid(name + " failed")
			}
			return nil
		})
	}

	v := Chain(step("a", false), nil, step("b", true), step("c", false))
	err := v.Validate(context.Background(), "x")

	if err == nil || err.Error() != "b failed" {
		t.Fatalf("expected 'b failed', got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected the stage error to be unwrapped, got %T", err)
	}
	if strings.Join(calls, ",") != "a,b" {
		t.Errorf("expected a,b to run, got %v", calls)
	}
}

func TestChain_Empty(t *testing.T) {
	if err := Chain[string]().Validate(context.Background(), ""); err != nil {
		t.Errorf("expected empty chain to pass, got %v", err)
	}
}

func TestAll_CollectsEveryFailure(t *testing.T) {
	v := All(
		Check("a", func(int) bool { return false }),
		Check("b", func(int) bool { return true }),
		Check("c", func(int) bool { return false }),
	)
	err := v.Validate(context.Background(), 1)

	r := resultOf(err)
	if !r.IsError() || strings.Join(r.Messages, ",") != "a,c" {
		t.Errorf("expected messages a,c, got %v", r)
	}
}

func TestAll_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var second bool
	v := All(
		ValidatorFunc[int](func(context.Context, int) error { cancel(); return nil }),
		ValidatorFunc[int](func(context.Context, int) error { second = true; return nil }),
	)

	if err := v.Validate(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if second {
		t.Error("expected validation to stop after cancel")
	}
}

func TestTag(t *testing.T) {
	ctx := context.Background()

	email := Tag[string]("email", "")
	if err := email.Validate(ctx, "someone@example.com"); err != nil {
		t.Errorf("expected valid email, got %v", err)
	}
	if err := email.Validate(ctx, "nope"); err == nil || err.Error() != "must satisfy email" {
		t.Errorf("expected 'must satisfy email', got %v", err)
	}

	adult := Tag[int]("min=18", "")
	if err := adult.Validate(ctx, 12); err == nil || err.Error() != "must satisfy min=18" {
		t.Errorf("expected 'must satisfy min=18', got %v", err)
	}

	custom := Tag[string]("required", "Is required")
	r := resultOf(custom.Validate(ctx, ""))
	if len(r.Messages) != 1 || r.Messages[0] != "Is required" {
		t.Errorf("expected custom message, got %v", r)
	}
}

func TestCheckTag(t *testing.T) {
	if err := checkTag[string]("email"); err != nil {
		t.Errorf("expected valid tag, got %v", err)
	}
	if err := checkTag[string]("definitely_not_a_tag"); err == nil {
		t.Error("expected error for unknown tag")
	}
}
