// Package testing provides test utilities and helpers for formz stores.
package testing

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/zoobzio/formz"
)

// SignupDefinition is a small two-level form used across formz tests:
// a required email, a numeric age of at least 18 and an address group.
const SignupDefinition = `
kind: group
title: signup
children:
  - name: email
    required: true
    validate: email
    message: Must be an email
  - name: age
    type: int
    default: 18
    validate: min=18
    message: Too young
  - name: address
    children:
      - name: city
        required: true
        message: City is required
      - name: zip
        type: int
`

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return condition()
}

// WaitForStatus waits until the element has published a status satisfying check.
func WaitForStatus(t *testing.T, el formz.Element, timeout time.Duration, check func(formz.Status) bool) bool {
	t.Helper()
	return WaitFor(t, timeout, func() bool {
		s, ok := el.Status()
		return ok && check(s)
	})
}

// WaitForSettled waits until the element has published a non-pending status
// and returns it. It fails the test on timeout.
func WaitForSettled(t *testing.T, el formz.Element, timeout time.Duration) formz.Status {
	t.Helper()
	var last formz.Status
	ok := WaitForStatus(t, el, timeout, func(s formz.Status) bool {
		last = s
		return !s.IsPending
	})
	if !ok {
		t.Fatalf("%q did not settle, last status %+v", el.Path(), last)
	}
	return last
}

// RequireErrors fails the test if the element's current errors differ from want.
func RequireErrors(t *testing.T, el formz.Element, want []string) {
	t.Helper()
	s, ok := el.Status()
	if !ok {
		t.Fatalf("%q has not published", el.Path())
	}
	if diff := cmp.Diff(want, s.Errors); diff != "" {
		t.Fatalf("%q errors mismatch (-want +got):\n%s", el.Path(), diff)
	}
}

// NewTestForm builds a form from a YAML or JSON definition, starts it and
// tears it down when the test ends.
func NewTestForm(t *testing.T, definition string, create formz.CreateOptions) formz.Element {
	t.Helper()
	def, err := formz.DecodeDefinition([]byte(definition), nil)
	if err != nil {
		t.Fatalf("DecodeDefinition() error = %v", err)
	}
	opts, err := def.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	el, err := formz.New(opts, create)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := el.Start(ctx); err != nil {
		cancel()
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		cancel()
		<-el.Done()
	})
	return el
}

// Field looks up a typed field below root, failing the test if it is missing.
func Field[T any](t *testing.T, root formz.Element, path string) *formz.Field[T] {
	t.Helper()
	el, err := formz.Lookup(root, path)
	if err != nil {
		t.Fatalf("Lookup(%q) error = %v", path, err)
	}
	f, ok := el.(*formz.Field[T])
	if !ok {
		t.Fatalf("Lookup(%q) returned %T", path, el)
	}
	return f
}
