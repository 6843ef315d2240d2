package formz

import (
	"context"
	"sync"
	"testing"
	"time"
)

// waitFor polls a condition until it returns true or timeout is reached.
func waitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return condition()
}

// recorder collects every published status of an element.
type recorder struct {
	mu     sync.Mutex
	states []Status
}

func record(el Element) *recorder {
	r := &recorder{}
	el.Subscribe(func(s Status) {
		r.mu.Lock()
		r.states = append(r.states, s)
		r.mu.Unlock()
	})
	return r
}

func (r *recorder) all() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Status, len(r.states))
	copy(out, r.states)
	return out
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func (r *recorder) last() (Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return Status{}, false
	}
	return r.states[len(r.states)-1], true
}

// start activates el and tears it down when the test ends.
func start(t *testing.T, el Element) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	if err := el.Start(ctx); err != nil {
		cancel()
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		cancel()
		<-el.Done()
	})
}

// settled waits until el has published a non-pending state.
func settled(t *testing.T, el Element) Status {
	t.Helper()
	var status Status
	if !waitFor(t, time.Second, func() bool {
		s, ok := el.Status()
		status = s
		return ok && !s.IsPending
	}) {
		t.Fatalf("timed out waiting for %q to settle, last %+v", el.Path(), status)
	}
	return status
}

// delayed wraps a validator so it blocks until release is closed or ctx ends.
func delayed[T any](release <-chan struct{}, v Validator[T]) Validator[T] {
	return ValidatorFunc[T](func(ctx context.Context, value T) error {
		select {
		case <-release:
			return v.Validate(ctx, value)
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}
