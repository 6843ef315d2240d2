package testing

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/formz"
)

func TestWaitFor(t *testing.T) {
	t.Run("condition met immediately", func(t *testing.T) {
		result := WaitFor(t, 100*time.Millisecond, func() bool {
			return true
		})
		if !result {
			t.Error("expected WaitFor to return true")
		}
	})

	t.Run("condition never met", func(t *testing.T) {
		result := WaitFor(t, 50*time.Millisecond, func() bool {
			return false
		})
		if result {
			t.Error("expected WaitFor to return false on timeout")
		}
	})

	t.Run("condition met after delay", func(t *testing.T) {
		start := time.Now()
		var met atomic.Bool
		go func() {
			time.Sleep(30 * time.Millisecond)
			met.Store(true)
		}()
		result := WaitFor(t, 200*time.Millisecond, met.Load)
		if !result {
			t.Error("expected WaitFor to return true")
		}
		if time.Since(start) < 30*time.Millisecond {
			t.Error("condition should have taken at least 30ms")
		}
	})
}

func TestNewTestForm(t *testing.T) {
	form := NewTestForm(t, SignupDefinition, formz.CreateOptions{})

	s := WaitForSettled(t, form, time.Second)
	if s.Kind != formz.KindGroup || s.Title != "signup" || !s.IsValid {
		t.Errorf("unexpected initial status %+v", s)
	}
	if len(form.(*formz.Group).Children()) != 3 {
		t.Error("expected three children")
	}
}

func TestField(t *testing.T) {
	form := NewTestForm(t, SignupDefinition, formz.CreateOptions{})

	zip := Field[int](t, form, "address.zip")
	if zip.Path() != "address.zip" {
		t.Errorf("expected address.zip, got %q", zip.Path())
	}
}

func TestWaitForStatus_AndRequireErrors(t *testing.T) {
	form := NewTestForm(t, SignupDefinition, formz.CreateOptions{})
	WaitForSettled(t, form, time.Second)

	age := Field[int](t, form, "age")
	if err := age.Update(16); err != nil {
		t.Fatal(err)
	}
	if !WaitForStatus(t, age, time.Second, func(s formz.Status) bool { return s.IsInvalid }) {
		t.Fatal("expected age to be invalid")
	}
	RequireErrors(t, age, []string{"Too young"})
}
