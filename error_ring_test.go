package formz

import (
	"errors"
	"fmt"
	"testing"
)

func TestRing_NilSafe(t *testing.T) {
	var r *ring[error]

	// All operations should be safe on nil
	r.push(errors.New("test"))

	if r.all() != nil {
		t.Error("expected nil from nil ring")
	}
}

func TestRing_DisabledSizes(t *testing.T) {
	for _, size := range []int{0, -1} {
		if r := newRing[error](size); r != nil {
			t.Errorf("expected nil ring for size %d", size)
		}
	}
}

func TestRing_Empty(t *testing.T) {
	r := newRing[error](3)
	if r.all() != nil {
		t.Error("expected nil from empty ring")
	}
}

func TestRing_FillsWithoutWrapping(t *testing.T) {
	r := newRing[error](3)
	r.push(errors.New("error1"))
	r.push(errors.New("error2"))

	errs := r.all()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(errs))
	}
	if errs[0].Error() != "error1" || errs[1].Error() != "error2" {
		t.Errorf("expected oldest first, got %v", errs)
	}
}

func TestRing_WrapsAndEvictsOldest(t *testing.T) {
	r := newRing[error](3)
	for i := 1; i <= 5; i++ {
		r.push(fmt.Errorf("error%d", i))
	}

	errs := r.all()
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %d", len(errs))
	}
	want := []string{"error3", "error4", "error5"}
	for i, err := range errs {
		if err.Error() != want[i] {
			t.Errorf("entry %d: expected %q, got %q", i, want[i], err.Error())
		}
	}
}

func TestRing_ReturnsCopy(t *testing.T) {
	r := newRing[string](2)
	r.push("a")

	got := r.all()
	got[0] = "mutated"

	if r.all()[0] != "a" {
		t.Error("expected all() to return a copy")
	}
}
