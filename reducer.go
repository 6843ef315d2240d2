package formz

// Snapshot is the synchronous, reducer-derived state of a field.
type Snapshot[T any] struct {
	Value     T
	HasFocus  bool
	IsDirty   bool
	IsTouched bool
}

type eventKind int

const (
	eventFocus eventKind = iota
	eventBlur
	eventReset
	eventUpdate
)

// event is a command folded into a snapshot. value is only meaningful for
// eventUpdate and is already coerced.
type event[T any] struct {
	kind  eventKind
	value T
}

// initialSnapshot is the state of a freshly built field.
func initialSnapshot[T any](cfg *FieldConfig[T]) Snapshot[T] {
	return Snapshot[T]{
		Value:    cfg.Default,
		HasFocus: cfg.FocusOnLoad,
	}
}

// reduce folds one event into the previous snapshot. It is pure: an update
// equal to the current value returns prev unchanged.
func reduce[T any](cfg *FieldConfig[T], prev Snapshot[T], ev event[T]) Snapshot[T] {
	next := prev
	switch ev.kind {
	case eventFocus:
		next.HasFocus = true

	case eventBlur:
		next.HasFocus = false
		if prev.HasFocus {
			next.IsTouched = true
		}

	case eventReset:
		next.Value = cfg.Default
		next.IsDirty = false
		next.IsTouched = false

	case eventUpdate:
		if cfg.Type.Equal(ev.value, prev.Value) {
			return prev
		}
		next.Value = ev.value
		next.IsTouched = true
		if cfg.SetPristineWhenUpdateDefaultValue {
			next.IsDirty = !cfg.Type.Equal(ev.value, cfg.Default)
		} else {
			next.IsDirty = true
		}
	}
	return next
}

// sameSnapshot compares snapshots using the field's equality for values.
func sameSnapshot[T any](eq func(a, b T) bool, a, b Snapshot[T]) bool {
	return a.HasFocus == b.HasFocus && sameInput(eq, a, b)
}

// sameInput reports whether two snapshots feed the same validation input;
// focus changes never trigger validation.
func sameInput[T any](eq func(a, b T) bool, a, b Snapshot[T]) bool {
	return a.IsDirty == b.IsDirty && a.IsTouched == b.IsTouched && eq(a.Value, b.Value)
}
