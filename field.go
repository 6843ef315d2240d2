package formz

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
)

// FieldState is a published state of a field: the reducer snapshot joined
// with the latest validation result, the derived flags and the commands.
type FieldState[T any] struct {
	Value       T
	HasFocus    bool
	IsDirty     bool
	IsPristine  bool
	IsTouched   bool
	IsUntouched bool
	IsValid     bool
	IsInvalid   bool
	IsPending   bool
	Validation  Result
	Errors      []string
	Config      *FieldConfig[T]

	Reset  func()
	Focus  func()
	Blur   func()
	Update func(raw any) error
}

// Status converts the state for type-erased consumers.
func (s FieldState[T]) Status() Status {
	title := ""
	if s.Config != nil {
		title = s.Config.Title
	}
	return Status{
		Kind:        KindField,
		Title:       title,
		Value:       s.Value,
		HasFocus:    s.HasFocus,
		IsDirty:     s.IsDirty,
		IsPristine:  s.IsPristine,
		IsTouched:   s.IsTouched,
		IsUntouched: s.IsUntouched,
		IsValid:     s.IsValid,
		IsInvalid:   s.IsInvalid,
		IsPending:   s.IsPending,
		Validation:  s.Validation,
		Errors:      s.Errors,
	}
}

// Field is a live store for a single value of type T.
//
// Commands fold synchronously into the field's snapshot. Every change to the
// value or to the dirty/touched flags is fed to the validation pipeline,
// which runs on its own goroutine once the field is started. A state is
// published whenever the snapshot or the validation result changes and both
// are known.
type Field[T any] struct {
	id      string
	path    string
	element string
	config  *FieldConfig[T]
	create  CreateOptions

	pipeline *pipeline[T]
	history  *ring[error]
	done     chan struct{}

	mu          sync.Mutex
	ctx         context.Context
	started     bool
	snapshot    Snapshot[T]
	seq         uint64
	validation  Result
	validated   bool
	state       FieldState[T]
	published   bool
	notify      notifier
	listeners   []func(prev, curr FieldState[T])
	subscribers []func(Status)
}

func newField[T any](cfg *FieldConfig[T], path string, create CreateOptions) *Field[T] {
	f := &Field[T]{
		id:       uuid.NewString(),
		path:     path,
		element:  elementName(path, cfg.Title),
		config:   cfg,
		create:   create,
		history:  newRing[error](create.ErrorHistorySize),
		done:     make(chan struct{}),
		ctx:      context.Background(),
		snapshot: initialSnapshot(cfg),
		seq:      1,
	}
	f.pipeline = newPipeline(
		cfg.Validator,
		cfg.ValidateWhenPristine,
		cfg.DebounceValueForValidation,
		cfg.DebounceValidation,
		create,
		f.history,
		f.id,
		f.element,
		f.setValidation,
	)
	// Parked until Start launches the loop.
	f.pipeline.push(f.inputLocked())
	return f
}

// ID returns the store's unique identifier.
func (f *Field[T]) ID() string { return f.id }

// Kind returns KindField.
func (*Field[T]) Kind() Kind { return KindField }

// Title returns the configured title.
func (f *Field[T]) Title() string { return f.config.Title }

// Path returns the dotted path of the field inside its form.
func (f *Field[T]) Path() string { return f.path }

// Config returns the resolved configuration.
func (f *Field[T]) Config() *FieldConfig[T] { return f.config }

// Done is closed once the field has been torn down.
func (f *Field[T]) Done() <-chan struct{} { return f.done }

// ErrorHistory returns recent validator failures, oldest first.
func (f *Field[T]) ErrorHistory() []error { return f.history.all() }

// Start launches the validation loop. The field publishes its first state
// once the initial validation result is known. Cancelling ctx stops the loop.
func (f *Field[T]) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyStarted, f.element)
	}
	f.started = true
	f.ctx = ctx
	f.mu.Unlock()

	capitan.Emit(ctx, StoreStarted,
		KeyStoreID.Field(f.id),
		KeyElement.Field(f.element),
		KeyKind.Field(string(KindField)),
		KeyDebounce.Field(f.config.DebounceValueForValidation),
	)

	go func() {
		defer close(f.done)
		f.pipeline.run(ctx)
		capitan.Emit(ctx, StoreStopped,
			KeyStoreID.Field(f.id),
			KeyElement.Field(f.element),
			KeyKind.Field(string(KindField)),
		)
	}()
	return nil
}

func (f *Field[T]) checkStartable() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started {
		return fmt.Errorf("%w: %s", ErrAlreadyStarted, f.element)
	}
	return nil
}

// Focus marks the field as focused.
func (f *Field[T]) Focus() {
	f.dispatch(event[T]{kind: eventFocus})
}

// Blur removes focus; a field that had focus becomes touched.
func (f *Field[T]) Blur() {
	f.dispatch(event[T]{kind: eventBlur})
}

// Reset restores the default value and clears the dirty and touched flags.
// Focus is left as it is.
func (f *Field[T]) Reset() {
	f.dispatch(event[T]{kind: eventReset})
}

// Update coerces raw and applies it. A value equal to the current one is a
// no-op. A coercion failure is returned and the state is left unchanged.
func (f *Field[T]) Update(raw any) error {
	value, err := f.config.Type.Coerce(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidValue, f.element, err)
	}
	f.dispatch(event[T]{kind: eventUpdate, value: value})
	return nil
}

func (f *Field[T]) dispatch(ev event[T]) {
	defer f.notify.flush()
	f.mu.Lock()
	defer f.mu.Unlock()

	prev := f.snapshot
	next := reduce(f.config, prev, ev)
	eq := f.config.Type.Equal
	if sameSnapshot(eq, prev, next) {
		return
	}
	f.snapshot = next

	if !sameInput(eq, prev, next) {
		f.seq++
		f.pipeline.push(f.inputLocked())
	}
	f.publishLocked()
}

func (f *Field[T]) inputLocked() input[T] {
	return input[T]{
		seq:       f.seq,
		value:     f.snapshot.Value,
		isDirty:   f.snapshot.IsDirty,
		isTouched: f.snapshot.IsTouched,
	}
}

// setValidation receives pipeline output. Results for superseded inputs are
// dropped; the pipeline always follows up with output for the newer input.
func (f *Field[T]) setValidation(seq uint64, r Result) {
	defer f.notify.flush()
	f.mu.Lock()
	defer f.mu.Unlock()

	if seq != f.seq {
		return
	}
	f.validation = r
	f.validated = true
	f.publishLocked()
}

func (f *Field[T]) publishLocked() {
	if !f.started || !f.validated {
		return
	}
	next := f.stateLocked()
	if f.published && sameFieldState(f.config.Type.Equal, f.state, next) {
		return
	}
	prev := f.state
	f.state = next
	f.published = true

	listeners, subscribers := f.listeners, f.subscribers
	f.notify.enqueue(func() {
		for _, fn := range listeners {
			fn(prev, next)
		}
		if len(subscribers) > 0 {
			status := next.Status()
			for _, fn := range subscribers {
				fn(status)
			}
		}
	})

	f.create.Metrics.OnStatePublished()
	capitan.Emit(f.ctx, StatePublished,
		KeyStoreID.Field(f.id),
		KeyElement.Field(f.element),
		KeyKind.Field(string(KindField)),
		KeyVerdict.Field(next.Validation.Verdict.String()),
	)
}

func (f *Field[T]) stateLocked() FieldState[T] {
	s := f.snapshot
	r := f.validation
	return FieldState[T]{
		Value:       s.Value,
		HasFocus:    s.HasFocus,
		IsDirty:     s.IsDirty,
		IsPristine:  !s.IsDirty,
		IsTouched:   s.IsTouched,
		IsUntouched: !s.IsTouched,
		IsValid:     r.IsSuccess(),
		IsInvalid:   r.IsError(),
		IsPending:   r.IsInconclusive(),
		Validation:  r,
		Errors:      r.Messages,
		Config:      f.config,
		Reset:       f.Reset,
		Focus:       f.Focus,
		Blur:        f.Blur,
		Update:      f.Update,
	}
}

func sameFieldState[T any](eq func(a, b T) bool, a, b FieldState[T]) bool {
	return a.HasFocus == b.HasFocus &&
		a.IsDirty == b.IsDirty &&
		a.IsTouched == b.IsTouched &&
		a.Validation.Equal(b.Validation) &&
		eq(a.Value, b.Value)
}

// State returns the latest published state, or false if nothing has been
// published yet.
func (f *Field[T]) State() (FieldState[T], bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.published
}

// Status returns the latest published state in type-erased form.
func (f *Field[T]) Status() (Status, bool) {
	state, ok := f.State()
	if !ok {
		return Status{}, false
	}
	return state.Status(), true
}

// OnChange registers fn for every published state with the previous one.
// Listeners run in publication order, outside the field lock. Commands
// issued from fn are applied at once; their states are delivered after fn
// returns.
func (f *Field[T]) OnChange(fn func(prev, curr FieldState[T])) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

// Subscribe registers fn for every published state. If a state has already
// been published, fn is called with it immediately.
func (f *Field[T]) Subscribe(fn func(Status)) {
	defer f.notify.flush()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribers = append(f.subscribers, fn)
	if f.published {
		status := f.state.Status()
		f.notify.enqueue(func() { fn(status) })
	}
}
