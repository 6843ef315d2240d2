package formz

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
)

// GroupState is a published state of a group. Value maps child names to
// child values; the flags are the OR of the children's flags; Validation
// combines every child's validation with the group's own validator result.
type GroupState struct {
	Value       Values
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
	Config      *GroupConfig
	Children    map[string]Status

	Reset func()
}

// Status converts the state for type-erased consumers.
func (s GroupState) Status() Status {
	title := ""
	if s.Config != nil {
		title = s.Config.Title
	}
	return Status{
		Kind:        KindGroup,
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
		Children:    s.Children,
	}
}

// aggregate is the reducer-side state of a group, derived from its children.
type aggregate struct {
	value     Values
	hasFocus  bool
	isDirty   bool
	isTouched bool
}

type member struct {
	name    string
	element Element
}

// Group is a live store owning a fixed set of named children.
//
// The group publishes nothing until every child has published at least once.
// From then on every child publication re-aggregates the group, and changes
// to the aggregated value or flags feed the group's own validation pipeline.
type Group struct {
	id      string
	path    string
	element string
	config  *GroupConfig
	create  CreateOptions

	members  []member
	index    map[string]int
	pipeline *pipeline[Values]
	history  *ring[error]
	done     chan struct{}

	mu          sync.Mutex
	ctx         context.Context
	started     bool
	childStates []Status
	childSeen   []bool
	seen        int
	agg         aggregate
	aggregated  bool
	seq         uint64
	validation  Result
	validated   bool
	state       GroupState
	published   bool
	notify      notifier
	listeners   []func(prev, curr GroupState)
	subscribers []func(Status)
}

func newGroup(cfg *GroupConfig, path string, create CreateOptions) (*Group, error) {
	if len(cfg.Children) == 0 {
		return nil, configError(path, ErrMissingChildren)
	}

	g := &Group{
		id:          uuid.NewString(),
		path:        path,
		element:     elementName(path, cfg.Title),
		config:      cfg,
		create:      create,
		index:       make(map[string]int, len(cfg.Children)),
		history:     newRing[error](create.ErrorHistorySize),
		done:        make(chan struct{}),
		ctx:         context.Background(),
		childStates: make([]Status, len(cfg.Children)),
		childSeen:   make([]bool, len(cfg.Children)),
	}
	g.pipeline = newPipeline(
		cfg.Validator,
		cfg.ValidateWhenPristine,
		cfg.DebounceValueForValidation,
		cfg.DebounceValidation,
		create,
		g.history,
		g.id,
		g.element,
		g.setValidation,
	)

	for i, child := range cfg.Children {
		if child.Config == nil {
			return nil, configError(joinPath(path, child.Name), ErrNilOptions)
		}
		el, err := child.Config.build(joinPath(path, child.Name), create)
		if err != nil {
			return nil, err
		}
		g.members = append(g.members, member{name: child.Name, element: el})
		g.index[child.Name] = i
	}

	// Subscriptions are attached only after every child exists, and no
	// child publishes before it is started.
	for i, m := range g.members {
		m.element.Subscribe(func(s Status) { g.onChild(i, s) })
	}
	return g, nil
}

// ID returns the store's unique identifier.
func (g *Group) ID() string { return g.id }

// Kind returns KindGroup.
func (*Group) Kind() Kind { return KindGroup }

// Title returns the configured title.
func (g *Group) Title() string { return g.config.Title }

// Path returns the dotted path of the group inside its form.
func (g *Group) Path() string { return g.path }

// Config returns the resolved configuration.
func (g *Group) Config() *GroupConfig { return g.config }

// Done is closed once the group and all its descendants have been torn down.
func (g *Group) Done() <-chan struct{} { return g.done }

// ErrorHistory returns recent failures of the group's own validator.
func (g *Group) ErrorHistory() []error { return g.history.all() }

// Child returns the direct child with the given name.
func (g *Group) Child(name string) (Element, bool) {
	i, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return g.members[i].element, true
}

// Children returns the direct children in configuration order.
func (g *Group) Children() []Element {
	out := make([]Element, len(g.members))
	for i, m := range g.members {
		out[i] = m.element
	}
	return out
}

// Start launches the group's own loop and then starts every child in order.
// If the group or any descendant has already been started, nothing is
// started and ErrAlreadyStarted is returned.
func (g *Group) Start(ctx context.Context) error {
	if err := g.checkStartable(); err != nil {
		return err
	}

	g.mu.Lock()
	if g.started {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyStarted, g.element)
	}
	g.started = true
	g.ctx = ctx
	g.mu.Unlock()

	capitan.Emit(ctx, StoreStarted,
		KeyStoreID.Field(g.id),
		KeyElement.Field(g.element),
		KeyKind.Field(string(KindGroup)),
		KeyDebounce.Field(g.config.DebounceValueForValidation),
	)

	// A child started concurrently between the check and here fails its
	// Start; the group then tears down whatever it did start.
	ctx, cancel := context.WithCancel(ctx)
	running := make([]Element, 0, len(g.members))
	var startErr error
	for _, m := range g.members {
		if err := m.element.Start(ctx); err != nil {
			startErr = err
			cancel()
			break
		}
		running = append(running, m.element)
	}

	go func() {
		defer close(g.done)
		defer cancel()
		g.pipeline.run(ctx)
		for _, el := range running {
			<-el.Done()
		}
		capitan.Emit(ctx, StoreStopped,
			KeyStoreID.Field(g.id),
			KeyElement.Field(g.element),
			KeyKind.Field(string(KindGroup)),
		)
	}()
	return startErr
}

// checkStartable reports ErrAlreadyStarted for the group or any descendant.
// The group lock is released before children are checked.
func (g *Group) checkStartable() error {
	g.mu.Lock()
	started := g.started
	g.mu.Unlock()
	if started {
		return fmt.Errorf("%w: %s", ErrAlreadyStarted, g.element)
	}
	for _, m := range g.members {
		if c, ok := m.element.(startable); ok {
			if err := c.checkStartable(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Reset resets every child. The group state follows from the children.
func (g *Group) Reset() {
	for _, m := range g.members {
		m.element.Reset()
	}
}

// onChild receives child publications, outside the child's lock.
func (g *Group) onChild(i int, s Status) {
	defer g.notify.flush()
	g.mu.Lock()
	defer g.mu.Unlock()

	g.childStates[i] = s
	if !g.childSeen[i] {
		g.childSeen[i] = true
		g.seen++
	}
	if g.seen < len(g.members) {
		return
	}

	next := g.aggregateLocked()
	revalidate := !g.aggregated || !sameAggregate(g.agg, next)
	g.agg = next
	g.aggregated = true
	if revalidate {
		g.seq++
		g.pipeline.push(input[Values]{
			seq:       g.seq,
			value:     next.value,
			isDirty:   next.isDirty,
			isTouched: next.isTouched,
		})
	}
	g.publishLocked()
}

func (g *Group) aggregateLocked() aggregate {
	agg := aggregate{value: make(Values, len(g.members))}
	for i, m := range g.members {
		s := g.childStates[i]
		agg.value[m.name] = s.Value
		agg.hasFocus = agg.hasFocus || s.HasFocus
		agg.isDirty = agg.isDirty || s.IsDirty
		agg.isTouched = agg.isTouched || s.IsTouched
	}
	return agg
}

// sameAggregate ignores focus, which never triggers validation.
func sameAggregate(a, b aggregate) bool {
	return a.isDirty == b.isDirty &&
		a.isTouched == b.isTouched &&
		equalValues(a.value, b.value)
}

func (g *Group) setValidation(seq uint64, r Result) {
	defer g.notify.flush()
	g.mu.Lock()
	defer g.mu.Unlock()

	if seq != g.seq {
		return
	}
	g.validation = r
	g.validated = true
	g.publishLocked()
}

func (g *Group) publishLocked() {
	if !g.started || !g.aggregated || !g.validated {
		return
	}
	next := g.stateLocked()
	if g.published && sameGroupState(g.state, next) {
		return
	}
	prev := g.state
	g.state = next
	g.published = true

	listeners, subscribers := g.listeners, g.subscribers
	g.notify.enqueue(func() {
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

	g.create.Metrics.OnStatePublished()
	capitan.Emit(g.ctx, StatePublished,
		KeyStoreID.Field(g.id),
		KeyElement.Field(g.element),
		KeyKind.Field(string(KindGroup)),
		KeyVerdict.Field(next.Validation.Verdict.String()),
	)
}

func (g *Group) stateLocked() GroupState {
	results := make([]Result, 0, len(g.members)+1)
	children := make(map[string]Status, len(g.members))
	for i, m := range g.members {
		results = append(results, g.childStates[i].Validation)
		children[m.name] = g.childStates[i]
	}
	r := Collect(append(results, g.validation)...)

	return GroupState{
		Value:       maps.Clone(g.agg.value),
		HasFocus:    g.agg.hasFocus,
		IsDirty:     g.agg.isDirty,
		IsPristine:  !g.agg.isDirty,
		IsTouched:   g.agg.isTouched,
		IsUntouched: !g.agg.isTouched,
		IsValid:     r.IsSuccess(),
		IsInvalid:   r.IsError(),
		IsPending:   r.IsInconclusive(),
		Validation:  r,
		Errors:      r.Messages,
		Config:      g.config,
		Children:    children,
		Reset:       g.Reset,
	}
}

func sameGroupState(a, b GroupState) bool {
	return a.HasFocus == b.HasFocus &&
		a.IsDirty == b.IsDirty &&
		a.IsTouched == b.IsTouched &&
		a.Validation.Equal(b.Validation) &&
		equalValues(a.Value, b.Value) &&
		equalValues(a.Children, b.Children)
}

// State returns the latest published state, or false if nothing has been
// published yet.
func (g *Group) State() (GroupState, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, g.published
}

// Status returns the latest published state in type-erased form.
func (g *Group) Status() (Status, bool) {
	state, ok := g.State()
	if !ok {
		return Status{}, false
	}
	return state.Status(), true
}

// OnChange registers fn for every published state with the previous one.
// Listeners run in publication order, outside the group lock, so fn may
// issue commands such as curr.Reset(); their states are delivered after fn
// returns.
func (g *Group) OnChange(fn func(prev, curr GroupState)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

// Subscribe registers fn for every published state. If a state has already
// been published, fn is called with it immediately.
func (g *Group) Subscribe(fn func(Status)) {
	defer g.notify.flush()
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subscribers = append(g.subscribers, fn)
	if g.published {
		status := g.state.Status()
		g.notify.enqueue(func() { fn(status) })
	}
}
