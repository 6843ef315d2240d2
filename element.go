package formz

import (
	"context"
	"fmt"
	"strings"
)

// Element is a live field or group store, addressable without knowing the
// field's value type.
type Element interface {
	// Kind reports whether the element is a field or a group.
	Kind() Kind

	// ID is a unique identifier used to correlate signals.
	ID() string

	// Title is the configured title.
	Title() string

	// Path is the dotted path of the element inside its form, empty at the root.
	Path() string

	// Start activates the store. Everything is wired at construction; no
	// state is published before Start. Cancelling ctx tears the store down,
	// and for groups every descendant with it.
	Start(ctx context.Context) error

	// Done is closed once the store has been torn down.
	Done() <-chan struct{}

	// Reset restores the default state; for groups it cascades to every child.
	Reset()

	// Status returns the latest published state and whether one exists yet.
	Status() (Status, bool)

	// Subscribe registers fn for every published state. If a state has
	// already been published, fn is called with it immediately. fn runs
	// synchronously while the store is locked and must not call commands
	// on the same store.
	Subscribe(fn func(Status))

	// ErrorHistory returns recent validator failures, oldest first.
	ErrorHistory() []error
}

// Status is the type-erased published state of an element.
type Status struct {
	Kind        Kind              `json:"kind" yaml:"kind"`
	Title       string            `json:"title" yaml:"title"`
	Value       any               `json:"value" yaml:"value"`
	HasFocus    bool              `json:"hasFocus" yaml:"hasFocus"`
	IsDirty     bool              `json:"isDirty" yaml:"isDirty"`
	IsPristine  bool              `json:"isPristine" yaml:"isPristine"`
	IsTouched   bool              `json:"isTouched" yaml:"isTouched"`
	IsUntouched bool              `json:"isUntouched" yaml:"isUntouched"`
	IsValid     bool              `json:"isValid" yaml:"isValid"`
	IsInvalid   bool              `json:"isInvalid" yaml:"isInvalid"`
	IsPending   bool              `json:"isPending" yaml:"isPending"`
	Validation  Result            `json:"validation" yaml:"validation"`
	Errors      []string          `json:"errors,omitempty" yaml:"errors,omitempty"`
	Children    map[string]Status `json:"children,omitempty" yaml:"children,omitempty"`
}

// startable is implemented by every store; Group.Start uses it to refuse
// before starting anything.
type startable interface {
	checkStartable() error
}

// Effect is a post-construction callback invoked with the finished store
// before it is started. Effects wire external observers; they are not part
// of the store's logic.
type Effect func(Element)

// New resolves opts and builds the matching store: a *Field[T] for field
// options, a *Group for group options. The store is not started.
func New(opts Options, create CreateOptions, effects ...Effect) (Element, error) {
	cfg, err := Resolve(opts)
	if err != nil {
		return nil, err
	}
	el, err := cfg.build("", create.withDefaults())
	if err != nil {
		return nil, err
	}
	for _, effect := range effects {
		effect(el)
	}
	return el, nil
}

// NewField builds a field store. The store is not started.
func NewField[T any](opts FieldOptions[T], create CreateOptions, effects ...func(*Field[T])) (*Field[T], error) {
	cfg, err := opts.resolve("")
	if err != nil {
		return nil, err
	}
	f := newField(cfg.(*FieldConfig[T]), "", create.withDefaults())
	for _, effect := range effects {
		effect(f)
	}
	return f, nil
}

// NewGroup builds a group store and all its descendants. The store is not started.
func NewGroup(opts GroupOptions, create CreateOptions, effects ...func(*Group)) (*Group, error) {
	cfg, err := opts.resolve("")
	if err != nil {
		return nil, err
	}
	g, err := newGroup(cfg.(*GroupConfig), "", create.withDefaults())
	if err != nil {
		return nil, err
	}
	for _, effect := range effects {
		effect(g)
	}
	return g, nil
}

// Lookup resolves a dotted path such as "address.city" below root.
// The empty path returns root.
func Lookup(root Element, path string) (Element, error) {
	if path == "" {
		return root, nil
	}
	current := root
	for _, name := range strings.Split(path, ".") {
		group, ok := current.(*Group)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a group", ErrNotFound, current.Path())
		}
		child, ok := group.Child(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, joinPath(group.Path(), name))
		}
		current = child
	}
	return current, nil
}

// elementName is the label used in signals and error history.
func elementName(path, title string) string {
	if path == "" {
		return title
	}
	return path
}
