package formz

import (
	"fmt"
	"slices"
	"time"

	"github.com/zoobzio/clockz"
)

// Kind discriminates fields from groups.
type Kind string

const (
	// KindField is a leaf element holding a single value.
	KindField Kind = "field"

	// KindGroup is a composite element holding named children.
	KindGroup Kind = "group"
)

// Values is the aggregated value of a group: child name to child value.
type Values = map[string]any

// Options describes an element to build. FieldOptions and GroupOptions are
// the only implementations.
type Options interface {
	Kind() Kind
	resolve(path string) (ElementConfig, error)
}

// ElementConfig is a resolved, immutable element configuration: either a
// *FieldConfig[T] or a *GroupConfig. Stores hold it by pointer and never
// modify it.
type ElementConfig interface {
	Kind() Kind
	build(path string, create CreateOptions) (Element, error)
}

// CreateOptions are store-level settings shared by an element and, for
// groups, inherited by every descendant. The zero value is ready to use.
type CreateOptions struct {
	// Clock drives debounce windows and validator timing.
	// Use clockz.NewFakeClock() for deterministic tests. Default: clockz.RealClock.
	Clock clockz.Clock

	// Metrics receives store activity callbacks. Default: NoOpMetricsProvider.
	Metrics MetricsProvider

	// ErrorHistorySize is the number of recent validator failures each store
	// retains for ErrorHistory. 0 disables the history.
	ErrorHistorySize int
}

func (c CreateOptions) withDefaults() CreateOptions {
	if c.Clock == nil {
		c.Clock = clockz.RealClock
	}
	if c.Metrics == nil {
		c.Metrics = NoOpMetricsProvider{}
	}
	return c
}

// FieldOptions configure a field holding values of type T.
type FieldOptions[T any] struct {
	// Title names the field. Default: "field".
	Title string

	// Type is the value capability record. Missing functions fall back to
	// Comparable[T]().
	Type ValueType[T]

	// Default is the initial and reset value. It is passed through Type.Coerce.
	Default T

	// Validator checks the value. Default: always succeeds.
	Validator Validator[T]

	// FocusOnLoad starts the field focused.
	FocusOnLoad bool

	// ValidateWhenPristine validates touched values even when they are not dirty.
	ValidateWhenPristine bool

	// SetPristineWhenUpdateDefaultValue makes an update back to the default
	// value clear the dirty flag.
	SetPristineWhenUpdateDefaultValue bool

	// DebounceValueForValidation is the quiet window after the last change
	// before validation starts.
	DebounceValueForValidation time.Duration

	// DebounceValidation is the quiet window a validation result must
	// survive before it is published.
	DebounceValidation time.Duration
}

// Kind returns KindField.
func (FieldOptions[T]) Kind() Kind { return KindField }

func (o FieldOptions[T]) resolve(path string) (ElementConfig, error) {
	vt := o.Type.withDefaults()

	def, err := vt.Coerce(o.Default)
	if err != nil {
		return nil, configError(path, fmt.Errorf("%w: %v", ErrInvalidDefault, err))
	}

	title := o.Title
	if title == "" {
		title = "field"
	}
	validator := o.Validator
	if validator == nil {
		validator = pass[T]()
	}

	return &FieldConfig[T]{
		Title:                             title,
		Type:                              vt,
		Default:                           def,
		Validator:                         validator,
		FocusOnLoad:                       o.FocusOnLoad,
		ValidateWhenPristine:              o.ValidateWhenPristine,
		SetPristineWhenUpdateDefaultValue: o.SetPristineWhenUpdateDefaultValue,
		DebounceValueForValidation:        max(o.DebounceValueForValidation, 0),
		DebounceValidation:                max(o.DebounceValidation, 0),
	}, nil
}

// FieldConfig is the resolved configuration of a field.
type FieldConfig[T any] struct {
	Title                             string
	Type                              ValueType[T]
	Default                           T
	Validator                         Validator[T]
	FocusOnLoad                       bool
	ValidateWhenPristine              bool
	SetPristineWhenUpdateDefaultValue bool
	DebounceValueForValidation        time.Duration
	DebounceValidation                time.Duration
}

// Kind returns KindField.
func (*FieldConfig[T]) Kind() Kind { return KindField }

func (c *FieldConfig[T]) build(path string, create CreateOptions) (Element, error) {
	return newField(c, path, create), nil
}

// Child is a named member of a group.
type Child struct {
	Name    string
	Options Options
}

// ChildrenOf turns a map into children ordered by name.
func ChildrenOf(m map[string]Options) []Child {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]Child, 0, len(names))
	for _, name := range names {
		out = append(out, Child{Name: name, Options: m[name]})
	}
	return out
}

// GroupOptions configure a group of named children.
type GroupOptions struct {
	// Title names the group. Default: "group".
	Title string

	// Validator checks the aggregated value. Default: always succeeds.
	Validator Validator[Values]

	// ValidateWhenPristine validates the touched aggregate even when no
	// child is dirty.
	ValidateWhenPristine bool

	// DebounceValueForValidation is the quiet window after the last
	// aggregate change before the group validator starts.
	DebounceValueForValidation time.Duration

	// DebounceValidation is the quiet window a group validation result must
	// survive before it is published.
	DebounceValidation time.Duration

	// Children are the members of the group, in order. Required.
	Children []Child
}

// Kind returns KindGroup.
func (GroupOptions) Kind() Kind { return KindGroup }

func (o GroupOptions) resolve(path string) (ElementConfig, error) {
	if len(o.Children) == 0 {
		return nil, configError(path, ErrMissingChildren)
	}

	children := make([]ChildConfig, 0, len(o.Children))
	seen := make(map[string]struct{}, len(o.Children))
	for _, child := range o.Children {
		if child.Name == "" {
			return nil, configError(path, ErrEmptyChildName)
		}
		if _, dup := seen[child.Name]; dup {
			return nil, configError(path, fmt.Errorf("%w: %q", ErrDuplicateChild, child.Name))
		}
		seen[child.Name] = struct{}{}

		childPath := joinPath(path, child.Name)
		cfg, err := resolve(child.Options, childPath)
		if err != nil {
			return nil, err
		}
		children = append(children, ChildConfig{Name: child.Name, Config: cfg})
	}

	title := o.Title
	if title == "" {
		title = "group"
	}
	validator := o.Validator
	if validator == nil {
		validator = pass[Values]()
	}

	return &GroupConfig{
		Title:                      title,
		Validator:                  validator,
		ValidateWhenPristine:       o.ValidateWhenPristine,
		DebounceValueForValidation: max(o.DebounceValueForValidation, 0),
		DebounceValidation:         max(o.DebounceValidation, 0),
		Children:                   children,
	}, nil
}

// ChildConfig is a resolved group member.
type ChildConfig struct {
	Name   string
	Config ElementConfig
}

// GroupConfig is the resolved configuration of a group.
type GroupConfig struct {
	Title                      string
	Validator                  Validator[Values]
	ValidateWhenPristine       bool
	DebounceValueForValidation time.Duration
	DebounceValidation         time.Duration
	Children                   []ChildConfig
}

// Kind returns KindGroup.
func (*GroupConfig) Kind() Kind { return KindGroup }

func (c *GroupConfig) build(path string, create CreateOptions) (Element, error) {
	g, err := newGroup(c, path, create)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Resolve turns options into an immutable configuration.
func Resolve(opts Options) (ElementConfig, error) {
	return resolve(opts, "")
}

func resolve(opts Options, path string) (ElementConfig, error) {
	if opts == nil {
		return nil, configError(path, ErrNilOptions)
	}
	switch kind := opts.Kind(); kind {
	case KindField, KindGroup:
		return opts.resolve(path)
	default:
		return nil, configError(path, fmt.Errorf("%w: %q", ErrUnknownKind, kind))
	}
}
