package formz

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var errFieldOnlyOption = errors.New("validate and required apply to fields only")

// DefaultRequiredMessage is the message of a required field without its own.
const DefaultRequiredMessage = "Is required"

// Definition is a declarative form element, decoded from JSON or YAML.
//
// Example:
//
//	kind: group
//	title: signup
//	children:
//	  - name: email
//	    type: string
//	    required: true
//	    validate: email
//	    message: Must be an email
//	    debounceValueForValidation: 250ms
//	  - name: age
//	    type: int
//	    validate: min=18
type Definition struct {
	Kind    Kind   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Type    string `json:"type,omitempty" yaml:"type,omitempty"`
	Default any    `json:"default,omitempty" yaml:"default,omitempty"`

	// Required fails empty values with Message, or DefaultRequiredMessage.
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`

	// Validate is a go-playground/validator tag such as "email" or "min=3".
	Validate string `json:"validate,omitempty" yaml:"validate,omitempty"`
	Message  string `json:"message,omitempty" yaml:"message,omitempty"`

	FocusOnLoad                       bool     `json:"focusOnLoad,omitempty" yaml:"focusOnLoad,omitempty"`
	ValidateWhenPristine              bool     `json:"validateWhenPristine,omitempty" yaml:"validateWhenPristine,omitempty"`
	SetPristineWhenUpdateDefaultValue bool     `json:"setPristineWhenUpdateDefaultValue,omitempty" yaml:"setPristineWhenUpdateDefaultValue,omitempty"`
	DebounceValueForValidation        Duration `json:"debounceValueForValidation,omitempty" yaml:"debounceValueForValidation,omitempty"`
	DebounceValidation                Duration `json:"debounceValidation,omitempty" yaml:"debounceValidation,omitempty"`

	Children []Definition `json:"children,omitempty" yaml:"children,omitempty"`
}

// Duration is a time.Duration written as "250ms" or as a number of milliseconds.
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of milliseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		return d.parse(unq)
	}
	return d.parse(s)
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(time.Duration(d).String())), nil
}

// UnmarshalYAML accepts a duration string or a number of milliseconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	return d.parse(node.Value)
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		*d = Duration(ms * float64(time.Millisecond))
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// DecodeDefinition decodes a definition. A nil codec is picked with DetectCodec.
func DecodeDefinition(data []byte, codec Codec) (Definition, error) {
	if codec == nil {
		codec = DetectCodec(data)
	}
	var def Definition
	if err := codec.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("decode %s definition: %w", codec.ContentType(), err)
	}
	return def, nil
}

// Options converts the definition to element options. An empty Kind means
// a group when Children are present and a field otherwise.
func (d Definition) Options() (Options, error) {
	return d.options("")
}

func (d Definition) kind() Kind {
	if d.Kind != "" {
		return d.Kind
	}
	if len(d.Children) > 0 {
		return KindGroup
	}
	return KindField
}

func (d Definition) options(path string) (Options, error) {
	switch kind := d.kind(); kind {
	case KindField:
		switch strings.ToLower(d.Type) {
		case "", "string", "text":
			return fieldOptions(d, path, String)
		case "int", "integer":
			return fieldOptions(d, path, Int)
		case "float", "number":
			return fieldOptions(d, path, Float)
		case "bool", "boolean":
			return fieldOptions(d, path, Bool)
		default:
			return nil, configError(path, fmt.Errorf("%w: %q", ErrUnknownType, d.Type))
		}

	case KindGroup:
		return d.groupOptions(path)

	default:
		return nil, configError(path, fmt.Errorf("%w: %q", ErrUnknownKind, kind))
	}
}

func fieldOptions[T any](d Definition, path string, vt ValueType[T]) (Options, error) {
	def, err := vt.Coerce(d.Default)
	if err != nil {
		return nil, configError(path, fmt.Errorf("%w: %v", ErrInvalidDefault, err))
	}

	var validators []Validator[T]
	if d.Required {
		msg := d.Message
		if msg == "" {
			msg = DefaultRequiredMessage
		}
		validators = append(validators, Required(vt, msg))
	}
	if d.Validate != "" {
		if err := checkTag[T](d.Validate); err != nil {
			return nil, configError(path, err)
		}
		validators = append(validators, Tag[T](d.Validate, d.Message))
	}

	return FieldOptions[T]{
		Title:                             d.Title,
		Type:                              vt,
		Default:                           def,
		Validator:                         Chain(validators...),
		FocusOnLoad:                       d.FocusOnLoad,
		ValidateWhenPristine:              d.ValidateWhenPristine,
		SetPristineWhenUpdateDefaultValue: d.SetPristineWhenUpdateDefaultValue,
		DebounceValueForValidation:        time.Duration(d.DebounceValueForValidation),
		DebounceValidation:                time.Duration(d.DebounceValidation),
	}, nil
}

func (d Definition) groupOptions(path string) (Options, error) {
	if d.Validate != "" || d.Required {
		return nil, configError(path, errFieldOnlyOption)
	}

	children := make([]Child, 0, len(d.Children))
	for _, child := range d.Children {
		opts, err := child.options(joinPath(path, child.Name))
		if err != nil {
			return nil, err
		}
		children = append(children, Child{Name: child.Name, Options: opts})
	}

	return GroupOptions{
		Title:                      d.Title,
		ValidateWhenPristine:       d.ValidateWhenPristine,
		DebounceValueForValidation: time.Duration(d.DebounceValueForValidation),
		DebounceValidation:         time.Duration(d.DebounceValidation),
		Children:                   children,
	}, nil
}
