package formz

import (
	"errors"
	"fmt"
)

// Construction errors. They are wrapped in a *ConfigurationError that names
// the offending element path.
var (
	ErrNilOptions      = errors.New("options are required")
	ErrUnknownKind     = errors.New("unknown element kind")
	ErrMissingChildren = errors.New("group requires children")
	ErrEmptyChildName  = errors.New("child name is required")
	ErrDuplicateChild  = errors.New("duplicate child name")
	ErrUnknownType     = errors.New("unknown value type")
	ErrInvalidDefault  = errors.New("default value cannot be coerced")
)

// Runtime errors.
var (
	ErrAlreadyStarted = errors.New("store already started")
	ErrNotFound       = errors.New("element not found")
	ErrInvalidValue   = errors.New("value cannot be coerced")
)

// ConfigurationError reports a misconfigured element at construction time.
// It is never recovered internally: the store does not exist.
type ConfigurationError struct {
	// Path is the dotted path of the element inside the form, empty for the root.
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("formz: configuration: %v", e.Err)
	}
	return fmt.Sprintf("formz: configuration at %q: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configError(path string, err error) error {
	var cerr *ConfigurationError
	if errors.As(err, &cerr) {
		return err
	}
	return &ConfigurationError{Path: path, Err: err}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
