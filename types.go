package formz

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// ValueType is the capability record of a field's value type. Coerce turns
// any raw input into a T; IsEmpty and Equal operate on coerced values.
// Implementations should keep Coerce idempotent (Coerce(Coerce(x)) equals
// Coerce(x)) and Equal consistent with it.
type ValueType[T any] struct {
	// Name identifies the type in definitions and logs.
	Name string

	// Coerce converts raw input to T. A returned error is surfaced to the
	// caller of Update.
	Coerce func(raw any) (T, error)

	// IsEmpty reports whether a value counts as "no input".
	IsEmpty func(value T) bool

	// Equal reports whether two values are the same for the reducer.
	Equal func(a, b T) bool
}

// withDefaults fills any missing function with the Comparable behavior.
func (vt ValueType[T]) withDefaults() ValueType[T] {
	fallback := Comparable[T]()
	if vt.Name == "" {
		vt.Name = fallback.Name
	}
	if vt.Coerce == nil {
		vt.Coerce = fallback.Coerce
	}
	if vt.IsEmpty == nil {
		vt.IsEmpty = fallback.IsEmpty
	}
	if vt.Equal == nil {
		vt.Equal = fallback.Equal
	}
	return vt
}

// Comparable returns a ValueType that accepts values already of type T (nil
// becomes the zero value), compares structurally and treats the zero value
// as empty.
func Comparable[T any]() ValueType[T] {
	var zero T
	return ValueType[T]{
		Name: typeName[T](),
		Coerce: func(raw any) (T, error) {
			if raw == nil {
				return zero, nil
			}
			v, ok := raw.(T)
			if !ok {
				return zero, fmt.Errorf("cannot use %T as %s", raw, typeName[T]())
			}
			return v, nil
		},
		IsEmpty: func(v T) bool {
			return equalValues(v, zero)
		},
		Equal: func(a, b T) bool {
			return equalValues(a, b)
		},
	}
}

func typeName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return t.String()
}

// equalValues compares values structurally, including unexported fields.
func equalValues(a, b any) bool {
	return cmp.Equal(a, b, cmp.Exporter(func(reflect.Type) bool { return true }))
}

// String is the text value type. nil coerces to "", fmt.Stringer values use
// String(), anything else is formatted with fmt.Sprint.
var String = ValueType[string]{
	Name: "string",
	Coerce: func(raw any) (string, error) {
		switch v := raw.(type) {
		case nil:
			return "", nil
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		case fmt.Stringer:
			return v.String(), nil
		default:
			return fmt.Sprint(v), nil
		}
	},
	IsEmpty: func(v string) bool { return strings.TrimSpace(v) == "" },
	Equal:   func(a, b string) bool { return a == b },
}

// Int is the integer value type. nil and "" coerce to 0; strings are parsed;
// floats must be integral.
var Int = ValueType[int]{
	Name: "int",
	Coerce: func(raw any) (int, error) {
		switch v := raw.(type) {
		case nil:
			return 0, nil
		case int:
			return v, nil
		case int8:
			return int(v), nil
		case int16:
			return int(v), nil
		case int32:
			return int(v), nil
		case int64:
			return int(v), nil
		case uint8:
			return int(v), nil
		case uint16:
			return int(v), nil
		case uint32:
			return int(v), nil
		case float32:
			return intFromFloat(float64(v))
		case float64:
			return intFromFloat(v)
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				return 0, nil
			}
			n, err := strconv.Atoi(s)
			if err != nil {
				return 0, fmt.Errorf("parse int %q: %w", v, err)
			}
			return n, nil
		default:
			return 0, fmt.Errorf("cannot use %T as int", raw)
		}
	},
	IsEmpty: func(v int) bool { return v == 0 },
	Equal:   func(a, b int) bool { return a == b },
}

func intFromFloat(f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	return int(f), nil
}

// Float is the floating point value type.
var Float = ValueType[float64]{
	Name: "float",
	Coerce: func(raw any) (float64, error) {
		switch v := raw.(type) {
		case nil:
			return 0, nil
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case int32:
			return float64(v), nil
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				return 0, nil
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return 0, fmt.Errorf("parse float %q: %w", v, err)
			}
			return f, nil
		default:
			return 0, fmt.Errorf("cannot use %T as float", raw)
		}
	},
	IsEmpty: func(v float64) bool { return v == 0 },
	Equal:   func(a, b float64) bool { return a == b },
}

// Bool is the boolean value type. Strings are parsed with strconv.ParseBool;
// "" is false.
var Bool = ValueType[bool]{
	Name: "bool",
	Coerce: func(raw any) (bool, error) {
		switch v := raw.(type) {
		case nil:
			return false, nil
		case bool:
			return v, nil
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				return false, nil
			}
			b, err := strconv.ParseBool(s)
			if err != nil {
				return false, fmt.Errorf("parse bool %q: %w", v, err)
			}
			return b, nil
		default:
			return false, fmt.Errorf("cannot use %T as bool", raw)
		}
	},
	IsEmpty: func(v bool) bool { return !v },
	Equal:   func(a, b bool) bool { return a == b },
}
