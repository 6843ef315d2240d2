package formz

import (
	"errors"
	"fmt"
	"slices"
)

// Verdict is the outcome class of a validation Result.
type Verdict int32

const (
	// VerdictSuccess indicates the value passed validation.
	VerdictSuccess Verdict = iota

	// VerdictError indicates the value failed validation. The Result carries
	// at least one message.
	VerdictError

	// VerdictInconclusive indicates validation is still in flight. It is
	// never terminal: a Success or Error always follows unless the store is
	// torn down or the validator never settles.
	VerdictInconclusive
)

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictSuccess:
		return "success"
	case VerdictError:
		return "error"
	case VerdictInconclusive:
		return "inconclusive"
	default:
		return "unknown"
	}
}

var errUnknownVerdict = errors.New("unknown verdict")

// MarshalText encodes the verdict as its name.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText decodes a verdict name.
func (v *Verdict) UnmarshalText(text []byte) error {
	switch string(text) {
	case "success":
		*v = VerdictSuccess
	case "error":
		*v = VerdictError
	case "inconclusive":
		*v = VerdictInconclusive
	default:
		return fmt.Errorf("%w: %q", errUnknownVerdict, text)
	}
	return nil
}

// Result is the outcome of validating an element.
type Result struct {
	Verdict  Verdict  `json:"verdict" yaml:"verdict"`
	Messages []string `json:"messages,omitempty" yaml:"messages,omitempty"`
}

// Success returns a successful Result.
func Success() Result {
	return Result{Verdict: VerdictSuccess}
}

// Failure returns an Error Result carrying the given messages.
func Failure(messages ...string) Result {
	return Result{Verdict: VerdictError, Messages: messages}
}

// Inconclusive returns a pending Result.
func Inconclusive() Result {
	return Result{Verdict: VerdictInconclusive}
}

// IsSuccess reports whether the result is a success.
func (r Result) IsSuccess() bool { return r.Verdict == VerdictSuccess }

// IsError reports whether the result is a failure.
func (r Result) IsError() bool { return r.Verdict == VerdictError }

// IsInconclusive reports whether validation is still pending.
func (r Result) IsInconclusive() bool { return r.Verdict == VerdictInconclusive }

// Equal reports whether two results are structurally equal.
func (r Result) Equal(other Result) bool {
	return r.Verdict == other.Verdict && slices.Equal(r.Messages, other.Messages)
}

// String renders the result for logs.
func (r Result) String() string {
	if len(r.Messages) == 0 {
		return r.Verdict.String()
	}
	return fmt.Sprintf("%s: %v", r.Verdict, r.Messages)
}

// Collect combines results without short-circuiting: every Error message is
// kept, in order. Any Error makes the combination an Error; otherwise any
// Inconclusive makes it Inconclusive; otherwise it is a Success.
func Collect(results ...Result) Result {
	var (
		messages []string
		failed   bool
		pending  bool
	)
	for _, r := range results {
		switch r.Verdict {
		case VerdictError:
			failed = true
			messages = append(messages, r.Messages...)
		case VerdictInconclusive:
			pending = true
		}
	}
	switch {
	case failed:
		return Failure(messages...)
	case pending:
		return Inconclusive()
	default:
		return Success()
	}
}

// resultOf converts a validator error into a Result. Joined errors are
// flattened so that each leaf contributes one message.
func resultOf(err error) Result {
	if err == nil {
		return Success()
	}
	return Failure(messagesOf(err)...)
}

func messagesOf(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			if e != nil {
				out = append(out, messagesOf(e)...)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return []string{verr.Message}
	}
	return []string{err.Error()}
}
