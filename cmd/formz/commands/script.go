package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zoobzio/clockz"

	"github.com/zoobzio/formz"
)

// Script is a sequence of commands replayed against a form.
//
//	steps:
//	  - op: focus
//	    path: email
//	  - op: update
//	    path: email
//	    value: someone@example.com
//	  - op: blur
//	    path: email
//	  - op: wait
//	    duration: 300ms
type Script struct {
	Steps []Step `json:"steps" yaml:"steps"`
}

// Step is one scripted command. Path is the dotted element path; empty
// addresses the root.
type Step struct {
	Op       string         `json:"op" yaml:"op"`
	Path     string         `json:"path,omitempty" yaml:"path,omitempty"`
	Value    any            `json:"value,omitempty" yaml:"value,omitempty"`
	Duration formz.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

var errUnknownOp = errors.New("unknown step op")

// DecodeScript decodes a YAML or JSON script.
func DecodeScript(data []byte) (Script, error) {
	codec := formz.DetectCodec(data)
	var s Script
	if err := codec.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("decode %s script: %w", codec.ContentType(), err)
	}
	for i, step := range s.Steps {
		switch strings.ToLower(step.Op) {
		case "update", "focus", "blur", "reset", "wait":
		default:
			return Script{}, fmt.Errorf("step %d: %w: %q", i, errUnknownOp, step.Op)
		}
	}
	return s, nil
}

type focuser interface {
	Focus()
	Blur()
}

// runner replays a script against a freshly built form.
type runner struct {
	out   io.Writer
	codec formz.Codec
	clock clockz.Clock

	// final prints only the settled root state instead of every publication.
	final bool

	// quiet is how long the root must stay unchanged and not pending before
	// it counts as settled.
	quiet time.Duration
}

func newRunner(out io.Writer) *runner {
	return &runner{
		out:   out,
		codec: formz.JSONCodec{},
		clock: clockz.RealClock,
		quiet: 100 * time.Millisecond,
	}
}

// run builds the form, replays every step and waits for the root to settle.
// The stores are torn down before run returns.
func (r *runner) run(ctx context.Context, def formz.Definition, script Script) error {
	opts, err := def.Options()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan struct{}, 1)
	var writeErr error
	root, err := formz.New(opts, formz.CreateOptions{Clock: r.clock}, func(el formz.Element) {
		el.Subscribe(func(s formz.Status) {
			select {
			case updates <- struct{}{}:
			default:
			}
			if !r.final && writeErr == nil {
				writeErr = r.print(s)
			}
		})
	})
	if err != nil {
		return err
	}
	if err := root.Start(ctx); err != nil {
		return err
	}

	for i, step := range script.Steps {
		if err := r.apply(ctx, root, step); err != nil {
			return fmt.Errorf("step %d (%s %s): %w", i, step.Op, step.Path, err)
		}
	}

	status, err := r.settle(ctx, root, updates)
	if err != nil {
		return err
	}
	if r.final {
		return r.print(status)
	}
	cancel()
	<-root.Done()
	return writeErr
}

func (r *runner) apply(ctx context.Context, root formz.Element, step Step) error {
	op := strings.ToLower(step.Op)
	if op == "wait" {
		timer := r.clock.NewTimer(time.Duration(step.Duration))
		defer timer.Stop()
		select {
		case <-timer.C():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	el, err := formz.Lookup(root, step.Path)
	if err != nil {
		return err
	}

	switch op {
	case "reset":
		el.Reset()
		return nil

	case "update":
		u, ok := el.(formz.Updater)
		if !ok {
			return fmt.Errorf("%s %q does not accept updates", el.Kind(), el.Path())
		}
		return u.Update(step.Value)

	case "focus", "blur":
		f, ok := el.(focuser)
		if !ok {
			return fmt.Errorf("%s %q cannot take focus", el.Kind(), el.Path())
		}
		if op == "focus" {
			f.Focus()
		} else {
			f.Blur()
		}
		return nil

	default:
		return fmt.Errorf("%w: %q", errUnknownOp, step.Op)
	}
}

// settle waits until the root has published, is not pending, and has been
// quiet for r.quiet.
func (r *runner) settle(ctx context.Context, root formz.Element, updates <-chan struct{}) (formz.Status, error) {
	timer := r.clock.NewTimer(r.quiet)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			status, _ := root.Status()
			return status, ctx.Err()

		case <-updates:
			if !timer.Stop() {
				select {
				case <-timer.C():
				default:
				}
			}
			timer.Reset(r.quiet)

		case <-timer.C():
			if status, ok := root.Status(); ok && !status.IsPending {
				return status, nil
			}
			timer.Reset(r.quiet)
		}
	}
}

func (r *runner) print(s formz.Status) error {
	data, err := r.codec.Marshal(s)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(r.out, "%s\n", data)
	return err
}
