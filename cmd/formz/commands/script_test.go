package commands

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/zoobzio/formz"
)

const testForm = `
kind: group
title: signup
children:
  - name: email
    required: true
    message: Email is required
  - name: age
    type: int
    validate: min=18
    message: Too young
`

func TestDecodeScript(t *testing.T) {
	s, err := DecodeScript([]byte(`
steps:
  - op: focus
    path: email
  - op: update
    path: email
    value: a@b.c
  - op: wait
    duration: 10ms
`))
	if err != nil {
		t.Fatalf("DecodeScript() error = %v", err)
	}
	want := []Step{
		{Op: "focus", Path: "email"},
		{Op: "update", Path: "email", Value: "a@b.c"},
		{Op: "wait", Duration: formz.Duration(10 * time.Millisecond)},
	}
	if diff := cmp.Diff(want, s.Steps); diff != "" {
		t.Errorf("steps mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeScript_JSON(t *testing.T) {
	s, err := DecodeScript([]byte(`{"steps": [{"op": "reset"}]}`))
	if err != nil {
		t.Fatalf("DecodeScript() error = %v", err)
	}
	if len(s.Steps) != 1 || s.Steps[0].Op != "reset" {
		t.Errorf("unexpected steps %+v", s.Steps)
	}
}

func TestDecodeScript_UnknownOp(t *testing.T) {
	_, err := DecodeScript([]byte(`{"steps": [{"op": "submit"}]}`))
	if !errors.Is(err, errUnknownOp) {
		t.Errorf("expected errUnknownOp, got %v", err)
	}
}

func testRunner(out *bytes.Buffer, final bool) *runner {
	r := newRunner(out)
	r.final = final
	r.quiet = 20 * time.Millisecond
	return r
}

func decodeForm(t *testing.T) formz.Definition {
	t.Helper()
	def, err := formz.DecodeDefinition([]byte(testForm), nil)
	if err != nil {
		t.Fatalf("DecodeDefinition() error = %v", err)
	}
	return def
}

func TestRunner_FinalState(t *testing.T) {
	var out bytes.Buffer
	script := Script{Steps: []Step{
		{Op: "focus", Path: "email"},
		{Op: "update", Path: "email", Value: "x"},
		{Op: "update", Path: "email", Value: ""},
		{Op: "blur", Path: "email"},
		{Op: "update", Path: "age", Value: "16"},
	}}

	if err := testRunner(&out, true).run(context.Background(), decodeForm(t), script); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	var status formz.Status
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &status); err != nil {
		t.Fatalf("output is not a status: %v\n%s", err, out.String())
	}
	if !status.IsInvalid || status.IsPending || status.HasFocus {
		t.Errorf("unexpected flags %+v", status)
	}
	if diff := cmp.Diff([]string{"Email is required", "Too young"}, status.Errors); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestRunner_PrintsEveryPublication(t *testing.T) {
	var out bytes.Buffer
	script := Script{Steps: []Step{
		{Op: "update", Path: "email", Value: "a@b.c"},
		{Op: "wait", Duration: formz.Duration(10 * time.Millisecond)},
		{Op: "reset"},
	}}

	if err := testRunner(&out, false).run(context.Background(), decodeForm(t), script); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected several publications, got %d:\n%s", len(lines), out.String())
	}
	var last formz.Status
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &last); err != nil {
		t.Fatal(err)
	}
	if last.IsDirty || last.IsTouched {
		t.Errorf("expected reset form last, got %+v", last)
	}
}

func TestRunner_StepErrors(t *testing.T) {
	tests := []struct {
		name string
		step Step
		want error
	}{
		{"missing path", Step{Op: "focus", Path: "phone"}, formz.ErrNotFound},
		{"bad value", Step{Op: "update", Path: "age", Value: "old"}, formz.ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := testRunner(&out, true).run(context.Background(), decodeForm(t), Script{Steps: []Step{tt.step}})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRunner_GroupRejectsUpdate(t *testing.T) {
	var out bytes.Buffer
	err := testRunner(&out, true).run(context.Background(), decodeForm(t), Script{Steps: []Step{
		{Op: "update", Value: "x"},
	}})
	if err == nil || !strings.Contains(err.Error(), "does not accept updates") {
		t.Errorf("expected update on group to fail, got %v", err)
	}
}
