package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for concurrent writers and readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return condition()
}

func TestWatch_ReplaysOnChange(t *testing.T) {
	dir := t.TempDir()
	form := filepath.Join(dir, "form.yaml")
	script := filepath.Join(dir, "script.yaml")
	if err := os.WriteFile(form, []byte(testForm), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(script, []byte("steps: []\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	prevForm, prevScript := formPath, scriptPath
	formPath, scriptPath = form, script
	t.Cleanup(func() { formPath, scriptPath = prevForm, prevScript })

	var out, errOut syncBuffer
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watch(ctx, &out, &errOut, 20*time.Millisecond) }()

	lines := func() int { return strings.Count(out.String(), "\n") }
	if !waitFor(t, 2*time.Second, func() bool { return lines() >= 1 }) {
		t.Fatalf("expected an initial replay, stderr: %s", errOut.String())
	}

	updated := "steps:\n  - op: update\n    path: age\n    value: 16\n"
	if err := os.WriteFile(script, []byte(updated), 0o600); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return strings.Contains(out.String(), "Too young") }) {
		t.Errorf("expected a replay after the script changed, got:\n%s\nstderr: %s", out.String(), errOut.String())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatch_ReplaysAfterRenameSave(t *testing.T) {
	dir := t.TempDir()
	form := filepath.Join(dir, "form.yaml")
	script := filepath.Join(dir, "script.yaml")
	if err := os.WriteFile(form, []byte(testForm), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(script, []byte("steps: []\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	prevForm, prevScript := formPath, scriptPath
	formPath, scriptPath = form, script
	t.Cleanup(func() { formPath, scriptPath = prevForm, prevScript })

	var out, errOut syncBuffer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- watch(ctx, &out, &errOut, 20*time.Millisecond) }()

	if !waitFor(t, 2*time.Second, func() bool { return strings.Count(out.String(), "\n") >= 1 }) {
		t.Fatalf("expected an initial replay, stderr: %s", errOut.String())
	}

	save := func(body string) {
		t.Helper()
		tmp := filepath.Join(dir, ".script.yaml.swp")
		if err := os.WriteFile(tmp, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := os.Rename(tmp, script); err != nil {
			t.Fatal(err)
		}
	}

	save("steps:\n  - op: update\n    path: age\n    value: 16\n")
	if !waitFor(t, 2*time.Second, func() bool { return strings.Contains(out.String(), "Too young") }) {
		t.Fatalf("expected a replay after the first rename save, got:\n%s\nstderr: %s", out.String(), errOut.String())
	}

	// The original file is gone after the first rename; a second save must
	// still be seen.
	before := strings.Count(out.String(), "Too young")
	save("steps:\n  - op: update\n    path: age\n    value: 15\n")
	if !waitFor(t, 2*time.Second, func() bool { return strings.Count(out.String(), "Too young") > before }) {
		t.Errorf("expected a replay after the second rename save, got:\n%s\nstderr: %s", out.String(), errOut.String())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
