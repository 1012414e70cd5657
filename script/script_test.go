package script

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"lpm/format"
)

func TestExecuteMissingScriptIsNoop(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)
	if err := r.Execute(format.PreInstall); err != nil {
		t.Fatalf("expected no-op success, got %v", err)
	}
}

func TestExecuteSuccess(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, format.PostInstall, "#!/bin/sh\nexit 0\n")

	r := New(dir)
	if err := r.Execute(format.PostInstall); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestExecuteFailure(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, format.PreDelete, "#!/bin/sh\nexit 7\n")

	r := New(dir)
	err := r.Execute(format.PreDelete)
	if err == nil {
		t.Fatal("expected ScriptFailed error")
	}
}

func TestExecuteEmitsEvents(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, format.PostInstall, "#!/bin/sh\nexit 0\n")

	var seen []string
	r := New(dir)
	r.Listener = func(e fmt.Stringer) {
		seen = append(seen, e.String())
	}
	if err := r.Execute(format.PostInstall); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 {
		t.Fatalf("expected one event, got %d", len(seen))
	}
}

func writeScript(t *testing.T, dir string, phase format.ScriptPhase, body string) {
	t.Helper()
	path := filepath.Join(dir, string(phase))
	if err := os.WriteFile(path, []byte(body), 0755); err != nil {
		t.Fatal(err)
	}
}
