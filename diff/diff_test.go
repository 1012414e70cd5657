package diff

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"lpm/format"
)

func TestPlanOrdering(t *testing.T) {
	old := []OldFile{
		{RelativePath: "bin/a", Checksum: "aaaa"},
		{RelativePath: "bin/b", Checksum: "bbbb"},
		{RelativePath: "bin/gone", Checksum: "cccc"},
	}
	newFiles := []format.FileEntry{
		{RelativePath: "bin/a", Checksum: "aaaa"},    // unchanged
		{RelativePath: "bin/b", Checksum: "updated"}, // updated
		{RelativePath: "bin/c", Checksum: "dddd"},    // added
	}

	steps := Plan(old, newFiles)
	if len(steps) != 4 {
		t.Fatalf("expected 4 steps, got %d: %+v", len(steps), steps)
	}
	want := []struct {
		path   string
		action Action
	}{
		{"bin/a", ActionUnchanged},
		{"bin/b", ActionUpdated},
		{"bin/c", ActionAdded},
		{"bin/gone", ActionRemoved},
	}
	for i, w := range want {
		if steps[i].RelativePath != w.path || steps[i].Action != w.action {
			t.Errorf("step %d = %+v, want {%s %v}", i, steps[i], w.path, w.action)
		}
	}
}

func TestApplyCopiesAddsAndUpdatesRemovesOld(t *testing.T) {
	programRoot := t.TempDir()
	systemRoot := t.TempDir()

	mustWrite(t, filepath.Join(programRoot, "bin/a"), "new-a")
	mustWrite(t, filepath.Join(programRoot, "bin/b"), "new-b")
	mustWrite(t, filepath.Join(systemRoot, "bin/b"), "old-b")
	mustWrite(t, filepath.Join(systemRoot, "bin/old"), "stale")

	plan := []Step{
		{RelativePath: "bin/a", Action: ActionAdded},
		{RelativePath: "bin/b", Action: ActionUpdated},
		{RelativePath: "bin/old", Action: ActionRemoved},
	}
	done, err := Apply(plan, programRoot, systemRoot)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(done) != 3 {
		t.Fatalf("expected 3 completed steps, got %d", len(done))
	}

	got, err := os.ReadFile(filepath.Join(systemRoot, "bin/a"))
	if err != nil || string(got) != "new-a" {
		t.Fatalf("bin/a content = %q, err = %v", got, err)
	}
	got, err = os.ReadFile(filepath.Join(systemRoot, "bin/b"))
	if err != nil || string(got) != "new-b" {
		t.Fatalf("bin/b content = %q, err = %v", got, err)
	}
	if _, err := os.Stat(filepath.Join(systemRoot, "bin/old")); !os.IsNotExist(err) {
		t.Errorf("expected bin/old removed, got err=%v", err)
	}
}

func TestReverseUndoesAdds(t *testing.T) {
	programRoot := t.TempDir()
	systemRoot := t.TempDir()
	mustWrite(t, filepath.Join(programRoot, "bin/a"), "new-a")

	plan := []Step{{RelativePath: "bin/a", Action: ActionAdded}}
	done, err := Apply(plan, programRoot, systemRoot)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	undone, notUndone := Reverse(done, programRoot, systemRoot)
	if len(undone) != 1 || len(notUndone) != 0 {
		t.Fatalf("undone=%v notUndone=%v", undone, notUndone)
	}
	if _, err := os.Stat(filepath.Join(systemRoot, "bin/a")); !os.IsNotExist(err) {
		t.Errorf("expected bin/a removed after reverse, got err=%v", err)
	}
}

// TestApplyLeavesUnchangedFileUntouched asserts §8's "identical-checksum
// files are never rewritten" property: Apply must not touch an
// ActionUnchanged file's mtime.
func TestApplyLeavesUnchangedFileUntouched(t *testing.T) {
	programRoot := t.TempDir()
	systemRoot := t.TempDir()

	mustWrite(t, filepath.Join(programRoot, "bin/a"), "same-a")
	dst := filepath.Join(systemRoot, "bin/a")
	mustWrite(t, dst, "same-a")

	stale := time.Now().Add(-time.Hour).Truncate(time.Second)
	if err := os.Chtimes(dst, stale, stale); err != nil {
		t.Fatal(err)
	}
	before, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}

	plan := []Step{{RelativePath: "bin/a", Action: ActionUnchanged}}
	if _, err := Apply(plan, programRoot, systemRoot); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	after, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Errorf("unchanged file was rewritten: mtime %v -> %v", before.ModTime(), after.ModTime())
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
