package stage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"lpm/format"
)

func writeBundle(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	spec := format.BuildSpec{
		Meta: format.Metadata{
			Name: "pkg-a", Maintainer: "m", Architecture: format.AnyArch,
			Version: format.Version{Major: 1, Readable: "1.0.0"},
		},
		ProgramFiles: map[string][]byte{},
	}
	if _, err := format.WriteTo(&buf, spec); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestStageAndCleanup(t *testing.T) {
	root := t.TempDir()
	artifactDir := t.TempDir()
	artifactPath := filepath.Join(artifactDir, "pkg-a_1.0.0.lpm")
	writeBundle(t, artifactPath)

	dir, err := Stage(root, artifactPath)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "meta", "meta.yaml")); err != nil {
		t.Errorf("expected meta.yaml staged: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "program")); err != nil {
		t.Errorf("expected program/ staged: %v", err)
	}

	if err := Cleanup(dir); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("expected staging dir removed, got err=%v", err)
	}
}

func TestStageCleansUpOnFailure(t *testing.T) {
	root := t.TempDir()
	_, err := Stage(root, filepath.Join(t.TempDir(), "does-not-exist.lpm"))
	if err == nil {
		t.Fatal("expected error staging a missing artifact")
	}
	dir := Dir(root, filepath.Join(t.TempDir(), "does-not-exist.lpm"))
	if _, statErr := os.Stat(dir); !os.IsNotExist(statErr) {
		t.Error("expected staging dir to be cleaned up after failed stage")
	}
}
