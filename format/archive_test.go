package format

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteToAndReadStagedRoundTrip(t *testing.T) {
	content := []byte("#!/bin/sh\necho hi\n")
	sum := sha256.Sum256(content)
	digest := hex.EncodeToString(sum[:])

	spec := BuildSpec{
		Meta: Metadata{
			Name:         "pkg-a",
			Maintainer:   "Test <t@example.com>",
			Architecture: AnyArch,
			Version:      Version{Major: 1, Minor: 0, Patch: 0, Readable: "1.0.0"},
		},
		Files: []FileEntry{
			{RelativePath: "bin/a", ChecksumAlgorithm: SHA256, Checksum: digest},
		},
		Scripts: map[ScriptPhase]string{
			PostInstall: "#!/bin/sh\ntrue\n",
		},
		ProgramFiles: map[string][]byte{
			"bin/a": content,
		},
	}

	var buf bytes.Buffer
	if _, err := WriteTo(&buf, spec); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	metaGz, programGz, err := SplitBundle(&buf)
	if err != nil {
		t.Fatalf("SplitBundle: %v", err)
	}

	dir := t.TempDir()
	if err := ExtractTarGz(metaGz, dir); err != nil {
		t.Fatalf("ExtractTarGz(meta): %v", err)
	}
	if err := ExtractTarGz(programGz, dir); err != nil {
		t.Fatalf("ExtractTarGz(program): %v", err)
	}

	pkg, err := ReadStaged(dir)
	if err != nil {
		t.Fatalf("ReadStaged: %v", err)
	}

	if pkg.Meta.Name != "pkg-a" {
		t.Errorf("name = %q", pkg.Meta.Name)
	}
	if len(pkg.Files) != 1 || pkg.Files[0].Checksum != digest {
		t.Errorf("files = %+v", pkg.Files)
	}
	if pkg.Scripts[PostInstall] == "" {
		t.Error("expected post_install script to be present")
	}
	if pkg.Scripts[PreInstall] != "" {
		t.Error("expected pre_install script to be absent")
	}

	got, err := os.ReadFile(filepath.Join(pkg.ProgramRoot, "bin/a"))
	if err != nil {
		t.Fatalf("reading staged program file: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("staged program file content mismatch")
	}
}

func TestSplitBundleRejectsMissingMember(t *testing.T) {
	var buf bytes.Buffer
	_, _, err := SplitBundle(&buf)
	if err == nil {
		t.Error("expected error splitting an empty bundle")
	}
}
