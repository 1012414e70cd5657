// Package format implements the package artifact format and reader (C1):
// parsing a bundle's metadata and manifest, and exposing the staged program
// tree to copy under the system root.
package format

import (
	"fmt"
	"strconv"
	"strings"
)

// Metadata holds the fields of a package's meta.yaml, shaped the same way as
// deb.Metadata: mandatory + optional fields. Keys not listed here are
// rejected when meta.yaml is decoded.
type Metadata struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description,omitempty"`
	Maintainer   string `yaml:"maintainer"`
	Homepage     string `yaml:"homepage,omitempty"`
	License      string `yaml:"license,omitempty"`
	Architecture string `yaml:"architecture"`
	Kind         string `yaml:"kind,omitempty"`
	InstalledSize int64 `yaml:"installed_size,omitempty"`
	Version      Version `yaml:"version"`
	Tags         []string `yaml:"tags,omitempty"`
	SourcePackage string  `yaml:"source_package,omitempty"`
}

// Version is the (major, minor, patch, tag) tuple of §3, with "tag absent >
// tag present" ordering, resolving the Open Question noted in spec.md §9.
type Version struct {
	Major    int    `yaml:"major"`
	Minor    int    `yaml:"minor"`
	Patch    int    `yaml:"patch"`
	Tag      string `yaml:"tag,omitempty"`
	Readable string `yaml:"readable,omitempty"`
}

// String returns the Readable field if present, else a computed "M.m.p[-tag]".
func (v Version) String() string {
	if v.Readable != "" {
		return v.Readable
	}
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Tag != "" {
		s += "-" + v.Tag
	}
	return s
}

// Compare orders versions lexicographically on (major, minor, patch), with
// an absent tag sorting after (newer/more stable than) a present one.
// Returns <0, 0, >0 for v<other, v==other, v>other.
func (v Version) Compare(other Version) int {
	if d := v.Major - other.Major; d != 0 {
		return d
	}
	if d := v.Minor - other.Minor; d != 0 {
		return d
	}
	if d := v.Patch - other.Patch; d != 0 {
		return d
	}
	switch {
	case v.Tag == "" && other.Tag == "":
		return 0
	case v.Tag == "":
		return 1 // absent > present
	case other.Tag == "":
		return -1
	default:
		return strings.Compare(v.Tag, other.Tag)
	}
}

// ParseVersion parses a "major.minor.patch[-tag]" string, for CLI/test
// convenience; Readable is set to the input string verbatim.
func ParseVersion(s string) (Version, error) {
	readable := s
	tag := ""
	if i := strings.IndexByte(s, '-'); i != -1 {
		tag = s[i+1:]
		s = s[:i]
	}
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("version %q: expected major.minor.patch[-tag]", readable)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, fmt.Errorf("version %q: %w", readable, err)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2], Tag: tag, Readable: readable}, nil
}

// FileEntry is one manifest record: a relative path and the digest of its
// content under the declared algorithm.
type FileEntry struct {
	RelativePath      string            `yaml:"relative_path"`
	ChecksumAlgorithm ChecksumAlgorithm `yaml:"checksum_algorithm"`
	Checksum          string            `yaml:"checksum"`
}

// Manifest is the files.yaml payload: an ordered sequence of FileEntry.
type Manifest struct {
	Files []FileEntry `yaml:"files"`
}

// Package is the in-memory representation of a parsed artifact (C1's output):
// metadata, the file manifest, lifecycle scripts by phase, and the path to
// the staged program tree.
type Package struct {
	Meta     Metadata
	Files    []FileEntry
	Scripts  map[ScriptPhase]string
	// ProgramRoot is the staged directory containing the file tree to copy
	// under the system root; empty until staged by the stage package.
	ProgramRoot string
	// SignaturePath, if non-empty, names a clearsigned signature file staged
	// as meta/signature.asc for validate to check.
	SignaturePath string
}

// Validate checks the §3 structural invariants that don't require reading
// file content: name non-empty, checksum length matches algorithm, and
// (when programFiles is non-nil) 1:1 correspondence between files[] and the
// staged program tree listed in programFiles. Content digests are C2's job
// (validate package).
func (p *Package) Validate(programFiles []string) error {
	if p.Meta.Name == "" {
		return fmt.Errorf("package name is empty")
	}

	want := map[string]bool{}
	for _, f := range p.Files {
		want[f.RelativePath] = true
		if err := checkChecksumLength(f); err != nil {
			return err
		}
	}
	if programFiles == nil {
		return nil
	}
	have := map[string]bool{}
	for _, rel := range programFiles {
		have[rel] = true
		if !want[rel] {
			return fmt.Errorf("file %q present under program/ but missing from manifest", rel)
		}
	}
	for rel := range want {
		if !have[rel] {
			return fmt.Errorf("file %q listed in manifest but missing under program/", rel)
		}
	}
	return nil
}

func checkChecksumLength(f FileEntry) error {
	var want int
	switch f.ChecksumAlgorithm {
	case MD5:
		want = 32
	case SHA256:
		want = 64
	case SHA512:
		want = 128
	default:
		return fmt.Errorf("file %q: unsupported checksum algorithm %q", f.RelativePath, f.ChecksumAlgorithm)
	}
	if len(f.Checksum) != want {
		return fmt.Errorf("file %q: checksum length %d does not match algorithm %s (want %d)",
			f.RelativePath, len(f.Checksum), f.ChecksumAlgorithm, want)
	}
	return nil
}
