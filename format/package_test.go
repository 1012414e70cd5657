package format

import "testing"

func TestVersionCompare(t *testing.T) {
	cases := []struct {
		name string
		a, b Version
		want int
	}{
		{"equal", Version{1, 0, 0, "", "1.0.0"}, Version{1, 0, 0, "", "1.0.0"}, 0},
		{"patch greater", Version{1, 1, 1, "", ""}, Version{1, 1, 0, "", ""}, 1},
		{"minor less", Version{1, 0, 0, "", ""}, Version{1, 1, 0, "", ""}, -1},
		{"stable beats prerelease", Version{1, 0, 0, "", ""}, Version{1, 0, 0, "rc1", ""}, 1},
		{"prerelease loses to stable", Version{1, 0, 0, "rc1", ""}, Version{1, 0, 0, "", ""}, -1},
		{"tags compared lexically", Version{1, 0, 0, "alpha", ""}, Version{1, 0, 0, "beta", ""}, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := c.a.Compare(c.b)
			if sign(got) != sign(c.want) {
				t.Errorf("%v.Compare(%v) = %d, want sign %d", c.a, c.b, got, c.want)
			}
		})
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("1.2.3-beta")
	if err != nil {
		t.Fatal(err)
	}
	if v.Major != 1 || v.Minor != 2 || v.Patch != 3 || v.Tag != "beta" {
		t.Errorf("got %+v", v)
	}

	if _, err := ParseVersion("1.2"); err == nil {
		t.Error("expected error for malformed version")
	}
}

func TestPackageValidate(t *testing.T) {
	pkg := &Package{
		Meta: Metadata{Name: "pkg-a"},
		Files: []FileEntry{
			{RelativePath: "bin/a", ChecksumAlgorithm: SHA256, Checksum: repeatHex(64)},
		},
	}

	if err := pkg.Validate([]string{"bin/a"}); err != nil {
		t.Errorf("expected valid, got %v", err)
	}
	if err := pkg.Validate([]string{"bin/a", "bin/b"}); err == nil {
		t.Error("expected error: extra file on disk not in manifest")
	}
	if err := pkg.Validate([]string{}); err == nil {
		t.Error("expected error: manifest file missing from program/")
	}
}

func TestChecksumLength(t *testing.T) {
	bad := FileEntry{RelativePath: "x", ChecksumAlgorithm: SHA256, Checksum: "short"}
	if err := checkChecksumLength(bad); err == nil {
		t.Error("expected checksum length mismatch error")
	}
}

func repeatHex(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}
