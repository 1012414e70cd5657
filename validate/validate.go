// Package validate implements C2: architecture compatibility and per-file
// digest verification against the manifest, plus an optional PGP signature
// check modeled on the apt-repo-builder's signing code.
package validate

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"lpm/errs"
	"lpm/format"
	"lpm/logging"
)

// HostArch is the running system's architecture tag, compared against a
// package's declared architecture. Exposed as a var so tests can override it
// without depending on the process's actual GOARCH.
var HostArch = runtime.GOARCH

// Validate performs the two checks of §4.2 in order: architecture
// compatibility, then per-file digest verification. A third, optional check
// verifies a detached PGP signature when both pkg.SignaturePath and
// keyringPath are non-empty (SPEC_FULL.md §B).
func Validate(pkg *format.Package, keyringPath string) error {
	if err := checkArchitecture(pkg); err != nil {
		return err
	}
	if err := checkFileDigests(pkg); err != nil {
		return err
	}
	if pkg.SignaturePath != "" && keyringPath != "" {
		if err := checkSignature(pkg, keyringPath); err != nil {
			return err
		}
	}
	return nil
}

func checkArchitecture(pkg *format.Package) error {
	arch := pkg.Meta.Architecture
	if arch == format.AnyArch || arch == HostArch {
		return nil
	}
	return &errs.UnsupportedArchitecture{PackageArch: arch, HostArch: HostArch}
}

func checkFileDigests(pkg *format.Package) error {
	for _, f := range pkg.Files {
		path := filepath.Join(pkg.ProgramRoot, filepath.FromSlash(f.RelativePath))
		logging.Debug("reading %s for checksum verification", path)

		content, err := os.ReadFile(path)
		if err != nil {
			return &errs.MalformedPackage{Reason: "file listed in manifest missing from program/: " + f.RelativePath, Err: err}
		}

		h, err := newHasher(f.ChecksumAlgorithm)
		if err != nil {
			return err
		}
		h.Write(content)
		sum := hex.EncodeToString(h.Sum(nil))

		if !strings.EqualFold(sum, f.Checksum) {
			return &errs.InvalidPackageFiles{Path: f.RelativePath}
		}
	}
	return nil
}

func newHasher(algo format.ChecksumAlgorithm) (hash.Hash, error) {
	switch format.ChecksumAlgorithm(strings.ToLower(string(algo))) {
	case format.MD5:
		return md5.New(), nil
	case format.SHA256:
		return sha256.New(), nil
	case format.SHA512:
		return sha512.New(), nil
	default:
		return nil, &errs.UnsupportedChecksumAlgorithm{Algorithm: string(algo)}
	}
}
