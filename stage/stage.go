// Package stage implements C5: staging a package bundle into a working
// directory and cleaning it up once an operation finishes, per spec.md §4.5.
package stage

import (
	"os"
	"path/filepath"

	"lpm/errs"
	"lpm/format"
	"lpm/logging"
)

// PersistScripts writes scripts (phase -> body) to dest, one file per phase,
// executable, so a package's lifecycle scripts survive past its staging
// directory being cleaned up. Missing phases are simply not written.
func PersistScripts(dest string, scripts map[format.ScriptPhase]string) error {
	if len(scripts) == 0 {
		return nil
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return &errs.Io{Op: "mkdir", Path: dest, Err: err}
	}
	for phase, body := range scripts {
		path := filepath.Join(dest, string(phase))
		if err := os.WriteFile(path, []byte(body), 0755); err != nil {
			return &errs.Io{Op: "write", Path: path, Err: err}
		}
	}
	return nil
}

// Dir returns the staging directory for artifact path A under root, keyed
// by A's basename, per §3's "per-operation subdirectory keyed by the
// package's source filename".
func Dir(root, artifactPath string) string {
	return filepath.Join(root, filepath.Base(artifactPath))
}

// Stage performs the half-extract then full-extract steps of §4.5: it reads
// the bundle at artifactPath, splits its outer ar container into the meta
// and program tar.gz members, and extracts both into the returned staging
// directory, producing S/meta/ and S/program/.
//
// Invariant: S is either absent or complete. If Stage fails partway, it
// removes S before returning so a blind retry is always safe.
func Stage(root, artifactPath string) (dir string, err error) {
	dir = Dir(root, artifactPath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &errs.Io{Op: "mkdir", Path: dir, Err: err}
	}
	defer func() {
		if err != nil {
			_ = Cleanup(dir)
		}
	}()

	f, openErr := os.Open(artifactPath)
	if openErr != nil {
		return "", &errs.Io{Op: "open", Path: artifactPath, Err: openErr}
	}
	defer f.Close()

	metaGz, programGz, splitErr := format.SplitBundle(f)
	if splitErr != nil {
		return "", splitErr
	}

	if extractErr := format.ExtractTarGz(metaGz, dir); extractErr != nil {
		return "", extractErr
	}
	if extractErr := format.ExtractTarGz(programGz, dir); extractErr != nil {
		return "", extractErr
	}
	programDir := filepath.Join(dir, "program")
	if mkErr := os.MkdirAll(programDir, 0755); mkErr != nil {
		return "", &errs.Io{Op: "mkdir", Path: programDir, Err: mkErr}
	}

	logging.Debug("staged %s into %s", artifactPath, dir)
	return dir, nil
}

// Cleanup deletes dir recursively. Per §4.5, this runs after both success
// and failure of an operation, and is safe to call on an absent directory.
func Cleanup(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return &errs.Io{Op: "remove", Path: dir, Err: err}
	}
	logging.Debug("cleaned up staging directory %s", dir)
	return nil
}
