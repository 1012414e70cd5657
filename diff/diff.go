// Package diff implements C7: comparing an installed package's recorded file
// set against its new manifest and applying the add/update/remove set to the
// filesystem. Grounded in original_source/lpm/core/src/update.rs's
// compare_and_update_files_on_fs, translated here from its linear
// scan-and-remove-from-slice approach into a map-based one.
package diff

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"lpm/errs"
	"lpm/format"
	"lpm/logging"
)

// OldFile is one file already recorded for the installed package, keyed by
// its relative path within the package (matching format.FileEntry's shape).
type OldFile struct {
	RelativePath string
	Checksum     string
}

// Action names what Apply did with one file, for the journal txn keeps to
// reverse a failed operation.
type Action int

const (
	// ActionAdded means the file didn't exist before and was copied in.
	ActionAdded Action = iota
	// ActionUpdated means the file existed with a different checksum and
	// was overwritten.
	ActionUpdated
	// ActionUnchanged means the file existed with an identical checksum and
	// was left alone.
	ActionUnchanged
	// ActionRemoved means the file existed in the old set but not the new
	// one and was deleted.
	ActionRemoved
)

// Step is one filesystem mutation Apply performed or attempted, enough for
// the caller to build a reverse journal entry.
type Step struct {
	RelativePath string
	Action       Action
	// AbsolutePath is where the file lives (or lived) under the system root.
	AbsolutePath string
}

// Plan computes the ordered add/update/remove set between old and new: adds
// and updates follow new's order, removals follow old's order, and a file
// present in both with an identical checksum is left untouched. Per §4.7's
// invariant, Plan never implies removing a parent directory: only the file
// entries themselves are ever removed.
func Plan(old []OldFile, newFiles []format.FileEntry) []Step {
	oldByPath := make(map[string]OldFile, len(old))
	for _, f := range old {
		oldByPath[f.RelativePath] = f
	}
	newByPath := make(map[string]bool, len(newFiles))

	var steps []Step
	for _, f := range newFiles {
		newByPath[f.RelativePath] = true
		if prior, existed := oldByPath[f.RelativePath]; existed {
			if prior.Checksum == f.Checksum {
				steps = append(steps, Step{RelativePath: f.RelativePath, Action: ActionUnchanged})
				continue
			}
			steps = append(steps, Step{RelativePath: f.RelativePath, Action: ActionUpdated})
			continue
		}
		steps = append(steps, Step{RelativePath: f.RelativePath, Action: ActionAdded})
	}
	for _, f := range old {
		if !newByPath[f.RelativePath] {
			steps = append(steps, Step{RelativePath: f.RelativePath, Action: ActionRemoved})
		}
	}
	return steps
}

// Apply executes plan, copying files from programRoot into systemRoot for
// add/update steps and removing files under systemRoot for remove steps.
// It returns the steps it actually performed (for journaling) plus the first
// error encountered; on error the caller decides whether to reverse.
func Apply(plan []Step, programRoot, systemRoot string) ([]Step, error) {
	done := make([]Step, 0, len(plan))
	for _, step := range plan {
		abs := filepath.Join(systemRoot, filepath.FromSlash(step.RelativePath))
		step.AbsolutePath = abs

		switch step.Action {
		case ActionAdded, ActionUpdated:
			src := filepath.Join(programRoot, filepath.FromSlash(step.RelativePath))
			if err := copyFile(src, abs); err != nil {
				return done, err
			}
		case ActionRemoved:
			if err := os.Remove(abs); err != nil {
				if !os.IsNotExist(err) {
					return done, &errs.Io{Op: "remove", Path: abs, Err: err}
				}
				logging.Warning("file %s already missing, skipping removal", abs)
			}
		case ActionUnchanged:
			// nothing to do
		}
		done = append(done, step)
	}
	return done, nil
}

// Reverse best-effort undoes the steps in done, in reverse order. It never
// stops at the first failure: it attempts every step and returns the paths
// it could not undo, for the caller to surface as errs.PartialFailure.
func Reverse(done []Step, programRoot, systemRoot string) (undone, notUndone []string) {
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		abs := step.AbsolutePath
		if abs == "" {
			abs = filepath.Join(systemRoot, filepath.FromSlash(step.RelativePath))
		}

		var err error
		switch step.Action {
		case ActionAdded:
			err = os.Remove(abs)
			if os.IsNotExist(err) {
				err = nil
			}
		case ActionUpdated, ActionRemoved:
			// There is no prior content to restore without a backup copy;
			// the best we can do is leave the existing state alone and
			// report it as not reversible.
			err = errUnreversible
		case ActionUnchanged:
			err = nil
		}

		if err != nil {
			notUndone = append(notUndone, step.RelativePath)
			continue
		}
		undone = append(undone, step.RelativePath)
	}
	return undone, notUndone
}

var errUnreversible = errors.New("no prior content to restore")

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return &errs.Io{Op: "open", Path: src, Err: err}
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return &errs.Io{Op: "stat", Path: src, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return &errs.Io{Op: "mkdir", Path: filepath.Dir(dst), Err: err}
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return &errs.Io{Op: "create", Path: dst, Err: err}
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return &errs.Io{Op: "copy", Path: dst, Err: err}
	}
	return nil
}
