// Package script implements C4: locating and executing a package's
// lifecycle scripts under a named phase, with a clean environment and
// inherited stdio.
package script

import (
	"os"
	"os/exec"
	"path/filepath"

	"lpm/errs"
	"lpm/format"
	"lpm/logging"
)

// Runner executes lifecycle scripts for one package, located under dir
// (either a staging directory's meta/scripts/ or an installed package's
// <scripts_root>/<name>/scripts/, per spec.md §4.4).
type Runner struct {
	// ScriptsDir is the directory directly containing phase-named script files.
	ScriptsDir string
	Listener   logging.Listener
}

// New returns a Runner rooted at scriptsDir.
func New(scriptsDir string) *Runner {
	return &Runner{ScriptsDir: scriptsDir}
}

// Execute runs the script for phase, if one exists. A missing script is a
// no-op success. A non-zero exit becomes errs.ScriptFailed.
func (r *Runner) Execute(phase format.ScriptPhase) error {
	path := filepath.Join(r.ScriptsDir, string(phase))
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Debug("no script for phase %s, skipping", phase)
			r.emit(phase, true)
			return nil
		}
		return &errs.Io{Op: "stat", Path: path, Err: err}
	}
	if info.IsDir() {
		return &errs.MalformedPackage{Reason: "script path is a directory: " + path}
	}

	if err := ensureExecutable(path); err != nil {
		return &errs.Io{Op: "chmod", Path: path, Err: err}
	}

	logging.Info("running %s script", phase)
	cmd := exec.Command(path)
	cmd.Env = []string{"PATH=" + os.Getenv("PATH")}
	cmd.Stdin = nil
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		code := exitCode(err)
		return &errs.ScriptFailed{Phase: string(phase), Code_: code}
	}

	r.emit(phase, false)
	return nil
}

func (r *Runner) emit(phase format.ScriptPhase, skipped bool) {
	if r.Listener != nil {
		r.Listener(logging.EventScriptRan{Phase: string(phase), Skipped: skipped})
	}
}

func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode()&0111 != 0 {
		return nil
	}
	return os.Chmod(path, info.Mode()|0111)
}

func exitCode(err error) int {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}
