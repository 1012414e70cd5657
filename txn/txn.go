// Package txn implements C6: the install/update/delete lifecycle coordinator
// that ties together staging, validation, script execution, the filesystem
// differ, and the catalog transaction into one operation with a best-effort
// rollback on failure. Grounded in original_source/lpm/core/src/lib.rs's
// trait boundaries (install/update/delete as a single sequenced operation)
// and lpm/main/src/main.rs's try_or_error! dispatch, adapted into explicit
// Go error returns. Ordering follows spec.md §4.6 exactly: the catalog
// transaction stays open across the post-script, and only commits once
// every step of the operation has succeeded.
package txn

import (
	"lpm/catalog"
	"lpm/diff"
	"lpm/errs"
	"lpm/format"
	"lpm/logging"
	"lpm/script"
	"lpm/stage"
	"lpm/validate"
)

// Coordinator runs lifecycle operations against one catalog store, one
// system root to mutate, and one keyring for signature checks.
type Coordinator struct {
	Store       *catalog.Store
	SystemRoot  string
	ScriptsRoot string
	StagingRoot string
	KeyringPath string
	Listener    logging.Listener
}

// New returns a Coordinator wired from paths.Config-shaped fields.
func New(store *catalog.Store, systemRoot, scriptsRoot, stagingRoot, keyringPath string) *Coordinator {
	return &Coordinator{
		Store:       store,
		SystemRoot:  systemRoot,
		ScriptsRoot: scriptsRoot,
		StagingRoot: stagingRoot,
		KeyringPath: keyringPath,
	}
}

func (c *Coordinator) notify(e interface{ String() string }) {
	if c.Listener != nil {
		c.Listener(e)
	}
}

// abort rolls tx back, best-effort reverses the filesystem steps already
// applied, and returns the error the caller should propagate: a
// errs.PartialFailure if the reverse itself couldn't fully undo, else the
// original cause.
func (c *Coordinator) abort(tx *catalog.Txn, cause error, done []diff.Step, programRoot string) error {
	if tx != nil {
		tx.Rollback()
	}
	c.notify(logging.EventRollback{Reason: cause.Error()})
	if len(done) == 0 {
		return cause
	}
	undone, notUndone := diff.Reverse(done, programRoot, c.SystemRoot)
	if len(notUndone) > 0 {
		c.notify(logging.EventPartialFailure{NotUndone: notUndone})
		return &errs.PartialFailure{Reason: cause.Error(), Undone: undone, NotUndone: notUndone, Err: cause}
	}
	return cause
}

// Install stages artifactPath, validates it, and applies it as a brand new
// package: runs pre_install, copies every manifest file into SystemRoot,
// records the package in the catalog, runs post_install, and only then
// commits. Fails with errs.AlreadyInstalled if the package is already
// recorded.
func (c *Coordinator) Install(artifactPath string) error {
	c.notify(logging.EventOperationStarted{Operation: "install", Package: artifactPath})

	stageDir, err := stage.Stage(c.StagingRoot, artifactPath)
	if err != nil {
		return err
	}
	defer stage.Cleanup(stageDir)

	pkg, err := format.ReadStaged(stageDir)
	if err != nil {
		return err
	}
	if err := validate.Validate(pkg, c.KeyringPath); err != nil {
		return err
	}

	if _, lookupErr := c.Store.LookupByName(pkg.Meta.Name); lookupErr == nil {
		return &errs.AlreadyInstalled{Name: pkg.Meta.Name}
	} else if _, notInstalled := lookupErr.(*errs.NotInstalled); !notInstalled {
		return lookupErr
	}

	stagedScripts := script.New(scriptsDirFor(stageDir))
	stagedScripts.Listener = c.Listener

	tx, err := c.Store.Begin()
	if err != nil {
		return err
	}

	if err := stagedScripts.Execute(format.PreInstall); err != nil {
		tx.Rollback()
		return err
	}

	plan := diff.Plan(nil, pkg.Files)
	done, applyErr := diff.Apply(plan, pkg.ProgramRoot, c.SystemRoot)
	if applyErr != nil {
		return c.abort(tx, applyErr, done, pkg.ProgramRoot)
	}
	c.notify(countEvent(done))

	if _, err := tx.InsertPackage(pkg.Meta, fileRecords(pkg, done, c.SystemRoot)); err != nil {
		return c.abort(tx, err, done, pkg.ProgramRoot)
	}

	if err := c.persistScripts(pkg); err != nil {
		return c.abort(tx, err, done, pkg.ProgramRoot)
	}

	installedRunner := script.New(c.installedScriptsDir(pkg.Meta.Name))
	installedRunner.Listener = c.Listener
	if err := installedRunner.Execute(format.PostInstall); err != nil {
		return c.abort(tx, err, done, pkg.ProgramRoot)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	c.notify(logging.EventCatalogCommitted{Package: pkg.Meta.Name})
	return nil
}

// Update replaces an already-installed package with a new artifact,
// reconciling the filesystem against the previous file set and the new
// manifest. Fails with errs.NotInstalled if no prior record exists. Equal
// versions are a no-op success per spec.md §4.6.2.
func (c *Coordinator) Update(artifactPath string) error {
	c.notify(logging.EventOperationStarted{Operation: "update", Package: artifactPath})

	stageDir, err := stage.Stage(c.StagingRoot, artifactPath)
	if err != nil {
		return err
	}

	pkg, err := format.ReadStaged(stageDir)
	if err != nil {
		stage.Cleanup(stageDir)
		return err
	}
	if err := validate.Validate(pkg, c.KeyringPath); err != nil {
		stage.Cleanup(stageDir)
		return err
	}

	existing, err := c.Store.LookupByName(pkg.Meta.Name)
	if err != nil {
		stage.Cleanup(stageDir)
		return err
	}

	cmp := pkg.Meta.Version.Compare(existing.Meta.Version)
	if cmp == 0 {
		logging.Warning("package %q is already at version %s, nothing to do", pkg.Meta.Name, pkg.Meta.Version)
		stage.Cleanup(stageDir)
		return nil
	}
	upgrading := cmp > 0
	prePhase, postPhase := format.PreUpgrade, format.PostUpgrade
	if !upgrading {
		prePhase, postPhase = format.PreDowngrade, format.PostDowngrade
	}

	stagedScripts := script.New(scriptsDirFor(stageDir))
	stagedScripts.Listener = c.Listener

	tx, err := c.Store.Begin()
	if err != nil {
		stage.Cleanup(stageDir)
		return err
	}

	if err := stagedScripts.Execute(prePhase); err != nil {
		tx.Rollback()
		stage.Cleanup(stageDir)
		return err
	}

	old := make([]diff.OldFile, len(existing.Files))
	for i, f := range existing.Files {
		old[i] = diff.OldFile{RelativePath: relativeTo(c.SystemRoot, f.AbsolutePath), Checksum: f.Checksum}
	}
	plan := diff.Plan(old, pkg.Files)
	done, applyErr := diff.Apply(plan, pkg.ProgramRoot, c.SystemRoot)
	if applyErr != nil {
		stage.Cleanup(stageDir)
		return c.abort(tx, applyErr, done, pkg.ProgramRoot)
	}
	c.notify(countEvent(done))

	if err := tx.ReplacePackage(existing.ID, pkg.Meta, fileRecords(pkg, plan, c.SystemRoot)); err != nil {
		stage.Cleanup(stageDir)
		return c.abort(tx, err, done, pkg.ProgramRoot)
	}

	if err := c.persistScripts(pkg); err != nil {
		stage.Cleanup(stageDir)
		return c.abort(tx, err, done, pkg.ProgramRoot)
	}

	if err := stage.Cleanup(stageDir); err != nil {
		return c.abort(tx, err, done, pkg.ProgramRoot)
	}
	c.notify(logging.EventCleanup{Path: stageDir})

	installedRunner := script.New(c.installedScriptsDir(pkg.Meta.Name))
	installedRunner.Listener = c.Listener
	if err := installedRunner.Execute(postPhase); err != nil {
		return c.abort(tx, err, done, pkg.ProgramRoot)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	c.notify(logging.EventCatalogCommitted{Package: pkg.Meta.Name})
	return nil
}

// Delete removes an installed package: runs pre_delete, removes every
// recorded file, removes the catalog row, runs post_delete, removes the
// package's script directory, and only then commits.
func (c *Coordinator) Delete(name string) error {
	c.notify(logging.EventOperationStarted{Operation: "delete", Package: name})

	existing, err := c.Store.LookupByName(name)
	if err != nil {
		return err
	}

	runner := script.New(c.installedScriptsDir(name))
	runner.Listener = c.Listener

	tx, err := c.Store.Begin()
	if err != nil {
		return err
	}

	if err := runner.Execute(format.PreDelete); err != nil {
		tx.Rollback()
		return err
	}

	old := make([]diff.OldFile, len(existing.Files))
	for i, f := range existing.Files {
		old[i] = diff.OldFile{RelativePath: relativeTo(c.SystemRoot, f.AbsolutePath), Checksum: f.Checksum}
	}
	plan := diff.Plan(old, nil)
	done, applyErr := diff.Apply(plan, "", c.SystemRoot)
	if applyErr != nil {
		return c.abort(tx, applyErr, done, "")
	}
	c.notify(countEvent(done))

	if err := tx.DeletePackage(existing.ID); err != nil {
		return c.abort(tx, err, done, "")
	}

	if err := runner.Execute(format.PostDelete); err != nil {
		return c.abort(tx, err, done, "")
	}

	if err := stage.Cleanup(c.packageDir(name)); err != nil {
		return c.abort(tx, err, done, "")
	}
	c.notify(logging.EventCleanup{Path: c.packageDir(name)})

	if err := tx.Commit(); err != nil {
		return err
	}
	c.notify(logging.EventCatalogCommitted{Package: name})
	return nil
}

func countEvent(done []diff.Step) logging.EventFilesystemApplied {
	var e logging.EventFilesystemApplied
	for _, s := range done {
		switch s.Action {
		case diff.ActionAdded:
			e.Added++
		case diff.ActionUpdated:
			e.Updated++
		case diff.ActionRemoved:
			e.Removed++
		}
	}
	return e
}
