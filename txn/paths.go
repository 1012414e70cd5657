package txn

import (
	"path/filepath"
	"strings"

	"lpm/catalog"
	"lpm/diff"
	"lpm/format"
	"lpm/stage"
)

// scriptsDirFor returns where a staged bundle's lifecycle scripts live.
func scriptsDirFor(stageDir string) string {
	return filepath.Join(stageDir, "meta", "scripts")
}

// packageDir returns name's root directory under ScriptsRoot, per §4.6.3
// step 6 ("remove <scripts_root>/<N>/").
func (c *Coordinator) packageDir(name string) string {
	return filepath.Join(c.ScriptsRoot, name)
}

// installedScriptsDir returns where name's scripts are persisted once
// installed, under ScriptsRoot/<name>/scripts, per spec.md §4.4.
func (c *Coordinator) installedScriptsDir(name string) string {
	return filepath.Join(c.packageDir(name), "scripts")
}

// persistScripts copies a staged package's scripts into its permanent
// location so later update/delete operations can still find pre_upgrade,
// pre_delete, and so on after the staging directory is cleaned up.
func (c *Coordinator) persistScripts(pkg *format.Package) error {
	dest := c.installedScriptsDir(pkg.Meta.Name)
	return stage.PersistScripts(dest, pkg.Scripts)
}

// relativeTo strips root from an absolute path, returning a '/'-separated
// relative path, for reconstructing diff.OldFile from a catalog record.
func relativeTo(root, absolute string) string {
	rel, err := filepath.Rel(root, absolute)
	if err != nil {
		return strings.TrimPrefix(filepath.ToSlash(absolute), "/")
	}
	return filepath.ToSlash(rel)
}

// fileRecords builds the catalog.FileRecord set to persist after a
// successful apply: every step that isn't a removal, carrying its checksum
// from the package manifest (add/update) by relative path lookup.
func fileRecords(pkg *format.Package, steps []diff.Step, systemRoot string) []catalog.FileRecord {
	byPath := map[string]format.FileEntry{}
	for _, f := range pkg.Files {
		byPath[f.RelativePath] = f
	}

	var out []catalog.FileRecord
	for _, s := range steps {
		if s.Action == diff.ActionRemoved {
			continue
		}
		entry, ok := byPath[s.RelativePath]
		if !ok {
			continue
		}
		out = append(out, catalog.FileRecord{
			Name:         filepath.Base(s.RelativePath),
			AbsolutePath: filepath.Join(systemRoot, filepath.FromSlash(s.RelativePath)),
			Checksum:     entry.Checksum,
			ChecksumKind: entry.ChecksumAlgorithm,
		})
	}
	return out
}
