package format

import (
	"os"
	"path/filepath"

	"lpm/errs"
)

// ReadStaged builds a Package from an already fully-extracted staging
// directory (meta/ and program/ present directly under stageDir), per
// §4.1's read(path) -> Package operation. Scripts are read from
// meta/scripts/<phase>; any subset may be present.
func ReadStaged(stageDir string) (*Package, error) {
	metaPath := filepath.Join(stageDir, "meta", "meta.yaml")
	metaData, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, &errs.MalformedPackage{Reason: "missing meta/meta.yaml", Err: err}
	}
	meta, err := decodeMeta(metaData)
	if err != nil {
		return nil, err
	}

	filesPath := filepath.Join(stageDir, "meta", "files.yaml")
	filesData, err := os.ReadFile(filesPath)
	if err != nil {
		return nil, &errs.MalformedPackage{Reason: "missing meta/files.yaml", Err: err}
	}
	files, err := decodeManifest(filesData)
	if err != nil {
		return nil, err
	}

	scripts := map[ScriptPhase]string{}
	scriptsDir := filepath.Join(stageDir, "meta", "scripts")
	for _, phase := range AllPhases {
		body, err := os.ReadFile(filepath.Join(scriptsDir, string(phase)))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, &errs.MalformedPackage{Reason: "reading script " + string(phase), Err: err}
		}
		scripts[phase] = string(body)
	}

	pkg := &Package{
		Meta:        meta,
		Files:       files,
		Scripts:     scripts,
		ProgramRoot: filepath.Join(stageDir, "program"),
	}

	sigPath := filepath.Join(stageDir, "meta", "signature.asc")
	if _, err := os.Stat(sigPath); err == nil {
		pkg.SignaturePath = sigPath
	}

	programFiles, err := ListProgramFiles(pkg.ProgramRoot)
	if err != nil {
		return nil, err
	}
	if err := pkg.Validate(programFiles); err != nil {
		return nil, &errs.MalformedPackage{Reason: err.Error()}
	}

	return pkg, nil
}

// ProgramRootPath returns the location of the staged tree to copy from (C1's
// program_root(pkg) operation).
func (p *Package) ProgramRootPath() string { return p.ProgramRoot }

// ListProgramFiles walks programRoot and returns every regular file's path
// relative to it, using '/' separators regardless of host OS.
func ListProgramFiles(programRoot string) ([]string, error) {
	var rels []string
	err := filepath.Walk(programRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == programRoot {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(programRoot, path)
		if err != nil {
			return err
		}
		rels = append(rels, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, &errs.Io{Op: "walk", Path: programRoot, Err: err}
	}
	return rels, nil
}
