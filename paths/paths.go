// Package paths centralizes the process-wide filesystem locations the
// teacher's original program hard-coded as constants (EXTRACTION_OUTPUT_PATH
// and friends), so the coordinator and tests can redirect them to a sandbox.
package paths

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the fixed locations named in spec.md §6. The zero value is
// not usable; use Defaults() or Load().
type Config struct {
	// CatalogPath is where the relational catalog database lives.
	CatalogPath string `yaml:"catalog_path"`
	// StagingRoot is where artifacts are extracted during an operation.
	StagingRoot string `yaml:"staging_root"`
	// ScriptsRoot is where installed packages' lifecycle scripts are copied
	// so post/delete phases remain reachable after staging cleanup.
	ScriptsRoot string `yaml:"scripts_root"`
	// KeyringPath is an optional PGP public keyring used to verify an
	// artifact's detached signature, when present.
	KeyringPath string `yaml:"keyring_path"`
	// SystemRoot is where a package's files are actually installed; "/" in
	// production, a sandbox directory in tests.
	SystemRoot string `yaml:"system_root"`
}

// Defaults returns the compile-time defaults from spec.md §6.
func Defaults() Config {
	return Config{
		CatalogPath: "/var/lib/lpm/core.db",
		StagingRoot: "/var/cache/lpm",
		ScriptsRoot: "/var/lib/lpm/pkgs",
		KeyringPath: "/etc/lpm/trusted.gpg",
		SystemRoot:  "/",
	}
}

// Load reads a YAML config file at path, overlaying it on Defaults(). A
// missing file is not an error: the defaults apply as-is, matching the
// teacher's main.go behavior of failing hard only on a malformed (not
// absent) config.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
