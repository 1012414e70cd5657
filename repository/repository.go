// Package repository implements resolving a package name against a
// configured repository's index and fetching the artifact over HTTP,
// using the same download-with-hashing pattern as main.go's processPackage
// (io.Copy into an io.MultiWriter of a temp file and a hasher).
package repository

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"lpm/errs"
)

// IndexEntry is one row of a repository's index database: a package name
// mapped to its download address and the sha256 the server claims for it.
type IndexEntry struct {
	Name        string
	DownloadURL string
	SHA256      string
}

// Resolve looks up name in the repository's index_db_path sqlite database,
// per catalog.Repository.IndexDBPath. The index is a small, separately
// published sqlite file; it is opened read-only and closed immediately.
func Resolve(indexDBPath, name string) (*IndexEntry, error) {
	db, err := sql.Open("sqlite3", "file:"+indexDBPath+"?mode=ro")
	if err != nil {
		return nil, &errs.CatalogBusy{Err: err}
	}
	defer db.Close()

	var entry IndexEntry
	entry.Name = name
	err = db.QueryRow(`SELECT download_url, sha256 FROM packages WHERE name = ?`, name).
		Scan(&entry.DownloadURL, &entry.SHA256)
	if err == sql.ErrNoRows {
		return nil, &errs.NotInstalled{Name: name}
	}
	if err != nil {
		return nil, &errs.CatalogIntegrity{Err: err}
	}
	return &entry, nil
}

// Fetch downloads entry's artifact into destDir, hashing the stream as it is
// written and verifying it against entry.SHA256 before returning the path
// to the downloaded file.
func Fetch(entry *IndexEntry, destDir string) (string, error) {
	resp, err := http.Get(entry.DownloadURL)
	if err != nil {
		return "", &errs.Io{Op: "download", Path: entry.DownloadURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &errs.Io{Op: "download", Path: entry.DownloadURL, Err: errStatus(resp.StatusCode)}
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", &errs.Io{Op: "mkdir", Path: destDir, Err: err}
	}
	dest := filepath.Join(destDir, entry.Name+".lpm")

	out, err := os.Create(dest)
	if err != nil {
		return "", &errs.Io{Op: "create", Path: dest, Err: err}
	}
	defer out.Close()

	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(out, hasher), resp.Body); err != nil {
		return "", &errs.Io{Op: "copy", Path: dest, Err: err}
	}

	got := hex.EncodeToString(hasher.Sum(nil))
	if entry.SHA256 != "" && got != entry.SHA256 {
		os.Remove(dest)
		return "", &errs.InvalidPackageFiles{Path: entry.DownloadURL}
	}

	return dest, nil
}

type statusError int

func (e statusError) Error() string {
	return "unexpected HTTP status " + http.StatusText(int(e))
}

func errStatus(code int) error { return statusError(code) }
