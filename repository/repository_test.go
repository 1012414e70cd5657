package repository

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func buildIndex(t *testing.T, name, url, sha string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE packages (name TEXT PRIMARY KEY, download_url TEXT, sha256 TEXT)`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO packages (name, download_url, sha256) VALUES (?, ?, ?)`, name, url, sha); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveFound(t *testing.T) {
	indexPath := buildIndex(t, "pkg-a", "https://example.com/pkg-a.lpm", "abc")

	entry, err := Resolve(indexPath, "pkg-a")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if entry.DownloadURL != "https://example.com/pkg-a.lpm" {
		t.Errorf("download url = %q", entry.DownloadURL)
	}
}

func TestResolveMissing(t *testing.T) {
	indexPath := buildIndex(t, "pkg-a", "https://example.com/pkg-a.lpm", "abc")
	if _, err := Resolve(indexPath, "pkg-b"); err == nil {
		t.Fatal("expected error resolving an unlisted package")
	}
}

func TestFetchVerifiesChecksum(t *testing.T) {
	content := []byte("bundle-bytes")
	sum := sha256.Sum256(content)
	digest := hex.EncodeToString(sum[:])

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	entry := &IndexEntry{Name: "pkg-a", DownloadURL: server.URL, SHA256: digest}
	dest, err := Fetch(entry, t.TempDir())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil || string(got) != string(content) {
		t.Fatalf("fetched content = %q, err = %v", got, err)
	}
}

func TestFetchRejectsChecksumMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("bundle-bytes"))
	}))
	defer server.Close()

	entry := &IndexEntry{Name: "pkg-a", DownloadURL: server.URL, SHA256: "wrong"}
	if _, err := Fetch(entry, t.TempDir()); err == nil {
		t.Fatal("expected checksum mismatch error")
	}
}
