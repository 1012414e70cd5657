package catalog

import (
	"path/filepath"
	"testing"

	"lpm/format"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "core.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenRunsMigrationsIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "core.db")
	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	names, err := s2.LoadInstalled()
	if err != nil {
		t.Fatalf("LoadInstalled: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected empty catalog, got %v", names)
	}
}

func TestInsertLookupDeletePackage(t *testing.T) {
	s := openTest(t)

	meta := format.Metadata{
		Name:       "pkg-a",
		Maintainer: "m@example.com",
		Architecture: format.AnyArch,
		Version:    format.Version{Major: 1, Minor: 2, Patch: 3, Readable: "1.2.3"},
		Tags:       []string{"tools"},
	}
	files := []FileRecord{
		{Name: "a", AbsolutePath: "/usr/bin/a", Checksum: "deadbeef", ChecksumKind: format.SHA256},
	}

	tx, err := s.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	id, err := tx.InsertPackage(meta, files)
	if err != nil {
		t.Fatalf("InsertPackage: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if id == 0 {
		t.Fatal("expected nonzero package id")
	}

	got, err := s.LookupByName("pkg-a")
	if err != nil {
		t.Fatalf("LookupByName: %v", err)
	}
	if got.Meta.Version.Readable != "1.2.3" {
		t.Errorf("version = %q, want 1.2.3", got.Meta.Version.Readable)
	}
	if len(got.Files) != 1 || got.Files[0].AbsolutePath != "/usr/bin/a" {
		t.Fatalf("files = %+v", got.Files)
	}

	tx2, err := s.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tx2.DeletePackage(got.ID); err != nil {
		t.Fatalf("DeletePackage: %v", err)
	}
	if err := tx2.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if _, err := s.LookupByName("pkg-a"); err == nil {
		t.Fatal("expected NotInstalled after delete")
	}
}

func TestLookupByNameMissing(t *testing.T) {
	s := openTest(t)
	if _, err := s.LookupByName("nope"); err == nil {
		t.Fatal("expected error for missing package")
	}
}

func TestRepositoryCRUD(t *testing.T) {
	s := openTest(t)

	if _, err := s.AddRepository(Repository{Name: "main", Address: "https://example.com", IndexDBPath: "/tmp/idx.db", IsActive: true}); err != nil {
		t.Fatalf("AddRepository: %v", err)
	}

	repos, err := s.ListRepositories()
	if err != nil {
		t.Fatalf("ListRepositories: %v", err)
	}
	if len(repos) != 1 || repos[0].Name != "main" {
		t.Fatalf("repos = %+v", repos)
	}

	if _, err := s.RepositoryByName("main"); err != nil {
		t.Fatalf("RepositoryByName: %v", err)
	}

	if err := s.RemoveRepository("main"); err != nil {
		t.Fatalf("RemoveRepository: %v", err)
	}
	if err := s.RemoveRepository("main"); err == nil {
		t.Fatal("expected error removing already-removed repository")
	}
}

func TestModuleCRUD(t *testing.T) {
	s := openTest(t)

	if _, err := s.AddModule(Module{Name: "hooks", DylibPath: "/usr/lib/lpm/hooks.so"}); err != nil {
		t.Fatalf("AddModule: %v", err)
	}
	mods, err := s.ListModules()
	if err != nil {
		t.Fatalf("ListModules: %v", err)
	}
	if len(mods) != 1 || mods[0].Name != "hooks" {
		t.Fatalf("mods = %+v", mods)
	}
	if err := s.RemoveModule("hooks"); err != nil {
		t.Fatalf("RemoveModule: %v", err)
	}
}
