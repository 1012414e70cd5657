package catalog

import (
	"database/sql"

	"lpm/errs"
	"lpm/format"
)

// Txn wraps a single database transaction, exposing the write operations the
// txn package's coordinator calls inside its own install/update/delete
// lifecycle. Scoping these to one *sql.Tx keeps the catalog mutation atomic
// with itself; reconciling it with filesystem changes is C6's job.
type Txn struct {
	tx *sql.Tx
}

// Begin starts a catalog transaction.
func (s *Store) Begin() (*Txn, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, &errs.CatalogBusy{Err: err}
	}
	return &Txn{tx: tx}, nil
}

// Commit finalizes the transaction.
func (t *Txn) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return &errs.CatalogIntegrity{Err: err}
	}
	return nil
}

// Rollback abandons the transaction. Safe to call after Commit.
func (t *Txn) Rollback() error {
	return t.tx.Rollback()
}

// InsertPackage records a newly-installed package and its files, returning
// the new package id. name must not already exist; callers check with
// LookupByName first, per spec.md §4.1's AlreadyInstalled invariant.
func (t *Txn) InsertPackage(meta format.Metadata, files []FileRecord) (int64, error) {
	kindID, err := packageKindID(t.tx, meta.Kind)
	if err != nil {
		return 0, err
	}

	res, err := t.tx.Exec(`
		INSERT INTO packages
			(name, description, maintainer, homepage, package_kind_id,
			 installed_size, license, v_major, v_minor, v_patch, v_tag, v_readable)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.Name, nullable(meta.Description), meta.Maintainer, nullable(meta.Homepage), kindID,
		meta.InstalledSize, nullable(meta.License), meta.Version.Major, meta.Version.Minor,
		meta.Version.Patch, nullable(meta.Version.Tag), meta.Version.String())
	if err != nil {
		return 0, &errs.CatalogIntegrity{Err: err}
	}
	packageID, err := res.LastInsertId()
	if err != nil {
		return 0, &errs.CatalogIntegrity{Err: err}
	}

	for _, tag := range meta.Tags {
		if _, err := t.tx.Exec(`INSERT INTO package_tags (tag, package_id) VALUES (?, ?)`, tag, packageID); err != nil {
			return 0, &errs.CatalogIntegrity{Err: err}
		}
	}

	if err := t.insertFiles(packageID, files); err != nil {
		return 0, err
	}
	return packageID, nil
}

// FileRecord is one file's catalog record: its absolute installed path and
// the digest recorded for it.
type FileRecord struct {
	Name         string
	AbsolutePath string
	Checksum     string
	ChecksumKind format.ChecksumAlgorithm
}

func (t *Txn) insertFiles(packageID int64, files []FileRecord) error {
	for _, f := range files {
		kindID, err := checksumKindID(t.tx, f.ChecksumKind)
		if err != nil {
			return err
		}
		if _, err := t.tx.Exec(`
			INSERT INTO files (name, absolute_path, checksum, checksum_kind_id, package_id)
			VALUES (?, ?, ?, ?, ?)`,
			f.Name, f.AbsolutePath, f.Checksum, kindID, packageID); err != nil {
			return &errs.CatalogIntegrity{Err: err}
		}
	}
	return nil
}

// ReplacePackage updates an existing package's metadata row in place and
// replaces its file and tag records wholesale, for C6's update lifecycle.
// ON DELETE CASCADE only fires when the package row itself is removed, which
// it is not here, so the old file and tag rows are deleted explicitly.
func (t *Txn) ReplacePackage(packageID int64, meta format.Metadata, files []FileRecord) error {
	kindID, err := packageKindID(t.tx, meta.Kind)
	if err != nil {
		return err
	}
	if _, err := t.tx.Exec(`
		UPDATE packages SET
			description = ?, maintainer = ?, homepage = ?, package_kind_id = ?,
			installed_size = ?, license = ?, v_major = ?, v_minor = ?, v_patch = ?,
			v_tag = ?, v_readable = ?
		WHERE id = ?`,
		nullable(meta.Description), meta.Maintainer, nullable(meta.Homepage), kindID,
		meta.InstalledSize, nullable(meta.License), meta.Version.Major, meta.Version.Minor,
		meta.Version.Patch, nullable(meta.Version.Tag), meta.Version.String(), packageID); err != nil {
		return &errs.CatalogIntegrity{Err: err}
	}

	if _, err := t.tx.Exec(`DELETE FROM files WHERE package_id = ?`, packageID); err != nil {
		return &errs.CatalogIntegrity{Err: err}
	}
	if _, err := t.tx.Exec(`DELETE FROM package_tags WHERE package_id = ?`, packageID); err != nil {
		return &errs.CatalogIntegrity{Err: err}
	}
	for _, tag := range meta.Tags {
		if _, err := t.tx.Exec(`INSERT INTO package_tags (tag, package_id) VALUES (?, ?)`, tag, packageID); err != nil {
			return &errs.CatalogIntegrity{Err: err}
		}
	}
	return t.insertFiles(packageID, files)
}

// DeletePackage removes a package's row; its files and tags cascade.
func (t *Txn) DeletePackage(packageID int64) error {
	if _, err := t.tx.Exec(`DELETE FROM packages WHERE id = ?`, packageID); err != nil {
		return &errs.CatalogIntegrity{Err: err}
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
