// Package catalog implements C3: the relational store of installed packages,
// their file records, and repository/module metadata, backed by sqlite and
// schema-migrated on open. Grounded in original_source/lpm/db/src/migrations.rs
// for the schema shape, and on the other_examples sqlite stores
// (radepal-go-yum's primarydb.go, untoldecay-BeadsLog's migrations.go) for the
// database/sql + go-sqlite3 wiring idiom.
package catalog

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"lpm/errs"
	"lpm/format"
)

// Store is a handle on one catalog database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite database at path and migrates
// it to the latest schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, &errs.CatalogBusy{Err: err}
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// InstalledPackage is one row of packages joined with its files, as returned
// by LookupByName. Tags and package kind are not loaded into Meta.
type InstalledPackage struct {
	ID            int64
	Meta          format.Metadata
	Files         []InstalledFile
}

// InstalledFile is one files row, carrying the absolute path under the
// system root it was installed to.
type InstalledFile struct {
	ID           int64
	AbsolutePath string
	Checksum     string
	ChecksumKind format.ChecksumAlgorithm
}

// LookupByName returns the installed package named name, or
// *errs.NotInstalled if none exists.
func (s *Store) LookupByName(name string) (*InstalledPackage, error) {
	row := s.db.QueryRow(`
		SELECT id, description, maintainer, homepage, license,
		       installed_size, v_major, v_minor, v_patch, v_tag, v_readable
		FROM packages WHERE name = ?`, name)

	pkg := &InstalledPackage{Meta: format.Metadata{Name: name}}
	var description, homepage, license, tag sql.NullString
	if err := row.Scan(&pkg.ID, &description, &pkg.Meta.Maintainer, &homepage, &license,
		&pkg.Meta.InstalledSize, &pkg.Meta.Version.Major, &pkg.Meta.Version.Minor,
		&pkg.Meta.Version.Patch, &tag, &pkg.Meta.Version.Readable); err != nil {
		if err == sql.ErrNoRows {
			return nil, &errs.NotInstalled{Name: name}
		}
		return nil, &errs.CatalogIntegrity{Err: err}
	}
	pkg.Meta.Description = description.String
	pkg.Meta.Homepage = homepage.String
	pkg.Meta.License = license.String
	pkg.Meta.Version.Tag = tag.String

	files, err := s.filesForPackage(pkg.ID)
	if err != nil {
		return nil, err
	}
	pkg.Files = files
	return pkg, nil
}

// LoadInstalled returns every installed package's name, ordered by name.
func (s *Store) LoadInstalled() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM packages ORDER BY name`)
	if err != nil {
		return nil, &errs.CatalogIntegrity{Err: err}
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &errs.CatalogIntegrity{Err: err}
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) filesForPackage(packageID int64) ([]InstalledFile, error) {
	rows, err := s.db.Query(`
		SELECT f.id, f.absolute_path, f.checksum, c.kind
		FROM files f JOIN checksum_kinds c ON c.id = f.checksum_kind_id
		WHERE f.package_id = ?
		ORDER BY f.id`, packageID)
	if err != nil {
		return nil, &errs.CatalogIntegrity{Err: err}
	}
	defer rows.Close()

	var out []InstalledFile
	for rows.Next() {
		var f InstalledFile
		var kind string
		if err := rows.Scan(&f.ID, &f.AbsolutePath, &f.Checksum, &kind); err != nil {
			return nil, &errs.CatalogIntegrity{Err: err}
		}
		f.ChecksumKind = format.ChecksumAlgorithm(kind)
		out = append(out, f)
	}
	return out, rows.Err()
}

func checksumKindID(tx *sql.Tx, kind format.ChecksumAlgorithm) (int64, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM checksum_kinds WHERE kind = ?`, string(kind)).Scan(&id)
	if err != nil {
		return 0, &errs.UnsupportedChecksumAlgorithm{Algorithm: string(kind)}
	}
	return id, nil
}

func packageKindID(tx *sql.Tx, kind string) (int64, error) {
	if kind == "" {
		kind = "default"
	}
	var id int64
	err := tx.QueryRow(`SELECT id FROM package_kinds WHERE kind = ?`, kind).Scan(&id)
	if err == sql.ErrNoRows {
		res, insErr := tx.Exec(`INSERT INTO package_kinds (kind) VALUES (?)`, kind)
		if insErr != nil {
			return 0, &errs.CatalogIntegrity{Err: insErr}
		}
		newID, idErr := res.LastInsertId()
		if idErr != nil {
			return 0, &errs.CatalogIntegrity{Err: idErr}
		}
		return newID, nil
	}
	if err != nil {
		return 0, &errs.CatalogIntegrity{Err: err}
	}
	return id, nil
}
