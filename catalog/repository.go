package catalog

import (
	"database/sql"

	"lpm/errs"
)

// Repository is one configured package source, per SPEC_FULL.md §D.
type Repository struct {
	ID          int64
	Name        string
	Address     string
	IndexDBPath string
	IsActive    bool
}

// Module is one loaded extension module, per SPEC_FULL.md §D.
type Module struct {
	ID        int64
	Name      string
	DylibPath string
}

// AddRepository records a new repository, or *errs.CatalogIntegrity if name
// already exists.
func (s *Store) AddRepository(r Repository) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO repositories (name, address, index_db_path, is_active)
		VALUES (?, ?, ?, ?)`, r.Name, r.Address, r.IndexDBPath, r.IsActive)
	if err != nil {
		return 0, &errs.CatalogIntegrity{Err: err}
	}
	return res.LastInsertId()
}

// RemoveRepository deletes the named repository.
func (s *Store) RemoveRepository(name string) error {
	res, err := s.db.Exec(`DELETE FROM repositories WHERE name = ?`, name)
	if err != nil {
		return &errs.CatalogIntegrity{Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &errs.CatalogIntegrity{Err: err}
	}
	if n == 0 {
		return &errs.NotInstalled{Name: name}
	}
	return nil
}

// ListRepositories returns every configured repository.
func (s *Store) ListRepositories() ([]Repository, error) {
	rows, err := s.db.Query(`SELECT id, name, address, index_db_path, is_active FROM repositories ORDER BY name`)
	if err != nil {
		return nil, &errs.CatalogIntegrity{Err: err}
	}
	defer rows.Close()

	var out []Repository
	for rows.Next() {
		var r Repository
		if err := rows.Scan(&r.ID, &r.Name, &r.Address, &r.IndexDBPath, &r.IsActive); err != nil {
			return nil, &errs.CatalogIntegrity{Err: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RepositoryByName looks up a single repository by name.
func (s *Store) RepositoryByName(name string) (*Repository, error) {
	var r Repository
	err := s.db.QueryRow(`
		SELECT id, name, address, index_db_path, is_active FROM repositories WHERE name = ?`, name).
		Scan(&r.ID, &r.Name, &r.Address, &r.IndexDBPath, &r.IsActive)
	if err == sql.ErrNoRows {
		return nil, &errs.NotInstalled{Name: name}
	}
	if err != nil {
		return nil, &errs.CatalogIntegrity{Err: err}
	}
	return &r, nil
}

// AddModule records a loaded module.
func (s *Store) AddModule(m Module) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO modules (name, dylib_path) VALUES (?, ?)`, m.Name, m.DylibPath)
	if err != nil {
		return 0, &errs.CatalogIntegrity{Err: err}
	}
	return res.LastInsertId()
}

// RemoveModule deletes the named module.
func (s *Store) RemoveModule(name string) error {
	res, err := s.db.Exec(`DELETE FROM modules WHERE name = ?`, name)
	if err != nil {
		return &errs.CatalogIntegrity{Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &errs.CatalogIntegrity{Err: err}
	}
	if n == 0 {
		return &errs.NotInstalled{Name: name}
	}
	return nil
}

// ListModules returns every loaded module.
func (s *Store) ListModules() ([]Module, error) {
	rows, err := s.db.Query(`SELECT id, name, dylib_path FROM modules ORDER BY name`)
	if err != nil {
		return nil, &errs.CatalogIntegrity{Err: err}
	}
	defer rows.Close()

	var out []Module
	for rows.Next() {
		var m Module
		if err := rows.Scan(&m.ID, &m.Name, &m.DylibPath); err != nil {
			return nil, &errs.CatalogIntegrity{Err: err}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
