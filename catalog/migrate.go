package catalog

import (
	"database/sql"
	"strconv"

	"lpm/errs"
)

// migrate brings db up to the latest schema version, using PRAGMA
// user_version as the applied-step counter. Grounded in
// original_source/lpm/db/src/migrations.rs's can_migrate/set_migration_version,
// which store the same counter the same way.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return &errs.MigrationError{Step: -1, Err: err}
	}

	current, err := userVersion(db)
	if err != nil {
		return &errs.MigrationError{Step: -1, Err: err}
	}

	for i := current; i < len(migrations); i++ {
		step := migrations[i]
		tx, txErr := db.Begin()
		if txErr != nil {
			return &errs.MigrationError{Step: i, Err: txErr}
		}
		if _, execErr := tx.Exec(step.sql); execErr != nil {
			tx.Rollback()
			return &errs.MigrationError{Step: i, Err: execErr}
		}
		if _, verErr := tx.Exec(setUserVersionSQL(i + 1)); verErr != nil {
			tx.Rollback()
			return &errs.MigrationError{Step: i, Err: verErr}
		}
		if commitErr := tx.Commit(); commitErr != nil {
			return &errs.MigrationError{Step: i, Err: commitErr}
		}

		// Re-read the version back to confirm the commit actually landed,
		// retrying once before giving up, per spec.md §7's single-retry rule.
		got, readErr := userVersion(db)
		if readErr != nil || got != i+1 {
			got, readErr = userVersion(db)
			if readErr != nil || got != i+1 {
				return &errs.MigrationError{Step: i, Err: readErr}
			}
		}
	}
	return nil
}

func userVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// setUserVersionSQL builds the pragma statement directly: PRAGMA user_version
// does not accept bound parameters.
func setUserVersionSQL(v int) string {
	return "PRAGMA user_version = " + strconv.Itoa(v) + ";"
}
