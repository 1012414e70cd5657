package catalog

// migration is one numbered, append-only DDL/DML step, run at most once per
// database. Grounded in original_source/lpm/db/src/migrations.rs: each step
// bumps a version counter and is skipped if already applied.
type migration struct {
	name string
	sql  string
}

// migrations is the ordered list of all schema steps. This list must only
// grow: once released, a step's SQL is never edited (spec.md §4.3).
var migrations = []migration{
	{
		name: "create_core_tables",
		sql: `
CREATE TABLE checksum_kinds (
   id            INTEGER    PRIMARY KEY    AUTOINCREMENT,
   kind          TEXT       NOT NULL       UNIQUE,
   created_at    TIMESTAMP  NOT NULL       DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE package_kinds (
   id            INTEGER    PRIMARY KEY    AUTOINCREMENT,
   kind          TEXT       NOT NULL       UNIQUE,
   created_at    TIMESTAMP  NOT NULL       DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE repositories (
   id               INTEGER    PRIMARY KEY    AUTOINCREMENT,
   name             TEXT       NOT NULL       UNIQUE,
   address          TEXT       NOT NULL,
   index_db_path    TEXT       NOT NULL,
   is_active        BOOLEAN    NOT NULL       CHECK(is_active IN (0, 1)),
   created_at       TIMESTAMP  NOT NULL       DEFAULT CURRENT_TIMESTAMP,
   updated_at       TIMESTAMP  NOT NULL       DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE packages (
   id                       INTEGER    PRIMARY KEY    AUTOINCREMENT,
   name                     TEXT       NOT NULL       UNIQUE,
   description              TEXT,
   maintainer               TEXT       NOT NULL,
   homepage                 TEXT,
   src_pkg_package_id       INTEGER,
   package_kind_id          INTEGER    NOT NULL,
   installed_size           INTEGER    NOT NULL,
   license                  TEXT,
   v_major                  INTEGER    NOT NULL,
   v_minor                  INTEGER    NOT NULL,
   v_patch                  INTEGER    NOT NULL,
   v_tag                    TEXT,
   v_readable               TEXT       NOT NULL,
   created_at               TIMESTAMP  NOT NULL       DEFAULT CURRENT_TIMESTAMP,
   updated_at               TIMESTAMP  NOT NULL       DEFAULT CURRENT_TIMESTAMP,

   FOREIGN KEY(src_pkg_package_id) REFERENCES packages(id),
   FOREIGN KEY(package_kind_id) REFERENCES package_kinds(id)
);

CREATE TABLE files (
   id                  INTEGER    PRIMARY KEY    AUTOINCREMENT,
   name                TEXT       NOT NULL,
   absolute_path       TEXT       NOT NULL       UNIQUE,
   checksum            TEXT       NOT NULL,
   checksum_kind_id    INTEGER    NOT NULL,
   package_id          INTEGER    NOT NULL,
   created_at          TIMESTAMP  NOT NULL       DEFAULT CURRENT_TIMESTAMP,

   FOREIGN KEY(package_id) REFERENCES packages(id) ON DELETE CASCADE,
   FOREIGN KEY(checksum_kind_id) REFERENCES checksum_kinds(id)
);

CREATE TABLE package_tags (
   id                  INTEGER    PRIMARY KEY    AUTOINCREMENT,
   tag                 TEXT       NOT NULL,
   package_id          INTEGER    NOT NULL,
   created_at          TIMESTAMP  NOT NULL       DEFAULT CURRENT_TIMESTAMP,

   FOREIGN KEY(package_id) REFERENCES packages(id) ON DELETE CASCADE
);

CREATE TABLE modules (
   id                       INTEGER    PRIMARY KEY    AUTOINCREMENT,
   name                     TEXT       NOT NULL       UNIQUE,
   dylib_path               TEXT       NOT NULL
);
`,
	},
	{
		name: "create_update_triggers_for_core_tables",
		sql: `
CREATE TRIGGER repositories_update_trigger
    AFTER UPDATE ON repositories
BEGIN
    UPDATE repositories SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
END;

CREATE TRIGGER packages_update_trigger
    AFTER UPDATE ON packages
BEGIN
    UPDATE packages SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
END;
`,
	},
	{
		name: "insert_defaults",
		sql: `
INSERT INTO checksum_kinds (kind) VALUES ('md5'), ('sha256'), ('sha512');
`,
	},
}
