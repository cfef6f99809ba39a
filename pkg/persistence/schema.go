package persistence

import (
	"database/sql"
	"fmt"
)

// initializeSchema ensures the database schema is at the current version.
func initializeSchema(db *sql.DB) error {
	version, err := getSchemaVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if version == 0 {
		return createSchema(db)
	}
	if version == CurrentSchemaVersion {
		return nil
	}
	if version > CurrentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, CurrentSchemaVersion)
	}

	// No migrations yet; the first schema bump adds them here.
	return fmt.Errorf("no migration path from schema version %d", version)
}

// getSchemaVersion returns 0 for an empty database.
func getSchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`,
	).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, nil
	}

	var version int
	if err := db.QueryRow(`SELECT version FROM schema_version`).Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

func createSchema(db *sql.DB) error {
	const schema = `
	CREATE TABLE schema_version (
		version INTEGER NOT NULL
	);

	CREATE TABLE operations (
		id          TEXT PRIMARY KEY,
		session_id  TEXT NOT NULL,
		tool        TEXT NOT NULL,
		project     TEXT NOT NULL DEFAULT '',
		success     INTEGER NOT NULL,
		detail      TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL,
		created_at  TEXT NOT NULL
	);

	CREATE INDEX idx_operations_session ON operations(session_id);
	CREATE INDEX idx_operations_tool ON operations(tool);
	`

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	if _, err := tx.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, CurrentSchemaVersion); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return tx.Commit()
}
