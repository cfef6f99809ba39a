// Package persistence provides the SQLite operation journal: one row per
// tool call, kept for troubleshooting agent sessions after the fact.
// Journaling is best effort; failures are logged and never surfaced to the
// tool caller.
package persistence

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/rimaleon/podman-mcp/pkg/logx"
)

// CurrentSchemaVersion defines the schema version for migration support.
const CurrentSchemaVersion = 1

// Operation is one journaled tool call.
type Operation struct {
	ID        string
	SessionID string
	Tool      string
	Project   string
	Success   bool
	Detail    string
	Duration  time.Duration
	CreatedAt time.Time
}

// Journal is the SQLite-backed operation log.
type Journal struct {
	db     *sql.DB
	logger *logx.Logger
}

// Open creates or opens the journal database at the given path.
// Idempotent and safe to call on an existing database.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		dbPath,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initializeSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	logger := logx.NewLogger("persistence")
	logger.Info("Journal initialized: %s", dbPath)

	return &Journal{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record inserts one operation row. A generated ID is assigned when the
// operation carries none. Errors are returned for the caller to log.
func (j *Journal) Record(op Operation) error {
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	if op.CreatedAt.IsZero() {
		op.CreatedAt = time.Now().UTC()
	}

	_, err := j.db.Exec(`
		INSERT INTO operations (id, session_id, tool, project, success, detail, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		op.ID, op.SessionID, op.Tool, op.Project, boolToInt(op.Success),
		op.Detail, op.Duration.Milliseconds(), op.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record operation: %w", err)
	}
	return nil
}

// ListRecent returns up to limit operations, newest first.
func (j *Journal) ListRecent(limit int) ([]Operation, error) {
	rows, err := j.db.Query(`
		SELECT id, session_id, tool, project, success, detail, duration_ms, created_at
		FROM operations
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows

	var ops []Operation
	for rows.Next() {
		var op Operation
		var success int
		var durationMS int64
		var createdAt string
		if err := rows.Scan(&op.ID, &op.SessionID, &op.Tool, &op.Project, &success, &op.Detail, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		op.Success = success != 0
		op.Duration = time.Duration(durationMS) * time.Millisecond
		if ts, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			op.CreatedAt = ts
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
