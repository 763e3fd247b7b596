package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration is one versioned schema change. Migrations live in code rather
// than in loose .sql files so the list stays ordered and reviewable; versions
// must be strictly increasing.
type Migration struct {
	Version int
	SQL     string
}

var migrations = []Migration{
	{
		Version: 1,
		SQL: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS shifts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TEXT NOT NULL,
	ended_at TEXT,
	notes TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT (datetime('now')),
	completed_at TEXT,
	shift_id INTEGER REFERENCES shifts(id)
);`,
	},
	{
		Version: 2,
		SQL: `
CREATE INDEX IF NOT EXISTS idx_tasks_shift_id ON tasks(shift_id);
CREATE INDEX IF NOT EXISTS idx_shifts_active ON shifts(id) WHERE ended_at IS NULL;`,
	},
	{
		Version: 3,
		SQL: `
CREATE INDEX IF NOT EXISTS idx_tasks_open ON tasks(shift_id) WHERE completed_at IS NULL;`,
	},
}

// ApplyMigrations brings the schema up to date and returns how many
// migrations were applied. Each pending migration runs in its own
// transaction together with its schema_version row, so a failure leaves the
// store at the last successfully applied version. Running against an
// up-to-date store applies zero and is always safe.
func (s *Store) ApplyMigrations(ctx context.Context) (int, error) {
	return s.applyMigrationList(ctx, migrations)
}

// SchemaVersion returns the highest applied migration version; a store
// without the tracking table is at version 0.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	return currentVersion(ctx, s.db)
}

func (s *Store) applyMigrationList(ctx context.Context, list []Migration) (int, error) {
	ctx = ensureContext(ctx)
	if err := validateMigrationOrder(list); err != nil {
		return 0, err
	}

	current, err := currentVersion(ctx, s.db)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, migration := range list {
		if migration.Version <= current {
			continue
		}
		if err := s.applyMigration(ctx, migration); err != nil {
			return applied, err
		}
		current = migration.Version
		applied++
	}
	return applied, nil
}

func (s *Store) applyMigration(ctx context.Context, migration Migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
		return fmt.Errorf("apply migration %d: %w", migration.Version, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
		return fmt.Errorf("record migration %d: %w", migration.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", migration.Version, err)
	}
	return nil
}

func currentVersion(ctx context.Context, db *sql.DB) (int, error) {
	var tableExists int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return 0, fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return 0, nil
	}

	var version sql.NullInt64
	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

func validateMigrationOrder(list []Migration) error {
	previous := 0
	for _, migration := range list {
		if migration.Version <= previous {
			return fmt.Errorf("migration versions must be strictly increasing: %d after %d",
				migration.Version, previous)
		}
		previous = migration.Version
	}
	return nil
}
