package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	Up      string
}

// migrations holds all database migrations in order.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up: `
			-- Timers table
			CREATE TABLE IF NOT EXISTS timers (
				id TEXT PRIMARY KEY,
				shop TEXT NOT NULL,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				start_date TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_date TEXT NOT NULL,
				end_time TEXT NOT NULL,
				size TEXT NOT NULL DEFAULT 'medium',
				position TEXT NOT NULL DEFAULT 'top',
				urgency TEXT NOT NULL DEFAULT 'pulse',
				color TEXT NOT NULL DEFAULT '#00ff00',
				is_active INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);

			-- Indexes
			CREATE INDEX IF NOT EXISTS idx_timers_shop ON timers(shop);
			CREATE INDEX IF NOT EXISTS idx_timers_shop_created ON timers(shop, created_at DESC);
		`,
	},
	{
		Version: 2,
		Name:    "enum_checks",
		Up: `
			CREATE TRIGGER IF NOT EXISTS trg_timers_enum_insert
			BEFORE INSERT ON timers
			WHEN NEW.size NOT IN ('small', 'medium', 'large')
				OR NEW.position NOT IN ('top', 'bottom')
				OR NEW.urgency NOT IN ('none', 'pulse', 'blink')
			BEGIN
				SELECT RAISE(ABORT, 'invalid timer enum value');
			END;

			CREATE TRIGGER IF NOT EXISTS trg_timers_enum_update
			BEFORE UPDATE ON timers
			WHEN NEW.size NOT IN ('small', 'medium', 'large')
				OR NEW.position NOT IN ('top', 'bottom')
				OR NEW.urgency NOT IN ('none', 'pulse', 'blink')
			BEGIN
				SELECT RAISE(ABORT, 'invalid timer enum value');
			END;
		`,
	},
}

// runMigrations applies all pending migrations.
func runMigrations(ctx context.Context, db *sql.DB) error {
	// Create migrations table if not exists
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	err = db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	// Apply pending migrations
	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}

		// Run migration in transaction
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction for migration %d: %w", m.Version, err)
		}

		_, err = tx.ExecContext(ctx, m.Up)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %d (%s): %w", m.Version, m.Name, err)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now().UTC(),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}
