package storage

import (
	"fmt"
	"strings"
)

// schemaVersion returns the highest applied migration, 0 on a fresh database
func (ss *SQLiteStorage) schemaVersion() int {
	var version int
	err := ss.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		// Table doesn't exist yet
		return 0
	}
	return version
}

// MigrateToV1 creates the print job history
func (ss *SQLiteStorage) MigrateToV1() error {
	if ss.schemaVersion() >= 1 {
		return nil // Already migrated
	}

	tx, err := ss.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS print_jobs (
			id TEXT PRIMARY KEY,
			printer_id TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			endpoint TEXT NOT NULL DEFAULT '',
			label_size TEXT NOT NULL DEFAULT '',
			threshold INTEGER NOT NULL DEFAULT 70,
			rotate TEXT NOT NULL DEFAULT 'auto',
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			bytes INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating print_jobs table: %w", err)
	}

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	_, err = tx.Exec(`INSERT OR IGNORE INTO schema_migrations (version) VALUES (1)`)
	if err != nil {
		return fmt.Errorf("setting migration version: %w", err)
	}

	return tx.Commit()
}

// MigrateToV2 adds job timing and the per-printer history index
func (ss *SQLiteStorage) MigrateToV2() error {
	if ss.schemaVersion() >= 2 {
		return nil // Already migrated
	}

	tx, err := ss.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`ALTER TABLE print_jobs ADD COLUMN duration_ms INTEGER NOT NULL DEFAULT 0`)
	if err != nil && !isDuplicateColumnError(err) {
		return fmt.Errorf("adding duration_ms column: %w", err)
	}

	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_print_jobs_printer_created ON print_jobs(printer_id, created_at)`)
	if err != nil {
		return fmt.Errorf("creating print_jobs index: %w", err)
	}

	_, err = tx.Exec(`INSERT OR IGNORE INTO schema_migrations (version) VALUES (2)`)
	if err != nil {
		return fmt.Errorf("setting migration version: %w", err)
	}

	return tx.Commit()
}

// isDuplicateColumnError checks if the error is about a column that already exists
func isDuplicateColumnError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate column name")
}
