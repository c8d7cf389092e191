package store

import "fmt"

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 1

// Migrate runs forward migrations to bring the database schema up to date.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		// No rows means version 0 (fresh database).
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// migrateV1 creates the snapshots table and its indexes. The period_end
// check enforces the snapshot invariant at the storage boundary as well as
// in SaveSnapshot.
func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_id          TEXT NOT NULL,
			period_type          TEXT NOT NULL,
			period_start         TEXT NOT NULL,
			period_end           TEXT NOT NULL,
			total_conversations  INTEGER NOT NULL,
			topic_volumes        TEXT NOT NULL,
			topic_sentiments     TEXT NOT NULL,
			resolution_breakdown TEXT NOT NULL,
			created_at           TEXT NOT NULL,
			CHECK (period_end >= period_start)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_snapshots_period
			ON snapshots(period_type, period_start, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_key
			ON snapshots(snapshot_id, created_at)`,
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}
