package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrSchemaTooNew is returned when the database was written by a newer build.
var ErrSchemaTooNew = errors.New("database schema is newer than this build")

// Migration is one forward-only schema step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// DefaultMigrations returns the schema history of the key-value store.
func DefaultMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "create kv table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS kv (
					key        TEXT PRIMARY KEY,
					value      BLOB NOT NULL,
					updated_at TEXT NOT NULL
				)`)

				return err
			},
		},
		{
			Version:     2,
			Description: "add kv expiry",
			Up: func(tx *sql.Tx) error {
				if _, err := tx.Exec(`ALTER TABLE kv ADD COLUMN expires_at INTEGER`); err != nil {
					return err
				}

				_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS kv_expires_at ON kv(expires_at)`)

				return err
			},
		},
	}
}

// RunMigrations applies every migration newer than the recorded schema version,
// each in its own transaction.
func RunMigrations(db *sql.DB, migrations []Migration) error {
	if db == nil {
		return errors.New("run migrations: db is nil")
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	ordered := slices.Clone(migrations)
	slices.SortFunc(ordered, func(a, b Migration) int { return a.Version - b.Version })

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	if len(ordered) > 0 && current > ordered[len(ordered)-1].Version {
		return fmt.Errorf("%w: db=%d code=%d", ErrSchemaTooNew, current, ordered[len(ordered)-1].Version)
	}

	for _, m := range ordered {
		if m.Version <= current {
			continue
		}

		if err := applyMigration(db, m); err != nil {
			return err
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration version, or 0.
func SchemaVersion(db *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}

	return int(v.Int64), nil
}

func applyMigration(db *sql.DB, m Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration v%d: %w", m.Version, err)
	}

	if err := m.Up(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration v%d (%s): %w", m.Version, m.Description, err)
	}

	if _, err := tx.Exec(`INSERT INTO schema_migrations(version, applied_at) VALUES (?, ?)`,
		m.Version, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration v%d: %w", m.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration v%d: %w", m.Version, err)
	}

	return nil
}
