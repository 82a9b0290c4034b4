package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/jsamuelsen/quote-generator/internal/domain"
)

// SQLiteConfig configures the durable store.
type SQLiteConfig struct {
	// Path is the database file. Parent directories are created.
	Path string

	// BusyTimeout is how long a writer waits on a locked database.
	BusyTimeout time.Duration

	// MaxOpenConns caps the connection pool. Zero keeps the driver default.
	MaxOpenConns int
}

// SQLiteStore is a ports.KeyValueStore backed by a single SQLite table.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// OpenSQLite opens (or creates) the database at cfg.Path and migrates it.
func OpenSQLite(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, domain.NewStorageError("open", "", errors.New("empty path"))
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
		return nil, domain.NewStorageError("open", "", fmt.Errorf("create parent dir: %w", err))
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, domain.NewStorageError("open", "", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := configureSQLite(db, cfg.BusyTimeout); err != nil {
		_ = db.Close()
		return nil, domain.NewStorageError("open", "", err)
	}

	if err := RunMigrations(db, DefaultMigrations()); err != nil {
		_ = db.Close()
		return nil, domain.NewStorageError("migrate", "", err)
	}

	return &SQLiteStore{db: db, path: cfg.Path, now: time.Now}, nil
}

func configureSQLite(db *sql.DB, busyTimeout time.Duration) error {
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}

	pragmas := []string{
		`PRAGMA journal_mode=WAL`,
		fmt.Sprintf(`PRAGMA busy_timeout=%d`, busyTimeout.Milliseconds()),
		`PRAGMA synchronous=NORMAL`,
	}

	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("configure sqlite %q: %w", stmt, err)
		}
	}

	return nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the underlying connection pool.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// Get implements ports.KeyValueStore.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		value     []byte
		expiresAt sql.NullInt64
	)

	err := s.db.QueryRowContext(ctx, `SELECT value, expires_at FROM kv WHERE key = ?`, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("key", key)
	}

	if err != nil {
		return nil, domain.NewStorageError("read", key, err)
	}

	if expiresAt.Valid && s.now().UnixNano() >= expiresAt.Int64 {
		return nil, domain.NewNotFoundError("key", key)
	}

	return value, nil
}

// Set implements ports.KeyValueStore.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := s.now()

	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: now.Add(ttl).UnixNano(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO kv(key, value, updated_at, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at, expires_at = excluded.expires_at`,
		key, value, now.UTC().Format(time.RFC3339Nano), expiresAt)
	if err != nil {
		return domain.NewStorageError("write", key, err)
	}

	return nil
}

// Delete implements ports.KeyValueStore.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return domain.NewStorageError("delete", key, err)
	}

	return nil
}

// PurgeExpired removes every expired row and returns how many were deleted.
func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return 0, domain.NewStorageError("purge", "", err)
	}

	return res.RowsAffected()
}

// Name implements ports.HealthChecker.
func (s *SQLiteStore) Name() string {
	return "sqlite"
}

// Check implements ports.HealthChecker.
func (s *SQLiteStore) Check(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return domain.NewStorageError("ping", "", err)
	}

	return nil
}
