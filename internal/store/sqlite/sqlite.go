package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/wirepush/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS apps (
	key        TEXT PRIMARY KEY,
	secret     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (creating if needed) the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema variations.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateApp stores a new application.
func (s *SQLiteStore) CreateApp(ctx context.Context, key, secret string) (*store.App, error) {
	query := `INSERT INTO apps (key, secret) VALUES (?, ?)`
	if _, err := s.db.ExecContext(ctx, query, key, secret); err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return nil, fmt.Errorf("%w: %s", store.ErrAppExists, key)
		}
		return nil, fmt.Errorf("insert app: %w", err)
	}
	return s.GetApp(ctx, key)
}

// GetApp retrieves an application by key.
func (s *SQLiteStore) GetApp(ctx context.Context, key string) (*store.App, error) {
	query := `SELECT key, secret, created_at FROM apps WHERE key = ?`

	var app store.App
	err := s.db.QueryRowContext(ctx, query, key).Scan(&app.Key, &app.Secret, &app.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("app %s: %w", key, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query app: %w", err)
	}
	return &app, nil
}

// ListApps returns every stored application ordered by key.
func (s *SQLiteStore) ListApps(ctx context.Context) ([]store.App, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, secret, created_at FROM apps ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("query apps: %w", err)
	}
	defer rows.Close()

	var apps []store.App
	for rows.Next() {
		var app store.App
		if err := rows.Scan(&app.Key, &app.Secret, &app.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan app: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate apps: %w", err)
	}
	return apps, nil
}

// DeleteApp removes an application.
func (s *SQLiteStore) DeleteApp(ctx context.Context, key string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM apps WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete app: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("app %s: %w", key, store.ErrNotFound)
	}
	return nil
}
