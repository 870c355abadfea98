package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/dkarpov/handin/internal/dbx"
	"github.com/dkarpov/handin/internal/migrations"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the identity keys in a local sqlite database so the
// session survives restarts.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the client database at dsn and brings the
// schema up to date.
func Open(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open client db: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate client db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// NewSQLiteStore wraps an already-open database, for tests.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM identity WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get identity[%s]: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identity (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set identity[%s]: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM identity WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete identity[%s]: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context, keys ...string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, `DELETE FROM identity WHERE key = ?`, key); err != nil {
				return fmt.Errorf("failed to clear identity[%s]: %w", key, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Token(ctx context.Context) (string, error) {
	return s.Get(ctx, KeyToken)
}

// GetInt64 reads a numeric key from st; 0 means absent.
func GetInt64(ctx context.Context, st Store, key string) (int64, error) {
	raw, err := st.Get(ctx, key)
	if err != nil || raw == "" {
		return 0, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("identity[%s] is not numeric: %w", key, err)
	}
	return v, nil
}

// SetInt64 writes a numeric key to st.
func SetInt64(ctx context.Context, st Store, key string, v int64) error {
	return st.Set(ctx, key, strconv.FormatInt(v, 10))
}
