package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"ai-spm/internal/domain"
)

// SQLiteSessionStore guarda el registro en un archivo SQLite local.
type SQLiteSessionStore struct {
	db *sql.DB
}

// OpenSQLiteSessionStore abre (o crea) la base y asegura el esquema.
func OpenSQLiteSessionStore(ctx context.Context, path string) (*SQLiteSessionStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	const schema = `
		CREATE TABLE IF NOT EXISTS session_records (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create session_records: %w", err)
	}
	return &SQLiteSessionStore{db: db}, nil
}

func (s *SQLiteSessionStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteSessionStore) Load(ctx context.Context) (domain.User, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session_records WHERE key = ?`, SessionKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, ErrRecordNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select session record: %w", err)
	}
	return decodeUser([]byte(value))
}

func (s *SQLiteSessionStore) Save(ctx context.Context, user domain.User) error {
	raw, err := encodeUser(user)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO session_records (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, SessionKey, string(raw), time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert session record: %w", err)
	}
	return nil
}

func (s *SQLiteSessionStore) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_records WHERE key = ?`, SessionKey); err != nil {
		return fmt.Errorf("delete session record: %w", err)
	}
	return nil
}
