package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ai-spm/internal/domain"
)

const pgSessionSchema = `
	CREATE TABLE IF NOT EXISTS session_records (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)
`

type pgQuerier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgSessionStore implementa SessionStore usando pgxpool.
type PgSessionStore struct {
	db pgQuerier
}

func NewPgSessionStore(pool *pgxpool.Pool) *PgSessionStore {
	return &PgSessionStore{db: pool}
}

// EnsureSchema crea la tabla si no existe.
func (s *PgSessionStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, pgSessionSchema); err != nil {
		return fmt.Errorf("create session_records: %w", err)
	}
	return nil
}

func (s *PgSessionStore) Load(ctx context.Context) (domain.User, error) {
	const query = `
		SELECT value
		FROM session_records
		WHERE key = $1
	`
	var value string
	err := s.db.QueryRow(ctx, query, SessionKey).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrRecordNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select session record: %w", err)
	}
	return decodeUser([]byte(value))
}

func (s *PgSessionStore) Save(ctx context.Context, user domain.User) error {
	raw, err := encodeUser(user)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO session_records (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.Exec(ctx, query, SessionKey, string(raw), time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert session record: %w", err)
	}
	return nil
}

func (s *PgSessionStore) Delete(ctx context.Context) error {
	const query = `DELETE FROM session_records WHERE key = $1`
	if _, err := s.db.Exec(ctx, query, SessionKey); err != nil {
		return fmt.Errorf("delete session record: %w", err)
	}
	return nil
}
