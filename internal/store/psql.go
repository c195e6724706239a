package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS kv_document
(
    key        VARCHAR PRIMARY KEY,
    value      JSONB       NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

type PsqlStore struct {
	db *pgxpool.Pool
}

func NewPsqlStore(db *pgxpool.Pool) *PsqlStore {
	return &PsqlStore{
		db: db,
	}
}

// EnsureSchema creates the documents table when it is missing.
func (ps *PsqlStore) EnsureSchema(ctx context.Context) error {
	if _, err := ps.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create kv_document table: %w", err)
	}
	return nil
}

func (ps *PsqlStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := ps.db.QueryRow(
		ctx,
		`SELECT value::text FROM kv_document WHERE key = $1;`,
		key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select [%s]: %w", key, err)
	}
	return []byte(value), nil
}

func (ps *PsqlStore) Put(ctx context.Context, key string, value []byte) error {
	tag, err := ps.db.Exec(
		ctx,
		`INSERT INTO kv_document (key, value, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at;`,
		key, string(value),
	)
	if err != nil {
		return fmt.Errorf("upsert [%s]: %w", key, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("upsert [%s]: unexpected rows affected: %d", key, tag.RowsAffected())
	}
	return nil
}
