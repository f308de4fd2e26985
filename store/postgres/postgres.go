/*
Package postgres provides a PostgreSQL-backed document Store on pgx.

Documents live in one JSONB table keyed by (collection, id). Upserts go
through ON CONFLICT; restore runs in a single transaction.
*/
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SamerBerjawi/wandergrid/store"
)

type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database and ensures the schema exists.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			body       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		)
	`)
	return err
}

func (s *Store) List(ctx context.Context, c store.Collection) ([]json.RawMessage, error) {
	if !store.Known(c) {
		return nil, store.ErrUnknownCollection
	}
	rows, err := s.pool.Query(ctx,
		`SELECT body FROM documents WHERE collection = $1 ORDER BY id`, string(c))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(body))
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, c store.Collection, id string) (json.RawMessage, error) {
	if !store.Known(c) {
		return nil, store.ErrUnknownCollection
	}
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM documents WHERE collection = $1 AND id = $2`, string(c), id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (s *Store) Put(ctx context.Context, c store.Collection, id string, doc json.RawMessage) error {
	if !store.Known(c) {
		return store.ErrUnknownCollection
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO documents (collection, id, body, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (collection, id) DO UPDATE SET body = EXCLUDED.body, updated_at = now()
	`, string(c), id, []byte(doc))
	return err
}

func (s *Store) Delete(ctx context.Context, c store.Collection, id string) error {
	if !store.Known(c) {
		return store.ErrUnknownCollection
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, string(c), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Snapshot(ctx context.Context) (store.Backup, error) {
	backup := make(store.Backup)
	for _, c := range store.Collections() {
		docs, err := s.List(ctx, c)
		if err != nil {
			return nil, err
		}
		backup[c] = docs
	}
	return backup, nil
}

func (s *Store) Restore(ctx context.Context, b store.Backup) error {
	for c := range b {
		if !store.Known(c) {
			return store.ErrUnknownCollection
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM documents`); err != nil {
		return err
	}
	for c, docs := range b {
		for _, doc := range docs {
			id := store.DocumentID(c, doc)
			if id == "" {
				continue
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3)
			`, string(c), id, []byte(doc)); err != nil {
				return err
			}
		}
	}
	return tx.Commit(ctx)
}
