/*
Package sqlite provides a SQLite-backed document Store.

PURPOSE:
  Single-file persistence for the workspace: one documents table keyed by
  (collection, id), bodies stored as JSON text. Suited to single-user and
  self-hosted deployments; the postgres package serves the shared case.

WAL MODE:
  The database is opened with WAL so readers do not block the writer and
  crash recovery is cheap.

MIGRATION:
  Schema is created on New(). There is only one table; versioned
  migrations are not warranted yet.

USAGE:
  st, err := sqlite.New("./wandergrid.db")
  // ":memory:" works for throwaway databases
  defer st.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/SamerBerjawi/wandergrid/store"
)

type Store struct {
	db *sql.DB
}

// New opens (and if needed creates) the database at path.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id         TEXT NOT NULL,
		body       TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (collection, id)
	);
	CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) List(ctx context.Context, c store.Collection) ([]json.RawMessage, error) {
	if !store.Known(c) {
		return nil, store.ErrUnknownCollection
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM documents WHERE collection = ? ORDER BY id`, string(c))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var body string
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
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`, string(c), id).Scan(&body)
	if err == sql.ErrNoRows {
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
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, body, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, string(c), id, string(doc), time.Now().UTC())
	return err
}

func (s *Store) Delete(ctx context.Context, c store.Collection, id string) error {
	if !store.Known(c) {
		return store.ErrUnknownCollection
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, string(c), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
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

// Restore replaces the workspace inside a single transaction.
func (s *Store) Restore(ctx context.Context, b store.Backup) error {
	for c := range b {
		if !store.Known(c) {
			return store.ErrUnknownCollection
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return err
	}
	now := time.Now().UTC()
	for c, docs := range b {
		for _, doc := range docs {
			id := store.DocumentID(c, doc)
			if id == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO documents (collection, id, body, updated_at) VALUES (?, ?, ?, ?)
			`, string(c), id, string(doc), now); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}
