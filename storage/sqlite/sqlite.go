// Package sqlite stores delegation records in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"xdao.co/ensbridge/model"
	"xdao.co/ensbridge/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS delegations (
	host        BLOB PRIMARY KEY,
	delegated   BLOB NOT NULL,
	updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);
`

const upsert = `
INSERT INTO delegations (host, delegated) VALUES (?, ?)
ON CONFLICT(host) DO UPDATE SET delegated = excluded.delegated, updated_at = datetime('now')
`

// Store is a storage.Store backed by a single SQLite table.
type Store struct {
	db *sql.DB
}

var (
	_ storage.Store  = (*Store)(nil)
	_ storage.Lister = (*Store)(nil)
)

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite: database path is required")
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path))
	if err != nil {
		return nil, err
	}
	// One connection serialises writers; SQLite would do so anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Get(ctx context.Context, host model.Node) (model.Node, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT delegated FROM delegations WHERE host = ?`, host[:]).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ZeroNode, storage.ErrNotFound
	}
	if err != nil {
		return model.ZeroNode, err
	}
	d, err := model.NodeFromBytes(raw)
	if err != nil {
		return model.ZeroNode, fmt.Errorf("%w: %v", storage.ErrCorrupt, err)
	}
	return d, nil
}

func (s *Store) Put(ctx context.Context, host, delegated model.Node) error {
	_, err := s.db.ExecContext(ctx, upsert, host[:], delegated[:])
	return err
}

func (s *Store) List(ctx context.Context) ([]storage.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT host, delegated FROM delegations ORDER BY host`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []storage.Record
	for rows.Next() {
		var rawHost, rawDelegated []byte
		if err := rows.Scan(&rawHost, &rawDelegated); err != nil {
			return nil, err
		}
		host, err := model.NodeFromBytes(rawHost)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", storage.ErrCorrupt, err)
		}
		d, err := model.NodeFromBytes(rawDelegated)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", storage.ErrCorrupt, err)
		}
		out = append(out, storage.Record{Host: host, Delegated: d})
	}
	return out, rows.Err()
}
