// Package treestore persists page trees as opaque JSON blobs in
// SQLite, keyed by page key. The store never interprets the blob — the
// element codec guarantees structural round-trips — and stamps every
// save with a fresh revision id.
package treestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ferrostack/pagemend/dbopen"
	"github.com/ferrostack/pagemend/idgen"
)

// ErrNotFound reports a page key with no stored tree.
var ErrNotFound = errors.New("treestore: page not found")

const schema = `
CREATE TABLE IF NOT EXISTS pages (
	page_key   TEXT PRIMARY KEY,
	tree       TEXT NOT NULL,
	revision   TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Store is the SQLite-backed page store.
type Store struct {
	db    *sql.DB
	newID idgen.Generator
}

// Open opens (and migrates) the store at path.
func Open(path string) (*Store, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(schema))
	if err != nil {
		return nil, err
	}
	return &Store{db: db, newID: idgen.Prefixed("rev_", idgen.Default)}, nil
}

// New wraps an existing database (tests use dbopen.OpenMemory),
// applying the schema.
func New(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("treestore: schema: %w", err)
	}
	return &Store{db: db, newID: idgen.Prefixed("rev_", idgen.Default)}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Load returns the stored tree blob for a page key, or ErrNotFound.
func (s *Store) Load(ctx context.Context, pageKey string) ([]byte, error) {
	var tree string
	err := s.db.QueryRowContext(ctx,
		`SELECT tree FROM pages WHERE page_key = ?`, pageKey).Scan(&tree)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("treestore: load %s: %w", pageKey, err)
	}
	return []byte(tree), nil
}

// Save upserts the tree blob for a page key. Last write wins: there is
// deliberately no revision compare, concurrent editors are out of
// scope. Returns the new revision id.
func (s *Store) Save(ctx context.Context, pageKey string, tree []byte) (string, error) {
	rev := s.newID()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (page_key, tree, revision, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(page_key) DO UPDATE SET tree = excluded.tree,
			revision = excluded.revision, updated_at = excluded.updated_at`,
		pageKey, string(tree), rev, time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("treestore: save %s: %w", pageKey, err)
	}
	return rev, nil
}

// Delete removes a page. Deleting an absent page is not an error.
func (s *Store) Delete(ctx context.Context, pageKey string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM pages WHERE page_key = ?`, pageKey); err != nil {
		return fmt.Errorf("treestore: delete %s: %w", pageKey, err)
	}
	return nil
}

// PageInfo summarises one stored page.
type PageInfo struct {
	PageKey   string `json:"page_key"`
	Revision  string `json:"revision"`
	UpdatedAt int64  `json:"updated_at"`
}

// List returns all stored pages, most recently updated first.
func (s *Store) List(ctx context.Context) ([]PageInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT page_key, revision, updated_at FROM pages ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("treestore: list: %w", err)
	}
	defer rows.Close()
	out := []PageInfo{}
	for rows.Next() {
		var p PageInfo
		if err := rows.Scan(&p.PageKey, &p.Revision, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
