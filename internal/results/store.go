package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pmip/dmcompare/internal/grid"
	"github.com/pmip/dmcompare/internal/stats"
)

// ErrEmptyStore is returned by Load when nothing has been saved yet.
var ErrEmptyStore = errors.New("result store is empty")

const metaKey = "meta"

// Meta describes the run that produced a saved tree.
type Meta struct {
	Version    string    `json:"version"`
	Created    time.Time `json:"created"`
	MonteCarlo bool      `json:"monte_carlo"`
	Iterations int       `json:"iterations"`
	Years      int       `json:"years"`
	ErrorModel string    `json:"error_model"`
	Seed       uint64    `json:"seed"`
}

// Store is a SQLite-backed key-value table of results. Keys are the entry
// path followed by a leaf name (mask, nbpts, reconstructions or a model
// name); values are JSON.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the store at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result store: %w", err)
	}
	const schema = `
	CREATE TABLE IF NOT EXISTS results (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize result store: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file name.
func (s *Store) Path() string { return s.path }

// Save replaces the stored content with tree and meta in one transaction.
func (s *Store) Save(ctx context.Context, tree *Tree, meta Meta) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM results"); err != nil {
		return fmt.Errorf("failed to clear results: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO results (key, value) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	put := func(key string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		if _, err := stmt.ExecContext(ctx, key, string(data)); err != nil {
			return fmt.Errorf("storing %s: %w", key, err)
		}
		return nil
	}
	if err := put(metaKey, meta); err != nil {
		return err
	}
	for _, k := range tree.Keys() {
		e, _ := tree.Get(k)
		base := k.String() + "/"
		if err := put(base+"mask", e.Mask); err != nil {
			return err
		}
		if err := put(base+"nbpts", e.NPoints); err != nil {
			return err
		}
		if err := put(base+"reconstructions", e.Reconstruction); err != nil {
			return err
		}
		for model, r := range e.Models {
			if err := put(base+model, r); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Load rebuilds the tree saved by the last Save.
func (s *Store) Load(ctx context.Context) (*Tree, Meta, error) {
	var meta Meta
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM results WHERE key = ?", metaKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, meta, fmt.Errorf("%s: %w", s.path, ErrEmptyStore)
	}
	if err != nil {
		return nil, meta, fmt.Errorf("failed to read metadata: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, meta, fmt.Errorf("decoding metadata: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM results WHERE key <> ? ORDER BY key", metaKey)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	tree := NewTree()
	entry := func(k Key) *Entry {
		if e, ok := tree.Get(k); ok {
			return e
		}
		e := &Entry{}
		tree.Put(k, e)
		return e
	}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, meta, fmt.Errorf("failed to scan row: %w", err)
		}
		i := strings.LastIndex(key, "/")
		if i < 0 {
			return nil, meta, fmt.Errorf("invalid stored key %q", key)
		}
		k, err := ParseKey(key[:i])
		if err != nil {
			return nil, meta, err
		}
		e := entry(k)
		if err := decodeLeaf(e, key[i+1:], []byte(value)); err != nil {
			return nil, meta, fmt.Errorf("decoding %s: %w", key, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, meta, err
	}
	return tree, meta, nil
}

func decodeLeaf(e *Entry, leaf string, data []byte) error {
	switch leaf {
	case "mask":
		var m grid.Mask
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		e.Mask = m
	case "nbpts":
		return json.Unmarshal(data, &e.NPoints)
	case "reconstructions":
		var est stats.Estimate
		if err := json.Unmarshal(data, &est); err != nil {
			return err
		}
		e.Reconstruction = est
	default:
		var r ModelResult
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		e.Models[leaf] = r
	}
	return nil
}

// Keys lists the stored keys starting with prefix, in lexical order.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	query, args := "SELECT key FROM results WHERE key >= ?", []any{prefix}
	if end, ok := prefixEnd(prefix); ok {
		query += " AND key < ?"
		args = append(args, end)
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY key", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// prefixEnd returns the least string greater than every string starting
// with prefix under byte order, or false when there is none.
func prefixEnd(prefix string) (string, bool) {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1]), true
		}
	}
	return "", false
}
