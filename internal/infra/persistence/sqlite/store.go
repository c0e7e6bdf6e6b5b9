// Package sqlite persists catalog entries to a SQLite file, one JSON row per
// entry, while serving reads from an in-memory copy.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"rotorcore/internal/catalog/core"
	"rotorcore/internal/infra/persistence/memory"
)

// DefaultPath is used when NewStore is given an empty path.
const DefaultPath = "rotorcore.db"

// Store writes through to SQLite on every Save and Delete.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

var _ core.Store = (*Store)(nil)

// NewStore opens (or creates) the database at path and loads its entries.
func NewStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS catalogs (
		name TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create catalogs table: %w", err)
	}
	s := &Store{Store: memory.New(), db: db, path: path}
	if err := s.load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name, payload FROM catalogs`)
	if err != nil {
		return fmt.Errorf("select catalogs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var entries []core.Entry
	for rows.Next() {
		var name string
		var payload []byte
		if err := rows.Scan(&name, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		var e core.Entry
		if err := json.Unmarshal(payload, &e); err != nil {
			return fmt.Errorf("decode catalog %s: %w", name, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate catalogs: %w", err)
	}
	s.Import(entries)
	return nil
}

// Save stamps e, upserts its row and then updates the in-memory copy.
func (s *Store) Save(ctx context.Context, e core.Entry) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved, err := s.Prepare(e)
	if err != nil {
		return core.Entry{}, err
	}
	payload, err := json.Marshal(saved)
	if err != nil {
		return core.Entry{}, err
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO catalogs(name,payload) VALUES(?,?) ON CONFLICT(name) DO UPDATE SET payload=excluded.payload`, saved.Name, payload); err != nil {
		return core.Entry{}, fmt.Errorf("upsert %s: %w", saved.Name, err)
	}
	s.Put(saved)
	return saved, nil
}

func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM catalogs WHERE name = ?`, name); err != nil {
		return false, fmt.Errorf("delete %s: %w", name, err)
	}
	return s.Remove(name), nil
}

func (s *Store) Driver() core.Driver { return core.DriverSQLite }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for tests.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the database path.
func (s *Store) Path() string { return s.path }
