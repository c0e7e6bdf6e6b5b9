// Package memory keeps catalog entries in process memory. The SQLite and
// Postgres drivers embed it as their read model and write through to the
// database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"rotorcore/internal/catalog/core"
)

// Store is a concurrency-safe in-memory catalog.
type Store struct {
	mu      sync.RWMutex
	entries map[string]core.Entry
	now     func() time.Time
}

var _ core.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[string]core.Entry), now: time.Now}
}

// Prepare stamps e for saving without storing it.
func (s *Store) Prepare(e core.Entry) (core.Entry, error) {
	return core.Stamp(e, s.now())
}

// Put stores an already prepared entry.
func (s *Store) Put(e core.Entry) {
	s.mu.Lock()
	s.entries[e.Name] = e
	s.mu.Unlock()
}

// Import replaces the contents of the store.
func (s *Store) Import(entries []core.Entry) {
	m := make(map[string]core.Entry, len(entries))
	for _, e := range entries {
		m[e.Name] = e
	}
	s.mu.Lock()
	s.entries = m
	s.mu.Unlock()
}

// Remove drops name and reports whether it was present.
func (s *Store) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[name]
	delete(s.entries, name)
	return ok
}

func (s *Store) Save(_ context.Context, e core.Entry) (core.Entry, error) {
	saved, err := s.Prepare(e)
	if err != nil {
		return core.Entry{}, err
	}
	s.Put(saved)
	return saved, nil
}

func (s *Store) Load(_ context.Context, name string) (core.Entry, error) {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return core.Entry{}, fmt.Errorf("%w: %s", core.ErrNotFound, name)
	}
	return e, nil
}

func (s *Store) List(_ context.Context) ([]core.Entry, error) {
	s.mu.RLock()
	out := make([]core.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) Delete(_ context.Context, name string) (bool, error) {
	return s.Remove(name), nil
}

func (s *Store) Driver() core.Driver { return core.DriverMemory }

func (s *Store) Close() error { return nil }
