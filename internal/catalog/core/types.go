// Package core defines catalog entries and the storage contract shared by the
// catalog drivers. A catalog is a named machine configuration; rotor
// positions and other machine state are never stored.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Driver identifies a catalog storage backend.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Entry is one stored configuration.
type Entry struct {
	Name     string    `json:"name"`
	Revision string    `json:"revision"`
	Format   string    `json:"format"`
	Source   string    `json:"source"`
	SavedAt  time.Time `json:"saved_at"`
}

// Store persists catalog entries.
type Store interface {
	// Save inserts or replaces the entry with the same name and assigns a new revision.
	Save(ctx context.Context, e Entry) (Entry, error)
	// Load returns the named entry or ErrNotFound.
	Load(ctx context.Context, name string) (Entry, error)
	// List returns every entry ordered by name.
	List(ctx context.Context) ([]Entry, error)
	// Delete reports whether the named entry existed.
	Delete(ctx context.Context, name string) (bool, error)
	Driver() Driver
	Close() error
}

var (
	// ErrNotFound is returned by Load for an unknown name.
	ErrNotFound = errors.New("catalog: not found")
	// ErrInvalidName is returned for empty names or names containing whitespace.
	ErrInvalidName = errors.New("catalog: invalid name")
)

// CheckName validates a catalog name.
func CheckName(name string) error {
	if name == "" || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Stamp validates e and gives it a fresh revision and save time.
func Stamp(e Entry, now time.Time) (Entry, error) {
	if err := CheckName(e.Name); err != nil {
		return Entry{}, err
	}
	e.Revision = uuid.NewString()
	e.SavedAt = now.UTC()
	return e, nil
}
