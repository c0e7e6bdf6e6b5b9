// Package catalog stores named machine configurations so that commands and
// the RPC service can build machines by name.
package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"rotorcore/internal/catalog/core"
	"rotorcore/internal/config"
	"rotorcore/internal/infra/persistence/memory"
	"rotorcore/internal/infra/persistence/postgres"
	"rotorcore/internal/infra/persistence/sqlite"
	"rotorcore/pkg/enigma"
)

type (
	Driver = core.Driver
	Entry  = core.Entry
	Store  = core.Store
)

const (
	DriverMemory   = core.DriverMemory
	DriverSQLite   = core.DriverSQLite
	DriverPostgres = core.DriverPostgres
)

var (
	ErrNotFound    = core.ErrNotFound
	ErrInvalidName = core.ErrInvalidName
)

// Environment variables read by Open.
const (
	EnvDriver      = "ROTORCORE_CATALOG_DRIVER"
	EnvSQLitePath  = "ROTORCORE_CATALOG_SQLITE_PATH"
	EnvPostgresDSN = "ROTORCORE_CATALOG_POSTGRES_DSN"
)

// Open selects a Store using environment variables:
//
//	ROTORCORE_CATALOG_DRIVER: memory|sqlite|postgres (default sqlite)
//	ROTORCORE_CATALOG_SQLITE_PATH: database file (default ./rotorcore.db)
//	ROTORCORE_CATALOG_POSTGRES_DSN: connection string
func Open(ctx context.Context) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(os.Getenv(EnvDriver)))
	if driver == "" {
		driver = string(DriverSQLite)
	}
	switch Driver(driver) {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return sqlite.NewStore(ctx, os.Getenv(EnvSQLitePath))
	case DriverPostgres:
		return postgres.NewStore(ctx, os.Getenv(EnvPostgresDSN))
	default:
		return nil, fmt.Errorf("unknown catalog driver %s", driver)
	}
}

// NewMemory returns an in-memory Store.
func NewMemory() Store { return memory.New() }

// Validate checks that e names a configuration that builds a machine and
// returns it with a canonical format name.
func Validate(e Entry) (Entry, error) {
	if err := core.CheckName(e.Name); err != nil {
		return Entry{}, err
	}
	format, err := config.ParseFormat(e.Format)
	if err != nil {
		return Entry{}, err
	}
	if _, _, err := config.Load(strings.NewReader(e.Source), format); err != nil {
		return Entry{}, fmt.Errorf("catalog %s: %w", e.Name, err)
	}
	e.Format = string(format)
	return e, nil
}

// Put validates and saves a configuration.
func Put(ctx context.Context, s Store, name string, format config.Format, source string) (Entry, error) {
	e, err := Validate(Entry{Name: name, Format: string(format), Source: source})
	if err != nil {
		return Entry{}, err
	}
	return s.Save(ctx, e)
}

// Build loads the named entry and builds an unconfigured machine from it.
func Build(ctx context.Context, s Store, name string) (Entry, *enigma.Machine, error) {
	e, err := s.Load(ctx, name)
	if err != nil {
		return Entry{}, nil, err
	}
	format, err := config.ParseFormat(e.Format)
	if err != nil {
		return Entry{}, nil, fmt.Errorf("catalog %s: %w", name, err)
	}
	_, m, err := config.Load(strings.NewReader(e.Source), format)
	if err != nil {
		return Entry{}, nil, fmt.Errorf("catalog %s: %w", name, err)
	}
	return e, m, nil
}
