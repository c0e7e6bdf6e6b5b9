package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"rotorcore/internal/config"
	"rotorcore/pkg/enigma"
)

func readTestdata(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("..", "config", "testdata", name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(b)
}

func TestPutAndBuild(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	saved, err := Put(ctx, s, "naval", "yml", readTestdata(t, "naval.yaml"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if saved.Format != string(config.FormatYAML) || saved.Revision == "" {
		t.Fatalf("unexpected entry %+v", saved)
	}
	e, m, err := Build(ctx, s, "naval")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if e.Revision != saved.Revision || m.NumRotors() != 5 || m.NumPawls() != 3 {
		t.Fatalf("unexpected machine for %+v", e)
	}
	if _, err := config.Configure(m, "* B Beta III IV I AXLE (HQ) (EX) (IP) (TR) (BY)"); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if got, _ := m.ConvertString("FROMHISSHOULDERHIAWATHA"); got != "PEHOEARQSRSTZNTRSXTEZCO" {
		t.Fatalf("got %s", got)
	}
}

func TestValidateRejectsBrokenConfigurations(t *testing.T) {
	cases := []struct {
		name  string
		entry Entry
		want  error
	}{
		{"bad name", Entry{Name: "two words", Source: "AB 2 1"}, ErrInvalidName},
		{"truncated", Entry{Name: "x", Source: "AB 2"}, enigma.ErrConfigTruncated},
		{"bad cycle", Entry{Name: "x", Source: "AB 2 1 R R (AC)"}, enigma.ErrMalformedCycle},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Validate(tc.entry); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if _, err := Validate(Entry{Name: "x", Format: "toml", Source: "AB 2 1"}); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestBuildMissingEntry(t *testing.T) {
	if _, _, err := Build(context.Background(), NewMemory(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBuildRejectsCorruptEntry(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if _, err := s.Save(ctx, Entry{Name: "raw", Format: "text", Source: "AB"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, _, err := Build(ctx, s, "raw"); !errors.Is(err, enigma.ErrConfigTruncated) {
		t.Fatalf("expected ErrConfigTruncated, got %v", err)
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	t.Setenv(EnvDriver, "memory")
	s, err := Open(ctx)
	if err != nil || s.Driver() != DriverMemory {
		t.Fatalf("memory driver = %v, %v", s, err)
	}
	t.Setenv(EnvDriver, "")
	t.Setenv(EnvSQLitePath, filepath.Join(t.TempDir(), "catalog.db"))
	s, err = Open(ctx)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	defer func() { _ = s.Close() }()
	if s.Driver() != DriverSQLite {
		t.Fatalf("default driver = %s", s.Driver())
	}
	t.Setenv(EnvDriver, "redis")
	if _, err := Open(ctx); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
