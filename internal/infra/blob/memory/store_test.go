package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"rotorcore/internal/blob/core"
)

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	if s.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver %s", s.Driver())
	}
	if _, _, err := s.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Head(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Put(ctx, "", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	info, err := s.Put(ctx, "msg/1", strings.NewReader("HELLO"), core.PutOptions{Metadata: map[string]string{core.MetaKind: "messages"}})
	if err != nil || info.Size != 5 || info.ETag == "" {
		t.Fatalf("Put = %+v, %v", info, err)
	}
	if _, err := s.Put(ctx, "msg/1", strings.NewReader("AGAIN"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if _, err := s.Put(ctx, "msg/1", strings.NewReader("AGAIN!"), core.PutOptions{Overwrite: true}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, rc, err := s.Get(ctx, "msg/1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	if string(body) != "AGAIN!" || got.Size != 6 || got.Metadata != nil {
		t.Fatalf("unexpected object %+v %q", got, body)
	}
	if _, err := s.Put(ctx, "other", strings.NewReader(""), core.PutOptions{}); err != nil {
		t.Fatalf("Put other: %v", err)
	}
	list, _ := s.List(ctx, "msg/")
	if len(list) != 1 || list[0].Key != "msg/1" {
		t.Fatalf("unexpected list %+v", list)
	}
	if ok, _ := s.Delete(ctx, "msg/1"); !ok {
		t.Fatalf("expected delete to report existing key")
	}
	if ok, _ := s.Delete(ctx, "msg/1"); ok {
		t.Fatalf("expected second delete to report missing key")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, fmt.Errorf("fail") }

func TestStorePutReadError(t *testing.T) {
	if _, err := New().Put(context.Background(), "k", failingReader{}, core.PutOptions{}); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestStoreConcurrentWriters(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Put(context.Background(), fmt.Sprintf("k%02d", i), strings.NewReader("x"), core.PutOptions{})
		}(i)
	}
	wg.Wait()
	list, _ := s.List(context.Background(), "k")
	if len(list) != 16 {
		t.Fatalf("expected 16 objects, got %d", len(list))
	}
}
