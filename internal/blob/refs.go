package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
)

// RefPrefix marks a command-line path as a blob key.
const RefPrefix = "blob:"

// ParseRef reports whether path names a blob and returns its key.
func ParseRef(path string) (string, bool) {
	if !strings.HasPrefix(path, RefPrefix) {
		return "", false
	}
	return strings.TrimPrefix(path, RefPrefix), true
}

// ReadAll returns the content stored at key.
func ReadAll(ctx context.Context, s Store, key string) ([]byte, error) {
	_, rc, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}
	return b, nil
}

// Write stores data at key, replacing any previous object.
func Write(ctx context.Context, s Store, key string, data []byte, contentType string, metadata map[string]string) (Info, error) {
	return s.Put(ctx, key, bytes.NewReader(data), PutOptions{ContentType: contentType, Metadata: metadata, Overwrite: true})
}
