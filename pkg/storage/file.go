package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// File keeps every entry in one JSON object on disk. Each change rewrites the
// whole file through a temp file and rename, so readers never observe a
// partial write.
type File struct {
	path string
	mode os.FileMode

	mu      sync.Mutex
	records map[string]string
	closed  bool
}

// OpenFile loads path, creating its directory when needed. A missing file is
// an empty store.
func OpenFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("storage: file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("storage: create dir for %q: %w", path, err)
	}
	records := map[string]string{}
	if err := readJSON(path, &records); err != nil {
		return nil, fmt.Errorf("storage: read %q: %w", path, err)
	}
	if records == nil {
		records = map[string]string{}
	}
	return &File{path: path, mode: 0o600, records: records}, nil
}

// Path returns the backing file.
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return "", false, ErrClosed
	}
	value, ok := f.records[key]
	return value, ok, nil
}

func (f *File) Set(ctx context.Context, key, value string) error {
	return f.mutate(ctx, func(records map[string]string) {
		records[key] = value
	})
}

func (f *File) Delete(ctx context.Context, key string) error {
	return f.mutate(ctx, func(records map[string]string) {
		delete(records, key)
	})
}

func (f *File) Clear(ctx context.Context) error {
	return f.mutate(ctx, func(records map[string]string) {
		for k := range records {
			delete(records, k)
		}
	})
}

func (f *File) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}
	keys := make([]string, 0, len(f.records))
	for k := range f.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close marks the store closed. The file itself is always up to date.
func (f *File) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *File) mutate(ctx context.Context, apply func(map[string]string)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	next := make(map[string]string, len(f.records)+1)
	for k, v := range f.records {
		next[k] = v
	}
	apply(next)
	if err := writeJSON(f.path, next, f.mode); err != nil {
		return fmt.Errorf("storage: write %q: %w", f.path, err)
	}
	f.records = next
	return nil
}

// readJSON reads path into out; a missing file is not an error.
func readJSON(path string, out any) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, out)
}

// writeJSON writes JSON via a temp file then rename.
func writeJSON(path string, v any, mode os.FileMode) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, mode); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
