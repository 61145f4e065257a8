package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"gitlab.com/tozd/go/errors"
)

// File is a Store persisted as a single JSON document on disk. Writes go
// through a temp file and a rename so a crash never leaves a torn document.
type File struct {
	mu       sync.Mutex
	path     string
	values   map[string]json.RawMessage
	watchers map[string]map[int]func(json.RawMessage)
	nextID   int
}

// NewFile loads the store at path, starting empty when the file does not
// exist yet. Unexpected I/O or parse failures are returned: a corrupt store
// file should be surfaced at startup, not silently emptied.
func NewFile(path string) (*File, error) {
	f := &File{
		path:     path,
		values:   map[string]json.RawMessage{},
		watchers: map[string]map[int]func(json.RawMessage){},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return nil, errors.Errorf("reading store file: %w", err)
	}
	if err := json.Unmarshal(data, &f.values); err != nil {
		return nil, errors.Errorf("parsing store file: %w", err)
	}
	return f, nil
}

func (f *File) Get(ctx context.Context, key string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return nil, nil
	}
	out := make(json.RawMessage, len(v))
	copy(out, v)
	return out, nil
}

func (f *File) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Errorf("encoding value for %q: %w", key, err)
	}

	f.mu.Lock()
	f.values[key] = data
	if err := f.writeLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	fns := f.watcherSnapshot(key)
	f.mu.Unlock()

	for _, fn := range fns {
		fn(data)
	}
	return nil
}

func (f *File) Remove(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		f.mu.Lock()
		_, existed := f.values[key]
		delete(f.values, key)
		if err := f.writeLocked(); err != nil {
			f.mu.Unlock()
			return err
		}
		fns := f.watcherSnapshot(key)
		f.mu.Unlock()

		if existed {
			for _, fn := range fns {
				fn(nil)
			}
		}
	}
	return nil
}

func (f *File) Watch(key string, fn func(json.RawMessage)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.watchers[key] == nil {
		f.watchers[key] = map[int]func(json.RawMessage){}
	}
	id := f.nextID
	f.nextID++
	f.watchers[key][id] = fn

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.watchers[key], id)
	}
}

// writeLocked writes the whole document atomically. Caller holds f.mu.
func (f *File) writeLocked() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return errors.Errorf("creating store directory: %w", err)
	}

	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return errors.Errorf("encoding store file: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Errorf("writing store file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return errors.Errorf("replacing store file: %w", err)
	}
	return nil
}

func (f *File) watcherSnapshot(key string) []func(json.RawMessage) {
	fns := make([]func(json.RawMessage), 0, len(f.watchers[key]))
	for _, fn := range f.watchers[key] {
		fns = append(fns, fn)
	}
	return fns
}
