package storage

import (
	"context"
	"encoding/json"
	"sync"

	"gitlab.com/tozd/go/errors"
)

// Memory is an in-process Store, used as the test double and as the default
// backing for a daemon run without a store path.
type Memory struct {
	mu       sync.RWMutex
	values   map[string]json.RawMessage
	watchers map[string]map[int]func(json.RawMessage)
	nextID   int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		values:   map[string]json.RawMessage{},
		watchers: map[string]map[int]func(json.RawMessage){},
	}
}

func (m *Memory) Get(ctx context.Context, key string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	out := make(json.RawMessage, len(v))
	copy(out, v)
	return out, nil
}

func (m *Memory) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Errorf("encoding value for %q: %w", key, err)
	}

	m.mu.Lock()
	m.values[key] = data
	fns := m.watcherSnapshot(key)
	m.mu.Unlock()

	for _, fn := range fns {
		fn(data)
	}
	return nil
}

func (m *Memory) Remove(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		m.mu.Lock()
		_, existed := m.values[key]
		delete(m.values, key)
		fns := m.watcherSnapshot(key)
		m.mu.Unlock()

		if existed {
			for _, fn := range fns {
				fn(nil)
			}
		}
	}
	return nil
}

func (m *Memory) Watch(key string, fn func(json.RawMessage)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watchers[key] == nil {
		m.watchers[key] = map[int]func(json.RawMessage){}
	}
	id := m.nextID
	m.nextID++
	m.watchers[key][id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.watchers[key], id)
	}
}

// watcherSnapshot copies the watcher list so callbacks run outside the lock.
// Caller must hold m.mu.
func (m *Memory) watcherSnapshot(key string) []func(json.RawMessage) {
	fns := make([]func(json.RawMessage), 0, len(m.watchers[key]))
	for _, fn := range m.watchers[key] {
		fns = append(fns, fn)
	}
	return fns
}
