package menu

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/copysnip/pkg/snippet"
	"github.com/walteh/copysnip/pkg/storage"
)

// Entry is one context-menu item mirrored from a snippet.
type Entry struct {
	ID       string
	Title    string
	Contexts []string
}

// Registry is the external menu-registration side effect: it replaces the
// whole entry list in one call, mirroring how the browser rebuilds the menu
// after removeAll.
type Registry interface {
	ReplaceAll(ctx context.Context, entries []Entry) error
}

// Syncer keeps a Registry mirroring the snippet catalog in the store.
type Syncer struct {
	store    storage.Store
	registry Registry
}

// NewSyncer creates a Syncer over store and registry.
func NewSyncer(store storage.Store, registry Registry) *Syncer {
	return &Syncer{store: store, registry: registry}
}

// Sync reads the current snippet catalog and mirrors it into the registry.
// Snippets without an id are skipped with a warning rather than breaking
// the whole rebuild.
func (s *Syncer) Sync(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	cat := storage.LoadCatalog(ctx, s.store)
	entries := make([]Entry, 0, len(cat.Snippets))
	for _, sn := range cat.Snippets {
		if sn.ID == "" {
			logger.Warn().Str("title", sn.Title).Msg("snippet missing id, skipping menu entry")
			continue
		}
		entries = append(entries, Entry{
			ID:       sn.ID,
			Title:    sn.Title,
			Contexts: sn.Contexts,
		})
	}

	if err := s.registry.ReplaceAll(ctx, entries); err != nil {
		return errors.Errorf("replacing menu entries: %w", err)
	}
	logger.Debug().Int("entries", len(entries)).Msg("menu mirrored")
	return nil
}

// Start performs an initial sync and then re-syncs on every change to the
// snippet catalog key. The returned func stops watching. Re-sync failures
// are logged, not propagated: the next change retries naturally.
func (s *Syncer) Start(ctx context.Context) (stop func(), err error) {
	if err := s.Sync(ctx); err != nil {
		return nil, err
	}
	unwatch := s.store.Watch(snippet.KeySnippets, func(_ json.RawMessage) {
		if err := s.Sync(ctx); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("menu re-sync failed")
		}
	})
	return unwatch, nil
}

// MemoryRegistry is an in-process Registry for tests and the daemon's
// introspection endpoint.
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries []Entry
}

func (m *MemoryRegistry) ReplaceAll(ctx context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]Entry(nil), entries...)
	return nil
}

// Entries returns a snapshot of the current mirror.
func (m *MemoryRegistry) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Entry(nil), m.entries...)
}
