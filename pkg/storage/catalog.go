package storage

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/copysnip/pkg/snippet"
)

// Catalog is the persisted pair of snippet and rule lists. The store owns
// it exclusively; the pipeline re-reads it per operation and never caches
// it across triggers.
type Catalog struct {
	Snippets []snippet.Snippet
	Rules    []snippet.TransformRule
}

// LoadCatalog reads the current catalog from the store. A failed read or an
// undecodable value degrades to the empty list for that key with a warning,
// so a broken store never takes the rendering path down with it.
func LoadCatalog(ctx context.Context, store Store) Catalog {
	var cat Catalog
	cat.Snippets = loadList[snippet.Snippet](ctx, store, snippet.KeySnippets)
	cat.Rules = loadList[snippet.TransformRule](ctx, store, snippet.KeyRules)
	return cat
}

// LoadCatalogStrict reads the current catalog and surfaces read and decode
// failures instead of degrading them. Import and export flows use it: a
// merge against a catalog that only looks empty would overwrite whatever
// the store actually holds.
func LoadCatalogStrict(ctx context.Context, store Store) (Catalog, error) {
	var cat Catalog
	var err error
	if cat.Snippets, err = loadListStrict[snippet.Snippet](ctx, store, snippet.KeySnippets); err != nil {
		return Catalog{}, err
	}
	if cat.Rules, err = loadListStrict[snippet.TransformRule](ctx, store, snippet.KeyRules); err != nil {
		return Catalog{}, err
	}
	return cat, nil
}

// SaveCatalog writes both catalog lists back to the store. Unlike reads,
// write failures are surfaced: import/export flows report them to the user.
func SaveCatalog(ctx context.Context, store Store, cat Catalog) error {
	if cat.Snippets == nil {
		cat.Snippets = []snippet.Snippet{}
	}
	if cat.Rules == nil {
		cat.Rules = []snippet.TransformRule{}
	}
	if err := store.Set(ctx, snippet.KeySnippets, cat.Snippets); err != nil {
		return errors.Errorf("saving snippets: %w", err)
	}
	if err := store.Set(ctx, snippet.KeyRules, cat.Rules); err != nil {
		return errors.Errorf("saving rules: %w", err)
	}
	return nil
}

func loadListStrict[T any](ctx context.Context, store Store, key string) ([]T, error) {
	raw, err := store.Get(ctx, key)
	if err != nil {
		return nil, errors.Errorf("reading catalog key %q: %w", key, err)
	}
	if raw == nil {
		return nil, nil
	}

	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Errorf("decoding catalog key %q: %w", key, err)
	}
	return out, nil
}

func loadList[T any](ctx context.Context, store Store, key string) []T {
	logger := zerolog.Ctx(ctx)

	raw, err := store.Get(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("catalog read failed, treating as empty")
		return nil
	}
	if raw == nil {
		return nil
	}

	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("catalog value undecodable, treating as empty")
		return nil
	}
	return out
}
