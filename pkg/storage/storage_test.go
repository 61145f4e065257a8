package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/copysnip/pkg/snippet"
)

func testCtx(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t}).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

func TestMemory(t *testing.T) {
	ctx := testCtx(t)

	t.Run("get_absent_returns_nil", func(t *testing.T) {
		m := NewMemory()
		raw, err := m.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, raw)
	})

	t.Run("set_then_get", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Set(ctx, "k", []string{"a", "b"}))
		raw, err := m.Get(ctx, "k")
		require.NoError(t, err)
		assert.JSONEq(t, `["a","b"]`, string(raw))
	})

	t.Run("remove_deletes", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Set(ctx, "k", 1))
		require.NoError(t, m.Remove(ctx, "k"))
		raw, err := m.Get(ctx, "k")
		require.NoError(t, err)
		assert.Nil(t, raw)
	})

	t.Run("watch_fires_on_set_and_remove", func(t *testing.T) {
		m := NewMemory()
		var got []json.RawMessage
		unwatch := m.Watch("k", func(v json.RawMessage) {
			got = append(got, v)
		})
		defer unwatch()

		require.NoError(t, m.Set(ctx, "k", "v1"))
		require.NoError(t, m.Remove(ctx, "k"))
		require.Len(t, got, 2)
		assert.JSONEq(t, `"v1"`, string(got[0]))
		assert.Nil(t, got[1], "removal notifies with nil")
	})

	t.Run("unwatch_stops_notifications", func(t *testing.T) {
		m := NewMemory()
		calls := 0
		unwatch := m.Watch("k", func(json.RawMessage) { calls++ })
		unwatch()
		require.NoError(t, m.Set(ctx, "k", "v"))
		assert.Zero(t, calls)
	})
}

func TestFile(t *testing.T) {
	ctx := testCtx(t)

	t.Run("starts_empty_without_file", func(t *testing.T) {
		dir := t.TempDir()
		f, err := NewFile(filepath.Join(dir, "store.json"))
		require.NoError(t, err)
		raw, err := f.Get(ctx, "k")
		require.NoError(t, err)
		assert.Nil(t, raw)
	})

	t.Run("persists_across_reopen", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "store.json")

		f, err := NewFile(path)
		require.NoError(t, err)
		require.NoError(t, f.Set(ctx, "k", map[string]int{"n": 1}))

		f2, err := NewFile(path)
		require.NoError(t, err)
		raw, err := f2.Get(ctx, "k")
		require.NoError(t, err)
		assert.JSONEq(t, `{"n":1}`, string(raw))
	})

	t.Run("corrupt_file_errors_at_open", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "store.json")
		require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

		_, err := NewFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing store file")
	})

	t.Run("watch_fires_on_set", func(t *testing.T) {
		dir := t.TempDir()
		f, err := NewFile(filepath.Join(dir, "store.json"))
		require.NoError(t, err)

		var got json.RawMessage
		unwatch := f.Watch("k", func(v json.RawMessage) { got = v })
		defer unwatch()

		require.NoError(t, f.Set(ctx, "k", "v"))
		assert.JSONEq(t, `"v"`, string(got))
	})
}

type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	return nil, errors.New("store rejected")
}
func (failingStore) Set(ctx context.Context, key string, value any) error {
	return errors.New("store rejected")
}
func (failingStore) Remove(ctx context.Context, keys ...string) error {
	return errors.New("store rejected")
}
func (failingStore) Watch(key string, fn func(json.RawMessage)) func() {
	return func() {}
}

func TestCatalog(t *testing.T) {
	ctx := testCtx(t)

	t.Run("roundtrip", func(t *testing.T) {
		m := NewMemory()
		cat := Catalog{
			Snippets: []snippet.Snippet{{ID: "custom-copy-1", Title: "md", ClipboardText: "${url}"}},
			Rules:    []snippet.TransformRule{{ID: "rule-1", Title: "r", Pattern: "a", Replacement: "b"}},
		}
		require.NoError(t, SaveCatalog(ctx, m, cat))

		got := LoadCatalog(ctx, m)
		require.Len(t, got.Snippets, 1)
		require.Len(t, got.Rules, 1)
		assert.Equal(t, "md", got.Snippets[0].Title)
	})

	t.Run("empty_store_loads_empty_catalog", func(t *testing.T) {
		got := LoadCatalog(ctx, NewMemory())
		assert.Empty(t, got.Snippets)
		assert.Empty(t, got.Rules)
	})

	t.Run("rejected_read_treated_as_empty", func(t *testing.T) {
		got := LoadCatalog(ctx, failingStore{})
		assert.Empty(t, got.Snippets)
		assert.Empty(t, got.Rules)
	})

	t.Run("undecodable_value_treated_as_empty", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Set(ctx, snippet.KeySnippets, "not a list"))
		got := LoadCatalog(ctx, m)
		assert.Empty(t, got.Snippets)
	})

	t.Run("save_failure_surfaced", func(t *testing.T) {
		err := SaveCatalog(ctx, failingStore{}, Catalog{})
		require.Error(t, err)
	})

	t.Run("strict_load_roundtrip", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, SaveCatalog(ctx, m, Catalog{
			Snippets: []snippet.Snippet{{ID: "custom-copy-1", Title: "md"}},
		}))

		got, err := LoadCatalogStrict(ctx, m)
		require.NoError(t, err)
		require.Len(t, got.Snippets, 1)
		assert.Equal(t, "md", got.Snippets[0].Title)
	})

	t.Run("strict_load_surfaces_rejected_read", func(t *testing.T) {
		_, err := LoadCatalogStrict(ctx, failingStore{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), snippet.KeySnippets)
	})

	t.Run("strict_load_surfaces_undecodable_value", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Set(ctx, snippet.KeyRules, "not a list"))
		_, err := LoadCatalogStrict(ctx, m)
		require.Error(t, err)
		assert.Contains(t, err.Error(), snippet.KeyRules)
	})
}
