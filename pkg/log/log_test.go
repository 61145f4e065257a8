package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(&buf, zerolog.Disabled), &buf
}

func TestLogger(t *testing.T) {
	ctx := context.Background()

	t.Run("entry_operation_added", func(t *testing.T) {
		l, buf := newTestLogger()
		l.LogEntryOperation(ctx, EntryOperation{Title: "markdown", Kind: "snippet", IsNew: true})
		out := buf.String()
		assert.Contains(t, out, "markdown")
		assert.Contains(t, out, "snippet")
		assert.Contains(t, out, "added")
	})

	t.Run("entry_operation_duplicate", func(t *testing.T) {
		l, buf := newTestLogger()
		l.LogEntryOperation(ctx, EntryOperation{Title: "markdown", Kind: "snippet", IsSkipped: true})
		assert.Contains(t, buf.String(), "duplicate")
	})

	t.Run("entry_operation_mapped_rule", func(t *testing.T) {
		l, buf := newTestLogger()
		l.LogEntryOperation(ctx, EntryOperation{Title: "ms support", Kind: "rule", MappedTo: "rule-local"})
		assert.Contains(t, buf.String(), "mapped to rule-local")
	})

	t.Run("import_operation_lifecycle", func(t *testing.T) {
		l, buf := newTestLogger()
		l.StartImportOperation(ctx, ImportOperation{Source: "shared.json"})
		l.LogEntryOperation(ctx, EntryOperation{Title: "x", Kind: "snippet", IsNew: true})
		l.EndImportOperation(ctx)
		assert.Contains(t, buf.String(), "importing")
		assert.Contains(t, buf.String(), "shared.json")
	})

	t.Run("context_roundtrip", func(t *testing.T) {
		l, _ := newTestLogger()
		got := FromContext(NewContext(ctx, l))
		require.Same(t, l, got)
	})

	t.Run("message_helpers", func(t *testing.T) {
		l, buf := newTestLogger()
		l.Success("done")
		l.Warning("careful")
		l.Error("broken")
		l.Infof("count: %d", 3)
		out := buf.String()
		assert.Contains(t, out, "done")
		assert.Contains(t, out, "careful")
		assert.Contains(t, out, "broken")
		assert.Contains(t, out, "count: 3")
	})
}
