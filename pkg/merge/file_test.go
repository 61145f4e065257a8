package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestParseExport(t *testing.T) {
	t.Run("current_format", func(t *testing.T) {
		data := []byte(`{
			"snippets": [{"id": "custom-copy-1", "title": "md", "clipboardText": "${url}"}],
			"rules": [{"id": "rule-1", "title": "r", "pattern": "a", "replacement": "b"}]
		}`)
		out, err := ParseExport(data)
		require.NoError(t, err)
		require.Len(t, out.Snippets, 1)
		require.Len(t, out.Rules, 1)
		assert.Equal(t, "md", out.Snippets[0].Title)
		assert.Equal(t, "rule-1", out.Rules[0].ID)
	})

	t.Run("legacy_bare_snippet_array", func(t *testing.T) {
		data := []byte(`[{"id": "custom-copy-1", "title": "md", "clipboardText": "${url}"}]`)
		out, err := ParseExport(data)
		require.NoError(t, err)
		require.Len(t, out.Snippets, 1)
		assert.Empty(t, out.Rules)
	})

	t.Run("invalid_json", func(t *testing.T) {
		_, err := ParseExport([]byte(`{not json`))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidFile), "invalid files must be distinguishable")
	})

	t.Run("wrong_shape", func(t *testing.T) {
		_, err := ParseExport([]byte(`"just a string"`))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidFile))
	})

	t.Run("roundtrip", func(t *testing.T) {
		out, err := ParseExport(mustMarshal(t))
		require.NoError(t, err)
		assert.Len(t, out.Snippets, 1)
		assert.Len(t, out.Rules, 1)
	})
}

func mustMarshal(t *testing.T) []byte {
	t.Helper()
	in, err := ParseExport([]byte(`{
		"snippets": [{"id": "custom-copy-1", "title": "md", "clipboardText": "${url}"}],
		"rules": [{"id": "rule-1", "title": "r", "pattern": "a", "replacement": "b"}]
	}`))
	require.NoError(t, err)
	data, err := MarshalExport(in)
	require.NoError(t, err)
	return data
}
