package snippet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDGeneration(t *testing.T) {
	t.Run("snippet_id_prefix", func(t *testing.T) {
		id := NewSnippetID()
		assert.True(t, strings.HasPrefix(id, "custom-copy-"), "got %q", id)
	})

	t.Run("rule_id_prefix", func(t *testing.T) {
		id := NewRuleID()
		assert.True(t, strings.HasPrefix(id, "rule-"), "got %q", id)
	})

	t.Run("consecutive_ids_differ", func(t *testing.T) {
		assert.NotEqual(t, NewSnippetID(), NewSnippetID())
		assert.NotEqual(t, NewRuleID(), NewRuleID())
	})

	t.Run("unique_id_avoids_taken_set", func(t *testing.T) {
		taken := map[string]bool{}
		for i := 0; i < 100; i++ {
			taken[UniqueRuleID(taken)] = true
		}
		assert.Len(t, taken, 100)
	})
}
