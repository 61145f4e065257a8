package urlx

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func testCtx(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t}).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

func TestTransform(t *testing.T) {
	ctx := testCtx(t)

	t.Run("replaces_scheme", func(t *testing.T) {
		got := Transform(ctx, "https://example.com", "^https://", "http://")
		assert.Equal(t, "http://example.com", got)
	})

	t.Run("replaces_domain", func(t *testing.T) {
		got := Transform(ctx, "https://example.com/path", `example\.com`, "test.com")
		assert.Equal(t, "https://test.com/path", got)
	})

	t.Run("case_insensitive", func(t *testing.T) {
		got := Transform(ctx, "HTTPS://EXAMPLE.COM", "^https://", "http://")
		assert.Equal(t, "http://EXAMPLE.COM", got)
	})

	t.Run("single_capture_group", func(t *testing.T) {
		got := Transform(ctx, "https://example.com/user/123", `^(https://example\.com)/user/\d+$`, "$1/users")
		assert.Equal(t, "https://example.com/users", got)
	})

	t.Run("multiple_capture_groups", func(t *testing.T) {
		got := Transform(ctx, "https://example.com/old/path/file.html", `^(https://[^/]+)/old/(.*)\.html$`, "$1/new/$2.php")
		assert.Equal(t, "https://example.com/new/path/file.php", got)
	})

	t.Run("microsoft_support_url", func(t *testing.T) {
		got := Transform(ctx,
			"https://support.microsoft.com/ja-jp/office/microsoft-teams-88ed0a06-6b59-43a3-8cf7-40c01f2f92f2",
			`^(https://support\.microsoft\.com/[^/]+/[^/]+/).*?([a-f0-9-]{36})$`,
			"$1$2")
		assert.Equal(t, "https://support.microsoft.com/ja-jp/office/88ed0a06-6b59-43a3-8cf7-40c01f2f92f2", got)
	})

	t.Run("no_match_passes_through", func(t *testing.T) {
		got := Transform(ctx, "https://example.com", "^http://", "ftp://")
		assert.Equal(t, "https://example.com", got)
	})

	t.Run("empty_pattern_passes_through", func(t *testing.T) {
		assert.Equal(t, "https://example.com", Transform(ctx, "https://example.com", "", "http://"))
		assert.Equal(t, "https://example.com", Transform(ctx, "https://example.com", "", ""))
	})

	t.Run("empty_url", func(t *testing.T) {
		assert.Equal(t, "", Transform(ctx, "", "^https://", "http://"))
	})

	t.Run("invalid_regex_passes_through", func(t *testing.T) {
		got := Transform(ctx, "https://example.com", "[invalid(regex", "http://")
		assert.Equal(t, "https://example.com", got)
	})

	t.Run("query_removal_with_empty_replacement", func(t *testing.T) {
		got := Transform(ctx, "https://example.com/path?foo=bar&baz=qux", `\?.*$`, "")
		assert.Equal(t, "https://example.com/path", got)
	})

	t.Run("issue_to_pull_rewrite", func(t *testing.T) {
		got := Transform(ctx, "https://github.com/user/repo/issues/123", `^(https://github\.com/[^/]+/[^/]+)/issues/(\d+)$`, "$1/pull/$2")
		assert.Equal(t, "https://github.com/user/repo/pull/123", got)
	})

	t.Run("dollar_without_digit_is_literal", func(t *testing.T) {
		got := Transform(ctx, "https://example.com/path", "/path$", "/new$path")
		assert.Equal(t, "https://example.com/new$path", got)
	})

	t.Run("double_dollar_is_literal_dollar", func(t *testing.T) {
		got := Transform(ctx, "https://example.com/a", "/a$", "/$$1")
		assert.Equal(t, "https://example.com/$1", got)
	})

	t.Run("only_first_match_replaced", func(t *testing.T) {
		got := Transform(ctx, "https://a.com/x/x", "x", "y")
		assert.Equal(t, "https://a.com/y/x", got)
	})
}

func TestStripQuery(t *testing.T) {
	t.Run("strips_query", func(t *testing.T) {
		assert.Equal(t, "https://example.com/a", StripQuery("https://example.com/a?x=1"))
	})

	t.Run("no_query_unchanged", func(t *testing.T) {
		assert.Equal(t, "https://example.com/a", StripQuery("https://example.com/a"))
	})

	t.Run("keeps_fragment", func(t *testing.T) {
		assert.Equal(t, "https://example.com/a#sec", StripQuery("https://example.com/a?x=1#sec"))
	})

	t.Run("unparsable_unchanged", func(t *testing.T) {
		assert.Equal(t, "://not a url", StripQuery("://not a url"))
	})
}

func TestExtractSectionHeading(t *testing.T) {
	t.Run("decodes_fragment", func(t *testing.T) {
		assert.Equal(t, "a b", ExtractSectionHeading("https://x.com#a%20b"))
	})

	t.Run("no_fragment", func(t *testing.T) {
		assert.Equal(t, "", ExtractSectionHeading("https://x.com"))
	})

	t.Run("empty_fragment", func(t *testing.T) {
		assert.Equal(t, "", ExtractSectionHeading("https://x.com#"))
	})

	t.Run("unparsable_url", func(t *testing.T) {
		assert.Equal(t, "", ExtractSectionHeading("://x#frag"))
	})
}
