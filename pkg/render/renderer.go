package render

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/walteh/copysnip/pkg/snippet"
	"github.com/walteh/copysnip/pkg/urlx"
)

// DefaultHeadingTimeout bounds the cross-context heading lookup so a slow or
// gone page never stalls a render.
const DefaultHeadingTimeout = 2 * time.Second

// HeadingFetcher resolves a section id to the heading text of the matching
// page element. Implemented by the page-context channel; a fetcher may block
// until the page responds or ctx is done.
type HeadingFetcher interface {
	FetchHeading(ctx context.Context, sectionID string) (string, error)
}

// NopHeadingFetcher always reports no heading, leaving the renderer to fall
// back to the raw section id.
type NopHeadingFetcher struct{}

func (NopHeadingFetcher) FetchHeading(ctx context.Context, sectionID string) (string, error) {
	return "", nil
}

// Renderer produces final clipboard text from a snippet and a page context.
type Renderer struct {
	headings       HeadingFetcher
	headingTimeout time.Duration
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithHeadingTimeout overrides the bound on a single heading lookup.
func WithHeadingTimeout(d time.Duration) Option {
	return func(r *Renderer) {
		r.headingTimeout = d
	}
}

// New creates a Renderer. A nil fetcher behaves like NopHeadingFetcher.
func New(headings HeadingFetcher, opts ...Option) *Renderer {
	if headings == nil {
		headings = NopHeadingFetcher{}
	}
	r := &Renderer{
		headings:       headings,
		headingTimeout: DefaultHeadingTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render runs the full pipeline: legacy query stripping, sequential rule
// application, section heading resolution, then placeholder substitution.
// Every internal failure degrades to a fallback value; Render never returns
// an error.
//
// Placeholders are substituted in a fixed order and only the first
// occurrence of each token is replaced. That matches the long-standing
// behavior snippets have been authored against, so it is a contract here.
func (r *Renderer) Render(ctx context.Context, s snippet.Snippet, page snippet.PageContext, ruleCatalog []snippet.TransformRule) string {
	logger := zerolog.Ctx(ctx)

	pageURL := page.URL
	if s.DeleteQuery {
		pageURL = urlx.StripQuery(pageURL)
	}

	for _, rule := range urlx.SelectRules(ctx, s.EnabledRuleIDs, ruleCatalog, pageURL) {
		pageURL = urlx.Transform(ctx, pageURL, rule.Pattern, rule.Replacement)
	}

	section := r.resolveSection(ctx, pageURL)

	text := s.ClipboardText
	text = strings.Replace(text, "${title}", page.Title, 1)
	text = strings.Replace(text, "${url}", pageURL, 1)
	text = strings.Replace(text, "${selectionText}", page.SelectionText, 1)
	text = strings.Replace(text, "${section}", section, 1)

	logger.Debug().
		Str("snippet_id", s.ID).
		Str("url", pageURL).
		Msg("snippet rendered")
	return text
}

// resolveSection extracts the section id from the transformed URL and asks
// the page for the heading text. Any lookup failure, timeout or empty
// answer falls back to the raw section id, so a URL with a fragment never
// renders ${section} empty.
func (r *Renderer) resolveSection(ctx context.Context, pageURL string) string {
	sectionID := urlx.ExtractSectionHeading(pageURL)
	if sectionID == "" {
		return ""
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.headingTimeout)
	defer cancel()

	heading, err := r.headings.FetchHeading(fetchCtx, sectionID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("section_id", sectionID).
			Msg("heading lookup failed, using section id")
		return sectionID
	}
	if heading == "" {
		return sectionID
	}
	return heading
}
