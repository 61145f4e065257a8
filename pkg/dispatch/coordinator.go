package dispatch

import (
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/copysnip/pkg/channel"
	"github.com/walteh/copysnip/pkg/render"
	"github.com/walteh/copysnip/pkg/snippet"
	"github.com/walteh/copysnip/pkg/storage"
)

// MenuClick is a context-menu trigger: the matched snippet id plus the
// ambient page data the clicking context already carries.
type MenuClick struct {
	SnippetID     string `json:"menuItemId"`
	Title         string `json:"title"`
	URL           string `json:"pageUrl"`
	SelectionText string `json:"selectionText"`
}

// Flow records the terminal outcome of one trigger.
type Flow struct {
	SnippetID string
	Status    Status
	Reason    FailReason
	Err       error
	Rendered  string
}

// Failed reports whether the flow ended in a terminal failure.
func (f Flow) Failed() bool {
	return f.Status == StatusFailed
}

// Coordinator binds trigger events to snippets and an up-to-date catalog,
// renders, and delivers the result to the page. Each call runs an
// independent flow over its own catalog snapshot; concurrent triggers share
// nothing mutable.
type Coordinator struct {
	store    storage.Store
	channel  channel.Channel
	renderer *render.Renderer
}

// New creates a Coordinator. Renderer options (e.g. the heading lookup
// timeout) are forwarded to the renderer built over ch.
func New(store storage.Store, ch channel.Channel, opts ...render.Option) *Coordinator {
	return &Coordinator{
		store:    store,
		channel:  ch,
		renderer: render.New(channel.HeadingClient{Channel: ch}, opts...),
	}
}

// HandleMenuClick runs the full flow for a context-menu trigger.
func (c *Coordinator) HandleMenuClick(ctx context.Context, ev MenuClick) Flow {
	logger := zerolog.Ctx(ctx).With().
		Str("trigger", "menu-click").
		Str("snippet_id", ev.SnippetID).
		Logger()
	ctx = logger.WithContext(ctx)

	logger.Debug().Str("status", StatusResolving.String()).Msg("flow transition")
	cat := storage.LoadCatalog(ctx, c.store)
	matched, ok := findByID(cat.Snippets, ev.SnippetID)
	if !ok {
		return c.fail(ctx, ev.SnippetID, ReasonNotFound,
			errors.Errorf("no snippet with id %q", ev.SnippetID))
	}

	page := snippet.PageContext{
		Title:         ev.Title,
		URL:           ev.URL,
		SelectionText: ev.SelectionText,
	}
	return c.renderAndDeliver(ctx, matched, page, cat.Rules)
}

// HandleShortcut runs the flow for a keyboard trigger. The clicking context
// is absent, so the page is asked for its info in an extra round trip
// before rendering.
func (c *Coordinator) HandleShortcut(ctx context.Context, slot int) Flow {
	logger := zerolog.Ctx(ctx).With().
		Str("trigger", "shortcut").
		Int("slot", slot).
		Logger()
	ctx = logger.WithContext(ctx)

	logger.Debug().Str("status", StatusResolving.String()).Msg("flow transition")
	cat := storage.LoadCatalog(ctx, c.store)
	matched, ok := findByShortcut(cat.Snippets, slot)
	if !ok {
		return c.fail(ctx, "", ReasonNotFound,
			errors.Errorf("no snippet mapped to shortcut slot %d", slot))
	}

	info, err := c.channel.RequestPageInfo(ctx)
	if err != nil {
		return c.fail(ctx, matched.ID, ReasonPageInfoError,
			errors.Errorf("requesting page info: %w", err))
	}

	page := snippet.PageContext{
		Title:         info.Title,
		URL:           info.URL,
		SelectionText: info.SelectionText,
	}
	return c.renderAndDeliver(ctx, matched, page, cat.Rules)
}

func (c *Coordinator) renderAndDeliver(ctx context.Context, s snippet.Snippet, page snippet.PageContext, rules []snippet.TransformRule) Flow {
	logger := zerolog.Ctx(ctx)

	logger.Debug().Str("status", StatusRendering.String()).Msg("flow transition")
	rendered, err := c.renderSafely(ctx, s, page, rules)
	if err != nil {
		return c.fail(ctx, s.ID, ReasonRenderError, err)
	}

	logger.Debug().Str("status", StatusDelivering.String()).Msg("flow transition")
	result := channel.RenderResult{ReplacedText: rendered, SnippetTitle: s.Title}
	if err := c.channel.DeliverResult(ctx, result); err != nil {
		return c.fail(ctx, s.ID, ReasonDeliveryError,
			errors.Errorf("delivering render result: %w", err))
	}

	logger.Debug().Str("status", StatusDone.String()).Msg("flow transition")
	return Flow{SnippetID: s.ID, Status: StatusDone, Rendered: rendered}
}

// renderSafely converts a renderer panic into an error. Render is designed
// not to fail, so anything escaping it is an unexpected exception and ends
// the flow in Failed(render-error) rather than crashing the trigger.
func (c *Coordinator) renderSafely(ctx context.Context, s snippet.Snippet, page snippet.PageContext, rules []snippet.TransformRule) (rendered string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("render panicked: %v", r)
		}
	}()
	return c.renderer.Render(ctx, s, page, rules), nil
}

func (c *Coordinator) fail(ctx context.Context, snippetID string, reason FailReason, err error) Flow {
	zerolog.Ctx(ctx).Warn().
		Err(err).
		Str("reason", string(reason)).
		Msg("trigger flow failed")
	return Flow{SnippetID: snippetID, Status: StatusFailed, Reason: reason, Err: err}
}

func findByID(snippets []snippet.Snippet, id string) (snippet.Snippet, bool) {
	for _, s := range snippets {
		if s.ID == id {
			return s, true
		}
	}
	return snippet.Snippet{}, false
}

func findByShortcut(snippets []snippet.Snippet, slot int) (snippet.Snippet, bool) {
	if slot == 0 {
		return snippet.Snippet{}, false
	}
	for _, s := range snippets {
		if s.ShortcutNumber == slot {
			return s, true
		}
	}
	return snippet.Snippet{}, false
}
