package channel

import (
	"context"

	"gitlab.com/tozd/go/errors"
)

// ErrClosed reports a channel whose page-side peer is gone. Delivery and
// requests fail with it; the dispatch flow terminates without retry.
var ErrClosed = errors.Base("page channel closed")

// Channel is the request/response capability into the page context.
// Delivery is at-least-once with no ordering guarantee across calls; every
// call is bounded by its context deadline (or the implementation's default
// timeout) and returns an error rather than blocking indefinitely.
type Channel interface {
	// RequestHeading asks the page for the heading text of sectionID.
	RequestHeading(ctx context.Context, sectionID string) (string, error)

	// RequestPageInfo asks the page for its current title, URL and
	// selection. Used by keyboard-triggered flows that have no
	// click-provided context.
	RequestPageInfo(ctx context.Context) (PageInfo, error)

	// DeliverResult hands rendered text to the page's clipboard writer.
	// Only an ack or an error comes back, never content.
	DeliverResult(ctx context.Context, result RenderResult) error
}

// HeadingClient adapts a Channel to the renderer's heading lookup.
type HeadingClient struct {
	Channel Channel
}

func (h HeadingClient) FetchHeading(ctx context.Context, sectionID string) (string, error) {
	return h.Channel.RequestHeading(ctx, sectionID)
}
