package channel

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultTimeout bounds a single round trip when the caller's context
// carries no deadline of its own.
const DefaultTimeout = 3 * time.Second

// WS is a Channel over a single WebSocket connection to the page context.
// Writes are serialized (gorilla forbids concurrent writers); a reader
// goroutine routes responses to pending requests by correlation id.
type WS struct {
	conn    *websocket.Conn
	timeout time.Duration

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan Envelope

	done     chan struct{}
	doneOnce sync.Once
}

// WSOption configures a WS channel.
type WSOption func(*WS)

// WithTimeout overrides the default per-call timeout.
func WithTimeout(d time.Duration) WSOption {
	return func(w *WS) {
		w.timeout = d
	}
}

// NewWS wraps an established connection and starts its reader. The caller
// keeps ownership of logging context via ctx.
func NewWS(ctx context.Context, conn *websocket.Conn, opts ...WSOption) *WS {
	w := &WS{
		conn:    conn,
		timeout: DefaultTimeout,
		pending: map[string]chan Envelope{},
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.readLoop(ctx)
	return w
}

// Close tears the connection down and fails all pending calls.
func (w *WS) Close() error {
	w.doneOnce.Do(func() { close(w.done) })
	return w.conn.Close()
}

// Done is closed when the peer is gone.
func (w *WS) Done() <-chan struct{} {
	return w.done
}

func (w *WS) RequestHeading(ctx context.Context, sectionID string) (string, error) {
	resp, err := w.roundTrip(ctx, KindHeadingRequest, HeadingRequest{SectionID: sectionID})
	if err != nil {
		return "", err
	}
	if resp.Kind != KindHeadingResponse {
		return "", errors.Errorf("unexpected response kind %q to heading request", resp.Kind)
	}
	var payload HeadingResponse
	if err := decodePayload(resp, &payload); err != nil {
		return "", err
	}
	return payload.HeadingText, nil
}

func (w *WS) RequestPageInfo(ctx context.Context) (PageInfo, error) {
	resp, err := w.roundTrip(ctx, KindPageInfoRequest, nil)
	if err != nil {
		return PageInfo{}, err
	}
	if resp.Kind != KindPageInfoResponse {
		return PageInfo{}, errors.Errorf("unexpected response kind %q to page-info request", resp.Kind)
	}
	var payload PageInfo
	if err := decodePayload(resp, &payload); err != nil {
		return PageInfo{}, err
	}
	return payload, nil
}

func (w *WS) DeliverResult(ctx context.Context, result RenderResult) error {
	resp, err := w.roundTrip(ctx, KindRenderResult, result)
	if err != nil {
		return err
	}
	switch resp.Kind {
	case KindAck:
		return nil
	case KindError:
		var payload ErrorPayload
		if err := decodePayload(resp, &payload); err != nil {
			return err
		}
		return errors.Errorf("page rejected render result: %s", payload.Message)
	default:
		return errors.Errorf("unexpected response kind %q to render result", resp.Kind)
	}
}

// roundTrip sends one request envelope and waits for the correlated
// response, bounded by ctx or the default timeout.
func (w *WS) roundTrip(ctx context.Context, kind Kind, payload any) (Envelope, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	env, err := NewEnvelope(uuid.NewString(), kind, payload)
	if err != nil {
		return Envelope{}, err
	}

	respCh := make(chan Envelope, 1)
	w.mu.Lock()
	w.pending[env.ID] = respCh
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		delete(w.pending, env.ID)
		w.mu.Unlock()
	}()

	if err := w.writeEnvelope(env); err != nil {
		return Envelope{}, errors.Errorf("sending %s: %w", kind, err)
	}

	select {
	case resp := <-respCh:
		return resp, nil
	case <-w.done:
		return Envelope{}, errors.WithStack(ErrClosed)
	case <-ctx.Done():
		return Envelope{}, errors.Errorf("waiting for %s response: %w", kind, ctx.Err())
	}
}

func (w *WS) writeEnvelope(env Envelope) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.conn.WriteJSON(env)
}

func (w *WS) readLoop(ctx context.Context) {
	logger := zerolog.Ctx(ctx)
	defer w.doneOnce.Do(func() { close(w.done) })

	for {
		var env Envelope
		if err := w.conn.ReadJSON(&env); err != nil {
			logger.Debug().Err(err).Msg("page channel reader stopped")
			return
		}

		w.mu.Lock()
		respCh, ok := w.pending[env.ID]
		w.mu.Unlock()
		if !ok {
			logger.Warn().
				Str("id", env.ID).
				Str("kind", string(env.Kind)).
				Msg("response with no pending request, dropping")
			continue
		}
		// The page may resend a response the caller already consumed or
		// stopped waiting for. The reader must never block on a full
		// buffer, or one stale response wedges every later request.
		select {
		case respCh <- env:
		default:
			logger.Warn().
				Str("id", env.ID).
				Str("kind", string(env.Kind)).
				Msg("duplicate response for pending request, dropping")
		}
	}
}
