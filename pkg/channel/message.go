package channel

import (
	"encoding/json"

	"gitlab.com/tozd/go/errors"
)

// Kind discriminates the closed set of messages crossing the page-context
// boundary. Anything outside this set is rejected at decode time.
type Kind string

const (
	KindRenderResult     Kind = "render-result"
	KindHeadingRequest   Kind = "heading-request"
	KindHeadingResponse  Kind = "heading-response"
	KindPageInfoRequest  Kind = "page-info-request"
	KindPageInfoResponse Kind = "page-info-response"
	KindAck              Kind = "ack"
	KindError            Kind = "error"
)

// Envelope is the wire frame: a correlation id, a kind tag and the
// kind-specific payload. Responses echo the id of the request they answer.
type Envelope struct {
	ID      string          `json:"id"`
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RenderResult carries rendered clipboard text to the page for writing,
// along with the snippet title for user feedback.
type RenderResult struct {
	ReplacedText string `json:"replacedText"`
	SnippetTitle string `json:"snippetTitle"`
}

// HeadingRequest asks the page for the text of the element whose id (or
// name attribute) matches SectionID.
type HeadingRequest struct {
	SectionID string `json:"sectionId"`
}

// HeadingResponse answers a HeadingRequest. An empty HeadingText means the
// element was not found.
type HeadingResponse struct {
	HeadingText string `json:"headingText,omitempty"`
}

// PageInfo answers a page-info request with the ambient page data a
// keyboard-triggered flow is missing.
type PageInfo struct {
	Title         string `json:"title,omitempty"`
	URL           string `json:"url,omitempty"`
	SelectionText string `json:"selectionText,omitempty"`
}

// ErrorPayload reports a page-side failure for the correlated request.
type ErrorPayload struct {
	Message string `json:"message"`
}

// NewEnvelope builds an envelope with a marshaled payload. A nil payload
// produces an empty-payload envelope (used for page-info requests and acks).
func NewEnvelope(id string, kind Kind, payload any) (Envelope, error) {
	env := Envelope{ID: id, Kind: kind}
	if payload == nil {
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, errors.Errorf("encoding %s payload: %w", kind, err)
	}
	env.Payload = data
	return env, nil
}

// decodePayload unmarshals an envelope payload into out, tolerating an
// absent payload (out keeps its zero value).
func decodePayload(env Envelope, out any) error {
	if len(env.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Payload, out); err != nil {
		return errors.Errorf("decoding %s payload: %w", env.Kind, err)
	}
	return nil
}
