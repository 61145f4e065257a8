package dispatch

// Status is the per-trigger state machine position. Each trigger runs
// Idle → Resolving → Rendering → Delivering → Done, or drops into Failed.
type Status int

const (
	StatusIdle Status = iota
	StatusResolving
	StatusRendering
	StatusDelivering
	StatusDone
	StatusFailed
)

// String returns a string representation of Status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusResolving:
		return "resolving"
	case StatusRendering:
		return "rendering"
	case StatusDelivering:
		return "delivering"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailReason classifies a terminal failure. Failures are logged, never
// retried: re-triggering is the retry mechanism.
type FailReason string

const (
	ReasonNone          FailReason = ""
	ReasonNotFound      FailReason = "not-found"
	ReasonPageInfoError FailReason = "page-info-error"
	ReasonRenderError   FailReason = "render-error"
	ReasonDeliveryError FailReason = "delivery-error"
)
