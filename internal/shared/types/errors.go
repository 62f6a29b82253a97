package types

import "errors"

// Failure classes surfaced by the bridge. Detection mismatches are not
// errors; Detect reports them through its boolean return.
var (
	// ErrMalformedPayload marks text that cannot become a renderable document.
	// The instance is torn down with an inline error state; no retry.
	ErrMalformedPayload = errors.New("malformed resource payload")

	// ErrMeasurementDenied marks a document the probe cannot be injected into.
	// Rendering proceeds at the fallback height.
	ErrMeasurementDenied = errors.New("measurement probe denied")

	// ErrUntrustedOrigin marks a frame message from an untracked instance.
	// The message is dropped and never forwarded.
	ErrUntrustedOrigin = errors.New("untrusted message origin")

	// ErrActionFailed marks an executor or callback failure during dispatch.
	ErrActionFailed = errors.New("action execution failed")

	// ErrUnknownAction marks a message type outside the supported set.
	ErrUnknownAction = errors.New("unknown action kind")

	// ErrNotMounted marks an operation against an unknown instance.
	ErrNotMounted = errors.New("instance not mounted")
)
