// Package types provides shared data structures for the easel bridge.
//
// This package defines core types used across all bridge components,
// ensuring type safety and consistent wire shapes.
//
// Core Types:
//   - UIResource: Renderable UI fragment keyed by ui:// URI
//   - MimeType, MimeKind: Content type and its rendering strategy
//   - UIAction: Typed user interaction from a sandboxed frame
//   - HeightSample: Height observation feeding negotiation
//   - FrameEnvelope: Raw postMessage shape relayed from frames
//
// Wire Types:
//   - ClientMessage: Frontend stream frames
//   - DetectRequest, DetectResponse: Direct detection API
//   - ResourceMeta: Stored resource summary
//
// Error Classes:
//   - ErrMalformedPayload: Unrenderable resource text
//   - ErrMeasurementDenied: Probe injection impossible
//   - ErrUntrustedOrigin: Frame message from untracked instance
//   - ErrActionFailed: Executor or callback failure
//
// Example Usage:
//
//	res := types.UIResource{
//	    URI:      "ui://dashboard/1",
//	    MimeType: types.MimeHTML,
//	    Text:     "<html>...</html>",
//	}
//	if res.Valid() {
//	    store.Add(res)
//	}
package types
