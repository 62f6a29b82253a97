package types

import "encoding/json"

// Frame message types posted by sandboxed documents. Height reports are
// accepted under three historical aliases; the injected probe emits the
// canonical ui-size-change form.
const (
	FrameTypeSizeChange   = "ui-size-change"
	FrameTypeHeightUpdate = "mcp-ui-height-update"
	FrameTypeSize         = "mcp-ui:size"
	FrameTypeAction       = "mcp-ui-action"
)

// HeightAlias reports whether t is one of the accepted height report types.
func HeightAlias(t string) bool {
	switch t {
	case FrameTypeSizeChange, FrameTypeHeightUpdate, FrameTypeSize:
		return true
	default:
		return false
	}
}

// Client message types accepted on the stream.
const (
	MsgToolOutput  = "tool_output"
	MsgMount       = "mount"
	MsgUnmount     = "unmount"
	MsgFrameMsg    = "frame_message"
	MsgFrameResize = "frame_resize"
	MsgFrameLoaded = "frame_loaded"
	MsgToolResult  = "tool_result"
	MsgPing        = "ping"
)

// ClientMessage is a frame sent by the connected frontend over the stream.
// Fields are populated per message type.
type ClientMessage struct {
	Type       string          `json:"type"`
	Text       string          `json:"text,omitempty"`
	URI        string          `json:"uri,omitempty"`
	InstanceID string          `json:"instance_id,omitempty"`
	Height     float64         `json:"height,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
	Output     string          `json:"output,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// DetectRequest is the HTTP body for direct detection.
type DetectRequest struct {
	Text string `json:"text" binding:"required"`
}

// DetectResponse reports detection results for a raw tool output.
type DetectResponse struct {
	Matched   bool           `json:"matched"`
	Resources []ResourceMeta `json:"resources,omitempty"`
}
