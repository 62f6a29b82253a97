package types

// ActionKind enumerates the closed set of UI action types.
type ActionKind string

const (
	ActionTool   ActionKind = "tool"
	ActionPrompt ActionKind = "prompt"
	ActionNotify ActionKind = "notify"
	ActionLink   ActionKind = "link"
	ActionIntent ActionKind = "intent"
)

// KnownKind reports whether k belongs to the supported action set.
func KnownKind(k ActionKind) bool {
	switch k {
	case ActionTool, ActionPrompt, ActionNotify, ActionLink, ActionIntent:
		return true
	default:
		return false
	}
}

// UIAction is a user interaction reported from a sandboxed frame.
// Consumed exactly once by dispatch.
type UIAction struct {
	Kind      ActionKind             `json:"kind"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	MessageID string                 `json:"messageId,omitempty"`
}

// FrameEnvelope is the raw message shape posted by sandboxed frames.
// Height reports use Type + Payload; wrapped actions use Type + Action;
// legacy flat actions use Type + Payload + MessageID.
type FrameEnvelope struct {
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Action    *UIAction              `json:"action,omitempty"`
	MessageID string                 `json:"messageId,omitempty"`
}
