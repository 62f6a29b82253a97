package ws

import (
	"time"

	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/infrastructure/logging"
	"github.com/easelhq/easel/internal/shared/id"
	"github.com/easelhq/easel/internal/shared/types"
)

// StreamSink delivers dispatcher output to the owning client's stream.
// It is the production action.ActionSink: fire-and-forget actions and
// non-UI tool results become commands on the session that reported them.
type StreamSink struct {
	log      *logging.Logger
	registry *Registry
}

// NewStreamSink creates a sink backed by the session registry.
func NewStreamSink(log *logging.Logger, registry *Registry) *StreamSink {
	return &StreamSink{log: log.Component("sink"), registry: registry}
}

// Deliver implements action.ActionSink.
func (k *StreamSink) Deliver(clientID id.ClientID, instID id.InstanceID, act types.UIAction) {
	sess, ok := k.registry.Get(clientID)
	if !ok {
		k.log.Debug("action for disconnected client",
			zap.String("client_id", clientID.String()),
			zap.String("kind", string(act.Kind)))
		return
	}
	sess.push(map[string]interface{}{
		"type":        "action",
		"instance_id": instID.String(),
		"kind":        string(act.Kind),
		"payload":     act.Payload,
		"message_id":  act.MessageID,
		"timestamp":   time.Now().Unix(),
	})
}

// ToolResult implements action.ActionSink.
func (k *StreamSink) ToolResult(clientID id.ClientID, instID id.InstanceID, messageID, output string) {
	sess, ok := k.registry.Get(clientID)
	if !ok {
		k.log.Debug("tool result for disconnected client",
			zap.String("client_id", clientID.String()))
		return
	}
	sess.push(map[string]interface{}{
		"type":        "tool_text",
		"instance_id": instID.String(),
		"message_id":  messageID,
		"output":      output,
		"timestamp":   time.Now().Unix(),
	})
}
