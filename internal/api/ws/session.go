package ws

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/domain/sandbox"
	"github.com/easelhq/easel/internal/shared/id"
	"github.com/easelhq/easel/internal/shared/types"
)

const (
	// writeWait bounds a single outbound write.
	writeWait = 10 * time.Second
	// pongWait is how long the peer may stay silent.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize admits tool outputs up to the document size limit.
	maxMessageSize = 16 << 20
	// sendQueueSize buffers outbound commands per session.
	sendQueueSize = 256
)

// Session is one connected frontend stream. It implements the sandbox
// Surface and the dispatcher Notifier, pushing lifecycle commands onto a
// single writer goroutine.
type Session struct {
	id      id.ClientID
	conn    *websocket.Conn
	handler *Handler

	send chan map[string]interface{}
	quit chan struct{}
	once sync.Once

	pendingMu sync.Mutex
	pending   map[id.RequestID]chan types.ClientMessage
}

func newSession(conn *websocket.Conn, h *Handler) *Session {
	return &Session{
		id:      id.NewClientID(),
		conn:    conn,
		handler: h,
		send:    make(chan map[string]interface{}, sendQueueSize),
		quit:    make(chan struct{}),
		pending: make(map[id.RequestID]chan types.ClientMessage),
	}
}

// ID returns the session's client ID.
func (s *Session) ID() id.ClientID {
	return s.id
}

// reader consumes client messages until the connection drops.
func (s *Session) reader(ctx context.Context) {
	defer s.close()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg types.ClientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				s.handler.log.Warn("stream read error",
					zap.String("client_id", s.id.String()),
					zap.Error(err))
			}
			return
		}
		if s.handler.metrics != nil {
			s.handler.metrics.RecordWSMessage("in", msg.Type)
		}
		s.handle(ctx, msg)
	}
}

// writer owns the connection for writes: queued commands plus keepalive
// pings.
func (s *Session) writer() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.quit:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case cmd := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(cmd); err != nil {
				return
			}
			if s.handler.metrics != nil {
				if t, ok := cmd["type"].(string); ok {
					s.handler.metrics.RecordWSMessage("out", t)
				}
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) handle(ctx context.Context, msg types.ClientMessage) {
	switch msg.Type {
	case types.MsgToolOutput:
		s.handleToolOutput(msg)
	case types.MsgMount:
		s.handleMount(ctx, msg)
	case types.MsgUnmount:
		s.handleUnmount(msg)
	case types.MsgFrameMsg:
		s.handler.dispatcher.Dispatch(ctx, s.id, id.InstanceID(msg.InstanceID), msg.Data, s)
	case types.MsgFrameResize:
		s.handler.dispatcher.ObserveResize(s.id, id.InstanceID(msg.InstanceID), msg.Height)
	case types.MsgFrameLoaded:
		if s.handler.host.Tracks(id.InstanceID(msg.InstanceID), s.id) {
			s.handler.host.MarkLoaded(id.InstanceID(msg.InstanceID))
		}
	case types.MsgToolResult:
		s.handleToolResult(msg)
	case types.MsgPing:
		s.push(map[string]interface{}{"type": "pong", "timestamp": time.Now().Unix()})
	default:
		s.pushError("unknown message type: " + msg.Type)
	}
}

// handleToolOutput detects embedded resources in raw tool output. Every
// match is stored and announced; anything else stays silent.
func (s *Session) handleToolOutput(msg types.ClientMessage) {
	for _, res := range s.handler.detector.DetectAll(msg.Text) {
		s.handler.store.Add(res)
		s.push(map[string]interface{}{
			"type":      "resource",
			"uri":       res.URI,
			"name":      res.Name,
			"mimeType":  string(res.MimeType),
			"size":      len(res.Text),
			"timestamp": time.Now().Unix(),
		})
	}
}

func (s *Session) handleMount(ctx context.Context, msg types.ClientMessage) {
	res, ok := s.handler.store.Get(msg.URI)
	if !ok {
		s.pushError("unknown resource uri: " + msg.URI)
		return
	}

	inst, err := s.handler.host.Mount(ctx, res, s.id, s)
	if err != nil {
		// The host already surfaced the render error.
		return
	}
	instID := inst.ID
	s.handler.heights.Track(instID, inst.Height, func(h float64) {
		s.HeightCommitted(instID, h)
	})
}

func (s *Session) handleUnmount(msg types.ClientMessage) {
	instID := id.InstanceID(msg.InstanceID)
	if !s.handler.host.Tracks(instID, s.id) {
		s.pushError("unknown instance: " + msg.InstanceID)
		return
	}
	s.handler.host.Unmount(instID)
	s.handler.heights.Release(instID)
}

func (s *Session) handleToolResult(msg types.ClientMessage) {
	s.pendingMu.Lock()
	ch, ok := s.pending[id.RequestID(msg.RequestID)]
	s.pendingMu.Unlock()
	if !ok {
		s.handler.log.Debug("tool result for unknown request",
			zap.String("client_id", s.id.String()),
			zap.String("request_id", msg.RequestID))
		return
	}
	select {
	case ch <- msg:
	default:
	}
}

// ExecuteTool pushes an execute_tool command to the client and awaits the
// matching tool_result.
func (s *Session) ExecuteTool(ctx context.Context, act types.UIAction, timeout time.Duration) (string, error) {
	toolName, _ := act.Payload["toolName"].(string)
	if toolName == "" {
		return "", fmt.Errorf("tool action without a toolName")
	}

	reqID := id.NewRequestID()
	ch := make(chan types.ClientMessage, 1)
	s.pendingMu.Lock()
	s.pending[reqID] = ch
	s.pendingMu.Unlock()
	defer func() {
		s.pendingMu.Lock()
		delete(s.pending, reqID)
		s.pendingMu.Unlock()
	}()

	s.push(map[string]interface{}{
		"type":       "execute_tool",
		"request_id": reqID.String(),
		"tool":       toolName,
		"params":     act.Payload["params"],
		"message_id": act.MessageID,
		"timestamp":  time.Now().Unix(),
	})

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-ch:
		if res.Error != "" {
			return "", fmt.Errorf("client tool execution: %s", res.Error)
		}
		return res.Output, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", fmt.Errorf("tool call %s timed out after %s", reqID, timeout)
	case <-s.quit:
		return "", fmt.Errorf("client %s disconnected", s.id)
	}
}

// ============================================================================
// Surface and Notifier
// ============================================================================

// Mounted implements sandbox.Surface.
func (s *Session) Mounted(m sandbox.Mount) {
	s.push(map[string]interface{}{
		"type":        "mounted",
		"instance_id": m.InstanceID.String(),
		"uri":         m.URI,
		"name":        m.Name,
		"kind":        string(m.Kind),
		"src":         m.Src,
		"sandbox":     m.Sandbox,
		"height":      m.Height,
		"remount":     m.Remount,
		"timestamp":   time.Now().Unix(),
	})
}

// RenderError implements sandbox.Surface.
func (s *Session) RenderError(instID id.InstanceID, message string) {
	s.push(map[string]interface{}{
		"type":        "render_error",
		"instance_id": instID.String(),
		"message":     message,
		"timestamp":   time.Now().Unix(),
	})
}

// Unmounted implements sandbox.Surface.
func (s *Session) Unmounted(instID id.InstanceID) {
	s.push(map[string]interface{}{
		"type":        "unmounted",
		"instance_id": instID.String(),
		"timestamp":   time.Now().Unix(),
	})
}

// ActionFailed implements action.Notifier.
func (s *Session) ActionFailed(instID id.InstanceID, messageID, reason string) {
	s.push(map[string]interface{}{
		"type":        "action_failed",
		"instance_id": instID.String(),
		"message_id":  messageID,
		"reason":      reason,
		"timestamp":   time.Now().Unix(),
	})
}

// HeightCommitted pushes a committed height to the client.
func (s *Session) HeightCommitted(instID id.InstanceID, height float64) {
	s.push(map[string]interface{}{
		"type":        "height",
		"instance_id": instID.String(),
		"height":      height,
		"timestamp":   time.Now().Unix(),
	})
}

// ============================================================================
// Internals
// ============================================================================

// push queues a command without blocking. A full queue means the client
// stopped reading; the command is dropped and the writer's next failure
// closes the session.
func (s *Session) push(cmd map[string]interface{}) {
	select {
	case <-s.quit:
	case s.send <- cmd:
	default:
		s.handler.log.Warn("outbound queue full, dropping command",
			zap.String("client_id", s.id.String()),
			zap.Any("type", cmd["type"]))
	}
}

func (s *Session) pushError(message string) {
	s.push(map[string]interface{}{
		"type":      "error",
		"message":   message,
		"timestamp": time.Now().Unix(),
	})
}

// close tears the session down exactly once: instances, height workers,
// pending calls, registry entry, connection.
func (s *Session) close() {
	s.once.Do(func() {
		close(s.quit)
		s.handler.registry.remove(s.id)
		for _, instID := range s.handler.host.CloseClient(s.id) {
			s.handler.heights.Release(instID)
		}
		s.conn.Close()
		if s.handler.metrics != nil {
			s.handler.metrics.DecWSConnections()
		}
		s.handler.log.Info("client disconnected", zap.String("client_id", s.id.String()))
	})
}
