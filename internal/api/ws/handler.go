package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/domain/action"
	"github.com/easelhq/easel/internal/domain/detect"
	"github.com/easelhq/easel/internal/domain/height"
	"github.com/easelhq/easel/internal/domain/sandbox"
	"github.com/easelhq/easel/internal/domain/store"
	"github.com/easelhq/easel/internal/infrastructure/logging"
	"github.com/easelhq/easel/internal/infrastructure/monitoring"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Frontends connect from arbitrary app origins; trust boundaries
		// are enforced per instance, not per connection.
		return true
	},
}

// Handler upgrades stream connections and runs their sessions.
type Handler struct {
	log     *logging.Logger
	metrics *monitoring.Metrics

	detector   *detect.Detector
	store      *store.Store
	host       *sandbox.Host
	heights    *height.Negotiator
	dispatcher *action.Dispatcher
	registry   *Registry
}

// NewHandler creates a stream handler.
func NewHandler(
	log *logging.Logger,
	registry *Registry,
	detector *detect.Detector,
	resources *store.Store,
	host *sandbox.Host,
	heights *height.Negotiator,
	dispatcher *action.Dispatcher,
) *Handler {
	return &Handler{
		log:        log.Component("ws"),
		registry:   registry,
		detector:   detector,
		store:      resources,
		host:       host,
		heights:    heights,
		dispatcher: dispatcher,
	}
}

// WithMetrics attaches metrics collection
func (h *Handler) WithMetrics(m *monitoring.Metrics) *Handler {
	h.metrics = m
	return h
}

// HandleConnection upgrades the request and serves the session until the
// client disconnects.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("stream upgrade failed", zap.Error(err))
		return
	}

	sess := newSession(conn, h)
	h.registry.add(sess)
	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
	h.log.Info("client connected", zap.String("client_id", sess.id.String()))

	sess.push(map[string]interface{}{
		"type":      "system",
		"message":   "connected to easel bridge",
		"client_id": sess.id.String(),
		"timestamp": time.Now().Unix(),
	})

	go sess.writer()
	sess.reader(c.Request.Context())
}
