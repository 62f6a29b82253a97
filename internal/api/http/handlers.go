package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/easelhq/easel/internal/api/ws"
	"github.com/easelhq/easel/internal/domain/detect"
	"github.com/easelhq/easel/internal/domain/height"
	"github.com/easelhq/easel/internal/domain/sandbox"
	"github.com/easelhq/easel/internal/domain/store"
	"github.com/easelhq/easel/internal/infrastructure/monitoring"
	"github.com/easelhq/easel/internal/shared/id"
	"github.com/easelhq/easel/internal/shared/types"
)

// Version is the bridge release reported by the info endpoints.
const Version = "0.3.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	detector  *detect.Detector
	resources *store.Store
	host      *sandbox.Host
	heights   *height.Negotiator
	registry  *ws.Registry
	metrics   *monitoring.Metrics
	started   time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(
	detector *detect.Detector,
	resources *store.Store,
	host *sandbox.Host,
	heights *height.Negotiator,
	registry *ws.Registry,
) *Handlers {
	return &Handlers{
		detector:  detector,
		resources: resources,
		host:      host,
		heights:   heights,
		registry:  registry,
		started:   time.Now(),
	}
}

// WithMetrics attaches a metrics collector for the summary endpoint.
func (h *Handlers) WithMetrics(m *monitoring.Metrics) *Handlers {
	h.metrics = m
	return h
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "easel bridge",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"resources": gin.H{
			"stored": h.resources.Len(),
		},
		"instances": gin.H{
			"mounted":   h.host.Count(),
			"documents": h.host.DocumentCount(),
		},
		"clients": gin.H{
			"connected": h.registry.Count(),
		},
		"uptime_seconds": time.Since(h.started).Seconds(),
	})
}

// Detect runs resource detection over a raw tool output without storing
func (h *Handlers) Detect(c *gin.Context) {
	var req types.DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	found := h.detector.DetectAll(req.Text)
	resp := types.DetectResponse{Matched: len(found) > 0}
	for _, res := range found {
		resp.Resources = append(resp.Resources, types.ResourceMeta{
			URI:      res.URI,
			Name:     res.Name,
			MimeType: res.MimeType,
			Size:     len(res.Text),
		})
	}

	c.JSON(http.StatusOK, resp)
}

// ListResources lists stored resource metadata in arrival order
func (h *Handlers) ListResources(c *gin.Context) {
	metas := h.resources.Snapshot()

	c.JSON(http.StatusOK, gin.H{
		"resources": metas,
		"count":     len(metas),
	})
}

// GetResource returns a stored resource looked up by uri query param.
// URIs carry slashes, so they travel as a query value rather than a
// path segment.
func (h *Handlers) GetResource(c *gin.Context) {
	uri := c.Query("uri")
	if !types.ValidURI(uri) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uri must use the ui:// scheme"})
		return
	}

	if c.Query("include") == "text" {
		res, ok := h.resources.Get(uri)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
			return
		}
		c.JSON(http.StatusOK, res)
		return
	}

	meta, ok := h.resources.Meta(uri)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
		return
	}
	c.JSON(http.StatusOK, meta)
}

// ClearResources drops every stored resource
func (h *Handlers) ClearResources(c *gin.Context) {
	count := h.resources.Len()
	h.resources.Clear()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"cleared": count,
	})
}

// ListInstances lists mounted render instances
func (h *Handlers) ListInstances(c *gin.Context) {
	instances := h.host.List()

	out := make([]gin.H, 0, len(instances))
	for _, inst := range instances {
		out = append(out, h.instanceJSON(inst))
	}

	c.JSON(http.StatusOK, gin.H{
		"instances": out,
		"count":     len(out),
	})
}

// GetInstance returns one mounted instance by id
func (h *Handlers) GetInstance(c *gin.Context) {
	instID := c.Param("id")
	if !id.HasPrefix(instID, id.InstancePrefix) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed instance id"})
		return
	}

	inst, ok := h.host.Get(id.InstanceID(instID))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "instance not found"})
		return
	}

	c.JSON(http.StatusOK, h.instanceJSON(inst))
}

// instanceJSON renders an instance with its current committed height.
func (h *Handlers) instanceJSON(inst sandbox.RenderInstance) gin.H {
	heightNow := inst.Height
	if committed, ok := h.heights.Committed(inst.ID); ok {
		heightNow = committed
	}

	return gin.H{
		"instance_id": inst.ID.String(),
		"client_id":   inst.ClientID.String(),
		"uri":         inst.ResourceURI,
		"name":        inst.Name,
		"kind":        string(inst.Kind),
		"src":         inst.Src,
		"height":      heightNow,
		"probed":      inst.Probed,
		"loaded":      inst.Loaded,
		"mounted_at":  inst.MountedAt.Unix(),
	}
}
