package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// MetricsSummary returns a JSON snapshot of bridge counters.
// Prometheus scraping uses the /metrics endpoint instead.
func (h *Handlers) MetricsSummary(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "metrics collection disabled"})
		return
	}

	snap := h.metrics.GetSnapshot()
	c.JSON(http.StatusOK, gin.H{
		"total_requests":      snap.TotalRequests,
		"total_errors":        snap.TotalErrors,
		"active_instances":    snap.ActiveInstances,
		"stored_resources":    snap.StoredResources,
		"active_connections":  snap.ActiveConnections,
		"avg_latency_seconds": h.metrics.AverageLatency(),
		"uptime_seconds":      time.Since(h.started).Seconds(),
	})
}
