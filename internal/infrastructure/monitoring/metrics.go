package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Detection metrics
	DetectionsTotal    *prometheus.CounterVec
	DetectionStrategy  *prometheus.CounterVec

	// Store metrics
	ResourcesStored    prometheus.Gauge
	ResourcesAdded     prometheus.Counter
	ResourcesDuplicate prometheus.Counter

	// Sandbox metrics
	InstancesActive prometheus.Gauge
	MountsTotal     *prometheus.CounterVec
	RenderErrors    prometheus.Counter
	ProbeFallbacks  prometheus.Counter
	DocsServed      prometheus.Counter

	// Height metrics
	HeightSamples   *prometheus.CounterVec
	HeightCommits   prometheus.Counter
	CommittedHeight prometheus.Histogram

	// Action metrics
	ActionsTotal     *prometheus.CounterVec
	ActionsDropped   *prometheus.CounterVec
	ToolCallDuration prometheus.Histogram

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values for the JSON summary API
type Snapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActiveInstances   int64   `json:"active_instances"`
	StoredResources   int64   `json:"stored_resources"`
	ActiveConnections int64   `json:"active_connections"`
	TotalDuration     float64 `json:"-"`
	RequestCount      int64   `json:"-"`
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easel_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "easel_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "easel_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "easel_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Detection metrics
		DetectionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easel_detections_total",
				Help: "Total number of detection attempts",
			},
			[]string{"outcome"},
		),
		DetectionStrategy: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easel_detection_strategy_total",
				Help: "Matches per detection strategy",
			},
			[]string{"strategy"},
		),

		// Store metrics
		ResourcesStored: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "easel_resources_stored",
				Help: "Number of resources currently stored",
			},
		),
		ResourcesAdded: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "easel_resources_added_total",
				Help: "Total number of resources stored",
			},
		),
		ResourcesDuplicate: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "easel_resources_duplicate_total",
				Help: "Total number of duplicate adds ignored",
			},
		),

		// Sandbox metrics
		InstancesActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "easel_instances_active",
				Help: "Number of mounted render instances",
			},
		),
		MountsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easel_mounts_total",
				Help: "Total number of mounts",
			},
			[]string{"kind"},
		),
		RenderErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "easel_render_errors_total",
				Help: "Total number of render errors",
			},
		),
		ProbeFallbacks: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "easel_probe_fallbacks_total",
				Help: "Total number of mounts rendered at fallback height",
			},
		),
		DocsServed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "easel_sandbox_docs_served_total",
				Help: "Total number of sandbox document fetches",
			},
		),

		// Height metrics
		HeightSamples: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easel_height_samples_total",
				Help: "Total number of height samples observed",
			},
			[]string{"source"},
		),
		HeightCommits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "easel_height_commits_total",
				Help: "Total number of committed height changes",
			},
		),
		CommittedHeight: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "easel_committed_height_pixels",
				Help:    "Distribution of committed frame heights",
				Buckets: []float64{150, 300, 600, 900, 1200, 2000, 4000, 8000},
			},
		),

		// Action metrics
		ActionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easel_actions_total",
				Help: "Total number of dispatched actions",
			},
			[]string{"kind", "status"},
		),
		ActionsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easel_actions_dropped_total",
				Help: "Total number of dropped frame messages",
			},
			[]string{"reason"},
		),
		ToolCallDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "easel_tool_call_duration_seconds",
				Help:    "Tool executor round-trip duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),

		// WebSocket metrics
		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "easel_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easel_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "easel_uptime_seconds",
				Help: "Bridge uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordDetection records a detection attempt outcome
func (m *Metrics) RecordDetection(matched bool, strategy string) {
	outcome := "mismatch"
	if matched {
		outcome = "matched"
		m.DetectionStrategy.WithLabelValues(strategy).Inc()
	}
	m.DetectionsTotal.WithLabelValues(outcome).Inc()
}

// RecordAdd records a store add attempt
func (m *Metrics) RecordAdd(stored bool, total int) {
	if stored {
		m.ResourcesAdded.Inc()
	} else {
		m.ResourcesDuplicate.Inc()
	}
	m.SetResourcesStored(total)
}

// SetResourcesStored sets the stored resource gauge
func (m *Metrics) SetResourcesStored(count int) {
	m.ResourcesStored.Set(float64(count))
	m.mu.Lock()
	m.snapshot.StoredResources = int64(count)
	m.mu.Unlock()
}

// RecordMount records a mount by content kind
func (m *Metrics) RecordMount(kind string) {
	m.MountsTotal.WithLabelValues(kind).Inc()
}

// SetInstancesActive sets the mounted instance gauge
func (m *Metrics) SetInstancesActive(count int) {
	m.InstancesActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveInstances = int64(count)
	m.mu.Unlock()
}

// RecordRenderError records a render error teardown
func (m *Metrics) RecordRenderError() {
	m.RenderErrors.Inc()
}

// RecordProbeFallback records a mount that fell back to the default height
func (m *Metrics) RecordProbeFallback() {
	m.ProbeFallbacks.Inc()
}

// RecordDocServed records a sandbox document fetch
func (m *Metrics) RecordDocServed() {
	m.DocsServed.Inc()
}

// RecordHeightSample records an observed height sample
func (m *Metrics) RecordHeightSample(source string) {
	m.HeightSamples.WithLabelValues(source).Inc()
}

// RecordHeightCommit records a committed height change
func (m *Metrics) RecordHeightCommit(height float64) {
	m.HeightCommits.Inc()
	m.CommittedHeight.Observe(height)
}

// RecordAction records a dispatched action outcome
func (m *Metrics) RecordAction(kind, status string) {
	m.ActionsTotal.WithLabelValues(kind, status).Inc()
}

// RecordDrop records a dropped frame message
func (m *Metrics) RecordDrop(reason string) {
	m.ActionsDropped.WithLabelValues(reason).Inc()
}

// RecordToolCall records a tool executor round-trip
func (m *Metrics) RecordToolCall(duration time.Duration) {
	m.ToolCallDuration.Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// GetSnapshot returns a copy of the current snapshot values
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// AverageLatency returns the mean request duration in seconds
func (m *Metrics) AverageLatency() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snapshot.RequestCount == 0 {
		return 0
	}
	return m.snapshot.TotalDuration / float64(m.snapshot.RequestCount)
}
