package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/easelhq/easel/internal/api/http"
	"github.com/easelhq/easel/internal/api/middleware"
	"github.com/easelhq/easel/internal/api/ws"
	"github.com/easelhq/easel/internal/domain/action"
	"github.com/easelhq/easel/internal/domain/detect"
	"github.com/easelhq/easel/internal/domain/height"
	"github.com/easelhq/easel/internal/domain/sandbox"
	"github.com/easelhq/easel/internal/domain/store"
	"github.com/easelhq/easel/internal/infrastructure/config"
	"github.com/easelhq/easel/internal/infrastructure/logging"
	"github.com/easelhq/easel/internal/infrastructure/monitoring"
	"github.com/easelhq/easel/internal/infrastructure/tracing"
	"github.com/easelhq/easel/internal/providers/tools"
)

// Server wires the bridge together: detection, the resource store, the
// sandbox host, height negotiation, action dispatch, and the HTTP and
// stream surfaces over them.
type Server struct {
	router     *gin.Engine
	detector   *detect.Detector
	resources  *store.Store
	host       *sandbox.Host
	heights    *height.Negotiator
	dispatcher *action.Dispatcher
	registry   *ws.Registry
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
	tracer     *tracing.Tracer
}

// NewServer creates a fully wired server from configuration.
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logCfg := logging.DefaultConfig()
		logCfg.Level = cfg.Logging.Level
		var err error
		logger, err = logging.New(logCfg)
		if err != nil {
			return nil, fmt.Errorf("logger init: %w", err)
		}
	}

	logger.Info("Initializing easel bridge",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("easel", logger.Logger)

	// Domain components
	detector := detect.New(logger).WithMetrics(metrics)
	resources := store.New(logger).WithMetrics(metrics)
	host := sandbox.New(logger, sandbox.Config{
		MaxDocumentBytes: cfg.Sandbox.MaxDocumentBytes,
		PreflightURIList: cfg.Sandbox.PreflightURIList,
	}).WithMetrics(metrics)
	heights := height.New(logger, height.Options{
		FrameInterval: cfg.Height.FrameInterval(),
		QueueSize:     cfg.Height.QueueSize,
	}).WithMetrics(metrics)

	registry := ws.NewRegistry()

	// Tool calls go to a configured MCP endpoint when one is set,
	// otherwise they round-trip through the connected client.
	var executor action.ToolExecutor
	if cfg.Tools.Endpoint != "" {
		executor = tools.New(logger, cfg.Tools).WithTracer(tracer)
		logger.Info("Tool calls routed to endpoint", zap.String("endpoint", cfg.Tools.Endpoint))
	} else {
		executor = ws.NewClientExecutor(registry, cfg.Tools.Timeout())
		logger.Info("Tool calls routed through connected clients")
	}

	dispatcher := action.New(logger, action.Deps{
		Detector: detector,
		Store:    resources,
		Host:     host,
		Heights:  heights,
		Executor: executor,
		Sink:     ws.NewStreamSink(logger, registry),
	}).WithMetrics(metrics)

	// HTTP surface
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(detector, resources, host, heights, registry).WithMetrics(metrics)
	wsHandler := ws.NewHandler(logger, registry, detector, resources, host, heights, dispatcher).WithMetrics(metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Detection
	router.POST("/detect", handlers.Detect)

	// Resource store
	router.GET("/resources", handlers.ListResources)
	router.GET("/resources/lookup", handlers.GetResource)
	router.DELETE("/resources", handlers.ClearResources)

	// Render instances
	router.GET("/instances", handlers.ListInstances)
	router.GET("/instances/:id", handlers.GetInstance)

	// Sandboxed documents
	router.GET("/sandbox/docs/:handle", handlers.ServeDocument)

	// Stream
	router.GET("/stream", wsHandler.HandleConnection)

	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/metrics/summary", handlers.MetricsSummary)

	logger.Info("Server initialized successfully")

	return &Server{
		router:     router,
		detector:   detector,
		resources:  resources,
		host:       host,
		heights:    heights,
		dispatcher: dispatcher,
		registry:   registry,
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
		tracer:     tracer,
	}, nil
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close gracefully shuts down the server. Sessions go first so their
// instances release, then the dispatcher drains, then height workers
// stop.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.registry.CloseAll()
	s.dispatcher.Close()
	s.heights.Close()

	s.logger.Sync()
	return nil
}
