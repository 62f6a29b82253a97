package uitools

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/infrastructure/logging"
)

const (
	serverName    = "easel-uitools"
	serverVersion = "0.3.0"
)

// toolSpec pairs a registration with its catalog entry.
type toolSpec struct {
	name        string
	description string
	schema      string
	handler     mcpserver.ToolHandlerFunc
}

// Server is a demo MCP server whose tools answer with embedded UI
// resources. Point any MCP client at it over stdio or SSE and every
// tool call carries a renderable ui:// payload for the bridge.
type Server struct {
	log       *logging.Logger
	templates *TemplateSet
	specs     []toolSpec
	mcp       *mcpserver.MCPServer
}

// NewServer builds the server and registers its tools and resources.
func NewServer(log *logging.Logger, templates *TemplateSet) *Server {
	mcpSrv := mcpserver.NewMCPServer(
		serverName,
		serverVersion,
		mcpserver.WithResourceCapabilities(false, true),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
		mcpserver.WithRecovery(),
	)

	s := &Server{
		log:       log.Component("uitools"),
		templates: templates,
		mcp:       mcpSrv,
	}

	s.specs = []toolSpec{
		{"show_dashboard", "Render a status dashboard with metric cards.", dashboardSchema, s.handleDashboard},
		{"show_form", "Render an input form that submits back through the tool channel.", formSchema, s.handleForm},
		{"show_chart", "Render a bar chart from labeled numeric points.", chartSchema, s.handleChart},
		{"open_docs", "Return a link resource the host opens in its browser.", openDocsSchema, s.handleOpenDocs},
		{"remote_counter", "Render a script-driven counter component.", counterSchema, s.handleCounter},
		{"submit_form", "Accept form fields and render a receipt.", submitFormSchema, s.handleSubmitForm},
	}
	for _, spec := range s.specs {
		tool := mcp.NewToolWithRawSchema(spec.name, spec.description, json.RawMessage(spec.schema))
		s.mcp.AddTool(tool, spec.handler)
	}
	s.registerAbout()

	s.log.Info("demo server ready",
		zap.Int("tools", len(s.specs)),
		zap.Strings("templates", templates.Names()))
	return s
}

// Start serves over stdio, the default for CLI-hosted MCP clients.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("serving over stdio")
	stdio := mcpserver.NewStdioServer(s.mcp)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// StartSSE serves over HTTP with SSE endpoints until ctx is canceled.
func (s *Server) StartSSE(ctx context.Context, port int) error {
	sseServer := mcpserver.NewSSEServer(s.mcp,
		mcpserver.WithBaseURL("http://localhost:"+strconv.Itoa(port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    ":" + strconv.Itoa(port),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.Info("serving over SSE", zap.Int("port", port))

	select {
	case <-ctx.Done():
		s.log.Info("SSE server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// registerAbout exposes a catalog resource so clients can discover the
// demo surface without calling anything.
func (s *Server) registerAbout() {
	about := mcp.NewResource(
		"easel://uitools/about",
		"About UI Tools",
		mcp.WithMIMEType("application/json"),
		mcp.WithResourceDescription("Server identity and tool catalog."),
	)
	s.mcp.AddResource(about, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		catalog := make([]map[string]string, 0, len(s.specs))
		for _, spec := range s.specs {
			catalog = append(catalog, map[string]string{
				"name":        spec.name,
				"description": spec.description,
			})
		}
		body, err := json.MarshalIndent(map[string]interface{}{
			"name":    serverName,
			"version": serverVersion,
			"tools":   catalog,
		}, "", "  ")
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(body),
			},
		}, nil
	})
}
