package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/easelhq/easel/internal/infrastructure/config"
	"github.com/easelhq/easel/internal/infrastructure/logging"
	"github.com/easelhq/easel/internal/infrastructure/resilience"
	"github.com/easelhq/easel/internal/infrastructure/tracing"
	"github.com/easelhq/easel/internal/shared/id"
	"github.com/easelhq/easel/internal/shared/types"
)

// Executor calls an MCP tools endpoint over HTTP JSON-RPC.
// It implements the dispatcher's ToolExecutor seam for deployments
// where tool execution happens server side instead of in the client.
type Executor struct {
	log      *logging.Logger
	tracer   *tracing.Tracer
	client   *resty.Client
	limiter  *rate.Limiter
	breaker  *resilience.Breaker
	endpoint string
}

// rpcRequest is a JSON-RPC 2.0 tools/call request.
type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      string    `json:"id"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
}

type rpcParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// rpcResponse keeps result bytes raw so detection sees them unchanged.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// callResult probes only the fields needed to spot tool-level failures.
type callResult struct {
	IsError bool          `json:"isError,omitempty"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// New creates a tool executor for the configured endpoint.
func New(log *logging.Logger, cfg config.ToolsConfig) *Executor {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	client := resty.New().
		SetTimeout(cfg.Timeout()).
		SetHeader("User-Agent", "easel-tools/1.0").
		SetHeader("Content-Type", "application/json").
		SetTransport(&retryablehttp.RoundTripper{Client: retryClient})
	client.JSONMarshal = sonic.Marshal
	client.JSONUnmarshal = sonic.Unmarshal

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestsPerSecond)
	}

	logger := log.Component("tools")
	breaker := resilience.New("tools-endpoint", resilience.Settings{
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			// Tool backends vary in reliability. Trip on 10+ consecutive
			// failures or a >70% failure rate across 20+ requests.
			return counts.ConsecutiveFailures >= 10 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.7)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("tool endpoint breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Executor{
		log:      logger,
		client:   client,
		limiter:  limiter,
		breaker:  breaker,
		endpoint: cfg.Endpoint,
	}
}

// WithTracer attaches a tracer for outbound propagation.
func (e *Executor) WithTracer(t *tracing.Tracer) *Executor {
	e.tracer = t
	return e
}

// BreakerState exposes the current circuit state for health reporting.
func (e *Executor) BreakerState() resilience.State {
	return e.breaker.State()
}

// Execute runs one tool call and returns the raw result JSON.
// The caller re-runs detection over the output, so resources embedded
// in the result content survive the round trip untouched.
func (e *Executor) Execute(ctx context.Context, clientID id.ClientID, action types.UIAction) (string, error) {
	toolName, _ := action.Payload["toolName"].(string)
	if toolName == "" {
		return "", fmt.Errorf("tool action missing toolName: %w", types.ErrMalformedPayload)
	}

	if e.tracer != nil {
		var span *tracing.Span
		span, ctx = e.tracer.StartSpan(ctx, "tool.execute")
		span.SetTag("tool", toolName)
		span.SetTag("client_id", clientID.String())
		defer func() {
			span.Finish()
			e.tracer.Submit(span)
		}()
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("tool rate limit: %w", err)
	}

	result, err := e.breaker.ExecuteContext(ctx, func() (interface{}, error) {
		return e.call(ctx, toolName, action)
	})
	if err == resilience.ErrCircuitOpen {
		return "", fmt.Errorf("tool endpoint unavailable: circuit breaker open")
	}
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// call performs the JSON-RPC round trip under the breaker.
func (e *Executor) call(ctx context.Context, toolName string, action types.UIAction) (string, error) {
	args, _ := action.Payload["params"].(map[string]interface{})

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      id.NewRequestID().String(),
		Method:  "tools/call",
		Params:  rpcParams{Name: toolName, Arguments: args},
	}

	headers := map[string]string{}
	tracing.InjectTraceContext(ctx, headers)

	var out rpcResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(req).
		SetResult(&out).
		Post(e.endpoint)
	if err != nil {
		return "", fmt.Errorf("tool call %q: %w", toolName, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("tool call %q: endpoint returned %s", toolName, resp.Status())
	}
	if out.Error != nil {
		return "", fmt.Errorf("tool call %q: %s (code %d)", toolName, out.Error.Message, out.Error.Code)
	}
	if len(out.Result) == 0 {
		return "", fmt.Errorf("tool call %q: empty result", toolName)
	}

	var probe callResult
	if err := sonic.Unmarshal(out.Result, &probe); err == nil && probe.IsError {
		detail := "tool reported an error"
		for _, part := range probe.Content {
			if part.Type == "text" && part.Text != "" {
				detail = part.Text
				break
			}
		}
		return "", fmt.Errorf("tool call %q: %s", toolName, detail)
	}

	e.log.Debug("tool call completed",
		zap.String("tool", toolName),
		zap.Int("result_bytes", len(out.Result)))
	return string(out.Result), nil
}
