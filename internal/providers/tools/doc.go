// Package tools provides the HTTP tool executor for server-side dispatch.
//
// When a frame posts a tool action, the dispatcher hands it to an
// executor. This package implements the executor for deployments with
// an MCP tools endpoint reachable over HTTP: calls go out as JSON-RPC
// tools/call requests and the raw result JSON comes back for
// re-detection.
//
// Built on go-resty/resty and hashicorp/go-retryablehttp:
//   - Automatic retries with exponential backoff
//   - Per-endpoint circuit breaker
//   - Token bucket rate limiting
//   - Trace header propagation
//
// Example Usage:
//
//	exec := tools.New(logger, cfg.Tools).WithTracer(tracer)
//	out, err := exec.Execute(ctx, clientID, action)
package tools
