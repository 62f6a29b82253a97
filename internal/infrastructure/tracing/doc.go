/*
Package tracing provides request tracing for debugging production issues.

# Overview

This package implements lightweight tracing to track a request from the
bridge API through outbound tool executions. It follows OpenTelemetry
concepts but with a minimal implementation tailored to the system's needs.

# Features

- Trace context propagation via HTTP headers
- Span creation and management with parent-child relationships
- Automatic trace ID generation
- HTTP middleware for automatic instrumentation
- Structured logging integration
- Low overhead with buffered span collection

# Usage

	// Create tracer
	tracer := tracing.New("easel", logger)

	// HTTP middleware
	router.Use(tracing.HTTPMiddleware(tracer))

	// Manual span creation
	span, ctx := tracer.StartSpan(ctx, "tool.execute")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

	span.SetTag("tool", name)

	// Propagate into an outbound request
	headers := map[string]string{}
	tracing.InjectTraceContext(ctx, headers)

# Trace Format

Traces use standard HTTP headers for propagation:
- X-Trace-ID: Unique identifier for entire request flow
- X-Span-ID: Identifier for current operation

# Performance

The tracing system is designed for minimal overhead:
- Buffered span collection (1000 spans)
- Async span processing
- Structured logging integration
- No external dependencies
*/
package tracing
