// Package http provides HTTP handlers for the easel bridge REST API.
//
// This package implements all HTTP endpoints using the Gin framework,
// including health checks, detection, resource inspection, instance
// inspection, and sandbox document serving.
//
// Endpoints:
//   - Health: / and /health
//   - Detection: POST /detect
//   - Resources: GET /resources, GET /resources/lookup, DELETE /resources
//   - Instances: GET /instances, GET /instances/:id
//   - Documents: GET /sandbox/docs/:handle
//   - Metrics: GET /metrics/summary
//
// Features:
//   - JSON request/response handling
//   - Proper HTTP status codes
//   - Error response formatting
//   - Sandbox document headers (CSP, referrer policy, no-store)
//
// Example Usage:
//
//	handlers := http.NewHandlers(detector, resources, host, heights, registry)
//	router.GET("/health", handlers.Health)
//	router.POST("/detect", handlers.Detect)
package http
