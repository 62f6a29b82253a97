// Package server provides HTTP server setup and initialization for the
// easel bridge.
//
// This package orchestrates all components:
//   - HTTP routing with Gin framework
//   - Middleware stack (tracing, metrics, CORS, rate limiting, recovery)
//   - Domain wiring (detector, resource store, sandbox host, height
//     negotiator, action dispatcher)
//   - Tool executor selection (outbound endpoint or client round-trip)
//   - Stream handler registration
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger (production or development)
//  3. Build metrics collector and tracer
//  4. Wire domain components and the dispatcher
//  5. Setup HTTP routes and middleware
//  6. Start HTTP server
//  7. Graceful shutdown on signal
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
