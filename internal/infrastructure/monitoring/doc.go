/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the bridge,
tracking HTTP requests, detection outcomes, mount lifecycles, height
negotiation, action dispatch, and WebSocket sessions.

# Features

- HTTP request metrics (latency, throughput, size)
- Detection metrics (matches per strategy, mismatches)
- Store metrics (stored resources, duplicate adds)
- Sandbox metrics (active instances, mounts per kind, render errors)
- Height metrics (samples per source, commits, committed distribution)
- Action metrics (dispatches per kind, drops per reason, tool latency)
- WebSocket connection metrics
- System metrics (uptime)

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record custom metrics
	metrics.RecordDetection(true, "direct")
	metrics.RecordMount("html")

	// Time action dispatch
	timer := monitoring.NewTimer(metrics, "tool")
	// ... dispatch ...
	timer.Stop("ok")

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
