// Package app wires the MediaPulse service together and manages its
// lifecycle.
//
// # Initialization Flow
//
//  1. The caller loads configuration and builds the logger
//  2. OpenTelemetry providers and application metrics are created
//  3. The WebSocket hub starts
//  4. The insight service is built, with a generator only when an API key is set
//  5. The dashboard and health services are created and subscribed to the hub
//  6. The chi router and HTTP server are configured
//
// # Routes
//
//	/ws        WebSocket events (dataset:loaded, insight:ready)
//	/metrics   Prometheus exposition when the prometheus exporter is enabled
//	/api/...   REST API behind the full middleware chain
//
// # Graceful Shutdown
//
// Run returns after SIGINT, SIGTERM, context cancellation or a server error.
// Shutdown drains active requests, closes WebSocket clients and flushes
// telemetry. The package never calls os.Exit.
package app
