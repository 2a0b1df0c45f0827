// Package services implements the business logic layer of MediaPulse.
// It sits between the HTTP handlers and the ingestion, pipeline, insight,
// chart and export packages, so handlers never touch datasets directly.
//
// # Architecture
//
// Services follow these principles:
//
//  1. Interface-driven collaborators for testability
//  2. Context propagation for cancellation and tracing
//  3. Dependency injection of loggers, event sinks and recorders
//
// # Available Services
//
//   - DashboardService: dataset uploads, dashboards, charts and exports
//   - HealthService: health, readiness and liveness checks
//
// # Datasets
//
// Uploaded datasets live in an in-memory session store with a TTL. Uploads are
// memoized by content: sending the same bytes again while the dataset is live
// returns the existing dataset instead of ingesting it twice.
//
//	summary, err := svc.Upload(ctx, "export.csv", file)
//	dash, err := svc.Dashboard(ctx, summary.ID, domain.FilterSelection{Platform: "X"}, true)
//
// # Error Handling
//
// Services return sentinel errors (ErrDatasetNotFound, ErrViewSkipped, ...)
// wrapped with context. Ingestion failures surface as *ingest.ParseError. The
// transport layer maps both onto problem responses.
package services
