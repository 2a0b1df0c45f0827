// Package http implements the REST handlers of the MediaPulse service. It is a
// thin layer between HTTP and the dashboard service: handlers parse and
// validate requests, call a service, and turn service errors into RFC 7807
// problem responses through the shared ErrorHandler.
//
// # Routes
//
//	POST   /api/datasets                          multipart "file" upload
//	GET    /api/datasets/{id}                     dataset summary and ingest report
//	DELETE /api/datasets/{id}                     drop a dataset
//	GET    /api/datasets/{id}/dashboard           all views, ?insights=true adds insights
//	GET    /api/datasets/{id}/charts/{view}       PNG chart of one view
//	GET    /api/datasets/{id}/views/{view}.csv    one view as CSV
//	GET    /api/datasets/{id}/export              XLSX workbook of every view
//
// View routes accept the filter query parameters platform, start and end
// (YYYY-MM-DD). An end date before the start date is rejected.
//
// # Error Mapping
//
//	unknown dataset              404 /errors/dataset/not-found
//	unknown view                 404 /errors/view/not-found
//	view with no rows to chart   404 /errors/view/no-chart-data
//	view missing its fields      409 /errors/view/skipped
//	upload over the size limit   413 /errors/payload-too-large
//	unsupported file extension   415 /errors/input/unsupported-format
//	input that is not a table    422 /errors/input/unparseable
//
// # Testing
//
// Handlers are tested with httptest against a testify mock of the service and
// against the real DashboardService.
package http
