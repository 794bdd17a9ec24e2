// Package http implements the HTTP handlers of `fishstat serve`. Handlers
// stay thin: they parse the request, call a service and render the
// result, leaving every rule about the data to the services package.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Pipeline
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Routes
//
//	GET /health                      liveness with version
//	GET /health/ready                ready once the dataset is loaded
//	GET /health/live                 runtime details
//	GET /version                     build information
//	GET /metrics                     Prometheus metrics
//	GET /api/v1/dataset              source, record and group counts
//	GET /api/v1/groups               group keys with record counts
//	GET /api/v1/series/{group}       aggregated series and summary
//	GET /api/v1/series/{group}/chart trend chart in the configured format
//
// The series routes accept the query parameters mode (sum or mean),
// start and end (years).
//
// # Errors
//
// Every failure is rendered by errors.ErrorHandler as an RFC 7807
// problem document carrying the request id as trace_id.
package http
