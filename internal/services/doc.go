// Package services implements the business logic behind the HTTP API of
// `fishstat serve`. It sits between the transport handlers and the
// pipeline packages so that handlers stay thin and testable.
//
// # Available Services
//
//	- DatasetService: loads one input table through the read, clean and
//	  reshape stages and answers group, series and chart queries on it
//	- HealthService: reports liveness and dataset readiness
//
// # Error Handling
//
// Services return *errors.AppError values so the transport layer can map
// them to RFC 7807 problem documents:
//
//	- VALIDATION for bad query parameters
//	- NOT_FOUND for unknown groups or an unloaded dataset
//	- INSUFFICIENT_DATA for groups that have no usable observations
//
// # Concurrency
//
// The dataset is loaded once and then only read, so every query method
// is safe for concurrent use. Load may be called again to swap in a new
// table.
package services
