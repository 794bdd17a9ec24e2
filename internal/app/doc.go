// Package app wires `fishstat serve`: configuration, telemetry, the
// pipeline components, the dataset services and the HTTP server.
//
// # Initialization Flow
//
//	1. Initialize OpenTelemetry and the pipeline metrics
//	2. Build the pipeline components from the configuration
//	3. Create the dataset and health services
//	4. Set up middleware and routes
//	5. Load the input table through the read, clean and reshape stages
//	6. Serve until the context is cancelled or a signal arrives
//
// # Usage
//
//	a, err := app.New(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	if err := a.Load(ctx, input); err != nil {
//	    return err
//	}
//	return a.Run(ctx)
//
// # Middleware Order
//
// RequestID runs first so the id is available to the telemetry, logging
// and recovery layers, and to problem documents as trace_id. Rate
// limiting runs last so rejected requests are still logged and counted.
package app
