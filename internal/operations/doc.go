// Package operations runs the fishstat pipeline.
//
// A run executes the stages read, clean, reshape, aggregate, plot and
// export strictly in that order. Each stage has a StepState recording
// its status and timings, runs inside its own OpenTelemetry span and
// records duration metrics. The first failing stage halts the run; the
// error is returned as an *OperationError carrying the stage id and
// wrapping the typed application error.
//
//	components, err := operations.NewComponents(cfg, logger, metrics)
//	pipeline := operations.NewPipeline(logger, operations.DefaultStages(components)...)
//	state := operations.NewOperationState(runID, operations.RunOptions{SkipPlot: true})
//	err = pipeline.Run(ctx, state)
//
// Stages after a failure, and plot or export when disabled, end in the
// skipped status. There are no retries.
package operations
