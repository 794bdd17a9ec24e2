// Command fishstat cleans wide fish-population tables, reshapes them to
// long format, aggregates per group and year, and exports plots, CSV and
// XLSX reports. `fishstat serve` exposes the same data over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	apperrors "fishstat/internal/errors"
	"fishstat/internal/infrastructure"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	// one trace id per invocation; pipeline runs reuse it as their run id
	ctx = infrastructure.EnsureTraceID(ctx)

	cli := &cliContext{}
	err := RootCommand(cli).ExecuteContext(ctx)
	stop()

	if err != nil {
		logger := cli.logger
		if logger == nil {
			logger = infrastructure.GetLogger()
		}
		attrs := []any{slog.String("error", err.Error())}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			attrs = append(attrs, slog.String("error_type", string(appErr.Type)))
			for k, v := range appErr.Context {
				attrs = append(attrs, slog.Any(k, v))
			}
		}
		logger.ErrorContext(ctx, "fishstat failed", attrs...)
		_ = infrastructure.CloseLogFile()
		os.Exit(1)
	}

	_ = infrastructure.CloseLogFile()
}
