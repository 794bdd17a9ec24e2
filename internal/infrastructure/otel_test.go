package infrastructure

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fishstat/internal/config"
	"fishstat/internal/shared/testutil"
)

func TestInitializeOTel_Disabled(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	providers, err := InitializeOTel(&OTelConfig{ServiceName: "fishstat"}, logger)
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.PrometheusHTTP)
	require.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.Meter)

	_, span := providers.Tracer.Start(context.Background(), "noop")
	span.End()

	metrics, err := NewPipelineMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordStage(context.Background(), "clean", time.Millisecond, nil)

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	_, err := InitializeOTel(&OTelConfig{EnableTracing: true, TraceExporter: "zipkin"}, logger)
	assert.ErrorContains(t, err, "unsupported trace exporter")

	_, err = InitializeOTel(&OTelConfig{EnableMetrics: true, MetricExporter: "statsd"}, logger)
	assert.ErrorContains(t, err, "unsupported metric exporter")
}

func TestPipelineMetrics_PrometheusEndpoint(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	cfg := NewOTelConfig(config.Default().Telemetry, "test")
	cfg.Registry = promclient.NewRegistry()

	providers, err := InitializeOTel(cfg, logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())
	require.NotNil(t, providers.PrometheusHTTP)

	metrics, err := NewPipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.AddRowsRead(ctx, 3)
	metrics.AddGroupsExcluded(ctx, 1)
	metrics.AddFileWritten(ctx, "csv")
	metrics.RecordRun(ctx, "success")
	metrics.RecordStage(ctx, "reshape", 20*time.Millisecond, nil)
	metrics.RecordStage(ctx, "aggregate", time.Millisecond, errors.New("boom"))
	metrics.RecordHTTP(ctx, "/health", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "fishstat_rows_read_total")
	assert.Contains(t, string(body), "fishstat_stage_duration_seconds")
	assert.Contains(t, string(body), "fishstat_stage_errors_total")
	assert.Contains(t, string(body), "http_requests_total")
	assert.Contains(t, string(body), "fishstat_groups_excluded_total")
	assert.Contains(t, string(body), "fishstat_runs_total")
}

func TestPipelineMetrics_NilSafe(t *testing.T) {
	var m *PipelineMetrics
	assert.NotPanics(t, func() {
		m.RecordStage(context.Background(), "read", time.Second, nil)
		m.RecordHTTP(context.Background(), "/", 200, time.Second)
		m.RecordRun(context.Background(), "success")
		m.AddRowsRead(context.Background(), 1)
		m.AddCellsReplaced(context.Background(), 1)
		m.AddLongRecords(context.Background(), 1)
		m.AddGroupsExcluded(context.Background(), 1)
		m.AddFileWritten(context.Background(), "png")
	})
}

func TestSpanHelpers_NoopSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordError(context.Background(), errors.New("x"))
		SetSpanAttributes(context.Background(), map[string]interface{}{"rows": 3})
	})
}
