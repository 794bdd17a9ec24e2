package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// Health statuses
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
)

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string       `json:"status"`
	Message string       `json:"message,omitempty"`
	Dataset *DatasetInfo `json:"dataset,omitempty"`
}

// DatasetProvider is the part of DatasetService the health checks need
type DatasetProvider interface {
	Info(ctx context.Context) (DatasetInfo, error)
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	dataset   DatasetProvider
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService creates a health service. dataset may be nil, in
// which case the service never reports ready.
func NewHealthService(version string, dataset DatasetProvider, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		dataset:   dataset,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "health check",
		slog.Duration("uptime", time.Since(hs.startTime)))

	return HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports ready once a dataset has been loaded
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	dataset := hs.checkDataset(ctx)
	status.Services["dataset"] = dataset
	if dataset.Status != StatusReady {
		status.Status = StatusNotReady
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"version":    hs.version,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"start_time": hs.startTime.Format(time.RFC3339),
	}
}

func (hs *HealthService) checkDataset(ctx context.Context) ServiceHealth {
	if hs.dataset == nil {
		return ServiceHealth{Status: StatusNotReady, Message: "no dataset configured"}
	}
	info, err := hs.dataset.Info(ctx)
	if err != nil {
		return ServiceHealth{Status: StatusNotReady, Message: err.Error()}
	}
	return ServiceHealth{Status: StatusReady, Dataset: &info}
}
