package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "fishstat/internal/errors"
)

type stubDataset struct {
	info DatasetInfo
	err  error
}

func (s stubDataset) Info(context.Context) (DatasetInfo, error) {
	return s.info, s.err
}

func TestHealthService_HealthCheck(t *testing.T) {
	hs := NewHealthService("1.2.3", nil, nil)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, StatusOK, status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.WithinDuration(t, time.Now(), status.Timestamp, time.Minute)
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	loaded := DatasetInfo{Source: "capture.csv", Records: 9, Groups: 2}

	tests := []struct {
		name       string
		dataset    DatasetProvider
		wantStatus string
	}{
		{name: "no dataset", dataset: nil, wantStatus: StatusNotReady},
		{name: "not loaded", dataset: stubDataset{err: apperrors.NewNotFoundError("dataset")}, wantStatus: StatusNotReady},
		{name: "loaded", dataset: stubDataset{info: loaded}, wantStatus: StatusReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthService("dev", tt.dataset, nil)
			status := hs.ReadinessCheck(context.Background())

			assert.Equal(t, tt.wantStatus, status.Status)
			require.Contains(t, status.Services, "dataset")
			sh, ok := status.Services["dataset"].(ServiceHealth)
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, sh.Status)
			if tt.wantStatus == StatusReady {
				require.NotNil(t, sh.Dataset)
				assert.Equal(t, 9, sh.Dataset.Records)
			} else {
				assert.NotEmpty(t, sh.Message)
			}
		})
	}
}

func TestHealthService_LivenessAndVersion(t *testing.T) {
	hs := NewHealthService("dev", nil, nil)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, StatusAlive, live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	v := hs.Version()
	assert.Equal(t, "dev", v["version"])
	assert.NotEmpty(t, v["go_version"])
}
