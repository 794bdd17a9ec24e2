package http

import (
	"context"
	"io"

	"fishstat/internal/services"
)

// DatasetServiceInterface defines the dataset queries served over HTTP
type DatasetServiceInterface interface {
	Info(ctx context.Context) (services.DatasetInfo, error)
	Groups(ctx context.Context) ([]services.GroupInfo, error)
	Series(ctx context.Context, q services.SeriesQuery) (*services.SeriesResponse, error)
	Chart(ctx context.Context, w io.Writer, q services.SeriesQuery) error
	ChartContentType() string
}
