package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	apperrors "fishstat/internal/errors"
	"fishstat/pkg/contracts/domain"
)

// Reshaper unpivots a clean wide table into long records
type Reshaper struct {
	logger *slog.Logger
}

// NewReshaper creates a reshaper
func NewReshaper(logger *slog.Logger) *Reshaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reshaper{logger: logger.With(slog.String("component", "reshaper"))}
}

// Reshape emits one record per row and selected year, in row order and
// then ascending year. A nil years slice selects every year column.
// Records of one row share its identifier slice; callers must not
// modify it.
func (r *Reshaper) Reshape(ctx context.Context, table *domain.CleanTable, years []int) (*domain.LongTable, error) {
	if table == nil {
		return nil, apperrors.NewValidationError("clean table is nil")
	}

	cols, err := selectYears(table.Years, years)
	if err != nil {
		return nil, err
	}

	long := &domain.LongTable{
		Source:      table.Source,
		Identifiers: append([]string(nil), table.Identifiers...),
		Records:     make([]domain.LongRecord, 0, table.NumRows()*len(cols)),
	}

	for i, keys := range table.Keys {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for _, c := range cols {
			long.Records = append(long.Records, domain.LongRecord{
				Identifiers: keys,
				Year:        table.Years[c],
				Value:       table.Values[i][c],
			})
		}
	}

	r.logger.InfoContext(ctx, "table reshaped",
		slog.Int("rows", table.NumRows()),
		slog.Int("years", len(cols)),
		slog.Int("records", long.Len()))

	return long, nil
}

// selectYears returns the column indexes of the requested years in
// ascending year order
func selectYears(available, requested []int) ([]int, error) {
	byYear := make(map[int]int, len(available))
	for i, y := range available {
		byYear[y] = i
	}

	if requested == nil {
		requested = available
	}

	cols := make([]int, 0, len(requested))
	seen := make(map[int]struct{}, len(requested))
	for _, y := range requested {
		idx, ok := byYear[y]
		if !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("year %d is not a column of the table", y)).
				WithContext("year", y)
		}
		if _, dup := seen[y]; dup {
			continue
		}
		seen[y] = struct{}{}
		cols = append(cols, idx)
	}

	sort.Slice(cols, func(a, b int) bool {
		return available[cols[a]] < available[cols[b]]
	})
	return cols, nil
}
