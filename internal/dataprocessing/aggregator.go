package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	apperrors "fishstat/internal/errors"
	"fishstat/pkg/contracts/domain"
)

// AggregatorConfig holds the aggregation parameters
type AggregatorConfig struct {
	GroupBy            []string             // Identifier columns forming the group key
	Filter             string               // Keep only this group key; empty keeps all
	StartYear          int                  // First year included
	EndYear            int                  // Last year included
	Mode               domain.AggregateMode // sum or mean
	MinSamples         int                  // Minimum observations per group when scoring
	ConfidenceInterval float64              // Confidence level in (0,1); 0 disables scoring
	OutlierThreshold   float64              // |z| above this flags a year; 0 disables
}

// Aggregator combines long records per group and year
type Aggregator struct {
	logger *slog.Logger
	cfg    AggregatorConfig
}

// NewAggregator creates an aggregator
func NewAggregator(logger *slog.Logger, cfg AggregatorConfig) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Mode == "" {
		cfg.Mode = domain.ModeSum
	}
	if len(cfg.GroupBy) == 0 {
		cfg.GroupBy = []string{"Species"}
	}
	return &Aggregator{
		logger: logger.With(slog.String("component", "aggregator")),
		cfg:    cfg,
	}
}

// Scored reports whether confidence statistics are requested
func (c AggregatorConfig) Scored() bool {
	return c.ConfidenceInterval > 0 && c.ConfidenceInterval < 1
}

// groupAcc collects the in-range observations of one group
type groupAcc struct {
	byYear map[int][]float64
	all    []float64
}

// Aggregate groups records by key and year. Records outside
// [StartYear, EndYear] are ignored. When scoring is enabled, groups with
// fewer than MinSamples observations are excluded and reported.
func (a *Aggregator) Aggregate(ctx context.Context, table *domain.LongTable) (*domain.AggregateResult, error) {
	if table == nil {
		return nil, apperrors.NewValidationError("long table is nil")
	}
	cfg := a.cfg

	if cfg.Mode != domain.ModeSum && cfg.Mode != domain.ModeMean {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown aggregate mode %q", cfg.Mode))
	}
	if cfg.EndYear < cfg.StartYear {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("end year %d precedes start year %d", cfg.EndYear, cfg.StartYear))
	}

	idx, err := table.KeyIndexes(cfg.GroupBy)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	groups := make(map[string]*groupAcc)
	outOfRange := 0
	for i, rec := range table.Records {
		if i%8192 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if rec.Year < cfg.StartYear || rec.Year > cfg.EndYear {
			outOfRange++
			continue
		}
		key := domain.GroupKey(rec, idx)
		if cfg.Filter != "" && key != cfg.Filter {
			continue
		}

		acc, ok := groups[key]
		if !ok {
			acc = &groupAcc{byYear: make(map[int][]float64)}
			groups[key] = acc
		}
		acc.byYear[rec.Year] = append(acc.byYear[rec.Year], rec.Value)
		acc.all = append(acc.all, rec.Value)
	}

	if len(groups) == 0 {
		msg := fmt.Sprintf("no observations between %d and %d", cfg.StartYear, cfg.EndYear)
		if cfg.Filter != "" {
			msg = fmt.Sprintf("no observations for %q between %d and %d", cfg.Filter, cfg.StartYear, cfg.EndYear)
		}
		return nil, apperrors.NewInsufficientDataError(msg).
			WithContext("group", cfg.Filter).
			WithContext("out_of_range", outOfRange)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := &domain.AggregateResult{
		Mode:      cfg.Mode,
		StartYear: cfg.StartYear,
		EndYear:   cfg.EndYear,
		GroupBy:   append([]string(nil), cfg.GroupBy...),
	}

	scored := cfg.Scored()
	var tQuantiles map[int]float64
	if scored {
		tQuantiles = make(map[int]float64)
	}

	for _, key := range keys {
		acc := groups[key]

		if scored && len(acc.all) < cfg.MinSamples {
			result.Excluded = append(result.Excluded, domain.ExcludedGroup{
				Group:      key,
				Samples:    len(acc.all),
				MinSamples: cfg.MinSamples,
				Reason:     fmt.Sprintf("%d observations, fewer than min_samples %d", len(acc.all), cfg.MinSamples),
			})
			a.logger.WarnContext(ctx, "group excluded: insufficient samples",
				slog.String("group", key),
				slog.Int("samples", len(acc.all)),
				slog.Int("min_samples", cfg.MinSamples))
			continue
		}

		series := a.aggregateGroup(key, acc, scored, tQuantiles)
		flagOutliers(series, cfg.OutlierThreshold)
		result.Records = append(result.Records, series...)

		result.Totals = append(result.Totals, domain.GroupTotal{
			Group:     key,
			Value:     combine(acc.all, cfg.Mode),
			Samples:   len(acc.all),
			FirstYear: series[0].Year,
			LastYear:  series[len(series)-1].Year,
		})
	}

	if len(result.Totals) == 0 {
		return nil, apperrors.NewInsufficientDataError(
			fmt.Sprintf("every group has fewer than %d observations", cfg.MinSamples)).
			WithContext("excluded", len(result.Excluded)).
			WithContext("min_samples", cfg.MinSamples)
	}

	a.logger.InfoContext(ctx, "records aggregated",
		slog.String("mode", string(cfg.Mode)),
		slog.Int("groups", len(result.Totals)),
		slog.Int("excluded_groups", len(result.Excluded)),
		slog.Int("records", len(result.Records)),
		slog.Int("out_of_range", outOfRange))

	return result, nil
}

// aggregateGroup builds the yearly records of one group in year order
func (a *Aggregator) aggregateGroup(key string, acc *groupAcc, scored bool, tq map[int]float64) []domain.AggregateRecord {
	years := make([]int, 0, len(acc.byYear))
	for y := range acc.byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	series := make([]domain.AggregateRecord, len(years))
	for i, year := range years {
		values := acc.byYear[year]
		rec := domain.AggregateRecord{
			Group:   key,
			Year:    year,
			Value:   combine(values, a.cfg.Mode),
			Samples: len(values),
		}

		if scored {
			rec.Scored = true
			rec.Mean = stat.Mean(values, nil)
			if n := len(values); n >= 2 {
				rec.StdDev = stat.StdDev(values, nil)
				half := tQuantile(tq, n-1, a.cfg.ConfidenceInterval) * rec.StdDev / math.Sqrt(float64(n))
				rec.HasInterval = true
				rec.CILower = rec.Mean - half
				rec.CIUpper = rec.Mean + half
			}
		}

		series[i] = rec
	}

	return series
}

// flagOutliers marks the years whose value lies more than threshold
// standard deviations from the group's mean yearly value
func flagOutliers(series []domain.AggregateRecord, threshold float64) {
	if threshold <= 0 || len(series) < 3 {
		return
	}

	values := make([]float64, len(series))
	for i, r := range series {
		values[i] = r.Value
	}

	mean, sd := stat.MeanStdDev(values, nil)
	if sd == 0 || math.IsNaN(sd) {
		return
	}

	for i := range series {
		z := stat.StdScore(series[i].Value, mean, sd)
		series[i].ZScore = z
		series[i].Outlier = math.Abs(z) > threshold
	}
}

// tQuantile returns the two-sided Student-t critical value, cached per
// degrees of freedom
func tQuantile(cache map[int]float64, df int, level float64) float64 {
	if q, ok := cache[df]; ok {
		return q
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	q := dist.Quantile(1 - (1-level)/2)
	cache[df] = q
	return q
}

func combine(values []float64, mode domain.AggregateMode) float64 {
	if mode == domain.ModeMean {
		return stat.Mean(values, nil)
	}
	return floats.Sum(values)
}
