package dataprocessing

import (
	"context"
	"log/slog"

	"gonum.org/v1/gonum/stat"

	"fishstat/pkg/contracts/domain"
)

// Summarizer produces one GroupSummary per aggregated group
type Summarizer struct {
	logger      *slog.Logger
	recentYears int
}

// SummarizerConfig holds configuration options for the Summarizer.
type SummarizerConfig struct {
	RecentYears int // Trailing window for RecentMean (default 5)
}

// NewSummarizer creates a summarizer with the given configuration
func NewSummarizer(logger *slog.Logger, config SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.RecentYears <= 0 {
		config.RecentYears = 5
	}
	return &Summarizer{
		logger:      logger.With(slog.String("component", "summarizer")),
		recentYears: config.RecentYears,
	}
}

// Summarize describes every group of result, ordered by group key
func (s *Summarizer) Summarize(ctx context.Context, result *domain.AggregateResult) []domain.GroupSummary {
	if result == nil {
		return nil
	}

	summaries := make([]domain.GroupSummary, 0, len(result.Totals))
	for _, group := range result.Groups() {
		series := result.Series(group)
		if len(series) == 0 {
			continue
		}
		summaries = append(summaries, s.summarize(group, series))
	}

	s.logger.DebugContext(ctx, "group summaries generated",
		slog.Int("groups", len(summaries)))

	return summaries
}

// summarize expects series sorted by year
func (s *Summarizer) summarize(group string, series []domain.AggregateRecord) domain.GroupSummary {
	values := make([]float64, len(series))
	for i, r := range series {
		values[i] = r.Value
	}

	sum := domain.GroupSummary{
		Group:     group,
		FirstYear: series[0].Year,
		LastYear:  series[len(series)-1].Year,
		Years:     len(series),
		Mean:      stat.Mean(values, nil),
		PeakYear:  series[0].Year,
		PeakValue: series[0].Value,
	}

	first, last := -1, -1
	for i, r := range series {
		sum.Total += r.Value
		if r.Value > sum.PeakValue {
			sum.PeakValue = r.Value
			sum.PeakYear = r.Year
		}
		if r.Value != 0 {
			if first < 0 {
				first = i
			}
			last = i
		}
		if r.Outlier {
			sum.Outliers++
		}
	}

	if first >= 0 {
		sum.FirstNonZero = series[first].Year
		sum.LastNonZero = series[last].Year
		sum.Change = series[last].Value - series[first].Value
		sum.ChangePercent = sum.Change / series[first].Value * 100
	}

	recent := values
	if len(recent) > s.recentYears {
		recent = recent[len(recent)-s.recentYears:]
	}
	sum.RecentMean = stat.Mean(recent, nil)

	return sum
}
