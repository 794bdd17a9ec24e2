package dataprocessing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "fishstat/internal/errors"
	"fishstat/internal/shared/testutil"
	"fishstat/pkg/contracts/domain"
)

func speciesTable(records ...domain.LongRecord) *domain.LongTable {
	return &domain.LongTable{Identifiers: []string{"Country", "Species"}, Records: records}
}

func rec(country, species string, year int, value float64) domain.LongRecord {
	return domain.LongRecord{Identifiers: []string{country, species}, Year: year, Value: value}
}

func baseConfig() AggregatorConfig {
	return AggregatorConfig{
		GroupBy:            []string{"Species"},
		StartYear:          1950,
		EndYear:            2020,
		Mode:               domain.ModeSum,
		MinSamples:         3,
		ConfidenceInterval: 0.95,
		OutlierThreshold:   3.0,
	}
}

func TestAggregator_SumAndMeanTotals(t *testing.T) {
	table := speciesTable(
		rec("Norway", "FCY", 2000, 10),
		rec("Norway", "FCY", 2001, 20),
		rec("Norway", "FCY", 2002, 30),
	)

	tests := []struct {
		mode domain.AggregateMode
		want float64
	}{
		{mode: domain.ModeSum, want: 60},
		{mode: domain.ModeMean, want: 20},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			cfg := baseConfig()
			cfg.Mode = tt.mode

			result, err := NewAggregator(nil, cfg).Aggregate(context.Background(), table)
			require.NoError(t, err)

			total, ok := result.Total("FCY")
			require.True(t, ok)
			assert.Equal(t, tt.want, total.Value)
			assert.Equal(t, 3, total.Samples)
			assert.Equal(t, 2000, total.FirstYear)
			assert.Equal(t, 2002, total.LastYear)

			series := result.Series("FCY")
			require.Len(t, series, 3)
			assert.Equal(t, []float64{10, 20, 30}, []float64{series[0].Value, series[1].Value, series[2].Value})
		})
	}
}

func TestAggregator_GroupsByYear(t *testing.T) {
	table := speciesTable(
		rec("Norway", "FCY", 2018, 10),
		rec("Iceland", "FCY", 2018, 2),
		rec("Norway", "FCY", 2019, 20),
		rec("Iceland", "FCY", 2019, 4),
		rec("Chile", "ANE", 2018, 100),
		rec("Peru", "ANE", 2018, 50),
	)

	cfg := baseConfig()
	cfg.ConfidenceInterval = 0

	result, err := NewAggregator(nil, cfg).Aggregate(context.Background(), table)
	require.NoError(t, err)

	require.Len(t, result.Records, 3)
	assert.Equal(t, domain.AggregateRecord{Group: "ANE", Year: 2018, Value: 150, Samples: 2}, result.Records[0])
	assert.Equal(t, domain.AggregateRecord{Group: "FCY", Year: 2018, Value: 12, Samples: 2}, result.Records[1])
	assert.Equal(t, domain.AggregateRecord{Group: "FCY", Year: 2019, Value: 24, Samples: 2}, result.Records[2])
	assert.Empty(t, result.Excluded, "min_samples only applies when scoring")
	assert.Equal(t, []string{"ANE", "FCY"}, result.Groups())
}

func TestAggregator_YearRangeExcludesOutside(t *testing.T) {
	table := speciesTable(
		rec("Norway", "FCY", 1949, 1000),
		rec("Norway", "FCY", 1950, 1),
		rec("Norway", "FCY", 2020, 2),
		rec("Norway", "FCY", 2021, 1000),
	)

	cfg := baseConfig()
	cfg.ConfidenceInterval = 0

	result, err := NewAggregator(nil, cfg).Aggregate(context.Background(), table)
	require.NoError(t, err)

	total, _ := result.Total("FCY")
	assert.Equal(t, 3.0, total.Value)
	for _, r := range result.Records {
		assert.NotEqual(t, 1949, r.Year)
		assert.NotEqual(t, 2021, r.Year)
	}
}

func TestAggregator_MinSamplesExclusion(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)

	table := speciesTable(
		rec("Norway", "FCY", 2000, 10),
		rec("Norway", "FCY", 2001, 20),
		rec("Norway", "FCY", 2002, 30),
		rec("Chile", "ANE", 2000, 5),
		rec("Chile", "ANE", 2001, 6),
	)

	result, err := NewAggregator(logger, baseConfig()).Aggregate(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, []string{"FCY"}, result.Groups())
	assert.Empty(t, result.Series("ANE"))

	ex, ok := result.IsExcluded("ANE")
	require.True(t, ok)
	assert.Equal(t, 2, ex.Samples)
	assert.Equal(t, 3, ex.MinSamples)
	assert.Contains(t, ex.Reason, "min_samples")

	assert.True(t, handler.ContainsMessage("group excluded"))
	assert.True(t, handler.ContainsAttr("group", "ANE"))
}

func TestAggregator_AllGroupsExcluded(t *testing.T) {
	table := speciesTable(rec("Norway", "FCY", 2000, 10))

	_, err := NewAggregator(nil, baseConfig()).Aggregate(context.Background(), table)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInsufficientData))
}

func TestAggregator_Filter(t *testing.T) {
	table := speciesTable(
		rec("Norway", "FCY", 2000, 10),
		rec("Norway", "FCY", 2001, 20),
		rec("Norway", "FCY", 2002, 30),
		rec("Chile", "ANE", 2000, 5),
	)

	cfg := baseConfig()
	cfg.Filter = "FCY"
	result, err := NewAggregator(nil, cfg).Aggregate(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, []string{"FCY"}, result.Groups())
	assert.Empty(t, result.Excluded)

	cfg.Filter = "COD"
	_, err = NewAggregator(nil, cfg).Aggregate(context.Background(), table)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInsufficientData))
	assert.Contains(t, err.Error(), `"COD"`)
}

func TestAggregator_ConfidenceInterval(t *testing.T) {
	table := speciesTable(
		rec("A", "FCY", 2000, 10),
		rec("B", "FCY", 2000, 20),
		rec("C", "FCY", 2000, 30),
		rec("A", "FCY", 2001, 7),
	)

	result, err := NewAggregator(nil, baseConfig()).Aggregate(context.Background(), table)
	require.NoError(t, err)

	series := result.Series("FCY")
	require.Len(t, series, 2)

	r := series[0]
	assert.True(t, r.Scored)
	assert.True(t, r.HasInterval)
	assert.Equal(t, 20.0, r.Mean)
	assert.InDelta(t, 10.0, r.StdDev, 1e-9)
	// t(0.975, df=2) = 4.302653
	half := 4.302653 * 10 / math.Sqrt(3)
	assert.InDelta(t, 20-half, r.CILower, 1e-4)
	assert.InDelta(t, 20+half, r.CIUpper, 1e-4)

	single := series[1]
	assert.True(t, single.Scored)
	assert.False(t, single.HasInterval)
	assert.Equal(t, 7.0, single.Mean)
	assert.Zero(t, single.StdDev)
}

func TestAggregator_Outliers(t *testing.T) {
	var records []domain.LongRecord
	for y := 2000; y < 2010; y++ {
		records = append(records, rec("Norway", "FCY", y, 0))
	}
	records = append(records, rec("Norway", "FCY", 2010, 100))

	cfg := baseConfig()
	result, err := NewAggregator(nil, cfg).Aggregate(context.Background(), speciesTable(records...))
	require.NoError(t, err)

	series := result.Series("FCY")
	require.Len(t, series, 11)
	assert.True(t, series[10].Outlier)
	assert.Greater(t, series[10].ZScore, 3.0)
	for _, r := range series[:10] {
		assert.False(t, r.Outlier)
	}

	cfg.OutlierThreshold = 0
	result, err = NewAggregator(nil, cfg).Aggregate(context.Background(), speciesTable(records...))
	require.NoError(t, err)
	assert.False(t, result.Series("FCY")[10].Outlier)
}

func TestAggregator_MultiColumnKey(t *testing.T) {
	table := speciesTable(
		rec("Norway", "FCY", 2000, 1),
		rec("Iceland", "FCY", 2000, 2),
	)

	cfg := baseConfig()
	cfg.GroupBy = []string{"Country", "Species"}
	cfg.ConfidenceInterval = 0

	result, err := NewAggregator(nil, cfg).Aggregate(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, []string{"Iceland | FCY", "Norway | FCY"}, result.Groups())
}

func TestAggregator_InvalidConfig(t *testing.T) {
	table := speciesTable(rec("Norway", "FCY", 2000, 1))

	tests := []struct {
		name   string
		mutate func(*AggregatorConfig)
	}{
		{name: "unknown column", mutate: func(c *AggregatorConfig) { c.GroupBy = []string{"Unit"} }},
		{name: "bad mode", mutate: func(c *AggregatorConfig) { c.Mode = "median" }},
		{name: "inverted range", mutate: func(c *AggregatorConfig) { c.StartYear, c.EndYear = 2020, 1950 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(&cfg)
			_, err := NewAggregator(nil, cfg).Aggregate(context.Background(), table)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation), "got %v", err)
		})
	}
}
