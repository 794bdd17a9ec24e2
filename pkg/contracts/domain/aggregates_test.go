package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAggregateMode(t *testing.T) {
	tests := []struct {
		in      string
		want    AggregateMode
		wantErr bool
	}{
		{in: "sum", want: ModeSum},
		{in: " MEAN ", want: ModeMean},
		{in: "median", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAggregateMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAggregateResult_Lookups(t *testing.T) {
	res := &AggregateResult{
		Records: []AggregateRecord{
			{Group: "ANE", Year: 2019, Value: 1},
			{Group: "FCY", Year: 2018, Value: 10},
			{Group: "FCY", Year: 2019, Value: 20},
			{Group: "HER", Year: 2018, Value: 5},
		},
		Totals: []GroupTotal{
			{Group: "HER", Value: 5},
			{Group: "ANE", Value: 1},
			{Group: "FCY", Value: 30},
		},
		Excluded: []ExcludedGroup{{Group: "COD", Samples: 1, MinSamples: 3}},
	}

	assert.Equal(t, []string{"ANE", "FCY", "HER"}, res.Groups())

	series := res.Series("FCY")
	require.Len(t, series, 2)
	assert.Equal(t, 2018, series[0].Year)
	assert.Equal(t, 2019, series[1].Year)
	assert.Empty(t, res.Series("COD"))

	total, ok := res.Total("FCY")
	require.True(t, ok)
	assert.Equal(t, 30.0, total.Value)

	_, ok = res.Total("COD")
	assert.False(t, ok)

	ex, ok := res.IsExcluded("COD")
	require.True(t, ok)
	assert.Equal(t, 3, ex.MinSamples)
}

func TestLongTable_GroupKey(t *testing.T) {
	table := &LongTable{
		Identifiers: []string{"Country", "Species", "Fishing Area"},
		Records: []LongRecord{
			{Identifiers: []string{"Norway", "FCY", "27"}, Year: 2018, Value: 10},
		},
	}

	idx, err := table.KeyIndexes([]string{"Species"})
	require.NoError(t, err)
	assert.Equal(t, "FCY", GroupKey(table.Records[0], idx))

	idx, err = table.KeyIndexes([]string{"Country", "Species"})
	require.NoError(t, err)
	assert.Equal(t, "Norway | FCY", GroupKey(table.Records[0], idx))

	_, err = table.KeyIndexes([]string{"Unit"})
	assert.ErrorContains(t, err, `unknown identifier column "Unit"`)
}
