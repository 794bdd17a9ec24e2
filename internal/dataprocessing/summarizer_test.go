package dataprocessing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fishstat/pkg/contracts/domain"
)

func TestSummarizer_Summarize(t *testing.T) {
	result := &domain.AggregateResult{
		Records: []domain.AggregateRecord{
			{Group: "ANE", Year: 2000, Value: 5},
			{Group: "FCY", Year: 2000, Value: 0},
			{Group: "FCY", Year: 2001, Value: 10},
			{Group: "FCY", Year: 2002, Value: 40, Outlier: true},
			{Group: "FCY", Year: 2003, Value: 20},
			{Group: "FCY", Year: 2004, Value: 0},
		},
		Totals: []domain.GroupTotal{{Group: "FCY"}, {Group: "ANE"}},
	}

	summaries := NewSummarizer(nil, SummarizerConfig{RecentYears: 2}).Summarize(context.Background(), result)
	require.Len(t, summaries, 2)
	assert.Equal(t, "ANE", summaries[0].Group)

	fcy := summaries[1]
	assert.Equal(t, domain.GroupSummary{
		Group:         "FCY",
		FirstYear:     2000,
		LastYear:      2004,
		Years:         5,
		Total:         70,
		Mean:          14,
		PeakYear:      2002,
		PeakValue:     40,
		FirstNonZero:  2001,
		LastNonZero:   2003,
		Change:        10,
		ChangePercent: 100,
		RecentMean:    10,
		Outliers:      1,
	}, fcy)
}

func TestSummarizer_AllZero(t *testing.T) {
	result := &domain.AggregateResult{
		Records: []domain.AggregateRecord{
			{Group: "FCY", Year: 2000, Value: 0},
			{Group: "FCY", Year: 2001, Value: 0},
		},
		Totals: []domain.GroupTotal{{Group: "FCY"}},
	}

	summaries := NewSummarizer(nil, SummarizerConfig{}).Summarize(context.Background(), result)
	require.Len(t, summaries, 1)
	assert.Zero(t, summaries[0].FirstNonZero)
	assert.Zero(t, summaries[0].ChangePercent)
	assert.Nil(t, NewSummarizer(nil, SummarizerConfig{}).Summarize(context.Background(), nil))
}
