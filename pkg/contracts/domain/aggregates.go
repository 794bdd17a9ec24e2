package domain

import (
	"fmt"
	"sort"
	"strings"
)

// AggregateMode selects how observations are combined
type AggregateMode string

const (
	ModeSum  AggregateMode = "sum"
	ModeMean AggregateMode = "mean"
)

// ParseAggregateMode validates a mode name
func ParseAggregateMode(s string) (AggregateMode, error) {
	switch m := AggregateMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSum, ModeMean:
		return m, nil
	default:
		return "", fmt.Errorf("unknown aggregate mode %q (want sum or mean)", s)
	}
}

// AggregateRecord is the combined value of one group in one year.
// The statistics are filled only when a confidence level was requested
// (Scored); HasInterval is false when fewer than two observations exist.
type AggregateRecord struct {
	Group   string  `json:"group"`
	Year    int     `json:"year"`
	Value   float64 `json:"value"`
	Samples int     `json:"samples"`

	Scored      bool    `json:"-"`
	Mean        float64 `json:"mean,omitempty"`
	StdDev      float64 `json:"std_dev,omitempty"`
	HasInterval bool    `json:"-"`
	CILower     float64 `json:"ci_lower,omitempty"`
	CIUpper     float64 `json:"ci_upper,omitempty"`
	ZScore      float64 `json:"z_score,omitempty"`
	Outlier     bool    `json:"outlier,omitempty"`
}

// GroupTotal combines every in-range observation of a group
type GroupTotal struct {
	Group     string  `json:"group"`
	Value     float64 `json:"value"`
	Samples   int     `json:"samples"`
	FirstYear int     `json:"first_year"`
	LastYear  int     `json:"last_year"`
}

// ExcludedGroup reports a group dropped for having too few observations
type ExcludedGroup struct {
	Group      string `json:"group"`
	Samples    int    `json:"samples"`
	MinSamples int    `json:"min_samples"`
	Reason     string `json:"reason"`
}

// AggregateResult is the output of one aggregation. Records are sorted
// by group, then year; Totals by group.
type AggregateResult struct {
	Mode      AggregateMode     `json:"mode"`
	StartYear int               `json:"start_year"`
	EndYear   int               `json:"end_year"`
	GroupBy   []string          `json:"group_by"`
	Records   []AggregateRecord `json:"records"`
	Totals    []GroupTotal      `json:"totals"`
	Excluded  []ExcludedGroup   `json:"excluded,omitempty"`
}

// Groups returns the surviving group keys in sorted order
func (r *AggregateResult) Groups() []string {
	groups := make([]string, 0, len(r.Totals))
	for _, t := range r.Totals {
		groups = append(groups, t.Group)
	}
	sort.Strings(groups)
	return groups
}

// Series returns the records of one group, ordered by year
func (r *AggregateResult) Series(group string) []AggregateRecord {
	start := sort.Search(len(r.Records), func(i int) bool {
		return r.Records[i].Group >= group
	})
	end := start
	for end < len(r.Records) && r.Records[end].Group == group {
		end++
	}
	return r.Records[start:end]
}

// Total returns the total of one group
func (r *AggregateResult) Total(group string) (GroupTotal, bool) {
	for _, t := range r.Totals {
		if t.Group == group {
			return t, true
		}
	}
	return GroupTotal{}, false
}

// IsExcluded reports whether a group was dropped for insufficient data
func (r *AggregateResult) IsExcluded(group string) (ExcludedGroup, bool) {
	for _, e := range r.Excluded {
		if e.Group == group {
			return e, true
		}
	}
	return ExcludedGroup{}, false
}
