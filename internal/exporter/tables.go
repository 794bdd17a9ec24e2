package exporter

import (
	"fishstat/pkg/contracts/domain"
)

const (
	// YearColumn heads the year column of long-format output
	YearColumn = "Year"
	// ValueColumn heads the value column of long-format output
	ValueColumn = "Population"
)

// Table is a header plus typed rows, rendered as CSV or as a sheet
type Table struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// LongTable lays out long records as identifiers, Year, Population
func LongTable(t *domain.LongTable) Table {
	headers := make([]string, 0, len(t.Identifiers)+2)
	headers = append(headers, t.Identifiers...)
	headers = append(headers, YearColumn, ValueColumn)

	rows := make([][]interface{}, len(t.Records))
	for i, rec := range t.Records {
		row := make([]interface{}, 0, len(headers))
		for _, id := range rec.Identifiers {
			row = append(row, id)
		}
		rows[i] = append(row, rec.Year, rec.Value)
	}

	return Table{Name: "Long", Headers: headers, Rows: rows}
}

// CleanTable lays out a clean wide table with one column per year
func CleanTable(t *domain.CleanTable) Table {
	headers := make([]string, 0, len(t.Identifiers)+len(t.Years))
	headers = append(headers, t.Identifiers...)
	for _, y := range t.Years {
		headers = append(headers, formatCell(y))
	}

	rows := make([][]interface{}, t.NumRows())
	for i := range t.Keys {
		row := make([]interface{}, 0, len(headers))
		for _, k := range t.Keys[i] {
			row = append(row, k)
		}
		for _, v := range t.Values[i] {
			row = append(row, v)
		}
		rows[i] = row
	}

	return Table{Name: "Clean", Headers: headers, Rows: rows}
}

// AggregatesTable lays out aggregate records. Statistics cells stay
// empty when they were not computed.
func AggregatesTable(records []domain.AggregateRecord) Table {
	headers := []string{"Group", YearColumn, "Value", "Samples", "Mean", "StdDev", "CILower", "CIUpper", "ZScore", "Outlier"}

	rows := make([][]interface{}, len(records))
	for i, r := range records {
		row := []interface{}{r.Group, r.Year, r.Value, r.Samples, nil, nil, nil, nil, r.ZScore, r.Outlier}
		if r.Scored {
			row[4] = r.Mean
			row[5] = r.StdDev
		}
		if r.HasInterval {
			row[6] = r.CILower
			row[7] = r.CIUpper
		}
		rows[i] = row
	}

	return Table{Name: "Aggregates", Headers: headers, Rows: rows}
}

// TotalsTable lays out one row per group total
func TotalsTable(totals []domain.GroupTotal) Table {
	rows := make([][]interface{}, len(totals))
	for i, t := range totals {
		rows[i] = []interface{}{t.Group, t.Value, t.Samples, t.FirstYear, t.LastYear}
	}
	return Table{
		Name:    "Totals",
		Headers: []string{"Group", "Value", "Samples", "FirstYear", "LastYear"},
		Rows:    rows,
	}
}

// ExcludedTable lays out groups dropped for insufficient samples
func ExcludedTable(excluded []domain.ExcludedGroup) Table {
	rows := make([][]interface{}, len(excluded))
	for i, e := range excluded {
		rows[i] = []interface{}{e.Group, e.Samples, e.MinSamples, e.Reason}
	}
	return Table{
		Name:    "Excluded",
		Headers: []string{"Group", "Samples", "MinSamples", "Reason"},
		Rows:    rows,
	}
}

// SummaryTable lays out group trend summaries
func SummaryTable(summaries []domain.GroupSummary) Table {
	rows := make([][]interface{}, len(summaries))
	for i, s := range summaries {
		rows[i] = []interface{}{
			s.Group, s.FirstYear, s.LastYear, s.Years, s.Total, s.Mean,
			s.PeakYear, s.PeakValue, s.FirstNonZero, s.LastNonZero,
			s.Change, s.ChangePercent, s.RecentMean, s.Outliers,
		}
	}
	return Table{
		Name: "Summary",
		Headers: []string{
			"Group", "FirstYear", "LastYear", "Years", "Total", "Mean",
			"PeakYear", "PeakValue", "FirstNonZeroYear", "LastNonZeroYear",
			"Change", "ChangePercent", "RecentMean", "Outliers",
		},
		Rows: rows,
	}
}

// StringRows formats every cell of t for CSV output
func (t Table) StringRows() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = formatRow(row)
	}
	return out
}
