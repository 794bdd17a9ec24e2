// Package dataprocessing turns a wide FishStat export into analysis-ready
// tables.
//
// # Architecture
//
// The package is organized as one component per pipeline stage:
//
//  1. Reader: loads a wide CSV or XLSX file into a domain.RawTable
//  2. Cleaner: drops status columns and replaces missing-value markers
//  3. Reshaper: unpivots year columns into long records
//  4. Aggregator: combines records per group and year
//  5. Summarizer: describes each group's trend
//
// Each stage returns a new table and never mutates its input.
//
// # Usage
//
//	raw, err := dataprocessing.ReadWideFile("capture.csv", nil)
//	cleaner, err := dataprocessing.NewCleaner(logger, dataprocessing.CleanerConfig{
//	    MissingMarkers: []string{".", "NA", ""},
//	    StatusPattern:  "^S",
//	})
//	clean, report, err := cleaner.Clean(ctx, raw)
//	long, err := dataprocessing.NewReshaper(logger).Reshape(ctx, clean, nil)
//	result, err := dataprocessing.NewAggregator(logger, aggCfg).Aggregate(ctx, long)
//
// # Data Flow
//
//	CSV/XLSX → RawTable → CleanTable → LongTable → AggregateResult → []GroupSummary
//
// # Error Handling
//
// Failures are *errors.AppError values: unreadable files are IO errors,
// unrecognized cells are PARSING errors carrying row, column and value,
// and empty selections are INSUFFICIENT_DATA errors.
package dataprocessing
