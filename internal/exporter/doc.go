// Package exporter writes pipeline results to disk.
//
// This package contains three main components:
//
// CSVWriter: Core CSV writing with a configurable text encoding, optional
// UTF-8 BOM for spreadsheet tools, and streaming for large tables.
//
// Workbook: XLSX output through excelize, one sheet per table.
//
// Exporter: Typed helpers that turn domain tables into rows and write them
// in the configured formats.
//
// Example usage:
//
//	exp, err := exporter.New(logger, cfg.Export)
//	err = exp.WriteLong(ctx, paths.LongCSV(input), long)
//	err = exp.WriteAggregates(ctx, paths.AggregatesCSV("FCY"), result.Series("FCY"))
//
// Unwritable destinations surface as IO errors carrying the path.
package exporter
