package exporter

import (
	"context"
	"log/slog"

	"fishstat/internal/config"
	"fishstat/pkg/contracts/domain"
)

// Exporter writes domain tables as CSV files
type Exporter struct {
	logger *slog.Logger
	csv    *CSVWriter
}

// New creates an exporter from the export configuration
func New(logger *slog.Logger, cfg config.ExportConfig) (*Exporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "exporter"))

	w, err := NewCSVWriter(logger, CSVOptions{
		Encoding:  cfg.CSVEncoding,
		BOMPrefix: cfg.CSVBOM,
	})
	if err != nil {
		return nil, err
	}

	return &Exporter{logger: logger, csv: w}, nil
}

// CSV returns the underlying CSV writer
func (e *Exporter) CSV() *CSVWriter {
	return e.csv
}

// WriteTable writes any table as CSV
func (e *Exporter) WriteTable(ctx context.Context, path string, t Table) error {
	if err := e.csv.WriteCSV(path, WriteOptions{Headers: t.Headers, Records: t.StringRows()}); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "table exported",
		slog.String("table", t.Name),
		slog.String("path", path),
		slog.Int("rows", len(t.Rows)))
	return nil
}

// WriteLong streams long records to path. Long tables are the largest
// output, so rows are formatted one at a time.
func (e *Exporter) WriteLong(ctx context.Context, path string, t *domain.LongTable) error {
	headers := make([]string, 0, len(t.Identifiers)+2)
	headers = append(headers, t.Identifiers...)
	headers = append(headers, YearColumn, ValueColumn)

	sw, err := e.csv.CreateStreamWriter(path, headers)
	if err != nil {
		return err
	}

	row := make([]string, len(headers))
	n := len(t.Identifiers)
	for i, rec := range t.Records {
		if i%8192 == 0 {
			if err := ctx.Err(); err != nil {
				sw.Abort()
				return err
			}
		}
		copy(row, rec.Identifiers)
		row[n] = formatCell(rec.Year)
		row[n+1] = formatFloat(rec.Value)
		if err := sw.WriteRecord(row); err != nil {
			sw.Abort()
			return err
		}
	}

	if err := sw.Close(); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "table exported",
		slog.String("table", "Long"),
		slog.String("path", path),
		slog.Int("rows", sw.Rows()))
	return nil
}

// WriteClean writes a clean wide table to path
func (e *Exporter) WriteClean(ctx context.Context, path string, t *domain.CleanTable) error {
	return e.WriteTable(ctx, path, CleanTable(t))
}

// WriteAggregates writes aggregate records to path
func (e *Exporter) WriteAggregates(ctx context.Context, path string, records []domain.AggregateRecord) error {
	return e.WriteTable(ctx, path, AggregatesTable(records))
}

// WriteExcluded writes the excluded-groups report to path
func (e *Exporter) WriteExcluded(ctx context.Context, path string, excluded []domain.ExcludedGroup) error {
	return e.WriteTable(ctx, path, ExcludedTable(excluded))
}

// WriteSummaries writes group summaries to path
func (e *Exporter) WriteSummaries(ctx context.Context, path string, summaries []domain.GroupSummary) error {
	return e.WriteTable(ctx, path, SummaryTable(summaries))
}

// WriteWorkbook writes the tables to one XLSX file
func (e *Exporter) WriteWorkbook(ctx context.Context, path string, tables ...Table) error {
	if err := WriteWorkbook(path, tables...); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "workbook exported",
		slog.String("path", path),
		slog.Int("sheets", len(tables)))
	return nil
}
