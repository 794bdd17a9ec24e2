package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"fishstat/internal/config"
	"fishstat/internal/dataprocessing"
	apperrors "fishstat/internal/errors"
	"fishstat/internal/exporter"
	"fishstat/pkg/contracts/domain"
)

// DefaultStages returns the six pipeline stages in execution order
func DefaultStages(c *Components) []Step {
	return []Step{
		NewReadStage(c),
		NewCleanStage(c),
		NewReshapeStage(c),
		NewAggregateStage(c),
		NewPlotStage(c),
		NewExportStage(c),
	}
}

// ReadStage loads the wide input table
type ReadStage struct {
	BaseStage
	c *Components
}

// NewReadStage creates the read stage
func NewReadStage(c *Components) *ReadStage {
	return &ReadStage{BaseStage: NewBaseStage(StageIDRead, StageNameRead), c: c}
}

// Execute implements Step
func (s *ReadStage) Execute(ctx context.Context, state *OperationState) error {
	name := state.Options.Input
	if name == "" {
		name = s.c.Config.InputFile
	}
	// names given relative to the working directory win over data_dir
	if name != "" && !filepath.IsAbs(name) && config.FileExists(name) {
		if abs, err := filepath.Abs(name); err == nil {
			name = abs
		}
	}

	path, err := s.c.Discovery.ResolveInput(name)
	if err != nil {
		return err
	}
	if err := s.c.Validator.ValidateInputFile(path); err != nil {
		return err
	}

	raw, err := dataprocessing.ReadWideFile(path, ReadOptions(s.c.Config))
	if err != nil {
		return err
	}

	state.Data.InputPath = path
	state.Data.Raw = raw
	s.c.Metrics.AddRowsRead(ctx, raw.NumRows())

	step := state.GetStage(s.ID())
	step.SetMetadata("path", path)
	step.SetMetadata("rows", raw.NumRows())
	step.SetMetadata("columns", len(raw.Header))

	s.c.Logger.InfoContext(ctx, "input table read",
		slog.String("path", path),
		slog.Int("rows", raw.NumRows()),
		slog.Int("columns", len(raw.Header)))
	return nil
}

// CleanStage replaces missing markers and drops status columns
type CleanStage struct {
	BaseStage
	c *Components
}

// NewCleanStage creates the clean stage
func NewCleanStage(c *Components) *CleanStage {
	return &CleanStage{BaseStage: NewBaseStage(StageIDClean, StageNameClean), c: c}
}

// Validate implements Step
func (s *CleanStage) Validate(state *OperationState) error {
	if state.Data.Raw == nil {
		return fmt.Errorf("no raw table to clean")
	}
	return nil
}

// Execute implements Step
func (s *CleanStage) Execute(ctx context.Context, state *OperationState) error {
	clean, report, err := s.c.Cleaner.Clean(ctx, state.Data.Raw)
	if err != nil {
		return err
	}

	state.Data.Clean = clean
	state.Data.CleanReport = report
	s.c.Metrics.AddCellsReplaced(ctx, report.ReplacedTotal)

	step := state.GetStage(s.ID())
	step.SetMetadata("rows", report.Rows)
	step.SetMetadata("year_columns", report.YearColumns)
	step.SetMetadata("cells_replaced", report.ReplacedTotal)
	step.SetMetadata("dropped_columns", report.DroppedColumns)
	return nil
}

// ReshapeStage unpivots the clean table into long records
type ReshapeStage struct {
	BaseStage
	c *Components
}

// NewReshapeStage creates the reshape stage
func NewReshapeStage(c *Components) *ReshapeStage {
	return &ReshapeStage{BaseStage: NewBaseStage(StageIDReshape, StageNameReshape), c: c}
}

// Validate implements Step
func (s *ReshapeStage) Validate(state *OperationState) error {
	if state.Data.Clean == nil {
		return fmt.Errorf("no clean table to reshape")
	}
	return nil
}

// Execute implements Step
func (s *ReshapeStage) Execute(ctx context.Context, state *OperationState) error {
	long, err := s.c.Reshaper.Reshape(ctx, state.Data.Clean, nil)
	if err != nil {
		return err
	}

	state.Data.Long = long
	s.c.Metrics.AddLongRecords(ctx, long.Len())
	state.GetStage(s.ID()).SetMetadata("records", long.Len())
	return nil
}

// AggregateStage combines long records per group and year and
// summarizes each group
type AggregateStage struct {
	BaseStage
	c *Components
}

// NewAggregateStage creates the aggregate stage
func NewAggregateStage(c *Components) *AggregateStage {
	return &AggregateStage{BaseStage: NewBaseStage(StageIDAggregate, StageNameAggregate), c: c}
}

// Validate implements Step
func (s *AggregateStage) Validate(state *OperationState) error {
	if state.Data.Long == nil {
		return fmt.Errorf("no long table to aggregate")
	}
	return nil
}

// Execute implements Step
func (s *AggregateStage) Execute(ctx context.Context, state *OperationState) error {
	agg := dataprocessing.NewAggregator(s.c.Logger, AggregatorConfig(s.c.Config, state.Options))

	result, err := agg.Aggregate(ctx, state.Data.Long)
	if err != nil {
		return err
	}

	state.Data.Result = result
	state.Data.Summaries = s.c.Summarizer.Summarize(ctx, result)
	s.c.Metrics.AddGroupsExcluded(ctx, len(result.Excluded))

	step := state.GetStage(s.ID())
	step.SetMetadata("mode", string(result.Mode))
	step.SetMetadata("groups", len(result.Totals))
	step.SetMetadata("excluded_groups", len(result.Excluded))
	step.SetMetadata("records", len(result.Records))
	return nil
}

// PlotStage renders the trend chart of the selected group
type PlotStage struct {
	BaseStage
	c *Components
}

// NewPlotStage creates the plot stage
func NewPlotStage(c *Components) *PlotStage {
	return &PlotStage{BaseStage: NewBaseStage(StageIDPlot, StageNamePlot), c: c}
}

// Validate implements Step
func (s *PlotStage) Validate(state *OperationState) error {
	if state.Data.Result == nil {
		return fmt.Errorf("no aggregates to plot")
	}
	return nil
}

// Execute implements Step
func (s *PlotStage) Execute(ctx context.Context, state *OperationState) error {
	result := state.Data.Result
	group := PlotGroup(s.c.Config, state.Options, result)

	series := result.Series(group)
	if len(series) == 0 {
		if ex, ok := result.IsExcluded(group); ok {
			return apperrors.NewInsufficientDataError(fmt.Sprintf("cannot plot %q: %s", group, ex.Reason)).
				WithContext("group", group)
		}
		return apperrors.NewInsufficientDataError(fmt.Sprintf("no aggregates for %q", group)).
			WithContext("group", group)
	}

	if err := s.c.Validator.ValidateOutputDirectory(s.c.Paths.OutputDir); err != nil {
		return err
	}

	path := s.c.Paths.PlotFile(group, s.c.Plotter.Format())
	if err := s.c.Plotter.Save(ctx, path, group, series); err != nil {
		return err
	}

	state.Data.PlotGroup = group
	state.AddOutput(path)
	s.c.Metrics.AddFileWritten(ctx, s.c.Plotter.Format())

	step := state.GetStage(s.ID())
	step.SetMetadata("group", group)
	step.SetMetadata("path", path)
	return nil
}

// PlotGroup picks the group a run plots: the requested species, the
// aggregation filter, default_species, then the first group.
func PlotGroup(cfg *config.Config, opts RunOptions, result *domain.AggregateResult) string {
	for _, g := range []string{opts.Species, opts.Filter, cfg.DefaultSpecies} {
		if g != "" {
			return g
		}
	}
	if groups := result.Groups(); len(groups) > 0 {
		return groups[0]
	}
	return ""
}

// ExportStage writes the long table, aggregates, exclusions and
// summaries in every configured format
type ExportStage struct {
	BaseStage
	c *Components
}

// NewExportStage creates the export stage
func NewExportStage(c *Components) *ExportStage {
	return &ExportStage{BaseStage: NewBaseStage(StageIDExport, StageNameExport), c: c}
}

// Validate implements Step
func (s *ExportStage) Validate(state *OperationState) error {
	if state.Data.Long == nil || state.Data.Result == nil {
		return fmt.Errorf("nothing to export")
	}
	return nil
}

// Execute implements Step
func (s *ExportStage) Execute(ctx context.Context, state *OperationState) error {
	if err := s.c.Validator.ValidateOutputDirectory(s.c.Paths.OutputDir); err != nil {
		return err
	}

	for _, format := range s.c.Config.Export.Formats {
		var err error
		switch strings.ToLower(format) {
		case "csv":
			err = s.writeCSV(ctx, state)
		case "xlsx":
			err = s.writeWorkbook(ctx, state)
		default:
			err = apperrors.NewConfigError(fmt.Sprintf("unsupported export format %q", format), nil)
		}
		if err != nil {
			return err
		}
	}

	state.GetStage(s.ID()).SetMetadata("files", len(state.Outputs()))
	return nil
}

func (s *ExportStage) writeCSV(ctx context.Context, state *OperationState) error {
	data := &state.Data
	paths := s.c.Paths
	exp := s.c.Exporter

	type job struct {
		path  string
		write func(path string) error
	}
	jobs := []job{
		{paths.LongCSV(data.InputPath), func(p string) error { return exp.WriteLong(ctx, p, data.Long) }},
		{paths.AggregatesCSV(state.Options.Filter), func(p string) error {
			return exp.WriteAggregates(ctx, p, data.Result.Records)
		}},
		{paths.SummaryCSV(), func(p string) error { return exp.WriteSummaries(ctx, p, data.Summaries) }},
	}
	if len(data.Result.Excluded) > 0 {
		jobs = append(jobs, job{paths.ExcludedCSV(), func(p string) error {
			return exp.WriteExcluded(ctx, p, data.Result.Excluded)
		}})
	}

	for _, j := range jobs {
		if err := j.write(j.path); err != nil {
			return err
		}
		state.AddOutput(j.path)
		s.c.Metrics.AddFileWritten(ctx, "csv")
	}
	return nil
}

func (s *ExportStage) writeWorkbook(ctx context.Context, state *OperationState) error {
	data := &state.Data
	tables := []exporter.Table{
		exporter.LongTable(data.Long),
		exporter.AggregatesTable(data.Result.Records),
		exporter.TotalsTable(data.Result.Totals),
		exporter.SummaryTable(data.Summaries),
	}
	if len(data.Result.Excluded) > 0 {
		tables = append(tables, exporter.ExcludedTable(data.Result.Excluded))
	}

	path := s.c.Paths.WorkbookPath(data.InputPath)
	if err := s.c.Exporter.WriteWorkbook(ctx, path, tables...); err != nil {
		return err
	}
	state.AddOutput(path)
	s.c.Metrics.AddFileWritten(ctx, "xlsx")
	return nil
}

func domainMode(s string) domain.AggregateMode {
	return domain.AggregateMode(strings.ToLower(strings.TrimSpace(s)))
}
