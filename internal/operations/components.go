package operations

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"fishstat/internal/config"
	"fishstat/internal/dataprocessing"
	"fishstat/internal/exporter"
	"fishstat/internal/files"
	"fishstat/internal/infrastructure"
	"fishstat/internal/plotter"
	"fishstat/internal/validation"
)

// Components holds the services the stages call into. They are built
// once from the configuration and shared by every run.
type Components struct {
	Config     *config.Config
	Paths      *config.Paths
	Logger     *slog.Logger
	Metrics    *infrastructure.PipelineMetrics
	Tracer     trace.Tracer
	Discovery  *files.Discovery
	Validator  *validation.FileValidator
	Cleaner    *dataprocessing.Cleaner
	Reshaper   *dataprocessing.Reshaper
	Summarizer *dataprocessing.Summarizer
	Plotter    *plotter.Plotter
	Exporter   *exporter.Exporter
}

// NewComponents builds the stage services from cfg. metrics may be nil.
func NewComponents(cfg *config.Config, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cleaner, err := dataprocessing.NewCleaner(logger, CleanerConfig(cfg))
	if err != nil {
		return nil, err
	}

	plt, err := plotter.New(logger, plotter.OptionsFromConfig(cfg.PlotStyle, cfg.Export))
	if err != nil {
		return nil, err
	}

	exp, err := exporter.New(logger, cfg.Export)
	if err != nil {
		return nil, err
	}

	return &Components{
		Config:     cfg,
		Paths:      cfg.Paths(),
		Logger:     logger,
		Metrics:    metrics,
		Tracer:     otel.Tracer(infrastructure.InstrumentationName),
		Discovery:  files.NewDiscovery(cfg.DataDir),
		Validator:  validation.NewFileValidator(logger),
		Cleaner:    cleaner,
		Reshaper:   dataprocessing.NewReshaper(logger),
		Summarizer: dataprocessing.NewSummarizer(logger, dataprocessing.SummarizerConfig{}),
		Plotter:    plt,
		Exporter:   exp,
	}, nil
}

// CleanerConfig maps the cleaning settings of cfg
func CleanerConfig(cfg *config.Config) dataprocessing.CleanerConfig {
	return dataprocessing.CleanerConfig{
		MissingMarkers: cfg.MissingValueMarkers,
		Default:        cfg.MissingValueDefault,
		StatusPattern:  cfg.StatusColumnPattern,
		Renames:        cfg.IdentifierRenames,
		KeepColumns:    cfg.GroupBy,
	}
}

// ReadOptions maps the input settings of cfg
func ReadOptions(cfg *config.Config) *dataprocessing.ReadOptions {
	opts := dataprocessing.DefaultReadOptions()
	if cfg.InputEncoding != "" {
		opts.Encoding = cfg.InputEncoding
	}
	opts.Sheet = cfg.InputSheet
	return opts
}

// AggregatorConfig maps the analysis settings of cfg with the run
// overrides applied
func AggregatorConfig(cfg *config.Config, opts RunOptions) dataprocessing.AggregatorConfig {
	ac := dataprocessing.AggregatorConfig{
		GroupBy:            cfg.GroupBy,
		Filter:             opts.Filter,
		StartYear:          cfg.StartYear,
		EndYear:            cfg.EndYear,
		Mode:               domainMode(cfg.Analysis.Mode),
		MinSamples:         cfg.Analysis.MinSamples,
		ConfidenceInterval: cfg.Analysis.ConfidenceInterval,
		OutlierThreshold:   cfg.Analysis.OutlierThreshold,
	}
	if opts.Mode != "" {
		ac.Mode = domainMode(opts.Mode)
	}
	if opts.StartYear != 0 {
		ac.StartYear = opts.StartYear
	}
	if opts.EndYear != 0 {
		ac.EndYear = opts.EndYear
	}
	return ac
}
