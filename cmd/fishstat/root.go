package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"fishstat/internal/config"
	"fishstat/internal/infrastructure"
	"fishstat/internal/operations"
	"fishstat/pkg/contracts"
)

// cliContext is shared by every subcommand. cfg and logger are filled in
// by the root PersistentPreRunE; a logger set beforehand is kept.
type cliContext struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

// RootCommand creates the fishstat command tree
func RootCommand(cli *cliContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fishstat",
		Short:         "Fish population statistics pipeline",
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, cli)

	versionCmd := versionCommand()

	rootCmd.AddCommand(
		runCommand(cli),
		cleanCommand(cli),
		reshapeCommand(cli),
		aggregateCommand(cli),
		plotCommand(cli),
		serveCommand(cli),
		versionCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// version needs neither configuration nor logging
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		return initialize(cli)
	}

	return rootCmd
}

// setupFlags defines the flags shared by every subcommand
func setupFlags(rootCmd *cobra.Command, cli *cliContext) {
	rootCmd.PersistentFlags().StringVar(&cli.configPath, "config", "", "Path to the YAML configuration file (default config.yaml, or $FISH_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&cli.logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
}

// initialize loads the configuration and sets up logging before any
// subcommand runs
func initialize(cli *cliContext) error {
	cfg, err := config.Load(cli.configPath)
	if err != nil {
		return err
	}

	if cli.logLevel != "" {
		cfg.Logging.Level = cli.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	cli.cfg = cfg

	if cli.logger == nil {
		logger, err := infrastructure.InitializeLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cli.logger = logger
	}

	cli.logger.Debug("configuration loaded",
		slog.String("source", cfg.Source()),
		slog.String("data_dir", cfg.DataDir),
		slog.String("output_dir", cfg.OutputDir))

	return nil
}

// runPipeline executes the pipeline stages selected by opts. Tracing
// follows the telemetry section; metrics are only exported by serve.
func (cli *cliContext) runPipeline(ctx context.Context, opts operations.RunOptions) (*operations.OperationState, *operations.Components, error) {
	otelCfg := infrastructure.NewOTelConfig(cli.cfg.Telemetry, contracts.Version)
	otelCfg.EnableMetrics = false
	providers, err := infrastructure.InitializeOTel(otelCfg, cli.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := providers.Shutdown(context.WithoutCancel(ctx)); err != nil {
			cli.logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	components, err := operations.NewComponents(cli.cfg, cli.logger, nil)
	if err != nil {
		return nil, nil, err
	}
	components.Tracer = providers.Tracer

	if err := components.Paths.EnsureDirectories(); err != nil {
		return nil, nil, err
	}

	ctx = infrastructure.EnsureTraceID(ctx)
	state := operations.NewOperationState(infrastructure.GetTraceID(ctx), opts)
	pipeline := operations.NewPipeline(cli.logger, operations.DefaultStages(components)...).
		WithTelemetry(providers.Tracer, nil)

	if err := pipeline.Run(ctx, state); err != nil {
		return state, components, err
	}
	return state, components, nil
}

// inputArg returns the optional positional input argument
func inputArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
