package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fishstat/internal/operations"
	"fishstat/pkg/contracts/domain"
)

func cleanCommand(cli *cliContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "clean [input]",
		Short: "Clean the input table and write it in wide format",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			state, c, err := cli.runPipeline(ctx, operations.RunOptions{
				Input:     inputArg(args),
				StopAfter: operations.StageIDClean,
			})
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = c.Paths.CleanCSV(state.Data.InputPath)
			}
			if err := c.Exporter.WriteClean(ctx, path, state.Data.Clean); err != nil {
				return err
			}

			report := state.Data.CleanReport
			cli.logger.InfoContext(ctx, "clean table written",
				slog.String("path", path),
				slog.Int("rows", report.Rows),
				slog.Int("cells_replaced", report.ReplacedTotal))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d rows, %d year columns, %d cells replaced\n",
				report.Rows, report.YearColumns, report.ReplacedTotal)
			fmt.Fprintf(out, "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output CSV path (default output_dir/clean_<input>.csv)")
	return cmd
}

func reshapeCommand(cli *cliContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "reshape [input]",
		Short: "Clean the input table and write it in long format",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			state, c, err := cli.runPipeline(ctx, operations.RunOptions{
				Input:     inputArg(args),
				StopAfter: operations.StageIDReshape,
			})
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = c.Paths.LongCSV(state.Data.InputPath)
			}
			if err := c.Exporter.WriteLong(ctx, path, state.Data.Long); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d records\n", state.Data.Long.Len())
			fmt.Fprintf(out, "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output CSV path (default output_dir/long_<input>.csv)")
	return cmd
}

func aggregateCommand(cli *cliContext) *cobra.Command {
	var opts operations.RunOptions

	cmd := &cobra.Command{
		Use:   "aggregate [input]",
		Short: "Aggregate the input table per group and year",
		Long: `Aggregate cleans and reshapes the input table, then sums or averages
the values of each group per year. --species restricts the output to
one group key.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts.Input = inputArg(args)
			opts.StopAfter = operations.StageIDAggregate

			state, c, err := cli.runPipeline(ctx, opts)
			if err != nil {
				return err
			}

			result := state.Data.Result
			path := c.Paths.AggregatesCSV(opts.Filter)
			if err := c.Exporter.WriteAggregates(ctx, path, result.Records); err != nil {
				return err
			}
			if len(result.Excluded) > 0 {
				if err := c.Exporter.WriteExcluded(ctx, c.Paths.ExcludedCSV(), result.Excluded); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			printTotals(out, result)
			fmt.Fprintf(out, "wrote %s\n", path)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Filter, "species", "", "Aggregate a single group key")
	flags.StringVar(&opts.Mode, "mode", "", "Aggregation mode: sum or mean (default analysis.mode)")
	flags.IntVar(&opts.StartYear, "start", 0, "First year to aggregate (default start_year)")
	flags.IntVar(&opts.EndYear, "end", 0, "Last year to aggregate (default end_year)")

	return cmd
}

func plotCommand(cli *cliContext) *cobra.Command {
	var opts operations.RunOptions

	cmd := &cobra.Command{
		Use:   "plot [input]",
		Short: "Plot the yearly trend of one group",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = inputArg(args)
			opts.StopAfter = operations.StageIDPlot

			state, _, err := cli.runPipeline(cmd.Context(), opts)
			if err != nil {
				return err
			}

			for _, out := range state.Outputs() {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Species, "species", "", "Group to plot (default default_species)")
	flags.StringVar(&opts.Mode, "mode", "", "Aggregation mode: sum or mean (default analysis.mode)")
	flags.IntVar(&opts.StartYear, "start", 0, "First year to plot (default start_year)")
	flags.IntVar(&opts.EndYear, "end", 0, "Last year to plot (default end_year)")

	return cmd
}

// printTotals writes one line per group and the excluded groups
func printTotals(w io.Writer, result *domain.AggregateResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "GROUP\t%s\tSAMPLES\tYEARS\n", string(result.Mode))
	for _, t := range result.Totals {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d-%d\n",
			t.Group, strconv.FormatFloat(t.Value, 'f', -1, 64), t.Samples, t.FirstYear, t.LastYear)
	}
	for _, e := range result.Excluded {
		fmt.Fprintf(tw, "%s\texcluded\t%d\t%s\n", e.Group, e.Samples, e.Reason)
	}
	_ = tw.Flush()
}
