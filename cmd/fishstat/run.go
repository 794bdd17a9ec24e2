package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"fishstat/internal/operations"
)

func runCommand(cli *cliContext) *cobra.Command {
	var opts operations.RunOptions

	cmd := &cobra.Command{
		Use:   "run [input]",
		Short: "Run the whole pipeline: clean, reshape, aggregate, plot and export",
		Long: `Run reads the input table (the argument, input_file, or the newest
table in data_dir), cleans it, reshapes it to long format, aggregates
per group and year, plots the selected species and exports every
configured report to output_dir.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = inputArg(args)

			state, _, err := cli.runPipeline(cmd.Context(), opts)
			if state != nil {
				printRun(cmd.OutOrStdout(), state)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Species, "species", "", "Group to plot (default default_species)")
	flags.StringVar(&opts.Filter, "filter", "", "Restrict aggregation to one group")
	flags.StringVar(&opts.Mode, "mode", "", "Aggregation mode: sum or mean (default analysis.mode)")
	flags.IntVar(&opts.StartYear, "start", 0, "First year to aggregate (default start_year)")
	flags.IntVar(&opts.EndYear, "end", 0, "Last year to aggregate (default end_year)")
	flags.BoolVar(&opts.SkipPlot, "no-plot", false, "Skip the plot stage")
	flags.BoolVar(&opts.SkipExport, "no-export", false, "Skip the export stage")

	return cmd
}

// printRun writes the stage statuses and the files a run produced
func printRun(w io.Writer, state *operations.OperationState) {
	resp := state.Response()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "run %s\t%s\t%s\n", resp.ID, resp.Status, resp.Duration.Round(time.Millisecond))
	for _, id := range operations.StageOrder {
		step, ok := resp.Steps[id]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", step.Name, step.Status, step.Message)
	}
	_ = tw.Flush()

	for _, out := range resp.Outputs {
		fmt.Fprintf(w, "wrote %s\n", out)
	}
}
