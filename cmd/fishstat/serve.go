package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fishstat/internal/app"
	"fishstat/pkg/contracts"
)

func serveCommand(cli *cliContext) *cobra.Command {
	var (
		host       string
		port       int
		fromExport string
	)

	cmd := &cobra.Command{
		Use:   "serve [input]",
		Short: "Load the input table and serve groups, series and charts over HTTP",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if cmd.Flags().Changed("host") {
				cli.cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cli.cfg.Server.Port = port
			}

			application, err := app.New(cli.cfg, cli.logger)
			if err != nil {
				return err
			}
			if fromExport != "" {
				err = application.LoadExport(ctx, fromExport)
			} else {
				err = application.Load(ctx, inputArg(args))
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "fishstat %s listening on http://%s\n",
				contracts.Version, application.Server.Addr)
			return application.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen address (default server.host)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default server.port)")
	cmd.Flags().StringVar(&fromExport, "from-export", "", "Serve a long CSV written by run or reshape instead of reading the input table")

	return cmd
}
