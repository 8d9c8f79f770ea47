package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/pco-client/internal/sink"
	"github.com/fivetwenty-io/pco-client/pkg/pco"
)

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	var (
		opts     = &QueryOptions{}
		sinkArg string
	)

	cmd := &cobra.Command{
		Use:   "export PATH",
		Short: "Stream a collection into a sink",
		Long: `Stream every record of a collection into a SQLite database or a NATS subject.

Sinks:
  sqlite:FILE          upsert into the records table of FILE
  nats:URL#SUBJECT     publish JSON entries on SUBJECT.<Kind>`,
		Example: `  pco export people/v2/people --sink sqlite:people.db
  pco export people/v2/people --include emails --sink nats:nats://localhost:4222#pco`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest, err := sink.ParseDestination(sinkArg)
			if err != nil {
				return err
			}

			return runWithProxy(cmd, args[0], opts, func(ctx context.Context, proxy *pco.CollectionProxy, format string) error {
				out, err := sink.Open(ctx, dest)
				if err != nil {
					return err
				}

				written, err := sink.Drain(ctx, proxy, out, opts.Limit)

				closeErr := out.Close()
				if err != nil {
					return err
				}

				if closeErr != nil {
					return fmt.Errorf("closing sink: %w", closeErr)
				}

				return outputResult(cmd.OutOrStdout(), "Exported", args[0], fmt.Sprintf("%d records to %s", written, sinkArg))
			})
		},
	}

	addQueryFlags(cmd, opts)
	cmd.Flags().IntVarP(&opts.Limit, "limit", "l", 0, "stop after this many records (0 for all)")
	cmd.Flags().StringVarP(&sinkArg, "sink", "s", "", "destination, sqlite:FILE or nats:URL#SUBJECT")
	_ = cmd.MarkFlagRequired("sink")

	return cmd
}
