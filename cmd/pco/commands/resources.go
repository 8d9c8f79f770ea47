package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/pco-client/pkg/pco"
)

// runWithProxy validates opts, opens a session and hands fn a proxy over path.
func runWithProxy(cmd *cobra.Command, path string, opts *QueryOptions, fn func(ctx context.Context, proxy *pco.CollectionProxy, format string) error) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	err = opts.Validate()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	proxy, err := opts.Apply(s.resourceType(path).All())
	if err != nil {
		return err
	}

	return fn(ctx, proxy, format)
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "list PATH",
		Short: "List records of a collection",
		Long: `Fetch every record of a collection, page by page.

PATH is the collection path, e.g. people/v2/people.`,
		Example: `  pco list people/v2/people --where first_name=Ann --order last_name
  pco list people/v2/people --include emails --limit 10 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithProxy(cmd, args[0], opts, func(ctx context.Context, proxy *pco.CollectionProxy, format string) error {
				objects, err := collect(ctx, proxy, opts.Limit)
				if err != nil {
					return err
				}

				return RenderObjects(cmd.OutOrStdout(), objects, format)
			})
		},
	}

	addQueryFlags(cmd, opts)
	cmd.Flags().IntVarP(&opts.Limit, "limit", "l", 0, "stop after this many records (0 for all)")

	return cmd
}

// NewFirstCommand creates the first command.
func NewFirstCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "first PATH",
		Short: "Show the first record of a collection",
		Long:  "Fetch one page of the collection and show its first record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithProxy(cmd, args[0], opts, func(ctx context.Context, proxy *pco.CollectionProxy, format string) error {
				obj, err := proxy.First(ctx)
				if err != nil {
					return err
				}

				return RenderObject(cmd.OutOrStdout(), obj, format)
			})
		},
	}

	addQueryFlags(cmd, opts)

	return cmd
}

// NewLastCommand creates the last command.
func NewLastCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "last PATH",
		Short: "Show the last record of a collection",
		Long:  "Probe the collection size, then fetch the page holding its last record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithProxy(cmd, args[0], opts, func(ctx context.Context, proxy *pco.CollectionProxy, format string) error {
				obj, err := proxy.Last(ctx)
				if err != nil {
					return err
				}

				return RenderObject(cmd.OutOrStdout(), obj, format)
			})
		},
	}

	addQueryFlags(cmd, opts)

	return cmd
}

// NewCountCommand creates the count command.
func NewCountCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "count PATH",
		Short: "Count the records of a collection",
		Long:  "Report the total count of a collection without fetching its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithProxy(cmd, args[0], opts, func(ctx context.Context, proxy *pco.CollectionProxy, format string) error {
				count, err := proxy.Count(ctx)
				if err != nil {
					return err
				}

				return RenderCount(cmd.OutOrStdout(), args[0], count, format)
			})
		},
	}

	addQueryFlags(cmd, opts)

	return cmd
}

// NewFindCommand creates the find command.
func NewFindCommand() *cobra.Command {
	var (
		opts        = &QueryOptions{}
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "find PATH ID [ID...]",
		Short: "Show records by id",
		Long: `Fetch PATH/ID and show the record with any included relationships.
Several ids are fetched concurrently and shown in the order given.`,
		Example: `  pco find people/v2/people 12345 --include addresses,emails
  pco find people/v2/people 1 2 3 -o json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, ids := args[0], args[1:]

			return runWithProxy(cmd, path, opts, func(ctx context.Context, proxy *pco.CollectionProxy, format string) error {
				if len(ids) == 1 {
					obj, err := proxy.Find(ctx, ids[0])
					if err != nil {
						return err
					}

					return RenderObject(cmd.OutOrStdout(), obj, format)
				}

				results := proxy.Kind().FindMany(ctx, ids, concurrency, func(p *pco.CollectionProxy) {
					_, _ = opts.Apply(p)
				})

				objects := make([]*pco.Object, 0, len(results))
				for _, result := range results {
					if result.Error != nil {
						return fmt.Errorf("finding %s: %w", result.ID, result.Error)
					}

					objects = append(objects, result.Object)
				}

				return RenderObjects(cmd.OutOrStdout(), objects, format)
			})
		},
	}

	addIncludeFlag(cmd, opts)
	cmd.Flags().IntVar(&concurrency, "concurrency", pco.DefaultBatchConcurrency, "parallel lookups when several ids are given")

	return cmd
}

// collect drains proxy, stopping after limit objects when limit > 0.
func collect(ctx context.Context, proxy *pco.CollectionProxy, limit int) ([]*pco.Object, error) {
	objects := []*pco.Object{}

	for obj, err := range proxy.Iter(ctx) {
		if err != nil {
			return nil, err
		}

		objects = append(objects, obj)
		if limit > 0 && len(objects) >= limit {
			break
		}
	}

	return objects, nil
}
