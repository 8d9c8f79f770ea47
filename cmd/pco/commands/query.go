package commands

import (
	"fmt"
	"strings"

	"github.com/gonobo/validator"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/pco-client/internal/constants"
	"github.com/fivetwenty-io/pco-client/pkg/pco"
)

// QueryOptions holds the query flags shared by the collection commands.
type QueryOptions struct {
	Where   []string
	Order   []string
	Include []string
	PerPage int
	Limit   int
}

func addQueryFlags(cmd *cobra.Command, opts *QueryOptions) {
	cmd.Flags().StringArrayVarP(&opts.Where, "where", "w", nil, "filter as attribute=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Order, "order", nil, "order key, prefix with - for descending (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.Include, "include", "i", nil, "relationship to include (repeatable)")
	cmd.Flags().IntVar(&opts.PerPage, "per-page", 0, "records per page (default from config, else server default)")
}

func addIncludeFlag(cmd *cobra.Command, opts *QueryOptions) {
	cmd.Flags().StringArrayVarP(&opts.Include, "include", "i", nil, "relationship to include (repeatable)")
}

// Validate checks flag values.
func (o *QueryOptions) Validate() error {
	err := validator.Validate(
		validator.All(
			validator.Rule(o.PerPage >= 0 && o.PerPage <= constants.MaxPageSize, "%w", constants.ErrInvalidPerPage),
			validator.Rule(o.Limit >= 0, "limit must not be negative"),
		),
	)
	if err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	_, err = ParseFilters(o.Where)

	return err
}

// Apply adds the options to proxy. include names map to generic types
// named after the relationship.
func (o *QueryOptions) Apply(proxy *pco.CollectionProxy) (*pco.CollectionProxy, error) {
	filters, err := ParseFilters(o.Where)
	if err != nil {
		return nil, err
	}

	perPage := o.PerPage
	if perPage == 0 {
		perPage = viper.GetInt("per_page")
	}

	if perPage > 0 {
		proxy.PerPage(perPage)
	}

	if len(filters) > 0 {
		proxy.Where(filters)
	}

	if len(o.Order) > 0 {
		proxy.Order(o.Order...)
	}

	if includes := o.Includes(); len(includes) > 0 {
		proxy.Includes(includes)
	}

	return proxy, nil
}

// Includes builds the relationship mapping for the include flags.
func (o *QueryOptions) Includes() pco.Includes {
	includes := pco.Includes{}

	for _, name := range o.Include {
		for _, rel := range strings.Split(name, ",") {
			rel = strings.TrimSpace(rel)
			if rel == "" {
				continue
			}

			includes[rel] = pco.NewResourceType(pco.ResourceConfig{Name: kindName(rel), Path: rel})
		}
	}

	return includes
}

// ParseFilters parses attribute=value pairs.
func ParseFilters(values []string) (map[string]string, error) {
	filters := make(map[string]string, len(values))

	for _, value := range values {
		key, filter, ok := strings.Cut(value, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidFilter, value)
		}

		filters[strings.TrimSpace(key)] = filter
	}

	return filters, nil
}

func outputFormat() (string, error) {
	format := viper.GetString("output")
	if err := validateOutputFormat(format); err != nil {
		return "", err
	}

	return format, nil
}

func validateOutputFormat(format string) error {
	switch format {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML, constants.FormatTOML:
		return nil
	default:
		return fmt.Errorf("%w: %q (use table, json, yaml or toml)", constants.ErrInvalidOutputFormat, format)
	}
}

func validatePerPage(n int) error {
	if n < 0 || n > constants.MaxPageSize {
		return constants.ErrInvalidPerPage
	}

	return nil
}
