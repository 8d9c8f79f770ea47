package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/pco-client/internal/constants"
	"github.com/fivetwenty-io/pco-client/pkg/pco/people"
)

// NewPeopleCommand creates the people command group.
func NewPeopleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "people",
		Aliases: []string{"person"},
		Short:   "Browse people",
		Long:    "List and show People v2 people with their addresses, emails, phone numbers and households",
	}

	cmd.AddCommand(newPeopleListCommand())
	cmd.AddCommand(newPeopleGetCommand())

	return cmd
}

func newPeopleListCommand() *cobra.Command {
	var (
		where []string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List people",
		Long:  "List people matching the given filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}

			filters, err := ParseFilters(where)
			if err != nil {
				return err
			}

			return withCatalogue(cmd, func(ctx context.Context, catalogue *people.Catalogue) error {
				list, err := catalogue.ListPeople(ctx, filters, limit)
				if err != nil {
					return err
				}

				return renderPeople(cmd.OutOrStdout(), list, format)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, "filter as attribute=value (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "l", constants.DefaultPageSize, "stop after this many people (0 for all)")

	return cmd
}

func newPeopleGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one person",
		Long:  "Show a person with every known relationship",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}

			return withCatalogue(cmd, func(ctx context.Context, catalogue *people.Catalogue) error {
				person, err := catalogue.GetPerson(ctx, args[0])
				if err != nil {
					return err
				}

				return renderPerson(cmd.OutOrStdout(), person, format)
			})
		},
	}
}

func withCatalogue(cmd *cobra.Command, fn func(ctx context.Context, catalogue *people.Catalogue) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	return fn(ctx, s.catalogue())
}

func renderPeople(out io.Writer, list []people.Person, format string) error {
	switch format {
	case constants.FormatJSON:
		return encodeJSON(out, list)
	case constants.FormatYAML:
		return encodeYAML(out, list)
	case constants.FormatTOML:
		return encodeTOML(out, list)
	}

	if len(list) == 0 {
		_, _ = fmt.Fprintln(out, "No people found")

		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header("ID", "Name", "Email", "Status", "Membership")

	for _, person := range list {
		_ = table.Append([]string{
			strconv.Itoa(person.ID),
			person.Name(),
			person.PrimaryEmail(),
			person.Status,
			person.Membership,
		})
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func renderPerson(out io.Writer, person *people.Person, format string) error {
	switch format {
	case constants.FormatJSON:
		return encodeJSON(out, person)
	case constants.FormatYAML:
		return encodeYAML(out, person)
	case constants.FormatTOML:
		return encodeTOML(out, person)
	}

	table := tablewriter.NewWriter(out)
	table.Header("Property", "Value")
	_ = table.Append([]string{"ID", strconv.Itoa(person.ID)})
	_ = table.Append([]string{"Name", person.Name()})
	_ = table.Append([]string{"Status", person.Status})
	_ = table.Append([]string{"Membership", person.Membership})

	for _, email := range person.Emails {
		_ = table.Append([]string{"Email", labelled(email.Address, email.Location, email.Primary)})
	}

	for _, phone := range person.PhoneNumbers {
		_ = table.Append([]string{"Phone", labelled(phone.Number, phone.Location, phone.Primary)})
	}

	for _, address := range person.Addresses {
		street := strings.Join([]string{address.Street, address.City, address.State, address.Zip}, ", ")
		_ = table.Append([]string{"Address", labelled(street, address.Location, address.Primary)})
	}

	for _, household := range person.Households {
		_ = table.Append([]string{"Household", household.Name})
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func labelled(value, location string, primary bool) string {
	if location != "" {
		value += " (" + location + ")"
	}

	if primary {
		value += " *"
	}

	return value
}
