package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/rcctl/internal/app"
)

func newCustomersCmd(r *runner) *cobra.Command {
	cmd := groupCmd("customers", "Inspect customers", "Look up customer records in the project.")

	var field string
	get := &cobra.Command{
		Use:   "get <userId>",
		Short: "Print a customer record as JSON",
		Long: `Print the full customer record as indented JSON, or a single value with --field.

Examples:
  rcctl customers get user123
  rcctl customers get user123 --field active_entitlements.items.#.entitlement_id`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: r.withApp(func(ctx context.Context, a *app.App, args []string) error {
			return a.ShowCustomer(ctx, args[0], field)
		}),
	}
	get.Flags().StringVar(&field, "field", "", "print only the value at this JSON path")

	cmd.AddCommand(get)
	return cmd
}
