package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/rcctl/internal/app"
)

func newEntitlementsCmd(r *runner) *cobra.Command {
	cmd := groupCmd("entitlements", "Inspect, grant and revoke entitlements",
		"List the project's entitlements, or a customer's active ones, and manage promotional grants.")

	get := &cobra.Command{
		Use:   "get [userId]",
		Short: "List a customer's active entitlements, or all project entitlements",
		Long: `With a user ID, list that customer's active entitlements and when they expire.
Without one, list every entitlement defined in the project.

Examples:
  rcctl entitlements get
  rcctl entitlements get user123`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: r.withApp(func(ctx context.Context, a *app.App, args []string) error {
			if len(args) == 0 {
				return a.ShowCatalog(ctx)
			}
			return a.ShowActiveEntitlements(ctx, args[0])
		}),
	}

	add := &cobra.Command{
		Use:   "add <userId> <entitlementId> <expiration>",
		Short: "Grant an entitlement to a customer with expiration",
		Long: `Grant an entitlement until the given expiration. The expiration is a
duration from now (30m, 2h, 7d, 1w, 1M, 1y), an ISO 8601 date or date-time,
or "never".

Examples:
  rcctl entitlements add user123 entla1b2c3d4e5 7d
  rcctl entitlements add user123 entla1b2c3d4e5 2h
  rcctl entitlements add user123 entla1b2c3d4e5 2026-02-15T14:30:00Z
  rcctl entitlements add user123 entla1b2c3d4e5 never`,
		Args: usageArgs(cobra.ExactArgs(3)),
		RunE: r.withApp(func(ctx context.Context, a *app.App, args []string) error {
			return a.Grant(ctx, args[0], args[1], args[2])
		}),
	}

	del := &cobra.Command{
		Use:   "del <userId> <entitlementId>",
		Short: "Revoke a granted entitlement from a customer",
		Long: `Revoke a promotional entitlement previously granted to a customer.

Example:
  rcctl entitlements del user123 entla1b2c3d4e5`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: r.withApp(func(ctx context.Context, a *app.App, args []string) error {
			return a.Revoke(ctx, args[0], args[1])
		}),
	}

	cmd.AddCommand(get, add, del)
	return cmd
}
