package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/rcctl/internal/app"
)

func newVirtualCurrenciesCmd(r *runner) *cobra.Command {
	cmd := groupCmd("virtualcurrencies", "Inspect and adjust virtual currency balances",
		"Show a customer's virtual currency balances and credit or debit them.")

	get := &cobra.Command{
		Use:   "get <userId>",
		Short: "Show a customer's virtual currency balances",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: r.withApp(func(ctx context.Context, a *app.App, args []string) error {
			return a.ShowBalances(ctx, args[0])
		}),
	}

	cmd.AddCommand(
		get,
		newAdjustCmd(r, "add", "Add to a customer's virtual currency balance", `Apply a signed amount to a balance. Negative amounts debit.

Examples:
  rcctl virtualcurrencies add user123 GLD 100
  rcctl virtualcurrencies add user123 GLD -50 -r refund_42`, false),
		newAdjustCmd(r, "del", "Deduct from a customer's virtual currency balance", `Deduct the absolute value of amount from a balance.

Examples:
  rcctl virtualcurrencies del user123 GLD 50
  rcctl virtualcurrencies del user123 GLD 50 -r order_42`, true),
	)
	return cmd
}

// newAdjustCmd builds add and del. debit forces the amount negative.
func newAdjustCmd(r *runner, verb, short, long string, debit bool) *cobra.Command {
	var reference string
	cmd := &cobra.Command{
		Use:   verb + " <userId> <currencyCode> <amount>",
		Short: short,
		Long:  long,
		Args:  usageArgs(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			if debit && amount > 0 {
				amount = -amount
			}
			return r.withApp(func(ctx context.Context, a *app.App, args []string) error {
				return a.AdjustBalance(ctx, args[0], args[1], amount, reference)
			})(cmd, args)
		},
	}
	cmd.Flags().StringVarP(&reference, "reference", "r", "", "reference recorded with the transaction")
	return cmd
}
