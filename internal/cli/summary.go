package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ledgerbook/internal/services"
)

func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the cash-flow summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := open(rootOpts, "stderr")
			if err != nil {
				return err
			}
			defer rt.Close()

			sum, err := services.NewCashFlowService(rt.Stores, rt.Clock).Summary(cmd.Context())
			if err != nil {
				return err
			}
			out := &Output{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(sum, func(w io.Writer) {
				fmt.Fprintf(w, "Current balance:   %s\n", sum.CurrentBalance.StringFixed(2))
				fmt.Fprintf(w, "Projected balance: %s\n", sum.ProjectedBalance.StringFixed(2))
				fmt.Fprintf(w, "Pending income:    %s (%d orders)\n", sum.TotalPendingIncome.StringFixed(2), sum.PendingOrders)
				fmt.Fprintf(w, "This month:        +%s -%s = %s\n",
					sum.MonthlyIncome.StringFixed(2), sum.MonthlyExpenses.StringFixed(2), sum.MonthlyProfit.StringFixed(2))
			})
		},
	}
}
