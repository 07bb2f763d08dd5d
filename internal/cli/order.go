package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"ledgerbook/internal/services"
	"ledgerbook/internal/validate"
)

func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Run the order workflow",
	}
	cmd.AddCommand(newOrderCreateCommand(rootOpts))
	cmd.AddCommand(newOrderPayCommand(rootOpts))
	cmd.AddCommand(newOrderCancelCommand(rootOpts))
	return cmd
}

func orderService(rt *runtime) *services.OrderService {
	return services.NewOrderService(rt.Stores, rt.Clock, rt.Log,
		services.SalesCategory{Name: rt.Config.SalesCategoryName, Color: rt.Config.SalesCategoryColor})
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, len(args))
	for i, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil || id <= 0 {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid id %q", a))
		}
		ids[i] = id
	}
	return ids, nil
}

func newOrderCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <customer-id> <product-id> <quantity>",
		Short: "Reserve stock and record a pending order",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[:2])
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[2])
			if err != nil || !validate.Qty(qty) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid quantity %q", args[2]))
			}
			rt, err := open(rootOpts, "stderr")
			if err != nil {
				return err
			}
			defer rt.Close()

			o, err := orderService(rt).Create(cmd.Context(), ids[0], ids[1], qty)
			if err != nil {
				return err
			}
			out := &Output{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(o, func(w io.Writer) {
				fmt.Fprintf(w, "Order #%d created: %d units, total %s\n", o.ID, o.Quantity, o.TotalAmount.StringFixed(2))
			})
		},
	}
}

func newOrderPayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pay <order-id>",
		Short: "Confirm payment and book the income entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			rt, err := open(rootOpts, "stderr")
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := orderService(rt).MarkAsPaid(cmd.Context(), ids[0])
			if err != nil {
				return err
			}
			out := &Output{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(res, func(w io.Writer) {
				if res.AlreadyPaid {
					fmt.Fprintf(w, "Order #%d was already paid\n", ids[0])
					return
				}
				fmt.Fprintf(w, "Order #%d paid, transaction #%d\n", ids[0], res.TransactionID)
			})
		},
	}
}

func newOrderCancelCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <order-id>",
		Short: "Cancel an order and return its stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			rt, err := open(rootOpts, "stderr")
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := orderService(rt).Cancel(cmd.Context(), ids[0])
			if err != nil {
				return err
			}
			out := &Output{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(res, func(w io.Writer) {
				switch {
				case res.AlreadyCancelled:
					fmt.Fprintf(w, "Order #%d was already cancelled\n", ids[0])
				case res.StockRestored:
					fmt.Fprintf(w, "Order #%d cancelled, stock restored\n", ids[0])
				default:
					fmt.Fprintf(w, "Order #%d cancelled, product gone; stock not restored\n", ids[0])
				}
			})
		},
	}
}
