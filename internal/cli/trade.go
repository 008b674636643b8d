package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"paper-trader/internal/engine"
	"paper-trader/internal/models"
)

// addTradeCommands registers the order command.
func addTradeCommands(root *cobra.Command, app *App) {
	orderCmd := &cobra.Command{
		Use:   "order SYMBOL",
		Short: "Submit a simulated buy or sell order",
		Long: `Submit a simulated order. Market orders fill at the live quote; limit
orders resolve immediately (filled when the quote satisfies the limit,
rejected otherwise). Exits nonzero when the order is rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			side, _ := cmd.Flags().GetString("side")
			qty, _ := cmd.Flags().GetInt("quantity")
			orderType, _ := cmd.Flags().GetString("type")
			limitPrice, _ := cmd.Flags().GetFloat64("limit-price")

			order, err := app.Executor.SubmitOrder(cmd.Context(), engine.OrderRequest{
				Symbol:     args[0],
				Side:       models.OrderSide(strings.ToUpper(side)),
				Type:       models.OrderType(strings.ToUpper(orderType)),
				Quantity:   qty,
				LimitPrice: limitPrice,
			})
			if err != nil {
				return err
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				if err := printJSON(cmd, order); err != nil {
					return err
				}
			} else if order.Filled() {
				cmd.Printf("%s %s %d %s @ %s (order %s)\n",
					order.Status, order.Side, order.Quantity, order.Symbol,
					FormatMoney(order.FillPrice), order.ID)
				if order.Side == models.OrderSideSell {
					cmd.Printf("realized P&L: %s\n", FormatSignedMoney(order.RealizedPnL))
				}
			} else {
				cmd.Printf("%s %s %d %s: %s (order %s)\n",
					order.Status, order.Side, order.Quantity, order.Symbol,
					order.RejectReason, order.ID)
			}

			if !order.Filled() {
				return fmt.Errorf("order rejected: %s", order.RejectReason)
			}
			return nil
		},
	}
	orderCmd.Flags().String("side", "BUY", "BUY or SELL")
	orderCmd.Flags().Int("quantity", 0, "number of shares")
	orderCmd.Flags().String("type", "MARKET", "MARKET or LIMIT")
	orderCmd.Flags().Float64("limit-price", 0, "limit price, required for LIMIT orders")
	orderCmd.MarkFlagRequired("quantity")

	root.AddCommand(orderCmd)
}
