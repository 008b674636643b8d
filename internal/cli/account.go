package cli

import (
	"text/tabwriter"

	"github.com/spf13/cobra"

	"paper-trader/internal/store"
)

// addAccountCommands registers setup, account, portfolio, and history.
func addAccountCommands(root *cobra.Command, app *App) {
	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Initialize or reset the paper trading account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cash, _ := cmd.Flags().GetFloat64("cash")
			if err := app.Account.Reset(cash); err != nil {
				return err
			}
			cmd.Printf("Paper account initialized with %s\n", FormatMoney(cash))
			return nil
		},
	}
	setupCmd.Flags().Float64("cash", 100000, "starting cash")

	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Show cash, positions, and total equity",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary := app.Analyzer.Summary(cmd.Context())

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return printJSON(cmd, summary)
			}

			cmd.Printf("Cash: %s\n", FormatMoney(summary.Cash))
			if len(summary.Positions) > 0 {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				w.Write([]byte("SYMBOL\tQTY\tAVG COST\tPRICE\tVALUE\tP&L\n"))
				for _, p := range summary.Positions {
					price := FormatMoney(p.CurrentPrice)
					pnl := FormatSignedMoney(p.UnrealizedPnL) + " (" + FormatPercent(p.UnrealizedPnLPercent) + ")"
					if !p.PriceAvailable {
						price = "unavailable"
						pnl = "unavailable"
					}
					writeRow(w, p.Symbol, p.Quantity, FormatMoney(p.AverageCost), price, FormatMoney(p.MarketValue), pnl)
				}
				w.Flush()
			}
			cmd.Printf("Total equity: %s\n", FormatMoney(summary.TotalEquity))
			cmd.Printf("Unrealized P&L: %s\n", FormatSignedMoney(summary.UnrealizedPnL))
			return nil
		},
	}

	portfolioCmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Analyze portfolio composition and performance",
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis := app.Analyzer.Analyze(cmd.Context())

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return printJSON(cmd, analysis)
			}

			cmd.Printf("Total equity: %s  (return %s)\n",
				FormatMoney(analysis.TotalEquity), FormatPercent(analysis.TotalReturnPercent))
			cmd.Printf("Cash: %s (%.2f%%)  Invested: %s (%.2f%%)\n",
				FormatMoney(analysis.Cash), analysis.CashPercent,
				FormatMoney(analysis.Invested), analysis.InvestedPercent)
			cmd.Printf("Unrealized P&L: %s (%s)\n",
				FormatSignedMoney(analysis.UnrealizedPnL), FormatPercent(analysis.UnrealizedPnLPercent))

			if len(analysis.Positions) > 0 {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				w.Write([]byte("SYMBOL\tVALUE\tWEIGHT\tP&L\n"))
				for _, p := range analysis.Positions {
					writeRow(w, p.Symbol, FormatMoney(p.MarketValue),
						FormatPercentPlain(p.Weight),
						FormatSignedMoney(p.UnrealizedPnL)+" ("+FormatPercent(p.UnrealizedPnLPercent)+")")
				}
				w.Flush()
			}
			if analysis.MostConcentrated != "" {
				cmd.Printf("Most concentrated: %s\n", analysis.MostConcentrated)
			}
			return nil
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled orders, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Journal == nil {
				cmd.Println("Journal unavailable; no order history.")
				return nil
			}

			symbol, _ := cmd.Flags().GetString("symbol")
			limit, _ := cmd.Flags().GetInt("limit")

			orders, err := app.Journal.GetOrders(cmd.Context(), store.OrderFilter{
				Symbol: symbol,
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return printJSON(cmd, orders)
			}

			if len(orders) == 0 {
				cmd.Println("No orders.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()
			w.Write([]byte("TIME\tID\tSYMBOL\tSIDE\tTYPE\tQTY\tSTATUS\tFILL\tREASON\n"))
			for _, o := range orders {
				fill := ""
				if o.Filled() {
					fill = FormatMoney(o.FillPrice)
				}
				writeRow(w, o.SubmittedAt.Format("2006-01-02 15:04:05"), o.ID, o.Symbol,
					string(o.Side), string(o.Type), o.Quantity, string(o.Status), fill, o.RejectReason)
			}
			return nil
		},
	}
	historyCmd.Flags().String("symbol", "", "filter by symbol")
	historyCmd.Flags().Int("limit", 50, "maximum rows")

	root.AddCommand(setupCmd, accountCmd, portfolioCmd, historyCmd)
}
