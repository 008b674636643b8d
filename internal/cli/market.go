package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// addMarketCommands registers the quote and history-data commands.
func addMarketCommands(root *cobra.Command, app *App) {
	quoteCmd := &cobra.Command{
		Use:   "quote SYMBOL",
		Short: "Get a current price quote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(args[0])
			quote, err := app.Gateway.GetQuote(cmd.Context(), symbol)
			if err != nil {
				return err
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return printJSON(cmd, quote)
			}

			cmd.Printf("%s: %s  %s (%s)  vol %d\n",
				quote.Symbol,
				FormatMoney(quote.Price),
				FormatSignedMoney(quote.Change),
				FormatPercent(quote.ChangePercent),
				quote.Volume,
			)
			return nil
		},
	}

	historyDataCmd := &cobra.Command{
		Use:   "bars SYMBOL",
		Short: "Get historical price data and statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(args[0])
			period, _ := cmd.Flags().GetString("period")
			interval, _ := cmd.Flags().GetString("interval")

			summary, err := app.Analyzer.Historical(cmd.Context(), symbol, period, interval)
			if err != nil {
				return err
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return printJSON(cmd, summary)
			}

			cmd.Printf("%s %s/%s: %s -> %s  %s (%s)\n",
				summary.Symbol, summary.Period, summary.Interval,
				FormatMoney(summary.StartPrice), FormatMoney(summary.EndPrice),
				FormatSignedMoney(summary.Change), FormatPercent(summary.ChangePercent),
			)
			cmd.Printf("high %s  low %s  avg volume %.0f  bars %d\n",
				FormatMoney(summary.High), FormatMoney(summary.Low),
				summary.AvgVolume, len(summary.Candles),
			)
			return nil
		},
	}
	historyDataCmd.Flags().String("period", "1mo", "window: 1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, ytd, max")
	historyDataCmd.Flags().String("interval", "1d", "bar interval: 1m, 5m, 15m, 30m, 1h, 1d, 1wk, 1mo")

	root.AddCommand(quoteCmd, historyDataCmd)
}

// printJSON writes v as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
