// Package cli provides the command-line interface for the paper trading
// application.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"paper-trader/internal/config"
	"paper-trader/internal/engine"
	"paper-trader/internal/ledger"
	"paper-trader/internal/logging"
	"paper-trader/internal/marketdata"
	"paper-trader/internal/portfolio"
	"paper-trader/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies. Components are wired in
// PersistentPreRunE, after flags are parsed.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Account  *ledger.Account
	Gateway  marketdata.Gateway
	Executor *engine.Executor
	Analyzer *portfolio.Analyzer
	Journal  store.Journal
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "trader",
		Short: "Paper trading CLI with live market data",
		Long: `Paper trader simulates a brokerage account against live market data:
orders fill at real quotes, but no capital is at risk.

Account state lives in memory for the lifetime of the process. Single-shot
commands (order, account, portfolio) act on a fresh account; run 'trader serve'
to keep a session alive behind the MCP stdio interface. Resolved orders are
always journaled, so 'trader history' sees past runs.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			mock, _ := cmd.Flags().GetBool("mock")
			return app.wire(mock)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Journal != nil {
				if err := app.Journal.Close(); err != nil {
					app.Logger.Warn().Err(err).Msg("Failed to close journal")
				}
			}
		},
	}

	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("mock", false, "use mock market data instead of the live API")

	addAccountCommands(rootCmd, app)
	addMarketCommands(rootCmd, app)
	addTradeCommands(rootCmd, app)
	addServeCommand(rootCmd, app)

	return rootCmd
}

// wire builds the engine components from configuration.
func (app *App) wire(mock bool) error {
	if err := app.Config.Validate(); err != nil {
		return err
	}

	if mock || app.Config.Data.UseMock || app.Config.Alpaca.APIKey == "" {
		if !mock && !app.Config.Data.UseMock {
			app.Logger.Debug().Msg("No API credentials, falling back to mock market data")
		}
		app.Gateway = marketdata.NewStaticGateway()
	} else {
		app.Gateway = marketdata.NewAlpacaGateway(marketdata.AlpacaConfig{
			APIKey:    app.Config.Alpaca.APIKey,
			APISecret: app.Config.Alpaca.APISecret,
			DataURL:   app.Config.Alpaca.DataURL,
			Timeout:   app.Config.Data.RequestTimeout,
		}, app.Logger)
	}

	account, err := ledger.New(app.Config.Trading.StartingCash)
	if err != nil {
		return err
	}
	app.Account = account

	journal, err := store.NewSQLiteJournal(app.Config.Storage.JournalPath)
	if err != nil {
		app.Logger.Warn().Err(err).Msg("Journal unavailable, order history will not persist")
	} else {
		app.Journal = journal
	}

	app.Executor = engine.NewExecutor(engine.Config{
		Account: account,
		Gateway: app.Gateway,
		Journal: app.Journal,
		Limits: engine.RiskLimits{
			MaxPositionSize: app.Config.Risk.MaxPositionSize,
			MaxDailyLoss:    app.Config.Risk.MaxDailyLoss,
		},
		Commission: app.Config.Trading.Commission,
	}, app.Logger)

	app.Analyzer = portfolio.NewAnalyzer(account, app.Gateway, app.Logger)

	return nil
}
