package cli

import (
	"os"

	"github.com/spf13/cobra"

	"paper-trader/internal/mcp"
)

// addServeCommand registers the MCP stdio server command.
func addServeCommand(root *cobra.Command, app *App) {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP tool server on stdin/stdout",
		Long: `Serve exposes the trading tools over the Model Context Protocol.
Requests are read from stdin and responses written to stdout, one JSON
object per line. Logs go to stderr and the log file only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := mcp.NewServer(app.Executor, app.Analyzer, app.Logger)
			return server.Serve(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
	root.AddCommand(serveCmd)
}
