package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alucardeht/prosaic/internal/mcp"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tools over stdio",
		Long: `Serve the tools as newline-delimited JSON-RPC on stdin and stdout, for MCP
clients that spawn their server. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			registry, err := a.registry()
			if err != nil {
				return err
			}
			server := mcp.NewServer(registry)
			return server.ProcessStream(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
