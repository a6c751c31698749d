package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/aretw0/warden"
	"github.com/aretw0/warden/internal/cli"
	"github.com/aretw0/warden/internal/logging"
	httpadapter "github.com/aretw0/warden/pkg/adapters/http"
	"github.com/aretw0/warden/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes a running controller to MCP clients as tools (status, stop, restart,
enable API). The controller is reached through its HTTP API.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents.`,
	Run: func(cmd *cobra.Command, args []string) {
		target, _ := cmd.Flags().GetString("url")
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")

		// Logs go to stderr so they never corrupt JSON-RPC on stdout.
		logger := logging.New(slog.LevelInfo)
		log.SetOutput(os.Stderr)

		srv := mcp.NewServer(httpadapter.NewClient(target, nil), warden.Version, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			logger.Info("Starting warden MCP server (stdio)", "controller", target)
			if err := srv.ServeStdio(); err != nil {
				logger.Error("MCP server execution failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()
			if err := srv.ServeSSE(ctx, addr, "http://"+addr); err != nil {
				logger.Error("MCP server execution failed", "err", err)
				os.Exit(1)
			}
			logger.Info("MCP server stopped gracefully")
		default:
			fmt.Fprintf(os.Stderr, "Unknown transport: %s. Supported: stdio, sse\n", transport)
			os.Exit(2)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("url", "http://127.0.0.1:8080", "Base URL of the controller's HTTP API")
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", "127.0.0.1:8090", "Listen address (only for SSE)")
}
