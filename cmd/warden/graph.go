package main

import (
	"fmt"
	"os"

	"github.com/aretw0/warden/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the session lifecycle as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph TD) of the session phases. With --status the
phases a running controller has been through are highlighted.`,
	Run: func(cmd *cobra.Command, args []string) {
		statusURL, _ := cmd.Flags().GetString("status")
		if err := cli.PrintLifecycle(cmd.Context(), cmd.OutOrStdout(), statusURL); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().String("status", "", "Base URL of a running controller's HTTP API")
}
