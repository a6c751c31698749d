package main

import (
	"fmt"
	"os"

	"github.com/aretw0/warden/internal/cli"
	"github.com/spf13/cobra"
)

var handlersCmd = &cobra.Command{
	Use:   "handlers",
	Short: "List the dialog handlers in dispatch order",
	Run: func(cmd *cobra.Command, args []string) {
		path, set := settingsFlags(cmd)
		plain, _ := cmd.Flags().GetBool("plain")
		if err := cli.PrintHandlers(cli.ReportOptions{ConfigPath: path, Set: set, Plain: plain}); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(handlersCmd)

	handlersCmd.Flags().Bool("plain", false, "Print raw markdown")
}
