package main

import (
	"fmt"
	"os"

	"github.com/aretw0/warden/internal/cli"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show when the configured triggers fire next",
	Run: func(cmd *cobra.Command, args []string) {
		path, set := settingsFlags(cmd)
		plain, _ := cmd.Flags().GetBool("plain")
		if err := cli.PrintSchedule(cli.ReportOptions{ConfigPath: path, Set: set, Plain: plain}); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().Bool("plain", false, "Print raw markdown")
}
