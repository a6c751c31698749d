package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/warden/internal/cli"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send COMMAND [ARGS...]",
	Short: "Send a control command to a running warden",
	Long: `Sends one command (STOP, RESTART [COLD], ENABLEAPI, STATUS) to a running
controller over its control channel, or over its HTTP API with --http.`,
	Example: `  warden send STATUS
  warden send RESTART COLD --addr 10.0.0.5:7462
  warden send STOP --http http://localhost:8080`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path, set := settingsFlags(cmd)
		opts := cli.SendOptions{ConfigPath: path, Set: set}
		opts.Addr, _ = cmd.Flags().GetString("addr")
		opts.HTTPURL, _ = cmd.Flags().GetString("http")
		opts.Timeout, _ = cmd.Flags().GetDuration("timeout")

		reply, err := cli.Send(cmd.Context(), strings.Join(args, " "), opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(cmd.OutOrStdout(), reply)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().String("addr", "", "Control channel address (defaults to the configured one)")
	sendCmd.Flags().String("http", "", "Base URL of the HTTP API")
	sendCmd.Flags().Duration("timeout", 30*time.Second, "Give up after this long")
}
