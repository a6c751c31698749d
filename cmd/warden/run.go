package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/aretw0/warden/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Launch the host and supervise it until it stops",
	Long: `Launches the configured host command and supervises the session.

The exit code tells a supervisor what to do next:
  0   the session ended normally
  10  restart the host
  11  cold restart the host (re-authenticate)
  2-5 the settings or command line are wrong; do not restart`,
	Run: func(cmd *cobra.Command, args []string) {
		path, set := settingsFlags(cmd)
		if !cmd.Flags().Changed("config") && len(args) > 0 {
			path = args[0]
		}

		if v, _ := cmd.Flags().GetString("instance"); v != "" {
			set = append(set, "Instance="+v)
		}
		if v, _ := cmd.Flags().GetString("http"); v != "" {
			set = append(set, "HTTP_ADDRESS="+v)
		}
		if cmd.Flags().Changed("port") {
			port, _ := cmd.Flags().GetInt("port")
			set = append(set, "CommandServerPort="+strconv.Itoa(port))
		}
		if cmd.Flags().Changed("fix") {
			fix, _ := cmd.Flags().GetBool("fix")
			set = append(set, "FIX="+strconv.FormatBool(fix))
		}

		opts := cli.RunOptions{ConfigPath: path, Set: set}
		opts.Demo, _ = cmd.Flags().GetBool("demo")
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")
		opts.NoPrompt, _ = cmd.Flags().GetBool("no-prompt")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		code, err := cli.Run(ctx, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(int(code))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("instance", "", "Session name used in the status store and locks")
	runCmd.Flags().String("http", "", "Serve the status API on this address")
	runCmd.Flags().Int("port", 0, "Control channel port (0 disables it)")
	runCmd.Flags().Bool("fix", false, "Run in FIX mode instead of API mode")
	runCmd.Flags().Bool("demo", false, "Supervise an in-memory host instead of launching a process")
	runCmd.Flags().Bool("debug", false, "Log at debug level")
	runCmd.Flags().BoolP("quiet", "q", false, "Skip the banner and summary")
	runCmd.Flags().Bool("no-prompt", false, "Never prompt for a missing password")
}
