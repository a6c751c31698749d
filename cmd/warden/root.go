package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "Warden keeps a trading workstation or gateway running unattended",
	Long: `Warden launches the trading host, answers its dialogs, applies API settings,
shuts it down or restarts it on schedule, and accepts control commands over TCP or HTTP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Errors that carry no exit code of their own exit with ExitBadArguments.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code := domain.ExitBadArguments
		var exitErr *domain.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.Code
		}
		os.Exit(int(code))
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Settings file (YAML); WARDEN_* variables override it")
	rootCmd.PersistentFlags().StringArray("set", nil, "Override a setting, KEY=VALUE (same keys as WARDEN_* without the prefix)")
}

// settingsFlags reads the persistent settings flags.
func settingsFlags(cmd *cobra.Command) (string, []string) {
	path, _ := cmd.Flags().GetString("config")
	set, _ := cmd.Flags().GetStringArray("set")
	return path, set
}
