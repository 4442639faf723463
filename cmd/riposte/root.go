package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "riposte",
	Short: "Riposte is a decision engine for conditional input automation",
	Long: `Riposte evaluates prioritized rules and guarded state transitions against
facts published by a recognition subsystem, and emits the actions that an
input-simulation host should perform.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides RIPOSTE_LOG_LEVEL)")
}
