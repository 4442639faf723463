package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	riposte "github.com/lcampedelli/riposte"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of riposte",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("riposte version %s\n", strings.TrimSpace(riposte.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
