package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lcampedelli/riposte/pkg/dsl"
)

var validateCmd = &cobra.Command{
	Use:   "validate <definition.yaml>",
	Short: "Check a machine definition for consistency",
	Long: `Builds the machine from the definition and runs activation checks:
resolvable transition endpoints, unique state names, a valid operator on
every condition and enough topology to activate.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(args[0]); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Definition is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string) error {
	m, err := dsl.Load(path)
	if err != nil {
		return err
	}
	if err := m.Activate(); err != nil {
		return err
	}

	fmt.Printf("Machine:     %s\n", m.Name)
	fmt.Printf("States:      %d\n", len(m.States()))
	fmt.Printf("Transitions: %d\n", len(m.Transitions()))
	fmt.Printf("Rules:       %d\n", len(m.Rules()))
	return nil
}
