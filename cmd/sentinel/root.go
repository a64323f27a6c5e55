package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Sentinel - financial compliance rule engine",
	Long: `Sentinel is a financial compliance rule engine.

It compiles compliance rules written in a small condition-expression language
into an immutable, versioned rule set and evaluates business facts against
it, producing:
  - Findings with severity-driven handling deadlines
  - A complete per-rule execution log
  - Hash-linked evidence chains for every finding
  - Hot rule reloads that never disturb in-flight executions`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
