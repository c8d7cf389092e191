// Package app contains the Cobra command tree for voclens.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "voclens",
	Short: "Voice-of-customer analysis for support conversation exports",
	Long: `voclens classifies exported support conversations by handling tier and
resolution outcome, detects and aggregates topics, and tracks topic volumes
across analysis periods.

Point it at a ticketing export (JSON or JSONL) and it produces a structured
report: who handled what, what got resolved, which topics customers raise,
and how that compares to the previous period.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("voclens", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  analyze    Classify an export and produce the period report")
		fmt.Println("  compare    Diff the two most recent snapshots of a cadence")
		fmt.Println("  snapshots  List persisted period snapshots")
		fmt.Println("  export     Run analysis and write an Excel workbook")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/voclens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output")
}
