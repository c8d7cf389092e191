package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridian-ops/voclens/internal/config"
	"github.com/meridian-ops/voclens/internal/output"
	"github.com/meridian-ops/voclens/internal/store"
)

var (
	snapshotsPeriod string
	snapshotsLimit  int
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List persisted period snapshots",
	Long: `List the canonical snapshots recorded for a cadence, newest first.
When a period was analyzed more than once, only the most recent run is shown.`,
	RunE: runSnapshots,
}

func init() {
	snapshotsCmd.Flags().StringVar(&snapshotsPeriod, "period", "weekly", "Analysis cadence: weekly, monthly, quarterly, or custom")
	snapshotsCmd.Flags().IntVar(&snapshotsLimit, "limit", 12, "Maximum snapshots to list")
	rootCmd.AddCommand(snapshotsCmd)
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	if _, err := config.Load(flagConfig); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if flagNoColor {
		output.SetNoColor(true)
	}

	db, err := store.Open(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	snaps, err := db.ListSnapshots(store.PeriodType(snapshotsPeriod), snapshotsLimit)
	if err != nil {
		return fmt.Errorf("listing snapshots: %w", err)
	}

	if flagJSON {
		return printJSON(snaps)
	}
	output.RenderSnapshots(os.Stdout, snaps)
	return nil
}
