package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridian-ops/voclens/internal/config"
	"github.com/meridian-ops/voclens/internal/output"
	"github.com/meridian-ops/voclens/internal/store"
)

var comparePeriod string

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Diff the two most recent snapshots of a cadence",
	Long: `Load the most recent snapshot for a cadence from the local database and
compare it against the snapshot of the period before it. No analysis is run;
this reads persisted snapshots only.`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&comparePeriod, "period", "weekly", "Analysis cadence: weekly, monthly, quarterly, or custom")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
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

	pt := store.PeriodType(comparePeriod)
	snaps, err := db.ListSnapshots(pt, 1)
	if err != nil {
		return fmt.Errorf("listing snapshots: %w", err)
	}
	if len(snaps) == 0 {
		return fmt.Errorf("no %s snapshots recorded yet, run analyze first", comparePeriod)
	}
	current := &snaps[0]

	prior, err := db.GetPriorSnapshot(pt, current.PeriodStart)
	if err != nil {
		return fmt.Errorf("loading prior snapshot: %w", err)
	}

	cmpResult := store.Compare(current, prior, cfg.Comparison)

	if flagJSON {
		return printJSON(cmpResult)
	}
	output.RenderComparison(os.Stdout, &cmpResult)
	return nil
}
