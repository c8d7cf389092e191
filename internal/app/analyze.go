package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/meridian-ops/voclens/internal/config"
	"github.com/meridian-ops/voclens/internal/logging"
	"github.com/meridian-ops/voclens/internal/output"
	"github.com/meridian-ops/voclens/internal/pipeline"
	"github.com/meridian-ops/voclens/internal/report"
	"github.com/meridian-ops/voclens/internal/semantic"
	"github.com/meridian-ops/voclens/internal/store"
	"github.com/meridian-ops/voclens/internal/ticketing"
)

var (
	analyzePeriod string
	analyzeStart  string
	analyzeEnd    string
	analyzeNoDB   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <export-file>",
	Short: "Classify an export and produce the period report",
	Long: `Run the full analysis over a ticketing export (JSON array or JSONL):
tier segmentation, resolution classification, topic detection and
aggregation, snapshot persistence, and comparison against the prior period.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzePeriod, "period", "weekly", "Analysis cadence: weekly, monthly, quarterly, or custom")
	analyzeCmd.Flags().StringVar(&analyzeStart, "period-start", "", "Period start date (YYYY-MM-DD, default: current period)")
	analyzeCmd.Flags().StringVar(&analyzeEnd, "period-end", "", "Period end date (YYYY-MM-DD, required for custom periods)")
	analyzeCmd.Flags().BoolVar(&analyzeNoDB, "no-db", false, "Skip snapshot persistence and comparison")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	rep, err := runAnalysis(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(rep)
	}
	output.RenderReport(os.Stdout, rep)
	return nil
}

// runAnalysis wires config, store, and collaborator together and executes the
// pipeline over the given export file. Shared by analyze and export.
func runAnalysis(ctx context.Context, inputPath string) (*report.Report, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if flagNoColor {
		output.SetNoColor(true)
	}

	level := cfg.LogLevel
	if flagVerbose {
		level = "debug"
	}
	log := logging.New(level)

	period, err := resolvePeriod(analyzePeriod, analyzeStart, analyzeEnd)
	if err != nil {
		return nil, err
	}

	convs, err := ticketing.LoadExport(inputPath, log)
	if err != nil {
		return nil, fmt.Errorf("loading export: %w", err)
	}

	var db *store.DB
	if !analyzeNoDB {
		db, err = store.Open(config.DBPath())
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		defer func() { _ = db.Close() }()
	}

	// A nil client disables semantic discovery and sentiment; the pipeline
	// runs rule-based only.
	var collab semantic.Collaborator
	if client := semantic.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.Semantic.Model, log); client != nil {
		collab = client
	} else {
		log.Debug("OPENAI_API_KEY not set, semantic analysis disabled")
	}

	return pipeline.New(cfg, db, collab, log).Run(ctx, convs, period)
}

// resolvePeriod turns the period flags into a concrete analysis period.
// Without an explicit start, the period containing today is used.
func resolvePeriod(periodType, startStr, endStr string) (pipeline.Period, error) {
	pt := store.PeriodType(periodType)
	switch pt {
	case store.PeriodWeekly, store.PeriodMonthly, store.PeriodQuarterly, store.PeriodCustom:
	default:
		return pipeline.Period{}, fmt.Errorf("unknown period type %q", periodType)
	}

	var start time.Time
	if startStr != "" {
		var err error
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return pipeline.Period{}, fmt.Errorf("parsing period start: %w", err)
		}
	} else {
		if pt == store.PeriodCustom {
			return pipeline.Period{}, fmt.Errorf("custom periods require --period-start")
		}
		start = periodStart(pt, time.Now().UTC())
	}

	var end time.Time
	if endStr != "" {
		var err error
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return pipeline.Period{}, fmt.Errorf("parsing period end: %w", err)
		}
	} else {
		if pt == store.PeriodCustom {
			return pipeline.Period{}, fmt.Errorf("custom periods require --period-end")
		}
		end = periodEnd(pt, start)
	}

	if end.Before(start) {
		return pipeline.Period{}, fmt.Errorf("period end %s before start %s", endStr, startStr)
	}
	return pipeline.Period{Type: pt, Start: start, End: end}, nil
}

// periodStart returns the start of the period containing t.
func periodStart(pt store.PeriodType, t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch pt {
	case store.PeriodWeekly:
		// Weeks start Monday.
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case store.PeriodMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case store.PeriodQuarterly:
		q := (int(t.Month()) - 1) / 3
		return time.Date(t.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// periodEnd returns the end of the period starting at start.
func periodEnd(pt store.PeriodType, start time.Time) time.Time {
	switch pt {
	case store.PeriodWeekly:
		return start.AddDate(0, 0, 7)
	case store.PeriodMonthly:
		return start.AddDate(0, 1, 0)
	case store.PeriodQuarterly:
		return start.AddDate(0, 3, 0)
	default:
		return start
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
