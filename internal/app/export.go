package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridian-ops/voclens/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <export-file>",
	Short: "Run analysis and write an Excel workbook",
	Long: `Run the full analysis over a ticketing export and write the assembled
report to an .xlsx workbook with summary, topics, and comparison sheets.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "voclens-report.xlsx", "Output workbook path")
	exportCmd.Flags().StringVar(&analyzePeriod, "period", "weekly", "Analysis cadence: weekly, monthly, quarterly, or custom")
	exportCmd.Flags().StringVar(&analyzeStart, "period-start", "", "Period start date (YYYY-MM-DD, default: current period)")
	exportCmd.Flags().StringVar(&analyzeEnd, "period-end", "", "Period end date (YYYY-MM-DD, required for custom periods)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	rep, err := runAnalysis(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if err := export.WriteReport(rep, exportOut); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}

	fmt.Printf("wrote %s (%d topics, %d conversations)\n", exportOut, len(rep.Topics), rep.TotalConversations)
	return nil
}
