// Package export writes an assembled report to an Excel workbook with
// summary, topics, and comparison sheets.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/meridian-ops/voclens/internal/report"
)

const (
	sheetSummary    = "Summary"
	sheetTopics     = "Topics"
	sheetComparison = "Comparison"
)

// WriteReport writes the report as an .xlsx workbook at path.
func WriteReport(rep *report.Report, path string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	f.SetSheetName("Sheet1", sheetSummary)
	if err := writeSummary(f, rep); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}

	if _, err := f.NewSheet(sheetTopics); err != nil {
		return err
	}
	if err := writeTopics(f, rep); err != nil {
		return fmt.Errorf("topics sheet: %w", err)
	}

	if rep.Comparison != nil {
		if _, err := f.NewSheet(sheetComparison); err != nil {
			return err
		}
		if err := writeComparison(f, rep); err != nil {
			return fmt.Errorf("comparison sheet: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, rep *report.Report) error {
	c := rep.Resolution.Counts
	rows := [][]any{
		{"Run", rep.RunID},
		{"Generated", rep.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Period type", string(rep.PeriodType)},
		{"Period start", rep.PeriodStart.Format("2006-01-02")},
		{"Period end", rep.PeriodEnd.Format("2006-01-02")},
		{"Conversations", rep.TotalConversations},
		{"Topics", len(rep.Topics)},
		{"Degraded sections", rep.DegradedSections},
		{"Resolved", c.Resolved},
		{"Failed", c.Failed},
		{"Escalated", c.Escalated},
		{"Knowledge gaps", c.KnowledgeGaps},
		{"FCR rate", rep.Resolution.FCRRate},
		{"Deflection rate", rep.Resolution.DeflectionRate},
	}
	return writeRows(f, sheetSummary, rows)
}

func writeTopics(f *excelize.File, rep *report.Report) error {
	rows := [][]any{
		{"Topic", "Volume", "Share %", "Resolved", "Failed", "Escalated", "Status", "Sentiment"},
	}
	for _, sec := range rep.Topics {
		rows = append(rows, []any{
			sec.Topic, sec.Volume, sec.Percentage,
			sec.Resolution.Resolved, sec.Resolution.Failed, sec.Resolution.Escalated,
			string(sec.Status), sec.Sentiment,
		})
	}
	return writeRows(f, sheetTopics, rows)
}

func writeComparison(f *excelize.File, rep *report.Report) error {
	cmp := rep.Comparison
	if cmp.NoBaseline {
		return writeRows(f, sheetComparison, [][]any{{"No baseline available"}})
	}

	rows := [][]any{
		{"Prior snapshot", cmp.PriorSnapshotID},
		{"Topic", "Prior", "Current", "Delta", "Relative change", "Significant"},
	}
	significant := make(map[string]bool, len(cmp.SignificantChanges))
	for _, d := range cmp.SignificantChanges {
		significant[d.Topic] = true
	}
	for _, d := range cmp.Deltas {
		rel := any("new")
		if d.RelativeChange != nil {
			rel = *d.RelativeChange
		}
		rows = append(rows, []any{
			d.Topic, d.PriorVolume, d.CurrentVolume, d.VolumeDelta,
			rel, significant[d.Topic],
		})
	}
	return writeRows(f, sheetComparison, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
