package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/meridian-ops/voclens/internal/report"
	"github.com/meridian-ops/voclens/internal/store"
)

// Section returns a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}

// ShareBar renders a visual bar for a 0-100 percentage share.
// Example: "███░░░░░░░ 28%"
func ShareBar(pct float64, width int) string {
	if width <= 0 {
		width = 10
	}
	filled := int((pct / 100.0) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %s", StyleBold.Render(bar), StyleMuted.Render(fmt.Sprintf("%.0f%%", pct)))
}

// TrendArrow returns a styled trend indicator for a volume delta. Rising
// topic volume means rising complaint volume, so positive deltas render as
// regressions.
func TrendArrow(delta int) string {
	switch {
	case delta > 0:
		return StyleError.Render(fmt.Sprintf("▲ +%d", delta))
	case delta < 0:
		return StyleSuccess.Render(fmt.Sprintf("▼ %d", delta))
	default:
		return StyleMuted.Render("─")
	}
}

// statusBadge renders a section status with appropriate emphasis.
func statusBadge(status report.SectionStatus) string {
	switch status {
	case report.StatusFull:
		return StyleSuccess.Render(string(status))
	case report.StatusDegraded, report.StatusInsufficientData:
		return StyleWarning.Render(string(status))
	default:
		return StyleMuted.Render(string(status))
	}
}

// RenderReport writes the assembled report to w.
func RenderReport(w io.Writer, rep *report.Report) {
	fmt.Fprintln(w, Section(fmt.Sprintf("Voice of Customer — %s %s",
		rep.PeriodType, rep.PeriodStart.Format("2006-01-02"))))

	fmt.Fprintf(w, " %s %d conversations, %d topics",
		StyleBold.Render("Analyzed:"), rep.TotalConversations, len(rep.Topics))
	if rep.DegradedSections > 0 {
		fmt.Fprintf(w, " (%s)", StyleWarning.Render(fmt.Sprintf("%d degraded", rep.DegradedSections)))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, Section("Topics"))
	tbl := NewTable("Topic", "Volume", "Share", "Resolved", "Failed", "Escalated", "Status")
	for _, sec := range rep.Topics {
		tbl.AddRow(
			StyleBold.Render(sec.Topic),
			fmt.Sprintf("%d", sec.Volume),
			ShareBar(sec.Percentage, 10),
			fmt.Sprintf("%d", sec.Resolution.Resolved),
			fmt.Sprintf("%d", sec.Resolution.Failed),
			fmt.Sprintf("%d", sec.Resolution.Escalated),
			statusBadge(sec.Status),
		)
	}
	fmt.Fprint(w, tbl.Render())

	for _, sec := range rep.Topics {
		if sec.Sentiment != "" {
			fmt.Fprintf(w, " %s %s\n", StyleMuted.Render(sec.Topic+":"), sec.Sentiment)
		}
	}

	fmt.Fprintln(w, Section("Resolution"))
	c := rep.Resolution.Counts
	fmt.Fprintf(w, " resolved %s  failed %s  escalated %s  knowledge gaps %s\n",
		StyleSuccess.Render(fmt.Sprintf("%d", c.Resolved)),
		StyleError.Render(fmt.Sprintf("%d", c.Failed)),
		StyleWarning.Render(fmt.Sprintf("%d", c.Escalated)),
		StyleBold.Render(fmt.Sprintf("%d", c.KnowledgeGaps)))
	fmt.Fprintf(w, " first-contact resolution %.0f%%  deflection %.0f%%\n",
		rep.Resolution.FCRRate*100, rep.Resolution.DeflectionRate*100)
	if c.LowConfidence > 0 {
		fmt.Fprintf(w, " %s\n", StyleMuted.Render(
			fmt.Sprintf("%d classifications carry low confidence", c.LowConfidence)))
	}

	if rep.Comparison != nil {
		RenderComparison(w, rep.Comparison)
	}
}

// RenderComparison writes the period-over-period diff to w.
func RenderComparison(w io.Writer, cmp *store.Comparison) {
	fmt.Fprintln(w, Section("Period over period"))

	if cmp.NoBaseline {
		fmt.Fprintf(w, " %s\n", StyleMuted.Render("no baseline available: first snapshot for this cadence"))
		return
	}

	fmt.Fprintf(w, " vs %s\n", StyleMuted.Render(cmp.PriorSnapshotID))

	if len(cmp.SignificantChanges) == 0 {
		fmt.Fprintf(w, " %s\n", StyleMuted.Render("no significant changes"))
	} else {
		tbl := NewTable("Topic", "Prior", "Current", "Change")
		for _, d := range cmp.SignificantChanges {
			tbl.AddRow(
				StyleBold.Render(d.Topic),
				fmt.Sprintf("%d", d.PriorVolume),
				fmt.Sprintf("%d", d.CurrentVolume),
				TrendArrow(d.VolumeDelta),
			)
		}
		fmt.Fprint(w, tbl.Render())
	}

	if len(cmp.EmergingTopics) > 0 {
		fmt.Fprintf(w, " %s %s\n", StyleWarning.Render("emerging:"), strings.Join(cmp.EmergingTopics, ", "))
	}
	if len(cmp.DecliningTopics) > 0 {
		fmt.Fprintf(w, " %s %s\n", StyleSuccess.Render("declining:"), strings.Join(cmp.DecliningTopics, ", "))
	}
}

// RenderSnapshots writes the snapshot listing to w.
func RenderSnapshots(w io.Writer, snaps []store.Snapshot) {
	fmt.Fprintln(w, Section("Snapshots"))

	if len(snaps) == 0 {
		fmt.Fprintf(w, " %s\n", StyleMuted.Render("no snapshots recorded"))
		return
	}

	tbl := NewTable("Snapshot", "Period", "Conversations", "Topics", "Created")
	for _, s := range snaps {
		tbl.AddRow(
			StyleBold.Render(s.SnapshotID),
			fmt.Sprintf("%s → %s", s.PeriodStart.Format("2006-01-02"), s.PeriodEnd.Format("2006-01-02")),
			fmt.Sprintf("%d", s.TotalConversations),
			fmt.Sprintf("%d", len(s.TopicVolumes)),
			StyleMuted.Render(s.CreatedAt.Format("2006-01-02 15:04")),
		)
	}
	fmt.Fprint(w, tbl.Render())
}
