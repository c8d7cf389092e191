package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/meridian-ops/voclens/internal/report"
	"github.com/meridian-ops/voclens/internal/store"
)

func rel(v float64) *float64 { return &v }

func sampleReport() *report.Report {
	return &report.Report{
		RunID:              "run-1",
		GeneratedAt:        time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC),
		PeriodType:         store.PeriodWeekly,
		PeriodStart:        time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		PeriodEnd:          time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		TotalConversations: 10,
		Topics: []report.TopicSection{
			{Topic: "billing", Volume: 6, Percentage: 60, Status: report.StatusFull, Sentiment: "mild annoyance"},
			{Topic: "login", Volume: 2, Percentage: 20, Status: report.StatusDegraded},
		},
		Comparison: &store.Comparison{
			CurrentSnapshotID: "weekly-2026-03-02",
			PriorSnapshotID:   "weekly-2026-02-23",
			Deltas: []store.TopicDelta{
				{Topic: "billing", PriorVolume: 2, CurrentVolume: 6, VolumeDelta: 4, RelativeChange: rel(2.0)},
				{Topic: "outage", PriorVolume: 0, CurrentVolume: 3, VolumeDelta: 3},
			},
		},
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	if err := WriteReport(sampleReport(), path); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopening workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := map[string]bool{"Summary": true, "Topics": true, "Comparison": true}
	for _, s := range sheets {
		delete(want, s)
	}
	if len(want) != 0 {
		t.Errorf("missing sheets: %v (got %v)", want, sheets)
	}

	rows, err := f.GetRows("Topics")
	if err != nil {
		t.Fatalf("reading topics sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 topic rows, got %d", len(rows))
	}
	if rows[1][0] != "billing" {
		t.Errorf("expected billing first, got %q", rows[1][0])
	}

	cmpRows, err := f.GetRows("Comparison")
	if err != nil {
		t.Fatalf("reading comparison sheet: %v", err)
	}
	if len(cmpRows) != 4 {
		t.Fatalf("expected snapshot line + header + 2 delta rows, got %d", len(cmpRows))
	}
	if cmpRows[3][0] != "outage" || cmpRows[3][4] != "new" {
		t.Errorf("expected brand-new topic marked \"new\", got %v", cmpRows[3])
	}
}

func TestWriteReport_NoBaseline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	rep := sampleReport()
	rep.Comparison = &store.Comparison{CurrentSnapshotID: "weekly-2026-03-02", NoBaseline: true}

	if err := WriteReport(rep, path); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopening workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Comparison")
	if err != nil {
		t.Fatalf("reading comparison sheet: %v", err)
	}
	if len(rows) != 1 || rows[0][0] != "No baseline available" {
		t.Errorf("unexpected comparison sheet contents: %v", rows)
	}
}
