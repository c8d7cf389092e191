package app

import (
	"testing"
	"time"

	"github.com/meridian-ops/voclens/internal/store"
)

func TestResolvePeriod_Explicit(t *testing.T) {
	p, err := resolvePeriod("weekly", "2026-03-02", "2026-03-09")
	if err != nil {
		t.Fatalf("resolvePeriod: %v", err)
	}
	if p.Type != store.PeriodWeekly {
		t.Errorf("expected weekly, got %q", p.Type)
	}
	if !p.Start.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start %v", p.Start)
	}
	if !p.End.Equal(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected end %v", p.End)
	}
}

func TestResolvePeriod_DefaultEnd(t *testing.T) {
	p, err := resolvePeriod("monthly", "2026-03-01", "")
	if err != nil {
		t.Fatalf("resolvePeriod: %v", err)
	}
	if !p.End.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected end %v", p.End)
	}
}

func TestResolvePeriod_CustomRequiresDates(t *testing.T) {
	if _, err := resolvePeriod("custom", "", ""); err == nil {
		t.Error("expected error for custom period without dates")
	}
	if _, err := resolvePeriod("custom", "2026-03-01", ""); err == nil {
		t.Error("expected error for custom period without end")
	}
}

func TestResolvePeriod_RejectsUnknownType(t *testing.T) {
	if _, err := resolvePeriod("hourly", "", ""); err == nil {
		t.Error("expected error for unknown period type")
	}
}

func TestResolvePeriod_RejectsInvertedRange(t *testing.T) {
	if _, err := resolvePeriod("custom", "2026-03-09", "2026-03-02"); err == nil {
		t.Error("expected error for end before start")
	}
}

func TestPeriodStart(t *testing.T) {
	// 2026-03-04 is a Wednesday; the week starts Monday 2026-03-02.
	wed := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)

	if got := periodStart(store.PeriodWeekly, wed); !got.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("weekly start: got %v", got)
	}
	if got := periodStart(store.PeriodMonthly, wed); !got.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("monthly start: got %v", got)
	}
	if got := periodStart(store.PeriodQuarterly, wed); !got.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("quarterly start: got %v", got)
	}
}
