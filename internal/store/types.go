// Package store provides SQLite persistence for analysis-period snapshots
// and the period-over-period comparator.
package store

import (
	"errors"
	"fmt"
	"time"
)

// ErrConstraintViolation rejects a snapshot before write; the run continues
// without a new snapshot.
var ErrConstraintViolation = errors.New("snapshot constraint violation")

// PeriodType is the analysis cadence of a snapshot.
type PeriodType string

const (
	PeriodWeekly    PeriodType = "weekly"
	PeriodMonthly   PeriodType = "monthly"
	PeriodQuarterly PeriodType = "quarterly"
	PeriodCustom    PeriodType = "custom"
)

// Snapshot is the persisted, immutable summary of one analysis period. A
// later run covering the same period supersedes (never overwrites) earlier
// rows; the most recent CreatedAt is canonical for comparison.
type Snapshot struct {
	ID                  int64             `json:"id"`
	SnapshotID          string            `json:"snapshot_id"`
	PeriodType          PeriodType        `json:"period_type"`
	PeriodStart         time.Time         `json:"period_start"`
	PeriodEnd           time.Time         `json:"period_end"`
	TotalConversations  int               `json:"total_conversations"`
	TopicVolumes        map[string]int    `json:"topic_volumes"`
	TopicSentiments     map[string]string `json:"topic_sentiments"`
	ResolutionBreakdown map[string]int    `json:"resolution_breakdown"`
	CreatedAt           time.Time         `json:"created_at"`
}

// SnapshotKey derives the globally unique snapshot id from cadence and
// period start.
func SnapshotKey(periodType PeriodType, periodStart time.Time) string {
	return fmt.Sprintf("%s-%s", periodType, periodStart.UTC().Format("2006-01-02"))
}

// TopicDelta is the change in one topic's volume between two snapshots.
// RelativeChange is nil when the topic had no prior volume, since no finite
// ratio exists for a brand-new topic.
type TopicDelta struct {
	Topic          string   `json:"topic"`
	PriorVolume    int      `json:"prior_volume"`
	CurrentVolume  int      `json:"current_volume"`
	VolumeDelta    int      `json:"volume_delta"`
	PriorPct       float64  `json:"prior_pct"`
	CurrentPct     float64  `json:"current_pct"`
	RelativeChange *float64 `json:"relative_change,omitempty"`
}

// Comparison is the derived diff between the current snapshot and the most
// recent prior snapshot of the same cadence. It is computed, never stored.
type Comparison struct {
	CurrentSnapshotID string `json:"current_snapshot_id"`
	PriorSnapshotID   string `json:"prior_snapshot_id,omitempty"`

	// NoBaseline is set when no prior snapshot exists for the cadence. This
	// is a first-class outcome, not an error.
	NoBaseline bool `json:"no_baseline"`

	Deltas             []TopicDelta `json:"deltas,omitempty"`
	SignificantChanges []TopicDelta `json:"significant_changes,omitempty"`
	EmergingTopics     []string     `json:"emerging_topics,omitempty"`
	DecliningTopics    []string     `json:"declining_topics,omitempty"`
}
