// Package report defines the assembled analysis report: the one structure
// every presentation surface (terminal, JSON, workbook) consumes.
package report

import (
	"sort"
	"time"

	"github.com/meridian-ops/voclens/internal/classifier"
	"github.com/meridian-ops/voclens/internal/store"
	"github.com/meridian-ops/voclens/internal/ticketing"
	"github.com/meridian-ops/voclens/internal/topics"
)

// SectionStatus states how much confidence a topic section carries. A
// section never silently substitutes a guess: degraded and omitted states
// are reported as such.
type SectionStatus string

const (
	StatusFull             SectionStatus = "full"
	StatusDegraded         SectionStatus = "degraded"
	StatusOmitted          SectionStatus = "omitted"
	StatusInsufficientData SectionStatus = "insufficient_data"
)

// TopicSection is the per-topic slice of the report.
type TopicSection struct {
	Topic           string                `json:"topic_name"`
	Volume          int                   `json:"volume"`
	Percentage      float64               `json:"percentage_of_total"`
	MethodBreakdown map[topics.Method]int `json:"detection_method_breakdown"`

	Status       SectionStatus `json:"status"`
	StatusReason string        `json:"status_reason,omitempty"`

	Sentiment  string           `json:"sentiment,omitempty"`
	Resolution ResolutionCounts `json:"resolution"`
	ExampleIDs []string         `json:"example_conversation_ids,omitempty"`
}

// ResolutionCounts is the outcome tally over one set of conversations.
type ResolutionCounts struct {
	Resolved      int `json:"resolved"`
	Escalated     int `json:"escalated"`
	Failed        int `json:"failed"`
	NotApplicable int `json:"not_applicable"`
	KnowledgeGaps int `json:"knowledge_gaps"`
	LowConfidence int `json:"low_confidence"`
}

// Total returns the number of classified conversations in the tally.
func (c ResolutionCounts) Total() int {
	return c.Resolved + c.Escalated + c.Failed + c.NotApplicable
}

// ResolutionSummary is the dataset-wide resolution view, including the
// first-contact-resolution and deflection rates.
type ResolutionSummary struct {
	Counts ResolutionCounts `json:"counts"`

	// FCRRate is the share of conversations resolved by the automated agent
	// at first contact: no reopen and at most one customer follow-up.
	FCRRate float64 `json:"fcr_rate"`

	// DeflectionRate is the share of conversations handled with no human
	// involvement at all.
	DeflectionRate float64 `json:"deflection_rate"`
}

// Report is the final assembled analysis output.
type Report struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Duration    time.Duration `json:"duration"`

	PeriodType  store.PeriodType `json:"period_type"`
	PeriodStart time.Time        `json:"period_start"`
	PeriodEnd   time.Time        `json:"period_end"`

	TotalConversations int            `json:"total_conversations"`
	TierVolumes        map[string]int `json:"tier_volumes"`

	Topics     []TopicSection    `json:"topics"`
	Resolution ResolutionSummary `json:"resolution"`

	SnapshotID        string            `json:"snapshot_id,omitempty"`
	SnapshotPersisted bool              `json:"snapshot_persisted"`
	Comparison        *store.Comparison `json:"comparison,omitempty"`

	DegradedSections int `json:"degraded_sections"`
}

// lowConfidenceMax is the confidence at or below which a classification is
// surfaced as low-confidence.
const lowConfidenceMax = 0.65

// CountOutcomes tallies classification results.
func CountOutcomes(results []classifier.Result) ResolutionCounts {
	var c ResolutionCounts
	for _, r := range results {
		switch r.Outcome {
		case classifier.OutcomeResolved:
			c.Resolved++
		case classifier.OutcomeEscalated:
			c.Escalated++
		case classifier.OutcomeFailed:
			c.Failed++
		default:
			c.NotApplicable++
		}
		if r.KnowledgeGap {
			c.KnowledgeGaps++
		}
		if r.Outcome != classifier.OutcomeNotApplicable && r.Confidence <= lowConfidenceMax {
			c.LowConfidence++
		}
	}
	return c
}

// Summarize builds the dataset-wide resolution summary.
func Summarize(results []classifier.Result, convs []ticketing.Conversation) ResolutionSummary {
	byID := make(map[string]*ticketing.Conversation, len(convs))
	for i := range convs {
		byID[convs[i].ID] = &convs[i]
	}

	s := ResolutionSummary{Counts: CountOutcomes(results)}
	if len(results) == 0 {
		return s
	}

	fcr, deflected := 0, 0
	for _, r := range results {
		if r.Tier == classifier.TierAutomatedOnly {
			deflected++
		}
		conv := byID[r.ConversationID]
		if conv == nil {
			continue
		}
		if r.Outcome == classifier.OutcomeResolved &&
			r.Tier == classifier.TierAutomatedOnly &&
			conv.ReopenCount == 0 &&
			conv.CustomerMessageCount() <= 2 {
			fcr++
		}
	}

	total := float64(len(results))
	s.FCRRate = float64(fcr) / total
	s.DeflectionRate = float64(deflected) / total
	return s
}

// TierVolumes tallies conversations per handling tier.
func TierVolumes(results []classifier.Result) map[string]int {
	out := make(map[string]int)
	for _, r := range results {
		out[string(r.Tier)]++
	}
	return out
}

// SortSections orders sections by descending volume, ties broken by name.
// The assembled output order never depends on task completion order.
func SortSections(sections []TopicSection) {
	sort.Slice(sections, func(i, j int) bool {
		if sections[i].Volume != sections[j].Volume {
			return sections[i].Volume > sections[j].Volume
		}
		return sections[i].Topic < sections[j].Topic
	})
}
