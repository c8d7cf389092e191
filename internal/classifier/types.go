// Package classifier assigns handling tiers and resolution outcomes to
// conversations using priority-ordered structural rules.
package classifier

import "github.com/meridian-ops/voclens/internal/ticketing"

// Tier is the handling category assigned to a conversation.
type Tier string

const (
	TierEscalated     Tier = "escalated"
	TierAutomatedOnly Tier = "automated_only"
	TierUnknown       Tier = "unknown"
)

// VendorTier builds the tier label for a named vendor team.
func VendorTier(name string) Tier {
	return Tier("vendor:" + name)
}

// IsVendor reports whether a tier is a vendor tier.
func (t Tier) IsVendor() bool {
	return len(t) > 7 && t[:7] == "vendor:"
}

// Outcome is the resolution outcome of a conversation.
type Outcome string

const (
	OutcomeResolved      Outcome = "resolved"
	OutcomeEscalated     Outcome = "escalated"
	OutcomeFailed        Outcome = "failed"
	OutcomeNotApplicable Outcome = "not_applicable"
)

// Signal is one named piece of evidence that contributed to a classification
// decision, kept in evaluation order for audit.
type Signal struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Result is the immutable per-conversation classification. Recomputation
// replaces it wholesale; it is never patched in place.
type Result struct {
	ConversationID string   `json:"conversation_id"`
	Tier           Tier     `json:"tier"`
	TierReason     string   `json:"tier_reason"`
	Outcome        Outcome  `json:"resolution_outcome"`
	Confidence     float64  `json:"confidence"`
	Signals        []Signal `json:"signals"`
	KnowledgeGap   bool     `json:"knowledge_gap"`
}

// Classify produces the complete classification for one conversation.
func Classify(conv *ticketing.Conversation, seg SegmentationRules, res ResolutionRules) Result {
	tier, reason := ClassifyTier(conv, seg)

	r := Result{
		ConversationID: conv.ID,
		Tier:           tier,
		TierReason:     reason,
		Outcome:        OutcomeNotApplicable,
		Confidence:     1.0,
	}

	// Resolution classification applies only to automated-only and
	// vendor-handled conversations.
	if tier == TierAutomatedOnly || tier.IsVendor() {
		r.Outcome, r.Confidence, r.Signals = ClassifyResolution(conv, res)
	}

	r.KnowledgeGap = HasKnowledgeGap(conv, r.Outcome, res)
	return r
}
