package classifier

import (
	"fmt"
	"strings"

	"github.com/meridian-ops/voclens/internal/config"
	"github.com/meridian-ops/voclens/internal/ticketing"
)

// ResolutionRules is the compiled form of the resolution configuration.
type ResolutionRules struct {
	badRatingMax        int
	reopenMax           int
	lowEngagementMax    int
	longConversationMin int
	negativePhrases     []string
	frustrationPhrases  []string
}

// NewResolutionRules compiles the configured thresholds and phrase lists.
func NewResolutionRules(cfg config.Resolution) ResolutionRules {
	return ResolutionRules{
		badRatingMax:        cfg.BadRatingMax,
		reopenMax:           cfg.ReopenMax,
		lowEngagementMax:    cfg.LowEngagementMax,
		longConversationMin: cfg.LongConversationMin,
		negativePhrases:     lowerAll(cfg.NegativePhrases),
		frustrationPhrases:  lowerAll(cfg.FrustrationPhrases),
	}
}

func lowerAll(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, strings.ToLower(p))
	}
	return out
}

// ClassifyResolution determines whether a conversation was resolved,
// escalated, or failed. Rules are evaluated in order and the first terminal
// rule wins; the returned signals record every piece of evidence consulted,
// in order.
func ClassifyResolution(conv *ticketing.Conversation, rules ResolutionRules) (Outcome, float64, []Signal) {
	var signals []Signal
	note := func(name, format string, args ...any) {
		signals = append(signals, Signal{Name: name, Value: fmt.Sprintf(format, args...)})
	}

	humanPresent := conv.HasHumanAgentMessage()
	note("human_agent_present", "%t", humanPresent)

	badRating := conv.Rating != nil && conv.Rating.Score <= rules.badRatingMax
	if conv.Rating != nil {
		note("rating_score", "%d", conv.Rating.Score)
	} else {
		note("rating_score", "none")
	}
	note("reopen_count", "%d", conv.ReopenCount)

	if !humanPresent {
		// True automated-only handling.
		if badRating {
			note("fired_rule", "bad_rating")
			return OutcomeFailed, 0.90, signals
		}
		if conv.ReopenCount > rules.reopenMax {
			note("fired_rule", "reopened")
			return OutcomeFailed, 0.80, signals
		}

		customerMsgs := conv.CustomerMessageCount()
		note("customer_messages", "%d", customerMsgs)

		if conv.State == ticketing.StateClosed || customerMsgs <= rules.lowEngagementMax {
			conf := 0.70
			switch {
			case conv.Rating != nil:
				// Neutral-or-positive rating: the strongest resolved signal.
				conf = 0.85
			case conv.State == ticketing.StateClosed:
				conf = 0.75
			}
			note("fired_rule", "closed_or_low_engagement")
			return OutcomeResolved, conf, signals
		}

		// Still open, high engagement, no rating: likely unresolved.
		note("fired_rule", "open_high_engagement")
		return OutcomeFailed, 0.60, signals
	}

	// A human agent replied.
	if badRating {
		note("fired_rule", "bad_rating_after_handoff")
		return OutcomeFailed, 0.80, signals
	}
	if conv.ReopenCount > rules.reopenMax {
		note("fired_rule", "reopened_after_handoff")
		return OutcomeFailed, 0.70, signals
	}

	// Hand-offs are surfaced as escalations, never judged good or bad.
	conf := 0.65
	if conv.Rating != nil && conv.Rating.Score > rules.badRatingMax {
		conf = 0.70
	}
	note("fired_rule", "human_handoff")
	return OutcomeEscalated, conf, signals
}

// HasKnowledgeGap reports whether a conversation likely exposes a gap in the
// automated agent's knowledge. It is false for every resolved conversation;
// otherwise it requires at least one additional indicator beyond non-resolution.
func HasKnowledgeGap(conv *ticketing.Conversation, outcome Outcome, rules ResolutionRules) bool {
	if outcome == OutcomeResolved || outcome == OutcomeNotApplicable {
		return false
	}

	if conv.HasHumanAgentMessage() {
		return true
	}
	if conv.Rating != nil && conv.Rating.Score <= rules.badRatingMax {
		return true
	}

	text := strings.ToLower(conv.RawText)
	if conv.Rating != nil && conv.Rating.Remark != "" {
		text += "\n" + strings.ToLower(conv.Rating.Remark)
	}
	if containsAny(text, rules.negativePhrases) {
		return true
	}
	if containsAny(text, rules.frustrationPhrases) {
		return true
	}

	if conv.State != ticketing.StateClosed && len(conv.Messages) > rules.longConversationMin {
		return true
	}

	return false
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if p != "" && strings.Contains(text, p) {
			return true
		}
	}
	return false
}
