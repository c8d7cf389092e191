// Package topics detects and aggregates conversation topics using structured
// attributes, keyword matching, and semantically discovered topic names.
package topics

import (
	"sort"
	"strings"

	"github.com/meridian-ops/voclens/internal/config"
	"github.com/meridian-ops/voclens/internal/ticketing"
)

// Method identifies how a topic assignment was produced.
type Method string

const (
	MethodStructured Method = "structured"
	MethodKeyword    Method = "keyword"
	MethodSemantic   Method = "semantic"
)

// Assignment links one conversation to one topic. The detector guarantees no
// duplicate (conversation, topic) pairs.
type Assignment struct {
	ConversationID string  `json:"conversation_id"`
	Topic          string  `json:"topic_name"`
	Method         Method  `json:"detection_method"`
	Confidence     float64 `json:"detection_confidence"`
}

// Detector runs the structured and keyword passes over a conversation set.
// Semantic assignments are merged in afterwards via MergeSemantic.
type Detector struct {
	defs []config.TopicDefinition
}

// NewDetector builds a detector from the configured topic catalog.
func NewDetector(defs []config.TopicDefinition) *Detector {
	return &Detector{defs: defs}
}

// Detect runs the structured pass (confidence 1.0) then the keyword pass
// (confidence 0.7) over every conversation. A topic already assigned to a
// conversation via the structured pass is not re-assigned by keyword.
func (d *Detector) Detect(convs []ticketing.Conversation) []Assignment {
	var out []Assignment
	seen := make(map[string]map[string]bool) // conversation id -> topic set

	assign := func(convID, topic string, method Method, conf float64) {
		topics := seen[convID]
		if topics == nil {
			topics = make(map[string]bool)
			seen[convID] = topics
		}
		if topics[topic] {
			return
		}
		topics[topic] = true
		out = append(out, Assignment{
			ConversationID: convID,
			Topic:          topic,
			Method:         method,
			Confidence:     conf,
		})
	}

	for i := range convs {
		conv := &convs[i]
		for _, def := range d.defs {
			if matchesCategory(conv, def.CategoryKeys) {
				assign(conv.ID, def.Name, MethodStructured, 1.0)
			}
		}
	}

	for i := range convs {
		conv := &convs[i]
		text := strings.ToLower(conv.RawText)
		for _, def := range d.defs {
			if matchesKeyword(text, def.Keywords) {
				assign(conv.ID, def.Name, MethodKeyword, 0.7)
			}
		}
	}

	return out
}

// Unassigned returns the conversations with no topic assignment, preserving
// input order. These are the sampling pool for semantic discovery.
func Unassigned(convs []ticketing.Conversation, assignments []Assignment) []ticketing.Conversation {
	assigned := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		assigned[a.ConversationID] = true
	}

	var out []ticketing.Conversation
	for _, c := range convs {
		if !assigned[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

// Rescan assigns a discovered topic to every conversation whose text mentions
// the topic name. Discovered topics that match nothing are simply absent from
// the result; callers drop them rather than reporting zero-volume topics.
func Rescan(convs []ticketing.Conversation, topic string, confidence float64, existing []Assignment) []Assignment {
	needle := strings.ToLower(strings.TrimSpace(topic))
	if needle == "" {
		return nil
	}

	already := make(map[string]bool)
	for _, a := range existing {
		if a.Topic == topic {
			already[a.ConversationID] = true
		}
	}

	var out []Assignment
	for i := range convs {
		conv := &convs[i]
		if already[conv.ID] {
			continue
		}
		if strings.Contains(strings.ToLower(conv.RawText), needle) {
			out = append(out, Assignment{
				ConversationID: conv.ID,
				Topic:          topic,
				Method:         MethodSemantic,
				Confidence:     confidence,
			})
		}
	}
	return out
}

// Names returns the sorted distinct topic names present in assignments.
func Names(assignments []Assignment) []string {
	set := make(map[string]bool)
	for _, a := range assignments {
		set[a.Topic] = true
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func matchesCategory(conv *ticketing.Conversation, keys []string) bool {
	if len(conv.Category) == 0 {
		return false
	}
	for _, key := range keys {
		if _, ok := conv.Category[key]; ok {
			return true
		}
		// Category values count too: {"category": "billing"}.
		for _, v := range conv.Category {
			if strings.EqualFold(v, key) {
				return true
			}
		}
	}
	return false
}

func matchesKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
