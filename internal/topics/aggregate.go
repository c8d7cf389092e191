package topics

import "sort"

// Lookup is the single shared conversation-id → topic-list index. Every
// derived view of the conversation set (tier partitions, topic partitions)
// consults this one lookup; views never copy and mutate their own label
// lists, so labels can never diverge between views.
type Lookup struct {
	byConv  map[string][]string
	byTopic map[string][]string
}

// NewLookup builds the shared lookup from the final assignment set.
// Assignments are deduplicated on (conversation, topic) and topic lists are
// sorted, so construction is deterministic for identical input.
func NewLookup(assignments []Assignment) *Lookup {
	l := &Lookup{
		byConv:  make(map[string][]string),
		byTopic: make(map[string][]string),
	}

	seen := make(map[string]map[string]bool)
	for _, a := range assignments {
		topics := seen[a.ConversationID]
		if topics == nil {
			topics = make(map[string]bool)
			seen[a.ConversationID] = topics
		}
		if topics[a.Topic] {
			continue
		}
		topics[a.Topic] = true
		l.byConv[a.ConversationID] = append(l.byConv[a.ConversationID], a.Topic)
		l.byTopic[a.Topic] = append(l.byTopic[a.Topic], a.ConversationID)
	}

	for id := range l.byConv {
		sort.Strings(l.byConv[id])
	}
	for topic := range l.byTopic {
		sort.Strings(l.byTopic[topic])
	}

	return l
}

// TopicsFor returns the topic labels for a conversation. The returned slice
// is shared; callers must not mutate it.
func (l *Lookup) TopicsFor(conversationID string) []string {
	return l.byConv[conversationID]
}

// ConversationsFor returns the distinct conversation ids assigned to a topic.
func (l *Lookup) ConversationsFor(topic string) []string {
	return l.byTopic[topic]
}

// Topics returns all topic names with at least one assigned conversation,
// sorted.
func (l *Lookup) Topics() []string {
	names := make([]string, 0, len(l.byTopic))
	for n := range l.byTopic {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Distribution is the per-topic volume summary.
type Distribution struct {
	Topic           string         `json:"topic_name"`
	Volume          int            `json:"volume"`
	Percentage      float64        `json:"percentage_of_total"`
	MethodBreakdown map[Method]int `json:"detection_method_breakdown"`
}

// Aggregate computes per-topic distributions from the final assignment set.
// Volume counts distinct conversation ids per topic; a conversation may count
// toward several topics but never twice within one. Output is ordered by
// descending volume, ties broken by name, and is idempotent: identical input
// always yields identical output.
func Aggregate(assignments []Assignment, totalConversations int) []Distribution {
	lookup := NewLookup(assignments)

	methodCounts := make(map[string]map[Method]int)
	counted := make(map[string]map[string]bool)
	for _, a := range assignments {
		pairSeen := counted[a.Topic]
		if pairSeen == nil {
			pairSeen = make(map[string]bool)
			counted[a.Topic] = pairSeen
		}
		if pairSeen[a.ConversationID] {
			continue
		}
		pairSeen[a.ConversationID] = true

		if methodCounts[a.Topic] == nil {
			methodCounts[a.Topic] = make(map[Method]int)
		}
		methodCounts[a.Topic][a.Method]++
	}

	var out []Distribution
	for _, topic := range lookup.Topics() {
		volume := len(lookup.ConversationsFor(topic))
		if volume == 0 {
			continue
		}
		d := Distribution{
			Topic:           topic,
			Volume:          volume,
			MethodBreakdown: methodCounts[topic],
		}
		if totalConversations > 0 {
			d.Percentage = float64(volume) / float64(totalConversations) * 100
		}
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Volume != out[j].Volume {
			return out[i].Volume > out[j].Volume
		}
		return out[i].Topic < out[j].Topic
	})

	return out
}
