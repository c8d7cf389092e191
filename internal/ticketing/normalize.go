package ticketing

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RawConversation is the wire shape of one exported conversation record.
// Every field is optional and may arrive in more than one upstream
// representation, so everything is deferred to Normalize.
type RawConversation struct {
	ID                  json.RawMessage `json:"id"`
	CreatedAt           json.RawMessage `json:"created_at"`
	ClosedAt            json.RawMessage `json:"closed_at"`
	State               string          `json:"state"`
	ParticipantMessages json.RawMessage `json:"participant_messages"`
	AssignedAgentID     json.RawMessage `json:"assigned_agent_id"`
	Rating              json.RawMessage `json:"rating"`
	ReopenCount         json.RawMessage `json:"reopen_count"`
	StructuredCategory  json.RawMessage `json:"structured_category"`
	RawText             string          `json:"raw_text"`
}

// rawMessage mirrors one entry of participant_messages on the wire.
type rawMessage struct {
	AuthorRole  string `json:"author_role"`
	AuthorEmail string `json:"author_email"`
	AuthorName  string `json:"author_name"`
	Body        string `json:"body"`
	Timestamp   string `json:"timestamp"`
}

// messageWrapper covers the upstream variant that nests the message list
// inside an object instead of sending a bare array.
type messageWrapper struct {
	Messages []rawMessage `json:"messages"`
	Items    []rawMessage `json:"items"`
}

// Normalize converts a raw record of arbitrary shape into a canonical
// Conversation. It is pure and deterministic: no field access can fail, every
// absent or malformed value gets a safe default, and Messages is always
// non-nil.
func Normalize(raw RawConversation) Conversation {
	conv := Conversation{
		ID:       normalizeID(raw.ID),
		State:    normalizeState(raw.State),
		Messages: normalizeMessages(raw.ParticipantMessages),
		RawText:  raw.RawText,
	}

	conv.CreatedAt = normalizeTime(raw.CreatedAt)
	conv.ClosedAt = normalizeTime(raw.ClosedAt)
	conv.AssignedAgentID = normalizeString(raw.AssignedAgentID)
	conv.Rating = normalizeRating(raw.Rating)
	conv.ReopenCount = normalizeInt(raw.ReopenCount)
	conv.Category = normalizeCategory(raw.StructuredCategory)

	if conv.RawText == "" {
		conv.RawText = concatBodies(conv.Messages)
	}

	return conv
}

// normalizeID accepts string or numeric ids.
func normalizeID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return fmt.Sprintf("%d", n)
	}
	return ""
}

func normalizeState(s string) ConversationState {
	switch ConversationState(strings.ToLower(strings.TrimSpace(s))) {
	case StateClosed:
		return StateClosed
	case StateSnoozed:
		return StateSnoozed
	default:
		return StateOpen
	}
}

// normalizeMessages coerces participant_messages to a list whether the
// upstream sent an array, a wrapped object, or nothing at all.
func normalizeMessages(raw json.RawMessage) []Message {
	msgs := []Message{}
	if len(raw) == 0 {
		return msgs
	}

	var entries []rawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		var wrapper messageWrapper
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return msgs
		}
		entries = wrapper.Messages
		if len(entries) == 0 {
			entries = wrapper.Items
		}
	}

	for _, e := range entries {
		m := Message{
			AuthorRole:  normalizeRole(e.AuthorRole),
			AuthorEmail: strings.ToLower(strings.TrimSpace(e.AuthorEmail)),
			AuthorName:  strings.TrimSpace(e.AuthorName),
			Body:        e.Body,
		}
		if t, err := time.Parse(time.RFC3339, e.Timestamp); err == nil {
			m.Timestamp = t
		}
		msgs = append(msgs, m)
	}
	return msgs
}

func normalizeRole(s string) AuthorRole {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "human_agent", "agent", "teammate":
		return RoleHumanAgent
	case "automated_agent", "bot", "ai_agent":
		return RoleAutomatedAgent
	default:
		return RoleCustomer
	}
}

func normalizeTime(raw json.RawMessage) *time.Time {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return &t
		}
		return nil
	}
	// Epoch seconds variant.
	var epoch int64
	if err := json.Unmarshal(raw, &epoch); err == nil && epoch > 0 {
		t := time.Unix(epoch, 0).UTC()
		return &t
	}
	return nil
}

func normalizeString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return fmt.Sprintf("%d", n)
	}
	return ""
}

func normalizeInt(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil && n >= 0 {
		return n
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil && f >= 0 {
		return int(f)
	}
	return 0
}

func normalizeRating(raw json.RawMessage) *Rating {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var r struct {
		Score  json.RawMessage `json:"score"`
		Remark string          `json:"remark"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil
	}
	if len(r.Score) == 0 {
		return nil
	}
	score, ok := parseScore(r.Score)
	if !ok {
		return nil
	}
	return &Rating{Score: score, Remark: r.Remark}
}

// parseScore accepts integer or float scores. Zero is a valid score on
// zero-based scales; negative or malformed values are not.
func parseScore(raw json.RawMessage) (int, bool) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, n >= 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f), f >= 0
	}
	return 0, false
}

func normalizeCategory(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var loose map[string]any
	if err := json.Unmarshal(raw, &loose); err != nil {
		return nil
	}
	if len(loose) == 0 {
		return nil
	}
	out := make(map[string]string, len(loose))
	for k, v := range loose {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = fmt.Sprintf("%g", val)
		case bool:
			out[k] = fmt.Sprintf("%t", val)
		}
	}
	return out
}

func concatBodies(msgs []Message) string {
	var parts []string
	for _, m := range msgs {
		if m.Body != "" {
			parts = append(parts, m.Body)
		}
	}
	return strings.Join(parts, "\n")
}
