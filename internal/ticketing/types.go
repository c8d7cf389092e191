// Package ticketing provides the canonical conversation model and a tolerant
// loader for exported ticketing data.
package ticketing

import "time"

// AuthorRole identifies who wrote a participant message.
type AuthorRole string

const (
	RoleCustomer       AuthorRole = "customer"
	RoleAutomatedAgent AuthorRole = "automated_agent"
	RoleHumanAgent     AuthorRole = "human_agent"
)

// ConversationState is the upstream lifecycle state of a conversation.
type ConversationState string

const (
	StateOpen    ConversationState = "open"
	StateClosed  ConversationState = "closed"
	StateSnoozed ConversationState = "snoozed"
)

// Message is a single participant message in a conversation.
type Message struct {
	AuthorRole  AuthorRole `json:"author_role"`
	AuthorEmail string     `json:"author_email,omitempty"`
	AuthorName  string     `json:"author_name,omitempty"`
	Body        string     `json:"body"`
	Timestamp   time.Time  `json:"timestamp"`
}

// Rating is an explicit customer satisfaction rating.
type Rating struct {
	Score  int    `json:"score"`
	Remark string `json:"remark,omitempty"`
}

// Conversation is the canonical record every downstream component consumes.
// Messages is never nil after normalization; a missing or malformed upstream
// value is normalized to an empty slice.
type Conversation struct {
	ID        string            `json:"id"`
	CreatedAt *time.Time        `json:"created_at,omitempty"`
	ClosedAt  *time.Time        `json:"closed_at,omitempty"`
	State     ConversationState `json:"state"`
	Messages  []Message         `json:"participant_messages"`

	// AssignedAgentID is a routing assignment, not proof of participation.
	// Classification never reads it; it is carried for audit only.
	AssignedAgentID string `json:"assigned_agent_id,omitempty"`

	Rating      *Rating           `json:"rating,omitempty"`
	ReopenCount int               `json:"reopen_count"`
	Category    map[string]string `json:"structured_category,omitempty"`
	RawText     string            `json:"raw_text"`
}

// HasHumanAgentMessage reports whether any participant message was authored
// by a human agent. This is the only participation evidence classification
// may use.
func (c *Conversation) HasHumanAgentMessage() bool {
	for _, m := range c.Messages {
		if m.AuthorRole == RoleHumanAgent {
			return true
		}
	}
	return false
}

// HasAutomatedAgentMessage reports whether an automated agent participated.
func (c *Conversation) HasAutomatedAgentMessage() bool {
	for _, m := range c.Messages {
		if m.AuthorRole == RoleAutomatedAgent {
			return true
		}
	}
	return false
}

// CustomerMessageCount returns the number of customer-authored messages.
func (c *Conversation) CustomerMessageCount() int {
	n := 0
	for _, m := range c.Messages {
		if m.AuthorRole == RoleCustomer {
			n++
		}
	}
	return n
}

// HumanAgentMessages returns all human-agent-authored messages in order.
func (c *Conversation) HumanAgentMessages() []Message {
	var out []Message
	for _, m := range c.Messages {
		if m.AuthorRole == RoleHumanAgent {
			out = append(out, m)
		}
	}
	return out
}
