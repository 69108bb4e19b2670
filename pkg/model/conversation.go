package model

import (
	"sort"
	"time"
)

// Conversation holds the full exchange with a single counterparty,
// keyed by that participant's user id. Messages are kept in fetch
// order, which is not guaranteed chronological. A Conversation is
// exclusively owned by the batch that created it for one run.
type Conversation struct {
	ParticipantID   string
	Participant     *User
	Messages        []Message
	TotalCount      int
	LastMessageTime time.Time
	Summary         string
}

// NewConversation creates an empty conversation for a participant.
func NewConversation(participantID string) *Conversation {
	return &Conversation{ParticipantID: participantID}
}

// SetParticipant attaches the resolved profile. The first non-nil
// profile wins; later calls are ignored.
func (c *Conversation) SetParticipant(u *User) {
	if c.Participant == nil {
		c.Participant = u
	}
}

// AddMessage appends a message and maintains the derived count and
// last-message-time incrementally.
func (c *Conversation) AddMessage(m Message) {
	c.Messages = append(c.Messages, m)
	c.TotalCount = len(c.Messages)
	if m.CreatedAt.After(c.LastMessageTime) {
		c.LastMessageTime = m.CreatedAt
	}
}

// MessagesChronological returns a copy of the messages sorted oldest
// first. The stored fetch order is left untouched.
func (c *Conversation) MessagesChronological() []Message {
	out := make([]Message, len(c.Messages))
	copy(out, c.Messages)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// MessageTexts returns the non-empty text of every message in fetch order.
func (c *Conversation) MessageTexts() []string {
	texts := make([]string, 0, len(c.Messages))
	for _, m := range c.Messages {
		if m.Text != "" {
			texts = append(texts, m.Text)
		}
	}
	return texts
}

// Username returns the participant's username, or "Unknown" when the
// profile was never resolved.
func (c *Conversation) Username() string {
	if c.Participant == nil {
		return "Unknown"
	}
	return c.Participant.Username
}
