package model

import "time"

// MessageType identifies the kind of DM event.
type MessageType string

// DM event types as they appear on the wire.
const (
	MessageTypeCreate     MessageType = "MessageCreate"
	MessageTypeMediaShare MessageType = "MediaShare"
	MessageTypeWelcome    MessageType = "WelcomeMessage"
)

// Message is a single direct message. Immutable value; the pipeline
// only retains MessageCreate events.
type Message struct {
	ID             string
	Text           string
	CreatedAt      time.Time
	SenderID       string
	ConversationID string
	Type           MessageType
	Attachments    []Attachment
	ReferencedID   string
}

// Attachment describes media attached to a message.
type Attachment struct {
	MediaKey string
	Type     string
}
