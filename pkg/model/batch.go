package model

// ConversationBatch collects the conversations fetched during one run.
// Conversations are appended only through Add; the batch never holds
// two conversations for the same participant id.
type ConversationBatch struct {
	Conversations []*Conversation

	// Requested is the number of participants originally asked for.
	// Comparing it against len(Conversations) distinguishes partial
	// from total success.
	Requested int

	// Processed counts conversations handed through downstream
	// processing (summarization). Plain counter, no read-side retry
	// semantics.
	Processed int

	seen map[string]struct{}
}

// NewBatch creates an empty batch for the given requested participant count.
func NewBatch(requested int) *ConversationBatch {
	return &ConversationBatch{
		Requested: requested,
		seen:      make(map[string]struct{}),
	}
}

// Add appends a conversation to the batch. A second conversation for a
// participant id already present is rejected and false is returned.
func (b *ConversationBatch) Add(c *Conversation) bool {
	if c == nil {
		return false
	}
	if _, dup := b.seen[c.ParticipantID]; dup {
		return false
	}
	b.seen[c.ParticipantID] = struct{}{}
	b.Conversations = append(b.Conversations, c)
	return true
}

// Has reports whether the batch already holds a conversation for the
// given participant id.
func (b *ConversationBatch) Has(participantID string) bool {
	_, ok := b.seen[participantID]
	return ok
}

// MarkProcessed increments the processed counter.
func (b *ConversationBatch) MarkProcessed() {
	b.Processed++
}

// Unprocessed returns the conversations that have no summary yet.
func (b *ConversationBatch) Unprocessed() []*Conversation {
	var out []*Conversation
	for _, c := range b.Conversations {
		if c.Summary == "" {
			out = append(out, c)
		}
	}
	return out
}

// TotalMessages sums the message counts across all conversations.
func (b *ConversationBatch) TotalMessages() int {
	total := 0
	for _, c := range b.Conversations {
		total += c.TotalCount
	}
	return total
}
