package client

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/xdmtools/dm-organizer/pkg/model"
)

// Identity is the authenticated account returned by VerifyIdentity.
type Identity struct {
	ID       string
	Username string
	Name     string
	Metrics  map[string]int
}

// RecentEvent is one entry of the recent DM events listing, carrying
// just enough to discover conversation participants.
type RecentEvent struct {
	ID        string
	SenderID  string
	CreatedAt time.Time
}

// RecentEvents is the typed payload of ListRecentEvents.
type RecentEvents struct {
	Events     []RecentEvent
	NextCursor string
}

// DMEvent is one event of a DM conversation with timestamps already
// parsed. Payloads are decoded once here and never passed onward as
// open-ended maps.
type DMEvent struct {
	ID             string
	Text           string
	CreatedAt      time.Time
	SenderID       string
	ConversationID string
	Type           model.MessageType
	Attachments    []model.Attachment
	ReferencedID   string
}

// ConversationEvents is the typed payload of ListConversationEvents.
// NextCursor is empty on the last page.
type ConversationEvents struct {
	Events      []DMEvent
	ResultCount int
	NextCursor  string
}

// ConversationEventsParams are the request options for
// ListConversationEvents. Cursor is omitted on the first call.
type ConversationEventsParams struct {
	MaxResults int
	Cursor     string
	SinceTime  time.Time
}

// Wire-level response shapes.

type wireMeta struct {
	ResultCount int    `json:"result_count"`
	NextToken   string `json:"next_token"`
}

type wireUser struct {
	ID          string         `json:"id"`
	Username    string         `json:"username"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	URL         string         `json:"url"`
	Location    string         `json:"location"`
	Verified    bool           `json:"verified"`
	Metrics     map[string]int `json:"public_metrics"`
}

type wireAttachment struct {
	MediaKey string `json:"media_key"`
	Type     string `json:"type"`
}

type wireDMEvent struct {
	ID             string `json:"id"`
	Text           string `json:"text"`
	CreatedAt      string `json:"created_at"`
	SenderID       string `json:"sender_id"`
	ConversationID string `json:"dm_conversation_id"`
	EventType      string `json:"event_type"`
	Attachments    *struct {
		MediaKeys []wireAttachment `json:"media_keys"`
	} `json:"attachments"`
	ReferencedTweet *struct {
		ID string `json:"id"`
	} `json:"referenced_tweet"`
}

type wireEventsResponse struct {
	Data []wireDMEvent `json:"data"`
	Meta *wireMeta     `json:"meta"`
}

type wireUserResponse struct {
	Data *wireUser `json:"data"`
}

// parseDMEvents converts wire events into typed DMEvents. A malformed
// event (bad timestamp) is logged and skipped; siblings are unaffected.
func parseDMEvents(events []wireDMEvent, logger zerolog.Logger) []DMEvent {
	out := make([]DMEvent, 0, len(events))
	for _, e := range events {
		createdAt, err := time.Parse(time.RFC3339, e.CreatedAt)
		if err != nil {
			logger.Warn().
				Str("event_id", e.ID).
				Str("created_at", e.CreatedAt).
				Msg("Skipping event with malformed timestamp")
			continue
		}

		ev := DMEvent{
			ID:             e.ID,
			Text:           e.Text,
			CreatedAt:      createdAt,
			SenderID:       e.SenderID,
			ConversationID: e.ConversationID,
			Type:           model.MessageType(e.EventType),
		}
		if e.Attachments != nil {
			for _, a := range e.Attachments.MediaKeys {
				ev.Attachments = append(ev.Attachments, model.Attachment{
					MediaKey: a.MediaKey,
					Type:     a.Type,
				})
			}
		}
		if e.ReferencedTweet != nil {
			ev.ReferencedID = e.ReferencedTweet.ID
		}
		out = append(out, ev)
	}
	return out
}

func decodeEventsResponse(body []byte) (*wireEventsResponse, error) {
	var resp wireEventsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func decodeUserResponse(body []byte) (*wireUserResponse, error) {
	var resp wireUserResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
