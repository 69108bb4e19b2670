// Package summarize generates conversation summaries for export. A
// Gemini-backed summarizer is used when an API key is configured, with
// a deterministic fallback otherwise.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/xdmtools/dm-organizer/pkg/model"
)

// Summarizer produces a short summary of one conversation.
type Summarizer interface {
	Summarize(ctx context.Context, conv *model.Conversation) (string, error)
}

const systemInstruction = `You summarize direct-message conversations.
Given the messages of one conversation, produce a concise summary
(at most 200 words) of what was discussed, any commitments made, and
suggested follow-ups. Do not quote messages verbatim.`

// Gemini summarizes conversations via the Gemini API.
type Gemini struct {
	client    *genai.Client
	modelName string
	config    *genai.GenerateContentConfig
	logger    zerolog.Logger
}

// NewGemini creates a Gemini-backed summarizer.
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Gemini{
		client:    gc,
		modelName: modelName,
		config: &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: systemInstruction}},
			},
		},
		logger: log.With().Str("component", "summarizer").Logger(),
	}, nil
}

// Summarize generates a summary from the conversation's messages in
// chronological order.
func (g *Gemini) Summarize(ctx context.Context, conv *model.Conversation) (string, error) {
	if len(conv.Messages) == 0 {
		return "No messages in conversation", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Conversation with %s:\n", conv.Username())
	for _, m := range conv.MessagesChronological() {
		fmt.Fprintf(&sb, "[%s] %s: %s\n", m.CreatedAt.Format("2006-01-02 15:04"), m.SenderID, m.Text)
	}

	contents := []*genai.Content{genai.NewContentFromText(sb.String(), genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, g.config)
	if err != nil {
		return "", fmt.Errorf("gemini summarization: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned empty summary")
	}

	g.logger.Debug().
		Str("participant_id", conv.ParticipantID).
		Int("messages", conv.TotalCount).
		Int("summary_length", len(text)).
		Msg("Conversation summarized")

	return text, nil
}

// Fallback is a deterministic summarizer used when no AI backend is
// configured. It reports message counts and previews the first and
// last message.
type Fallback struct{}

// Summarize implements Summarizer without any external calls.
func (Fallback) Summarize(_ context.Context, conv *model.Conversation) (string, error) {
	if len(conv.Messages) == 0 {
		return "No messages in conversation", nil
	}

	msgs := conv.MessagesChronological()
	first := preview(msgs[0].Text)
	last := preview(msgs[len(msgs)-1].Text)

	if len(msgs) == 1 {
		return fmt.Sprintf("1 message. %q", first), nil
	}
	return fmt.Sprintf("%d messages between %s and %s. Opened with %q, most recently %q",
		len(msgs),
		msgs[0].CreatedAt.Format("2006-01-02"),
		msgs[len(msgs)-1].CreatedAt.Format("2006-01-02"),
		first, last), nil
}

func preview(text string) string {
	const maxPreview = 80
	text = strings.TrimSpace(text)
	if len(text) > maxPreview {
		return text[:maxPreview] + "..."
	}
	return text
}

// Batch summarizes every conversation in the batch in place. A failed
// summary never fails the batch; the conversation gets a failure note
// instead. Each conversation handled increments the processed counter.
func Batch(ctx context.Context, s Summarizer, batch *model.ConversationBatch) {
	logger := log.With().Str("component", "summarizer").Logger()
	logger.Info().
		Int("conversations", len(batch.Conversations)).
		Msg("Starting batch summarization")

	for _, conv := range batch.Conversations {
		summary, err := s.Summarize(ctx, conv)
		if err != nil {
			logger.Error().
				Err(err).
				Str("participant_id", conv.ParticipantID).
				Msg("Summarization failed")
			summary = fmt.Sprintf("Summary generation failed: %v", err)
		}
		conv.Summary = summary
		batch.MarkProcessed()
	}

	logger.Info().
		Int("processed", batch.Processed).
		Msg("Batch summarization completed")
}
