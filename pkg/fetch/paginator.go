package fetch

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/xdmtools/dm-organizer/pkg/client"
	"github.com/xdmtools/dm-organizer/pkg/model"
	"github.com/xdmtools/dm-organizer/pkg/ratelimit"
)

// Prometheus metrics for conversation fetching.
var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_pages_fetched_total",
		Help: "Total conversation pages fetched",
	})

	messagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_messages_fetched_total",
		Help: "Total messages retained after event filtering",
	})

	conversationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dm_conversations_total",
		Help: "Conversation fetch outcomes",
	}, []string{"outcome"}) // "complete", "partial", "omitted"
)

// ConversationClient is the slice of the API client the paginator needs.
type ConversationClient interface {
	ListConversationEvents(ctx context.Context, participantID string, params client.ConversationEventsParams) (*client.ConversationEvents, error)
}

// ProfileDirectory resolves participant profiles.
type ProfileDirectory interface {
	Get(ctx context.Context, userID string) *model.User
}

// Options are the per-conversation fetch parameters.
type Options struct {
	// MaxMessages caps how many messages are fetched per conversation.
	MaxMessages int

	// Since, when set, bounds the fetch to messages after this time.
	Since time.Time
}

// PaginatorConfig holds the paginator tuning knobs.
type PaginatorConfig struct {
	// PageSize is the max_results requested per page.
	PageSize int

	// PageDelay is the politeness throttle between consecutive page
	// requests, independent of the rate limiter.
	PageDelay time.Duration
}

// DefaultPaginatorConfig returns safe defaults.
func DefaultPaginatorConfig() PaginatorConfig {
	return PaginatorConfig{
		PageSize:  100,
		PageDelay: 100 * time.Millisecond,
	}
}

// Paginator fetches all pages of a single conversation up to a cap.
// Pages of one conversation never overlap; parallelism exists only
// across distinct conversations.
type Paginator struct {
	client    ConversationClient
	directory ProfileDirectory
	tracker   *ratelimit.Tracker
	config    PaginatorConfig
	logger    zerolog.Logger
}

// NewPaginator creates a paginator over the given client and directory.
func NewPaginator(c ConversationClient, dir ProfileDirectory, tracker *ratelimit.Tracker, cfg PaginatorConfig) *Paginator {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.PageDelay <= 0 {
		cfg.PageDelay = 100 * time.Millisecond
	}
	return &Paginator{
		client:    c,
		directory: dir,
		tracker:   tracker,
		config:    cfg,
		logger:    log.With().Str("component", "paginator").Logger(),
	}
}

// FetchConversation fetches the conversation with one participant,
// resolving the profile first and then paginating until the cap is
// reached, no cursor is returned, or a page comes back empty.
//
// A page failure after at least one successful page ends pagination
// and returns the accumulated messages as a partial conversation. A
// failure before any page succeeded returns an error so the caller can
// omit the participant.
func (p *Paginator) FetchConversation(ctx context.Context, participantID string, opts Options) (*model.Conversation, error) {
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = 100
	}

	p.logger.Info().
		Str("participant_id", participantID).
		Int("max_messages", opts.MaxMessages).
		Msg("Fetching conversation")

	conv := model.NewConversation(participantID)
	conv.SetParticipant(p.directory.Get(ctx, participantID))

	// Fresh limiter per conversation: the first page goes out
	// immediately, later pages are spaced by PageDelay.
	limiter := rate.NewLimiter(rate.Every(p.config.PageDelay), 1)

	cursor := ""
	pages := 0

	for conv.TotalCount < opts.MaxMessages {
		if allowed, wait := p.tracker.Check(client.EndpointConversations); !allowed {
			if err := sleepCtx(ctx, wait); err != nil {
				return conv, err
			}
		}

		if err := limiter.Wait(ctx); err != nil {
			return conv, err
		}

		pageSize := opts.MaxMessages - conv.TotalCount
		if pageSize > p.config.PageSize {
			pageSize = p.config.PageSize
		}

		resp, err := p.client.ListConversationEvents(ctx, participantID, client.ConversationEventsParams{
			MaxResults: pageSize,
			Cursor:     cursor,
			SinceTime:  opts.Since,
		})
		if err != nil {
			if pages == 0 {
				conversationsTotal.WithLabelValues("omitted").Inc()
				return nil, err
			}
			conversationsTotal.WithLabelValues("partial").Inc()
			p.logger.Warn().
				Err(err).
				Str("participant_id", participantID).
				Int("pages", pages).
				Int("messages", conv.TotalCount).
				Msg("Page fetch failed, returning partial conversation")
			return conv, nil
		}

		pages++
		pagesFetchedTotal.Inc()

		if len(resp.Events) == 0 {
			break
		}

		for _, ev := range resp.Events {
			if ev.Type != model.MessageTypeCreate {
				continue
			}
			conv.AddMessage(eventToMessage(ev))
			messagesFetchedTotal.Inc()
		}

		if resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}

	conversationsTotal.WithLabelValues("complete").Inc()
	p.logger.Info().
		Str("participant_id", participantID).
		Int("pages", pages).
		Int("messages", conv.TotalCount).
		Msg("Conversation fetched")

	return conv, nil
}

// eventToMessage converts a typed DM event into a Message value.
func eventToMessage(ev client.DMEvent) model.Message {
	return model.Message{
		ID:             ev.ID,
		Text:           ev.Text,
		CreatedAt:      ev.CreatedAt,
		SenderID:       ev.SenderID,
		ConversationID: ev.ConversationID,
		Type:           ev.Type,
		Attachments:    ev.Attachments,
		ReferencedID:   ev.ReferencedID,
	}
}

// sleepCtx blocks for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
