package fetch

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/xdmtools/dm-organizer/pkg/model"
)

// ConversationFetcher fetches one conversation to completion.
type ConversationFetcher interface {
	FetchConversation(ctx context.Context, participantID string, opts Options) (*model.Conversation, error)
}

// Result is the explicit per-task outcome variant: either a fetched
// conversation or the error that caused the participant's omission.
type Result struct {
	ParticipantID string
	Conversation  *model.Conversation
	Err           error
}

// OrchestratorConfig holds the batch orchestrator tuning knobs.
type OrchestratorConfig struct {
	// MaxWorkers bounds concurrent conversation fetches. The effective
	// pool size is min(MaxWorkers, number of participants).
	MaxWorkers int

	// PacingDelay is slept after each task's completion as a
	// burst-avoidance measure on top of the rate limiter. Tunable;
	// exact placement is not a contract.
	PacingDelay time.Duration
}

// DefaultOrchestratorConfig returns safe defaults.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MaxWorkers:  5,
		PacingDelay: 200 * time.Millisecond,
	}
}

// Orchestrator fans conversation fetches out over a bounded worker
// pool and assembles the batch. A failure for one participant never
// aborts sibling tasks or the run.
type Orchestrator struct {
	fetcher ConversationFetcher
	config  OrchestratorConfig
	logger  zerolog.Logger
}

// NewOrchestrator creates an orchestrator over the given fetcher.
func NewOrchestrator(fetcher ConversationFetcher, cfg OrchestratorConfig) *Orchestrator {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 5
	}
	return &Orchestrator{
		fetcher: fetcher,
		config:  cfg,
		logger:  log.With().Str("component", "orchestrator").Logger(),
	}
}

// FetchAll fetches conversations with every participant id and reduces
// the results into a batch. Conversations land in completion order,
// not submission order; failed participants are logged and omitted.
func (o *Orchestrator) FetchAll(ctx context.Context, participantIDs []string, opts Options) *model.ConversationBatch {
	batch := model.NewBatch(len(participantIDs))
	if len(participantIDs) == 0 {
		return batch
	}

	workers := o.config.MaxWorkers
	if len(participantIDs) < workers {
		workers = len(participantIDs)
	}

	o.logger.Info().
		Int("participants", len(participantIDs)).
		Int("workers", workers).
		Msg("Starting batch fetch")

	results := make(chan Result, len(participantIDs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, id := range participantIDs {
		g.Go(func() error {
			conv, err := o.fetcher.FetchConversation(gCtx, id, opts)
			results <- Result{ParticipantID: id, Conversation: conv, Err: err}

			// Gentle pacing between task completions.
			if o.config.PacingDelay > 0 {
				_ = sleepCtx(gCtx, o.config.PacingDelay)
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(results)
	}()

	for res := range results {
		if res.Err != nil {
			o.logger.Error().
				Err(res.Err).
				Str("participant_id", res.ParticipantID).
				Msg("Conversation fetch failed, omitting participant")
			continue
		}
		if !batch.Add(res.Conversation) {
			o.logger.Warn().
				Str("participant_id", res.ParticipantID).
				Msg("Duplicate participant in batch, dropping")
		}
	}

	o.logger.Info().
		Int("fetched", len(batch.Conversations)).
		Int("requested", batch.Requested).
		Int("messages", batch.TotalMessages()).
		Msg("Batch fetch completed")

	return batch
}
