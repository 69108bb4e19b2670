package fetch

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/xdmtools/dm-organizer/pkg/client"
)

// RecentLister is the slice of the API client participant discovery needs.
type RecentLister interface {
	ListRecentEvents(ctx context.Context, max int) (*client.RecentEvents, error)
}

// DiscoverRecentParticipants derives up to max unique counterparty ids
// from the recent DM events listing, excluding selfID (the
// authenticated account's own id).
func DiscoverRecentParticipants(ctx context.Context, c RecentLister, selfID string, max int) ([]string, error) {
	if max <= 0 {
		max = 20
	}

	// Over-request events since many will share a sender.
	events, err := c.ListRecentEvents(ctx, max*5)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var participants []string
	for _, ev := range events.Events {
		if ev.SenderID == "" || ev.SenderID == selfID {
			continue
		}
		if _, ok := seen[ev.SenderID]; ok {
			continue
		}
		seen[ev.SenderID] = struct{}{}
		participants = append(participants, ev.SenderID)
		if len(participants) >= max {
			break
		}
	}

	log.Info().
		Int("count", len(participants)).
		Msg("Discovered recent DM participants")

	return participants, nil
}
