// Package directory provides the per-run cache of resolved participant
// profiles. The cache lives only for one run; there is no cross-run
// persistence.
package directory

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xdmtools/dm-organizer/pkg/model"
)

var (
	profileLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dm_profile_lookups_total",
		Help: "Profile lookups by outcome",
	}, []string{"outcome"}) // "hit", "fetched", "placeholder"
)

// ProfileClient is the slice of the API client the directory needs.
type ProfileClient interface {
	LookupUser(ctx context.Context, userID string) (*model.User, error)
}

// Directory memoizes participant profiles for one run. Concurrent Get
// calls are safe; a duplicate fetch on a race is acceptable since the
// lookup is idempotent and last write wins.
type Directory struct {
	client ProfileClient
	mu     sync.RWMutex
	users  map[string]*model.User
	logger zerolog.Logger
}

// New creates an empty directory backed by the given profile client.
func New(client ProfileClient) *Directory {
	return &Directory{
		client: client,
		users:  make(map[string]*model.User),
		logger: log.With().Str("component", "directory").Logger(),
	}
}

// Get returns the cached profile for a user id, fetching and caching
// it on a miss. A failed lookup yields a placeholder profile instead
// of an error: profile absence must never block conversation fetching.
func (d *Directory) Get(ctx context.Context, userID string) *model.User {
	d.mu.RLock()
	u, ok := d.users[userID]
	d.mu.RUnlock()
	if ok {
		profileLookupsTotal.WithLabelValues("hit").Inc()
		return u
	}

	fetched, err := d.client.LookupUser(ctx, userID)
	if err != nil {
		profileLookupsTotal.WithLabelValues("placeholder").Inc()
		d.logger.Warn().
			Err(err).
			Str("user_id", userID).
			Msg("Profile lookup failed, using placeholder")
		return model.PlaceholderUser(userID)
	}

	d.mu.Lock()
	d.users[userID] = fetched
	d.mu.Unlock()

	profileLookupsTotal.WithLabelValues("fetched").Inc()
	d.logger.Debug().
		Str("user_id", userID).
		Str("username", fetched.Username).
		Msg("Profile cached")

	return fetched
}

// Len returns the number of cached profiles.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}
