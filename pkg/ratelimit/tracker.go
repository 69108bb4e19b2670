// Package ratelimit tracks per-endpoint X API rate limit windows from
// the x-rate-limit-* response headers and gates outgoing requests.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	rateLimitRemaining = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dm_rate_limit_remaining",
		Help: "Requests remaining in the current rate limit window by endpoint",
	}, []string{"endpoint"})

	rateLimitBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dm_rate_limit_blocks_total",
		Help: "Total number of requests held back until the window reset",
	}, []string{"endpoint"})
)

// Header names carrying rate limit metadata on every X API response.
const (
	HeaderRemaining = "x-rate-limit-remaining"
	HeaderLimit     = "x-rate-limit-limit"
	HeaderReset     = "x-rate-limit-reset"
)

// Window is the tracked rate limit state for one logical endpoint.
type Window struct {
	// Remaining is the number of requests left in the current window.
	Remaining int

	// Limit is the total window budget.
	Limit int

	// ResetAt is when the window rolls over, from the reset epoch header.
	ResetAt time.Time

	// LastUpdate is when this entry was last replaced.
	LastUpdate time.Time
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (w Window) TimeUntilReset() time.Duration {
	d := time.Until(w.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}

// Exhausted reports whether no requests remain and the window has not
// reset yet.
func (w Window) Exhausted() bool {
	return w.Remaining <= 0 && time.Now().Before(w.ResetAt)
}

// Tracker keeps per-endpoint rate limit windows, updated in place from
// response headers. Checks may race benignly with updates from sibling
// fetch tasks; the true limit is enforced server-side.
type Tracker struct {
	mu      sync.RWMutex
	windows map[string]Window
	logger  zerolog.Logger
}

// NewTracker creates an empty tracker.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{
		windows: make(map[string]Window),
		logger:  logger,
	}
}

// UpdateFromHeaders replaces the tracked window for an endpoint from
// response headers. Responses without rate limit headers are ignored;
// malformed values are logged and the prior state is kept.
func (t *Tracker) UpdateFromHeaders(endpoint string, headers http.Header) {
	remainStr := headers.Get(HeaderRemaining)
	resetStr := headers.Get(HeaderReset)
	if remainStr == "" && resetStr == "" {
		return
	}

	remaining, err := strconv.Atoi(remainStr)
	if err != nil {
		t.logger.Warn().
			Str("endpoint", endpoint).
			Str("value", remainStr).
			Msg("Malformed rate limit remaining header, keeping prior state")
		return
	}

	resetEpoch, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		t.logger.Warn().
			Str("endpoint", endpoint).
			Str("value", resetStr).
			Msg("Malformed rate limit reset header, keeping prior state")
		return
	}

	// Limit header is informational; tolerate its absence.
	limit, err := strconv.Atoi(headers.Get(HeaderLimit))
	if err != nil {
		limit = 0
	}

	w := Window{
		Remaining:  remaining,
		Limit:      limit,
		ResetAt:    time.Unix(resetEpoch, 0),
		LastUpdate: time.Now(),
	}

	t.mu.Lock()
	t.windows[endpoint] = w
	t.mu.Unlock()

	rateLimitRemaining.WithLabelValues(endpoint).Set(float64(remaining))

	t.logger.Debug().
		Str("endpoint", endpoint).
		Int("remaining", remaining).
		Int("limit", limit).
		Time("reset_at", w.ResetAt).
		Msg("Rate limit window updated")
}

// Update replaces the tracked window for an endpoint directly.
func (t *Tracker) Update(endpoint string, w Window) {
	w.LastUpdate = time.Now()
	t.mu.Lock()
	t.windows[endpoint] = w
	t.mu.Unlock()
	rateLimitRemaining.WithLabelValues(endpoint).Set(float64(w.Remaining))
}

// Check reports whether a request to the endpoint may proceed. When the
// window is exhausted it returns false plus the duration to wait until
// the reset. Unknown endpoints and passed reset times are allowed.
func (t *Tracker) Check(endpoint string) (allowed bool, wait time.Duration) {
	t.mu.RLock()
	w, ok := t.windows[endpoint]
	t.mu.RUnlock()

	if !ok {
		return true, 0
	}

	if !w.Exhausted() {
		return true, 0
	}

	wait = w.TimeUntilReset()
	rateLimitBlocksTotal.WithLabelValues(endpoint).Inc()

	t.logger.Warn().
		Str("endpoint", endpoint).
		Dur("wait", wait).
		Time("reset_at", w.ResetAt).
		Msg("Rate limit window exhausted, waiting for reset")

	return false, wait
}

// Snapshot returns a copy of the tracked window for an endpoint.
func (t *Tracker) Snapshot(endpoint string) (Window, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	w, ok := t.windows[endpoint]
	return w, ok
}
