// Package client provides the authenticated X API v2 client used by
// the DM fetch pipeline, with per-endpoint rate limit tracking and
// typed request/response boundaries.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xdmtools/dm-organizer/pkg/model"
	"github.com/xdmtools/dm-organizer/pkg/ratelimit"
)

// Prometheus metrics for API client operations.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dm_api_requests_total",
		Help: "Total X API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dm_api_request_duration_seconds",
		Help:    "X API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dm_api_errors_total",
		Help: "Total X API errors by class",
	}, []string{"class"})
)

// Logical endpoint names used for rate limit tracking. Each maps to
// its own upstream rate limit window.
const (
	EndpointVerify        = "users_me"
	EndpointRecentEvents  = "dm_events"
	EndpointConversations = "dm_conversations"
	EndpointUsers         = "users"
)

// maxPageSize is the upstream cap on max_results per request.
const maxPageSize = 100

// Credentials holds the OAuth 1.0a user-context credentials.
type Credentials struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string
}

// Complete reports whether every credential field is present.
func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.APISecret != "" &&
		c.AccessToken != "" && c.AccessTokenSecret != ""
}

// Signer authorizes an outgoing request. Actual request signing
// (OAuth 1.0a HMAC-SHA1 for the DM endpoints) is provided by the
// caller as an external capability.
type Signer interface {
	Sign(req *http.Request) error
}

// SignerFunc adapts a function to the Signer interface.
type SignerFunc func(req *http.Request) error

// Sign implements Signer.
func (f SignerFunc) Sign(req *http.Request) error { return f(req) }

// Config holds the client configuration.
type Config struct {
	Credentials Credentials
	Signer      Signer
	Tracker     *ratelimit.Tracker

	// BaseURL of the X API, overridable for tests.
	BaseURL string

	UserAgent string

	// HTTPTimeout bounds each round trip. It is the only time bound on
	// a call; there is no batch-level deadline.
	HTTPTimeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(creds Credentials, signer Signer, tracker *ratelimit.Tracker) Config {
	return Config{
		Credentials: creds,
		Signer:      signer,
		Tracker:     tracker,
		BaseURL:     "https://api.twitter.com",
		UserAgent:   "dm-organizer/0.1.0",
		HTTPTimeout: 10 * time.Second,
	}
}

// Client is the X API v2 client. Authentication is established once at
// construction; every response updates the rate limit tracker for the
// corresponding endpoint.
type Client struct {
	httpClient *http.Client
	signer     Signer
	tracker    *ratelimit.Tracker
	config     Config
	logger     zerolog.Logger
}

// New creates a new API client. Missing credentials fail construction
// immediately since nothing downstream can proceed without them.
func New(cfg Config) (*Client, error) {
	if !cfg.Credentials.Complete() {
		return nil, ErrMissingCredentials
	}
	if cfg.Signer == nil {
		return nil, ErrNoSigner
	}
	if cfg.Tracker == nil {
		return nil, fmt.Errorf("rate limit tracker is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twitter.com"
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}

	logger := log.With().Str("component", "api-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		signer:  cfg.Signer,
		tracker: cfg.Tracker,
		config:  cfg,
		logger:  logger,
	}, nil
}

// VerifyIdentity returns the authenticated account's profile. Used at
// startup to confirm the credentials actually work.
func (c *Client) VerifyIdentity(ctx context.Context) (*Identity, error) {
	query := url.Values{}
	query.Set("user.fields", "id,username,name,public_metrics")

	body, err := c.doGet(ctx, EndpointVerify, "/2/users/me", query)
	if err != nil {
		return nil, err
	}

	resp, err := decodeUserResponse(body)
	if err != nil {
		return nil, fmt.Errorf("decode identity response: %w", err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("identity response has no user data")
	}

	c.logger.Info().
		Str("user_id", resp.Data.ID).
		Str("username", resp.Data.Username).
		Msg("Credentials verified")

	return &Identity{
		ID:       resp.Data.ID,
		Username: resp.Data.Username,
		Name:     resp.Data.Name,
		Metrics:  resp.Data.Metrics,
	}, nil
}

// ListRecentEvents fetches recent DM events across all conversations,
// used to discover recent conversation participants.
func (c *Client) ListRecentEvents(ctx context.Context, max int) (*RecentEvents, error) {
	if max <= 0 || max > maxPageSize {
		max = maxPageSize
	}

	query := url.Values{}
	query.Set("dm_event.fields", "id,sender_id,created_at")
	query.Set("max_results", strconv.Itoa(max))

	body, err := c.doGet(ctx, EndpointRecentEvents, "/2/dm_events", query)
	if err != nil {
		return nil, err
	}

	resp, err := decodeEventsResponse(body)
	if err != nil {
		return nil, fmt.Errorf("decode recent events response: %w", err)
	}

	out := &RecentEvents{}
	for _, e := range parseDMEvents(resp.Data, c.logger) {
		out.Events = append(out.Events, RecentEvent{
			ID:        e.ID,
			SenderID:  e.SenderID,
			CreatedAt: e.CreatedAt,
		})
	}
	if resp.Meta != nil {
		out.NextCursor = resp.Meta.NextToken
	}
	return out, nil
}

// ListConversationEvents fetches one page of DM events exchanged with
// a participant. The returned NextCursor is empty on the last page.
func (c *Client) ListConversationEvents(ctx context.Context, participantID string, params ConversationEventsParams) (*ConversationEvents, error) {
	if params.MaxResults <= 0 || params.MaxResults > maxPageSize {
		params.MaxResults = maxPageSize
	}

	query := url.Values{}
	query.Set("dm_event.fields", "id,text,created_at,sender_id,dm_conversation_id,event_type,attachments")
	query.Set("user.fields", "id,username,name")
	query.Set("max_results", strconv.Itoa(params.MaxResults))
	if params.Cursor != "" {
		query.Set("pagination_token", params.Cursor)
	}
	if !params.SinceTime.IsZero() {
		query.Set("start_time", params.SinceTime.UTC().Format(time.RFC3339))
	}

	path := fmt.Sprintf("/2/dm_conversations/with/%s/dm_events", participantID)
	body, err := c.doGet(ctx, EndpointConversations, path, query)
	if err != nil {
		return nil, err
	}

	resp, err := decodeEventsResponse(body)
	if err != nil {
		return nil, fmt.Errorf("decode conversation events response: %w", err)
	}

	out := &ConversationEvents{
		Events: parseDMEvents(resp.Data, c.logger),
	}
	if resp.Meta != nil {
		out.ResultCount = resp.Meta.ResultCount
		out.NextCursor = resp.Meta.NextToken
	}

	c.logger.Debug().
		Str("participant_id", participantID).
		Int("result_count", len(out.Events)).
		Bool("has_next", out.NextCursor != "").
		Msg("Conversation events page fetched")

	return out, nil
}

// LookupUser fetches a user profile by id.
func (c *Client) LookupUser(ctx context.Context, userID string) (*model.User, error) {
	query := url.Values{}
	query.Set("user.fields", "id,username,name,description,url,location,verified,public_metrics")

	body, err := c.doGet(ctx, EndpointUsers, "/2/users/"+userID, query)
	if err != nil {
		return nil, err
	}

	resp, err := decodeUserResponse(body)
	if err != nil {
		return nil, fmt.Errorf("decode user response: %w", err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("user %s not found in response", userID)
	}

	u := resp.Data
	return model.NewUser(u.ID, u.Username, u.Name, u.Description, u.URL, u.Location, u.Verified), nil
}

// doGet executes a signed GET request against the API. Every response,
// success or failure, updates the rate limit tracker for the endpoint.
// Non-2xx responses come back as *APIError values.
func (c *Client) doGet(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error) {
	start := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	u := c.config.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	if err := c.signer.Sign(req); err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		apiRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	c.tracker.UpdateFromHeaders(endpoint, resp.Header)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}

	apiRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
		apiErrorsTotal.WithLabelValues(string(apiErr.Class())).Inc()

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(apiErr.Class())).
			Msg("API request error")

		return nil, apiErr
	}

	return body, nil
}
