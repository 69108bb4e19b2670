// Package metrics provides the centralized Prometheus metrics registry
// for the DM fetch pipeline. Metrics are defined in their respective
// packages (client, ratelimit, fetch, directory) to maintain modularity
// and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the pipeline.
// All metrics are automatically registered via promauto in their
// respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - dm_rate_limit_remaining{endpoint} (Gauge): Requests remaining in the current window
//   - dm_rate_limit_blocks_total{endpoint} (Counter): Requests held back until a window reset
//
// Request Metrics (pkg/client):
//   - dm_api_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - dm_api_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - dm_api_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Fetch Metrics (pkg/fetch):
//   - dm_pages_fetched_total (Counter): Conversation pages fetched
//   - dm_messages_fetched_total (Counter): Messages retained after event filtering
//   - dm_conversations_total{outcome} (Counter): Fetch outcomes (complete, partial, omitted)
//
// Directory Metrics (pkg/directory):
//   - dm_profile_lookups_total{outcome} (Counter): Profile lookups (hit, fetched, placeholder)
//
// Example Prometheus Queries:
//
//   # Remaining conversation endpoint budget
//   dm_rate_limit_remaining{endpoint="dm_conversations"}
//
//   # Partial/omitted conversation rate
//   sum(rate(dm_conversations_total{outcome!="complete"}[5m])) /
//   sum(rate(dm_conversations_total[5m]))
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(dm_api_request_duration_seconds_bucket[5m]))
//
//   # Profile cache hit rate
//   rate(dm_profile_lookups_total{outcome="hit"}[5m]) /
//   sum(rate(dm_profile_lookups_total[5m]))
