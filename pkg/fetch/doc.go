// Package fetch assembles DM conversations from the paginated X API.
//
// The ConversationPaginator walks one conversation cursor by cursor,
// gating each page on the shared rate limit tracker and spacing pages
// with a politeness throttle. The BatchOrchestrator fans paginators
// out over a bounded worker pool and reduces the per-task results into
// a ConversationBatch, tolerating partial failure.
//
// Example usage:
//
//	paginator := fetch.NewPaginator(apiClient, dir, tracker, fetch.DefaultPaginatorConfig())
//	orch := fetch.NewOrchestrator(paginator, fetch.DefaultOrchestratorConfig())
//	batch := orch.FetchAll(ctx, participantIDs, fetch.Options{MaxMessages: 100})
//
// Failure of a single conversation never aborts its siblings: a page
// failure mid-conversation yields a partial Conversation, and a
// failure before any page succeeded omits that participant from the
// batch.
package fetch
