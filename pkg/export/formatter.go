// Package export formats conversation batches into spreadsheet rows
// for downstream writers and provides a CSV renderer.
package export

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/xdmtools/dm-organizer/pkg/model"
)

// Row is one spreadsheet row describing a conversation.
type Row struct {
	Username        string
	UserID          string
	RealName        string
	LinkedInURL     string
	Location        string
	Bio             string
	Website         string
	Verified        bool
	Summary         string
	MessageCount    int
	LastMessageDate string
}

// timeLayout is the spreadsheet date format.
const timeLayout = "2006-01-02 15:04:05"

// FormatConversation flattens one conversation into a row. Missing
// profile fields degrade to "Unknown"/empty rather than failing.
func FormatConversation(conv *model.Conversation) Row {
	row := Row{
		Username:     "Unknown",
		UserID:       conv.ParticipantID,
		RealName:     "Unknown",
		Summary:      conv.Summary,
		MessageCount: conv.TotalCount,
	}
	if row.Summary == "" {
		row.Summary = "No summary available"
	}
	if !conv.LastMessageTime.IsZero() {
		row.LastMessageDate = conv.LastMessageTime.Format(timeLayout)
	}

	if p := conv.Participant; p != nil {
		row.Username = p.Username
		row.RealName = p.Name
		row.LinkedInURL = p.LinkedInURL
		row.Location = p.Location
		row.Bio = p.Bio
		row.Website = p.Website
		row.Verified = p.Verified
	}
	return row
}

// FormatBatch flattens a batch into rows sorted newest-first by last
// message date.
func FormatBatch(batch *model.ConversationBatch) []Row {
	rows := make([]Row, 0, len(batch.Conversations))
	for _, conv := range batch.Conversations {
		rows = append(rows, FormatConversation(conv))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].LastMessageDate > rows[j].LastMessageDate
	})

	log.Debug().
		Int("rows", len(rows)).
		Msg("Batch formatted for export")

	return rows
}

// Statistics summarizes a batch for the completion report.
type Statistics struct {
	TotalConversations int
	TotalMessages      int
	AverageMessages    float64
	Summarized         int
	CompletionRate     float64
}

// ComputeStatistics derives completion statistics from a batch.
func ComputeStatistics(batch *model.ConversationBatch) Statistics {
	stats := Statistics{
		TotalConversations: len(batch.Conversations),
		TotalMessages:      batch.TotalMessages(),
	}
	for _, conv := range batch.Conversations {
		if conv.Summary != "" {
			stats.Summarized++
		}
	}
	if stats.TotalConversations > 0 {
		stats.AverageMessages = float64(stats.TotalMessages) / float64(stats.TotalConversations)
		stats.CompletionRate = float64(stats.Summarized) / float64(stats.TotalConversations) * 100
	}
	return stats
}
