package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/xdmtools/dm-organizer/pkg/model"
)

func conversationAt(participantID string, last time.Time, messages int) *model.Conversation {
	conv := model.NewConversation(participantID)
	for i := 0; i < messages; i++ {
		conv.AddMessage(model.Message{
			ID:        participantID + "-m" + strings.Repeat("i", i+1),
			Text:      "text",
			CreatedAt: last.Add(-time.Duration(messages-1-i) * time.Minute),
			SenderID:  participantID,
			Type:      model.MessageTypeCreate,
		})
	}
	return conv
}

func TestFormatConversation(t *testing.T) {
	last := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	conv := conversationAt("42", last, 3)
	conv.SetParticipant(model.NewUser("42", "jane", "Jane Doe",
		"Builder. linkedin.com/in/jane-doe", "https://jane.dev", "Berlin", true))
	conv.Summary = "Discussed the launch."

	row := FormatConversation(conv)

	if row.Username != "jane" || row.RealName != "Jane Doe" {
		t.Errorf("identity fields = %q / %q", row.Username, row.RealName)
	}
	if row.LinkedInURL != "https://www.linkedin.com/in/jane-doe" {
		t.Errorf("LinkedInURL = %q", row.LinkedInURL)
	}
	if row.MessageCount != 3 {
		t.Errorf("MessageCount = %d", row.MessageCount)
	}
	if row.LastMessageDate != "2024-03-01 14:30:00" {
		t.Errorf("LastMessageDate = %q", row.LastMessageDate)
	}
	if row.Summary != "Discussed the launch." {
		t.Errorf("Summary = %q", row.Summary)
	}
	if !row.Verified {
		t.Error("Verified not carried over")
	}
}

func TestFormatConversation_Degradation(t *testing.T) {
	conv := model.NewConversation("42")

	row := FormatConversation(conv)

	if row.Username != "Unknown" || row.RealName != "Unknown" {
		t.Errorf("missing profile = %q / %q, want Unknown", row.Username, row.RealName)
	}
	if row.Summary != "No summary available" {
		t.Errorf("Summary = %q", row.Summary)
	}
	if row.LastMessageDate != "" {
		t.Errorf("LastMessageDate = %q, want empty for no messages", row.LastMessageDate)
	}
}

func TestFormatBatch_SortsNewestFirst(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	batch := model.NewBatch(3)
	batch.Add(conversationAt("old", base.Add(-48*time.Hour), 1))
	batch.Add(conversationAt("new", base, 1))
	batch.Add(conversationAt("mid", base.Add(-24*time.Hour), 1))

	rows := FormatBatch(batch)

	want := []string{"new", "mid", "old"}
	for i, id := range want {
		if rows[i].UserID != id {
			t.Errorf("rows[%d].UserID = %q, want %q", i, rows[i].UserID, id)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	last := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	conv := conversationAt("42", last, 2)
	conv.SetParticipant(model.NewUser("42", "jane", "Jane, \"JD\" Doe", "", "", "", true))
	conv.Summary = "Line one.\nLine two."

	var buf bytes.Buffer
	if err := WriteCSV(&buf, []Row{FormatConversation(conv)}); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want header + 1 row", len(records))
	}
	if records[0][0] != "username" {
		t.Errorf("header[0] = %q", records[0][0])
	}

	row := records[1]
	if row[2] != "Jane, \"JD\" Doe" {
		t.Errorf("real_name = %q, quoting broken", row[2])
	}
	if row[7] != "yes" {
		t.Errorf("verified = %q, want yes", row[7])
	}
	if row[9] != "2" {
		t.Errorf("message_count = %q, want 2", row[9])
	}
}

func TestComputeStatistics(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	batch := model.NewBatch(3)
	a := conversationAt("a", base, 4)
	a.Summary = "done"
	b := conversationAt("b", base, 2)
	batch.Add(a)
	batch.Add(b)

	stats := ComputeStatistics(batch)

	if stats.TotalConversations != 2 || stats.TotalMessages != 6 {
		t.Errorf("totals = %d conversations / %d messages", stats.TotalConversations, stats.TotalMessages)
	}
	if stats.AverageMessages != 3 {
		t.Errorf("AverageMessages = %v, want 3", stats.AverageMessages)
	}
	if stats.Summarized != 1 {
		t.Errorf("Summarized = %d, want 1", stats.Summarized)
	}
	if stats.CompletionRate != 50 {
		t.Errorf("CompletionRate = %v, want 50", stats.CompletionRate)
	}
}

func TestComputeStatistics_Empty(t *testing.T) {
	stats := ComputeStatistics(model.NewBatch(0))
	if stats.AverageMessages != 0 || stats.CompletionRate != 0 {
		t.Errorf("empty batch stats = %+v", stats)
	}
}
