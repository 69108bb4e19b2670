package fetch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xdmtools/dm-organizer/pkg/model"
)

// fakeFetcher maps participant ids to canned outcomes and records the
// peak number of concurrently running fetches.
type fakeFetcher struct {
	conversations map[string]*model.Conversation
	errs          map[string]error
	delay         time.Duration

	running atomic.Int64
	peak    atomic.Int64
}

func (f *fakeFetcher) FetchConversation(ctx context.Context, participantID string, _ Options) (*model.Conversation, error) {
	n := f.running.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	defer f.running.Add(-1)

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}

	if err, ok := f.errs[participantID]; ok {
		return nil, err
	}
	return f.conversations[participantID], nil
}

func convWithMessages(participantID string, n int) *model.Conversation {
	conv := model.NewConversation(participantID)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		conv.AddMessage(model.Message{
			ID:        participantID + "-m" + string(rune('a'+i)),
			Text:      "text",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			SenderID:  participantID,
			Type:      model.MessageTypeCreate,
		})
	}
	return conv
}

func TestFetchAll_AssemblesBatch(t *testing.T) {
	fetcher := &fakeFetcher{
		conversations: map[string]*model.Conversation{
			"a": convWithMessages("a", 2),
			"b": convWithMessages("b", 3),
			"c": convWithMessages("c", 1),
		},
	}
	orch := NewOrchestrator(fetcher, OrchestratorConfig{MaxWorkers: 2})

	batch := orch.FetchAll(context.Background(), []string{"a", "b", "c"}, Options{MaxMessages: 100})

	require.Len(t, batch.Conversations, 3)
	assert.Equal(t, 3, batch.Requested)
	assert.Equal(t, 6, batch.TotalMessages())
	for _, id := range []string{"a", "b", "c"} {
		assert.True(t, batch.Has(id), "batch missing participant %s", id)
	}
}

func TestFetchAll_FailureIsolation(t *testing.T) {
	// One failed participant is omitted; siblings are unaffected.
	fetcher := &fakeFetcher{
		conversations: map[string]*model.Conversation{
			"a": convWithMessages("a", 5),
			"c": convWithMessages("c", 2),
		},
		errs: map[string]error{
			"b": errors.New("server error (status 500) on dm_conversations"),
		},
	}
	orch := NewOrchestrator(fetcher, DefaultOrchestratorConfig())

	batch := orch.FetchAll(context.Background(), []string{"a", "b", "c"}, Options{MaxMessages: 100})

	require.Len(t, batch.Conversations, 2)
	assert.Equal(t, 3, batch.Requested)
	assert.True(t, batch.Has("a"))
	assert.False(t, batch.Has("b"), "failed participant must be omitted")
	assert.True(t, batch.Has("c"))
}

func TestFetchAll_SingleFailedParticipant(t *testing.T) {
	fetcher := &fakeFetcher{
		conversations: map[string]*model.Conversation{
			"a": convWithMessages("a", 5),
		},
		errs: map[string]error{
			"b": errors.New("first page failed"),
		},
	}
	orch := NewOrchestrator(fetcher, DefaultOrchestratorConfig())

	batch := orch.FetchAll(context.Background(), []string{"a", "b"}, Options{MaxMessages: 100})

	require.Len(t, batch.Conversations, 1)
	assert.Equal(t, "a", batch.Conversations[0].ParticipantID)
	assert.Equal(t, 5, batch.Conversations[0].TotalCount)
}

func TestFetchAll_WorkerBound(t *testing.T) {
	conversations := make(map[string]*model.Conversation)
	ids := []string{"1", "2", "3", "4", "5", "6", "7", "8"}
	for _, id := range ids {
		conversations[id] = convWithMessages(id, 1)
	}
	fetcher := &fakeFetcher{conversations: conversations, delay: 20 * time.Millisecond}
	orch := NewOrchestrator(fetcher, OrchestratorConfig{MaxWorkers: 3})

	batch := orch.FetchAll(context.Background(), ids, Options{MaxMessages: 100})

	require.Len(t, batch.Conversations, len(ids))
	assert.LessOrEqual(t, fetcher.peak.Load(), int64(3), "worker pool bound exceeded")
}

func TestFetchAll_Empty(t *testing.T) {
	orch := NewOrchestrator(&fakeFetcher{}, DefaultOrchestratorConfig())

	batch := orch.FetchAll(context.Background(), nil, Options{})

	assert.Empty(t, batch.Conversations)
	assert.Equal(t, 0, batch.Requested)
}

func TestFetchAll_DuplicateParticipants(t *testing.T) {
	fetcher := &fakeFetcher{
		conversations: map[string]*model.Conversation{
			"a": convWithMessages("a", 2),
		},
	}
	orch := NewOrchestrator(fetcher, DefaultOrchestratorConfig())

	batch := orch.FetchAll(context.Background(), []string{"a", "a"}, Options{MaxMessages: 100})

	require.Len(t, batch.Conversations, 1, "duplicate participant must be rejected")
	assert.Equal(t, 2, batch.Requested)
}
