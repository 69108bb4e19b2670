package directory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/xdmtools/dm-organizer/pkg/model"
)

// fakeProfileClient serves lookups from a fixed map, counting calls.
type fakeProfileClient struct {
	users map[string]*model.User
	calls atomic.Int64
}

func (f *fakeProfileClient) LookupUser(_ context.Context, userID string) (*model.User, error) {
	f.calls.Add(1)
	u, ok := f.users[userID]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func TestGet_CachesFetchedProfile(t *testing.T) {
	client := &fakeProfileClient{
		users: map[string]*model.User{
			"42": model.NewUser("42", "jane", "Jane Doe", "", "", "", false),
		},
	}
	dir := New(client)

	first := dir.Get(context.Background(), "42")
	second := dir.Get(context.Background(), "42")

	if first.Username != "jane" || second.Username != "jane" {
		t.Errorf("usernames = %q, %q", first.Username, second.Username)
	}
	if got := client.calls.Load(); got != 1 {
		t.Errorf("LookupUser called %d times, want 1", got)
	}
	if dir.Len() != 1 {
		t.Errorf("Len() = %d, want 1", dir.Len())
	}
}

func TestGet_PlaceholderOnFailure(t *testing.T) {
	client := &fakeProfileClient{users: map[string]*model.User{}}
	dir := New(client)

	u := dir.Get(context.Background(), "404")

	if !u.IsPlaceholder() {
		t.Fatalf("expected placeholder, got %+v", u)
	}
	if u.Username != "user_404" || u.Name != "Unknown" {
		t.Errorf("placeholder = %q / %q", u.Username, u.Name)
	}
	if dir.Len() != 0 {
		t.Error("placeholder must not be cached")
	}

	// A later call retries the lookup rather than serving the placeholder.
	dir.Get(context.Background(), "404")
	if got := client.calls.Load(); got != 2 {
		t.Errorf("LookupUser called %d times, want 2", got)
	}
}

func TestGet_Concurrent(t *testing.T) {
	client := &fakeProfileClient{
		users: map[string]*model.User{
			"1": model.NewUser("1", "a", "A", "", "", "", false),
			"2": model.NewUser("2", "b", "B", "", "", "", false),
		},
	}
	dir := New(client)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		id := "1"
		if i%2 == 0 {
			id = "2"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if u := dir.Get(context.Background(), id); u.ID != id {
				t.Errorf("Get(%s) returned user %s", id, u.ID)
			}
		}()
	}
	wg.Wait()

	if dir.Len() != 2 {
		t.Errorf("Len() = %d, want 2", dir.Len())
	}
}
