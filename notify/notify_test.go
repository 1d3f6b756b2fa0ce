package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pto-tracker/notify"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type fakeInbox struct {
	mu       sync.Mutex
	saved    []notify.Notification
	managers []string
	err      error
}

func (f *fakeInbox) SaveNotifications(_ context.Context, notes []notify.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, notes...)
	return nil
}

func (f *fakeInbox) ManagerIDs(context.Context) ([]string, error) {
	return f.managers, nil
}

func (f *fakeInbox) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, len(f.saved))
	for i, n := range f.saved {
		ids[i] = n.UserID
	}
	return ids
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingRecorder) NotificationResult(channel, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[channel+"/"+status]++
}

func (c *countingRecorder) get(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[key]
}

type failingSender struct{}

func (failingSender) Send(context.Context, notify.Card) error { return errors.New("webhook down") }

// =============================================================================
// DELIVERY
// =============================================================================

func TestDeliver_ManagersExceptActor(t *testing.T) {
	// GIVEN: Two managers, one of whom triggered the event
	inbox := &fakeInbox{managers: []string{"m-1", "m-2"}}
	d := notify.NewDispatcher(inbox, nil, zerolog.Nop(), notify.Options{})

	// WHEN
	err := d.Deliver(context.Background(), notify.Event{
		To:      notify.Audience{Managers: true, UserIDs: []string{"owner", "m-2"}, Except: "m-1"},
		Title:   "Request Deleted",
		Message: "gone",
		Link:    "/approvals",
	})

	// THEN: Actor is excluded, duplicates collapse
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"owner", "m-2"}, inbox.recipients())
	for _, n := range inbox.saved {
		assert.NotEmpty(t, n.ID)
		assert.False(t, n.Read)
		assert.Equal(t, "/approvals", n.Link)
	}
}

func TestDeliver_WebhookFailureIsReportedNotFatal(t *testing.T) {
	inbox := &fakeInbox{managers: []string{"m-1"}}
	rec := &countingRecorder{}
	d := notify.NewDispatcher(inbox, failingSender{}, zerolog.Nop(), notify.Options{Recorder: rec})

	err := d.Deliver(context.Background(), notify.Event{
		To:    notify.Audience{Managers: true},
		Title: "New Time-Off Request",
		Card:  &notify.Card{Title: "New Time-Off Request"},
	})

	// In-app still delivered even though Teams failed
	assert.Error(t, err)
	assert.Equal(t, []string{"m-1"}, inbox.recipients())
	assert.Equal(t, 1, rec.get("in_app/sent"))
	assert.Equal(t, 1, rec.get("teams/failed"))
}

func TestDeliver_NoWebhookSkipsCard(t *testing.T) {
	rec := &countingRecorder{}
	d := notify.NewDispatcher(&fakeInbox{}, nil, zerolog.Nop(), notify.Options{Recorder: rec})

	err := d.Deliver(context.Background(), notify.Event{Card: &notify.Card{Title: "x"}})

	require.NoError(t, err)
	assert.Equal(t, 1, rec.get("teams/skipped"))
}

// =============================================================================
// BACKGROUND LOOP
// =============================================================================

func TestDispatcher_StopDrainsQueue(t *testing.T) {
	inbox := &fakeInbox{}
	d := notify.NewDispatcher(inbox, nil, zerolog.Nop(), notify.Options{QueueSize: 16})

	for i := 0; i < 5; i++ {
		d.Notify(notify.Event{To: notify.Audience{UserIDs: []string{"u-1"}}, Title: "t"})
	}
	d.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))

	assert.Len(t, inbox.recipients(), 5)
}

func TestDispatcher_FullQueueDrops(t *testing.T) {
	inbox := &fakeInbox{}
	rec := &countingRecorder{}
	d := notify.NewDispatcher(inbox, nil, zerolog.Nop(), notify.Options{QueueSize: 1, Recorder: rec})

	// Not started: the first event fills the queue
	d.Notify(notify.Event{To: notify.Audience{UserIDs: []string{"u-1"}}})
	d.Notify(notify.Event{To: notify.Audience{UserIDs: []string{"u-2"}}})

	assert.Equal(t, 1, rec.get("in_app/dropped"))
}

func TestDispatcher_NotifyAfterStopDoesNotPanic(t *testing.T) {
	d := notify.NewDispatcher(&fakeInbox{}, nil, zerolog.Nop(), notify.Options{})
	d.Start()
	require.NoError(t, d.Stop(context.Background()))

	assert.NotPanics(t, func() {
		d.Notify(notify.Event{Title: "late"})
	})
}

// =============================================================================
// TEAMS WEBHOOK
// =============================================================================

func TestTeamsWebhook_PostsAdaptiveCard(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	hook := notify.NewTeamsWebhook(srv.URL, time.Second)
	err := hook.Send(context.Background(), notify.Card{
		Title:   "New Time-Off Request",
		Message: "**Ada** has requested leave.",
		User:    "Ada",
		Reason:  "work remote",
		Start:   "2024-03-04",
		End:     "2024-03-05",
		Link:    "http://localhost:3000/approvals?highlight=r-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "AdaptiveCard", got["type"])
	assert.Equal(t, "1.4", got["version"])
	assert.Equal(t, "http://adaptivecards.io/schemas/adaptive-card.json", got["$schema"])

	body := got["body"].([]any)
	require.Len(t, body, 3)
	title := body[0].(map[string]any)
	assert.Equal(t, "Medium", title["size"])
	assert.Equal(t, "Bolder", title["weight"])
	facts := body[2].(map[string]any)["facts"].([]any)
	assert.Equal(t, map[string]any{"title": "Reason:", "value": "work remote"}, facts[1])

	action := got["actions"].([]any)[0].(map[string]any)
	assert.Equal(t, "Action.OpenUrl", action["type"])
	assert.Equal(t, "View Request", action["title"])
}

func TestTeamsWebhook_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad card", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := notify.NewTeamsWebhook(srv.URL, time.Second).Send(context.Background(), notify.Card{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
