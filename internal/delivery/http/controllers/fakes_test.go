package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"conferencecompanion/internal/delivery/http/helpers"
	"conferencecompanion/internal/domain"
	"conferencecompanion/internal/repository/memory"
	"conferencecompanion/internal/services"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

var testNow = time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func at(day, hour int) time.Time {
	return time.Date(2025, 11, day, hour, 0, 0, 0, time.UTC)
}

// testEvents returns a past event followed by a running one (e1).
func testEvents() []domain.ConferenceEvent {
	talk := func(id string, start time.Time, speakers ...string) domain.Session {
		return domain.Session{ID: id, Title: "Talk " + id, StartTime: start, EndTime: start.Add(time.Hour), Type: domain.SessionTypeTalk, Speakers: speakers}
	}
	return []domain.ConferenceEvent{
		{ID: "past", Name: "Last Year", StartDate: "2024-11-01", EndDate: "2024-11-01",
			Days: []domain.EventDay{{ID: "p1", Date: "2024-11-01"}}},
		{ID: "e1", Name: "DevFest", StartDate: "2025-11-01", EndDate: "2025-11-02",
			Days: []domain.EventDay{
				{ID: "d1", Date: "2025-11-01", Label: "Day 1", Sessions: []domain.Session{
					talk("s2", at(1, 11), "sp2", "ghost"),
					talk("s1", at(1, 10), "sp1"),
				}},
				{ID: "d2", Date: "2025-11-02", Label: "Day 2", Sessions: []domain.Session{
					talk("s3", at(2, 9), "sp1"),
				}},
			},
			Speakers: []domain.Speaker{
				{ID: "sp1", Name: "Ana", Links: &domain.SpeakerLinks{GitHub: "https://github.com/ana"}},
				{ID: "sp2", Name: "Luis", PhotoURL: "https://img/luis.png"},
			},
		},
	}
}

type fakeCatalog struct {
	events []domain.ConferenceEvent
	err    error
}

func (f *fakeCatalog) ListEvents(ctx context.Context) ([]domain.ConferenceEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeCatalog) GetEvent(ctx context.Context, eventID string) (*domain.ConferenceEvent, error) {
	if ev := domain.FindEvent(f.events, eventID); ev != nil {
		return ev, nil
	}
	return nil, domain.ErrNotFound
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled map[string]domain.Notification
	next      int
}

func (f *fakeScheduler) Schedule(ctx context.Context, n domain.Notification) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scheduled == nil {
		f.scheduled = make(map[string]domain.Notification)
	}
	f.next++
	id := fmt.Sprintf("n%d", f.next)
	f.scheduled[id] = n
	return id, nil
}

func (f *fakeScheduler) Cancel(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.scheduled[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.scheduled, id)
	return nil
}

type grantAll struct{}

func (grantAll) RequestPermission(ctx context.Context) (domain.PermissionStatus, error) {
	return domain.PermissionGranted, nil
}

// newEventStore returns a loaded store backed by memory and a fake scheduler.
func newEventStore(t *testing.T) (*services.EventStore, *fakeScheduler) {
	t.Helper()
	sched := &fakeScheduler{}
	coord := services.NewBookmarkCoordinator(sched, grantAll{}, nil, services.PlatformWeb, nil, testLogger, services.WithClock(clock))
	store := services.NewEventStore(memory.NewStore(), coord, testLogger, services.WithClock(clock))
	require.NoError(t, store.Load(context.Background()))
	t.Cleanup(store.Close)
	return store, sched
}

type fakeFeedRepo struct {
	mu        sync.Mutex
	posts     []domain.FeedPost
	listErr   error
	createErr error
	next      int
}

func (f *fakeFeedRepo) ListByEventID(ctx context.Context, eventID string) ([]domain.FeedPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []domain.FeedPost{}
	for _, p := range f.posts {
		if p.EventID == eventID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeFeedRepo) Create(ctx context.Context, userID string, input domain.CreateFeedPostInput) (*domain.FeedPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.next++
	p := domain.FeedPost{
		ID:        fmt.Sprintf("post-%d", f.next),
		UserID:    userID,
		EventID:   input.EventID,
		Content:   input.Content,
		ImageURLs: input.ImageURLs,
		CreatedAt: testNow,
	}
	f.posts = append([]domain.FeedPost{p}, f.posts...)
	return &p, nil
}

func (f *fakeFeedRepo) Delete(ctx context.Context, postID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.posts {
		if p.ID == postID && p.UserID == userID {
			f.posts = append(f.posts[:i], f.posts[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeFeedRepo) EnsureProfile(ctx context.Context, u *domain.User) error { return nil }

type fakeChangeSource struct {
	mu    sync.Mutex
	chans map[string]chan domain.FeedChange
	err   error
}

func (f *fakeChangeSource) Listen(ctx context.Context, eventID string) (<-chan domain.FeedChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.chans == nil {
		f.chans = make(map[string]chan domain.FeedChange)
	}
	ch := make(chan domain.FeedChange)
	f.chans[eventID] = ch
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (f *fakeChangeSource) send(eventID string, c domain.FeedChange) {
	f.mu.Lock()
	ch := f.chans[eventID]
	f.mu.Unlock()
	ch <- c
}

type fakeImages struct {
	paths []string
}

func (f *fakeImages) Upload(ctx context.Context, path, contentType string, data []byte) (string, error) {
	f.paths = append(f.paths, path)
	return "https://cdn.test/" + path, nil
}

type fakeProvider struct {
	user *domain.User
	err  error
}

func (f *fakeProvider) SignIn(ctx context.Context, credential string) (*domain.User, error) {
	return f.user, f.err
}

func (f *fakeProvider) SignOut(ctx context.Context) error { return nil }

// serve runs handler and decodes the response envelope.
func serve(t *testing.T, handler http.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, helpers.APIResponse) {
	t.Helper()
	rr := httptest.NewRecorder()
	handler(rr, req)
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&envelope), "response must be valid JSON envelope")
	return rr, envelope
}

// decodeData re-marshals envelope.Data into dest.
func decodeData(t *testing.T, envelope helpers.APIResponse, dest any) {
	t.Helper()
	require.Nil(t, envelope.Error, "success response must have error nil")
	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dest))
}
