package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"conferencecompanion/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

var testNow = time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled map[string]domain.Notification
	cancelled []string
	nextID    int
	err       error
	cancelErr error
	// entered, when set, is signalled on every Schedule call before it waits on release.
	entered chan struct{}
	release chan struct{}
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{scheduled: make(map[string]domain.Notification)}
}

func (f *fakeScheduler) Schedule(ctx context.Context, n domain.Notification) (string, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.nextID++
	id := fmt.Sprintf("n%d", f.nextID)
	f.scheduled[id] = n
	return id, nil
}

func (f *fakeScheduler) Cancel(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	if f.cancelErr != nil {
		return f.cancelErr
	}
	if _, ok := f.scheduled[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.scheduled, id)
	return nil
}

func (f *fakeScheduler) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.scheduled)
}

type fakePermission struct {
	status domain.PermissionStatus
	err    error
	calls  int
}

func (f *fakePermission) RequestPermission(ctx context.Context) (domain.PermissionStatus, error) {
	f.calls++
	return f.status, f.err
}

type fakeHaptics struct {
	selections int
}

func (f *fakeHaptics) Selection() { f.selections++ }

type fakeFeedRepo struct {
	posts      []domain.FeedPost
	listErr    error
	createErr  error
	deleteErr  error
	profileErr error
	profiles   []string
	created    []domain.CreateFeedPostInput
	nextID     int
}

func (f *fakeFeedRepo) ListByEventID(ctx context.Context, eventID string) ([]domain.FeedPost, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.FeedPost
	for _, p := range f.posts {
		if p.EventID == eventID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeFeedRepo) Create(ctx context.Context, userID string, input domain.CreateFeedPostInput) (*domain.FeedPost, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	f.created = append(f.created, input)
	p := domain.FeedPost{
		ID:        fmt.Sprintf("new-%d", f.nextID),
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
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, p := range f.posts {
		if p.ID == postID && p.UserID == userID {
			f.posts = append(f.posts[:i], f.posts[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeFeedRepo) EnsureProfile(ctx context.Context, u *domain.User) error {
	if f.profileErr != nil {
		return f.profileErr
	}
	f.profiles = append(f.profiles, u.ID)
	return nil
}

type fakeChangeSource struct {
	mu      sync.Mutex
	listens int
	chans   map[string]chan domain.FeedChange
	ctxs    map[string]context.Context
	err     error
}

func newFakeChangeSource() *fakeChangeSource {
	return &fakeChangeSource{chans: make(map[string]chan domain.FeedChange), ctxs: make(map[string]context.Context)}
}

func (f *fakeChangeSource) Listen(ctx context.Context, eventID string) (<-chan domain.FeedChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.listens++
	ch := make(chan domain.FeedChange)
	f.chans[eventID] = ch
	f.ctxs[eventID] = ctx
	go func() {
		<-ctx.Done()
		f.mu.Lock()
		defer f.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// send delivers a change and returns once the store's reader has received it.
func (f *fakeChangeSource) send(eventID string, c domain.FeedChange) {
	f.mu.Lock()
	ch := f.chans[eventID]
	f.mu.Unlock()
	ch <- c
}

type fakeImageStorage struct {
	path        string
	contentType string
	data        []byte
	err         error
}

func (f *fakeImageStorage) Upload(ctx context.Context, path, contentType string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.path, f.contentType, f.data = path, contentType, data
	return "https://cdn.example.com/" + path, nil
}

type fakeIdentityProvider struct {
	user       *domain.User
	signInErr  error
	signOutErr error
}

func (f *fakeIdentityProvider) SignIn(ctx context.Context, credential string) (*domain.User, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	if credential == "" {
		return nil, errors.New("empty credential")
	}
	return f.user, nil
}

func (f *fakeIdentityProvider) SignOut(ctx context.Context) error {
	return f.signOutErr
}
