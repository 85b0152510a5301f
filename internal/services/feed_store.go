package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"conferencecompanion/internal/domain"
)

// User-facing error messages recorded in FeedState.Error.
const (
	feedErrLoad   = "failed to load feed"
	feedErrCreate = "failed to create post"
	feedErrDelete = "failed to delete post"
	feedErrUpload = "failed to upload image"
)

// ImagePathPrefix is the object storage folder for feed images.
const ImagePathPrefix = "feed-images"

const watcherBuffer = 16

// FeedState is a read-only view of the feed store.
type FeedState struct {
	EventID    string            `json:"event_id"`
	Posts      []domain.FeedPost `json:"posts"`
	IsLoading  bool              `json:"is_loading"`
	IsCreating bool              `json:"is_creating"`
	Error      string            `json:"error,omitempty"`
}

type feedSubscription struct {
	refs   int
	cancel context.CancelFunc
	done   chan struct{}
}

type feedWatcher struct {
	eventID string
	ch      chan domain.FeedChange
}

// FeedStore keeps the posts of one event in memory and keeps them live
// through the realtime change source.
type FeedStore struct {
	mu    sync.RWMutex
	state FeedState

	subs      map[string]*feedSubscription
	watchers  map[int]feedWatcher
	nextWatch int
	repo      domain.FeedRepository
	changes   domain.FeedChangeSource
	images    domain.ImageStorage
	logger    *slog.Logger
	now       func() time.Time
}

// NewFeedStore returns an empty feed store.
func NewFeedStore(repo domain.FeedRepository, changes domain.FeedChangeSource, images domain.ImageStorage, logger *slog.Logger, opts ...Option) *FeedStore {
	o := buildOptions(opts)
	return &FeedStore{
		state:    FeedState{Posts: []domain.FeedPost{}},
		subs:     make(map[string]*feedSubscription),
		watchers: make(map[int]feedWatcher),
		repo:     repo,
		changes:  changes,
		images:   images,
		logger:   logger,
		now:      o.now,
	}
}

// State returns a copy of the current feed state.
func (s *FeedStore) State() FeedState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Posts = make([]domain.FeedPost, len(s.state.Posts))
	copy(st.Posts, s.state.Posts)
	return st
}

// Posts returns a copy of the current posts, newest first.
func (s *FeedStore) Posts() []domain.FeedPost {
	return s.State().Posts
}

// SetError overwrites the recorded error; "" clears it.
func (s *FeedStore) SetError(msg string) {
	s.mu.Lock()
	s.state.Error = msg
	s.mu.Unlock()
}

// ClearFeed drops all posts and the recorded error.
func (s *FeedStore) ClearFeed() {
	s.mu.Lock()
	s.state.Posts = []domain.FeedPost{}
	s.state.Error = ""
	s.mu.Unlock()
}

// FetchPosts replaces the posts with the server's list for eventID. On
// failure the stale posts stay in place and the error is recorded.
func (s *FeedStore) FetchPosts(ctx context.Context, eventID string) error {
	_, err := s.RefreshPosts(ctx, eventID)
	return err
}

// RefreshPosts is FetchPosts returning a copy of the list it committed, so
// callers serving one event are not affected by a concurrent fetch of another.
func (s *FeedStore) RefreshPosts(ctx context.Context, eventID string) ([]domain.FeedPost, error) {
	s.mu.Lock()
	s.state.IsLoading = true
	s.state.Error = ""
	s.mu.Unlock()

	posts, err := s.repo.ListByEventID(ctx, eventID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsLoading = false
	if err != nil {
		s.logger.ErrorContext(ctx, "fetch feed posts", "event_id", eventID, "err", err)
		s.state.Error = feedErrLoad
		return nil, fmt.Errorf("list posts: %w", err)
	}
	if posts == nil {
		posts = []domain.FeedPost{}
	}
	s.state.EventID = eventID
	s.state.Posts = posts
	out := make([]domain.FeedPost, len(posts))
	copy(out, posts)
	return out, nil
}

// CreatePost makes sure the author has a profile, creates the post and
// prepends the server's copy. Nothing is inserted before the server confirms.
func (s *FeedStore) CreatePost(ctx context.Context, user *domain.User, input domain.CreateFeedPostInput) (*domain.FeedPost, error) {
	if user == nil || user.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	if errs := input.Validate(); len(errs) > 0 {
		s.SetError(feedErrCreate)
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(errs, "; "))
	}

	s.mu.Lock()
	s.state.IsCreating = true
	s.state.Error = ""
	s.mu.Unlock()

	post, err := s.createPost(ctx, user, input)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsCreating = false
	if err != nil {
		s.logger.ErrorContext(ctx, "create feed post", "event_id", input.EventID, "user_id", user.ID, "err", err)
		s.state.Error = feedErrCreate
		return nil, err
	}
	s.state.Posts = ApplyFeedChange(s.state.Posts, domain.FeedChange{EventType: domain.FeedChangeInsert, New: post})
	return post, nil
}

func (s *FeedStore) createPost(ctx context.Context, user *domain.User, input domain.CreateFeedPostInput) (*domain.FeedPost, error) {
	if err := s.repo.EnsureProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	if input.ImageURLs == nil {
		input.ImageURLs = []string{}
	}
	post, err := s.repo.Create(ctx, user.ID, input)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// DeletePost deletes one of userID's posts and removes it locally once the
// server has confirmed.
func (s *FeedStore) DeletePost(ctx context.Context, postID, userID string) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}
	if err := s.repo.Delete(ctx, postID, userID); err != nil {
		s.logger.ErrorContext(ctx, "delete feed post", "post_id", postID, "user_id", userID, "err", err)
		s.SetError(feedErrDelete)
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete post: %w", err)
	}
	s.mu.Lock()
	s.state.Posts = removePost(s.state.Posts, postID)
	s.mu.Unlock()
	return nil
}

// UploadImage reads a local file (plain path or file:// URI) and uploads it
// under feed-images/, returning its public URL. Uploads are not tied to post
// creation; an image whose post is never created stays in storage.
func (s *FeedStore) UploadImage(ctx context.Context, uri, fileName string) (string, error) {
	data, err := os.ReadFile(localPath(uri))
	if err != nil {
		s.SetError(feedErrUpload)
		return "", fmt.Errorf("read image %s: %w", uri, err)
	}
	return s.upload(ctx, imageExtension(uri, fileName), data)
}

// UploadImageBase64 decodes a base64 payload and uploads it like UploadImage.
func (s *FeedStore) UploadImageBase64(ctx context.Context, payload, fileName string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		s.SetError(feedErrUpload)
		return "", fmt.Errorf("%w: image is not valid base64", domain.ErrInvalidInput)
	}
	return s.upload(ctx, imageExtension("", fileName), data)
}

func (s *FeedStore) upload(ctx context.Context, ext string, data []byte) (string, error) {
	objectPath := fmt.Sprintf("%s/%d_%s.%s", ImagePathPrefix, s.now().UnixMilli(), randomSuffix(), ext)
	publicURL, err := s.images.Upload(ctx, objectPath, imageContentType(ext), data)
	if err != nil {
		s.logger.ErrorContext(ctx, "upload image", "path", objectPath, "err", err)
		s.SetError(feedErrUpload)
		return "", fmt.Errorf("upload image: %w", err)
	}
	return publicURL, nil
}

func localPath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		if u, err := url.Parse(uri); err == nil {
			return u.Path
		}
	}
	return uri
}

// imageExtension takes the extension from uri, then fileName, defaulting to jpg.
func imageExtension(uri, fileName string) string {
	for _, name := range []string{uri, fileName} {
		if ext := strings.TrimPrefix(path.Ext(name), "."); ext != "" {
			return strings.ToLower(ext)
		}
	}
	return "jpg"
}

func imageContentType(ext string) string {
	switch ext {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// SubscribeToUpdates opens the realtime channel of eventID (one per event,
// shared by all subscribers) and applies its changes to the posts in delivery
// order. The returned function must be called to unsubscribe; the channel is
// closed when the last subscriber leaves.
func (s *FeedStore) SubscribeToUpdates(ctx context.Context, eventID string) (func(), error) {
	s.mu.Lock()
	sub, ok := s.subs[eventID]
	if ok {
		sub.refs++
		s.mu.Unlock()
		return s.unsubscriber(eventID), nil
	}
	s.mu.Unlock()

	listenCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	ch, err := s.changes.Listen(listenCtx, eventID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("listen feed %s: %w", eventID, err)
	}

	s.mu.Lock()
	if existing, ok := s.subs[eventID]; ok {
		// Lost a race with another subscriber; share its channel.
		existing.refs++
		s.mu.Unlock()
		cancel()
		return s.unsubscriber(eventID), nil
	}
	sub = &feedSubscription{refs: 1, cancel: cancel, done: make(chan struct{})}
	s.subs[eventID] = sub
	s.mu.Unlock()

	go func() {
		defer close(sub.done)
		for change := range ch {
			s.apply(eventID, change)
		}
	}()
	s.logger.InfoContext(ctx, "feed subscription opened", "event_id", eventID)
	return s.unsubscriber(eventID), nil
}

func (s *FeedStore) unsubscriber(eventID string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			sub, ok := s.subs[eventID]
			if !ok {
				s.mu.Unlock()
				return
			}
			sub.refs--
			if sub.refs > 0 {
				s.mu.Unlock()
				return
			}
			delete(s.subs, eventID)
			s.mu.Unlock()
			sub.cancel()
			<-sub.done
			s.logger.Info("feed subscription closed", "event_id", eventID)
		})
	}
}

func (s *FeedStore) apply(eventID string, change domain.FeedChange) {
	if id := changeEventID(change); id != "" && id != eventID {
		s.logger.Warn("feed change for another event dropped", "event_id", eventID, "post_event_id", id)
		return
	}
	s.mu.Lock()
	if s.state.EventID == "" || s.state.EventID == eventID {
		s.state.EventID = eventID
		s.state.Posts = ApplyFeedChange(s.state.Posts, change)
	}
	for _, w := range s.watchers {
		if w.eventID != eventID {
			continue
		}
		select {
		case w.ch <- change:
		default:
			s.logger.Warn("feed watcher is slow, change dropped", "event_id", eventID)
		}
	}
	s.mu.Unlock()
}

// changeEventID is the event of the post carried by change, "" when unknown.
func changeEventID(change domain.FeedChange) string {
	if change.New != nil && change.New.EventID != "" {
		return change.New.EventID
	}
	if change.Old != nil {
		return change.Old.EventID
	}
	return ""
}

// Watch returns the changes applied for eventID from now on. The stop
// function closes the channel. Watch does not open a subscription by itself.
func (s *FeedStore) Watch(eventID string) (<-chan domain.FeedChange, func()) {
	s.mu.Lock()
	id := s.nextWatch
	s.nextWatch++
	ch := make(chan domain.FeedChange, watcherBuffer)
	s.watchers[id] = feedWatcher{eventID: eventID, ch: ch}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, id)
			close(ch)
			s.mu.Unlock()
		})
	}
}
