package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conferencecompanion/internal/delivery/http/middleware"
	"conferencecompanion/internal/domain"
	"conferencecompanion/internal/services"
)

var testUser = &domain.User{ID: "user-123", Email: "ana@example.com"}

func newFeedController(repo *fakeFeedRepo, changes *fakeChangeSource, images *fakeImages) *FeedController {
	store := services.NewFeedStore(repo, changes, images, testLogger, services.WithClock(clock))
	return NewFeedController(testLogger, store, []string{"https://app.example.com"})
}

func TestFeedController_ListPosts(t *testing.T) {
	repo := &fakeFeedRepo{}
	for i := 0; i < 25; i++ {
		repo.posts = append(repo.posts, domain.FeedPost{ID: fmt.Sprintf("p%02d", i), EventID: "e1", Content: "hi"})
	}
	repo.posts = append(repo.posts, domain.FeedPost{ID: "other", EventID: "e2"})
	ctrl := newFeedController(repo, &fakeChangeSource{}, &fakeImages{})

	req := httptest.NewRequest(http.MethodGet, "/events/e1/feed?page=2&page_size=10", nil)
	req.SetPathValue("eventID", "e1")
	rr, envelope := serve(t, ctrl.ListPosts, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp FeedListResponse
	decodeData(t, envelope, &resp)
	require.Len(t, resp.Posts, 10)
	assert.Equal(t, "p10", resp.Posts[0].ID)
	assert.Equal(t, 25, resp.Pagination.Total)
	assert.Equal(t, 3, resp.Pagination.TotalPages)

	repo.listErr = errors.New("connection refused")
	rr, envelope = serve(t, ctrl.ListPosts, req)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "failed to load feed", envelope.Error.Message)
}

func TestFeedController_CreatePost(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		noUserContext  bool
		repoErr        error
		wantStatus     int
		wantBodySubstr string
	}{
		{name: "success", body: `{"content":"  hello  ","image_urls":["https://cdn.test/a.jpg"]}`, wantStatus: http.StatusCreated},
		{name: "no user in context", body: `{"content":"hello"}`, noUserContext: true, wantStatus: http.StatusUnauthorized, wantBodySubstr: "unauthorized"},
		{name: "blank content", body: `{"content":"   "}`, wantStatus: http.StatusBadRequest, wantBodySubstr: "content is required"},
		{name: "content too long", body: `{"content":"` + strings.Repeat("a", domain.MaxFeedContentLength+1) + `"}`, wantStatus: http.StatusBadRequest, wantBodySubstr: "at most 500 characters"},
		{name: "too many images", body: `{"content":"x","image_urls":["1","2","3","4","5"]}`, wantStatus: http.StatusBadRequest, wantBodySubstr: "at most 4 images"},
		{name: "bad request invalid json", body: `{invalid`, wantStatus: http.StatusBadRequest, wantBodySubstr: "invalid"},
		{name: "repository error", body: `{"content":"x"}`, repoErr: errors.New("db down"), wantStatus: http.StatusInternalServerError, wantBodySubstr: "failed to create post"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeFeedRepo{createErr: tt.repoErr}
			ctrl := newFeedController(repo, &fakeChangeSource{}, &fakeImages{})
			req := httptest.NewRequest(http.MethodPost, "/events/e1/feed", bytes.NewBufferString(tt.body))
			req.SetPathValue("eventID", "e1")
			if !tt.noUserContext {
				req = req.WithContext(middleware.SetUser(req.Context(), testUser))
			}

			rr, envelope := serve(t, ctrl.CreatePost, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			if tt.wantStatus == http.StatusCreated {
				var post domain.FeedPost
				decodeData(t, envelope, &post)
				assert.Equal(t, "post-1", post.ID)
				assert.Equal(t, "hello", post.Content)
				assert.Equal(t, "user-123", post.UserID)
				assert.Equal(t, "post-1", ctrl.Feed.Posts()[0].ID, "server copy is prepended")
				return
			}
			require.NotNil(t, envelope.Error, "error response must have error set")
			assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			assert.Empty(t, ctrl.Feed.Posts())
		})
	}
}

func TestFeedController_DeletePost(t *testing.T) {
	repo := &fakeFeedRepo{posts: []domain.FeedPost{
		{ID: "mine", UserID: "user-123", EventID: "e1"},
		{ID: "theirs", UserID: "user-999", EventID: "e1"},
	}}
	ctrl := newFeedController(repo, &fakeChangeSource{}, &fakeImages{})

	del := func(postID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, "/feed/"+postID, nil)
		req.SetPathValue("postID", postID)
		req = req.WithContext(middleware.SetUser(req.Context(), testUser))
		rr := httptest.NewRecorder()
		ctrl.DeletePost(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusNoContent, del("mine").Code)
	rr := del("theirs")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "post not found")
	require.Len(t, repo.posts, 1)
	assert.Equal(t, "theirs", repo.posts[0].ID)
}

func TestFeedController_UploadImage(t *testing.T) {
	images := &fakeImages{}
	ctrl := newFeedController(&fakeFeedRepo{}, &fakeChangeSource{}, images)

	upload := func(body string) (*httptest.ResponseRecorder, string, string) {
		req := httptest.NewRequest(http.MethodPost, "/feed/images", bytes.NewBufferString(body))
		req = req.WithContext(middleware.SetUser(req.Context(), testUser))
		rr, envelope := serve(t, ctrl.UploadImage, req)
		if envelope.Error != nil {
			return rr, "", envelope.Error.Message
		}
		var resp UploadImageResponse
		decodeData(t, envelope, &resp)
		return rr, resp.URL, ""
	}

	rr, url, _ := upload(`{"data":"aGVsbG8=","file_name":"photo.PNG"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, images.paths, 1)
	assert.True(t, strings.HasPrefix(images.paths[0], "feed-images/1761987600000_"))
	assert.True(t, strings.HasSuffix(images.paths[0], ".png"))
	assert.Equal(t, "https://cdn.test/"+images.paths[0], url)

	rr, _, msg := upload(`{"data":"%%%"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, msg, "base64")

	rr, _, msg = upload(`{}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "data is required", msg)
}

func TestFeedController_Live(t *testing.T) {
	changes := &fakeChangeSource{}
	ctrl := newFeedController(&fakeFeedRepo{}, changes, &fakeImages{})
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events/{eventID}/feed/live", ctrl.Live)
	srv := httptest.NewServer(mux)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events/e1/feed/live"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	post := &domain.FeedPost{ID: "p1", EventID: "e1", Content: "live!"}
	changes.send("e1", domain.FeedChange{EventType: domain.FeedChangeInsert, New: post})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got domain.FeedChange
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, domain.FeedChangeInsert, got.EventType)
	require.NotNil(t, got.New)
	assert.Equal(t, "live!", got.New.Content)
	assert.Equal(t, "p1", ctrl.Feed.Posts()[0].ID, "change applied to the store")
	require.NoError(t, conn.Close())

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header = http.Header{"Origin": []string{"https://app.example.com"}}
	conn, _, err = websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}

func TestFeedController_LiveUnavailable(t *testing.T) {
	ctrl := newFeedController(&fakeFeedRepo{}, &fakeChangeSource{err: errors.New("no listener")}, &fakeImages{})
	req := httptest.NewRequest(http.MethodGet, "/events/e1/feed/live", nil)
	req.SetPathValue("eventID", "e1")

	rr, envelope := serve(t, ctrl.Live, req)

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "live feed unavailable", envelope.Error.Message)
}

// gatedFeedRepo holds each ListByEventID call until its event's gate is released.
type gatedFeedRepo struct {
	*fakeFeedRepo
	entered chan string
	gates   map[string]chan struct{}
}

func (g *gatedFeedRepo) ListByEventID(ctx context.Context, eventID string) ([]domain.FeedPost, error) {
	g.entered <- eventID
	<-g.gates[eventID]
	return g.fakeFeedRepo.ListByEventID(ctx, eventID)
}

func TestFeedController_ListPostsConcurrentEvents(t *testing.T) {
	base := &fakeFeedRepo{posts: []domain.FeedPost{
		{ID: "a1", EventID: "e1"}, {ID: "a2", EventID: "e1"},
		{ID: "b1", EventID: "e2"},
	}}
	repo := &gatedFeedRepo{
		fakeFeedRepo: base,
		entered:      make(chan string, 2),
		gates:        map[string]chan struct{}{"e1": make(chan struct{}), "e2": make(chan struct{})},
	}
	store := services.NewFeedStore(repo, &fakeChangeSource{}, &fakeImages{}, testLogger, services.WithClock(clock))
	ctrl := NewFeedController(testLogger, store, nil)

	results := make(map[string][]string)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, eventID := range []string{"e1", "e2"} {
		wg.Add(1)
		go func(eventID string) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/events/"+eventID+"/feed", nil)
			req.SetPathValue("eventID", eventID)
			rr := httptest.NewRecorder()
			ctrl.ListPosts(rr, req)
			var env struct {
				Data FeedListResponse `json:"data"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for _, p := range env.Data.Posts {
				results[eventID] = append(results[eventID], p.EventID)
			}
		}(eventID)
	}
	<-repo.entered
	<-repo.entered

	// Both fetches commit to the shared store; each response keeps its own event.
	close(repo.gates["e1"])
	close(repo.gates["e2"])
	wg.Wait()

	assert.Equal(t, []string{"e1", "e1"}, results["e1"])
	assert.Equal(t, []string{"e2"}, results["e2"])
}
