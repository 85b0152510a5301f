package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	h "conferencecompanion/internal/delivery/http/helpers"
	"conferencecompanion/internal/delivery/http/middleware"
	"conferencecompanion/internal/domain"
	"conferencecompanion/internal/services"
)

const (
	maxImageBody = 10 << 20

	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = livePongWait * 9 / 10
)

// CreatePostRequest is the request body for POST /events/{eventID}/feed.
type CreatePostRequest struct {
	Content   string   `json:"content"`
	ImageURLs []string `json:"image_urls"`
}

// Validate implements Validator.
func (req CreatePostRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(req.Content) == "" {
		errs = append(errs, "content is required")
	} else if utf8.RuneCountInString(req.Content) > domain.MaxFeedContentLength {
		errs = append(errs, "content must be at most 500 characters")
	}
	if len(req.ImageURLs) > domain.MaxFeedImages {
		errs = append(errs, "at most 4 images are allowed")
	}
	return errs
}

// UploadImageRequest is the request body for POST /feed/images.
type UploadImageRequest struct {
	Data     string `json:"data"`
	FileName string `json:"file_name"`
}

// Validate implements Validator.
func (req UploadImageRequest) Validate() []string {
	if req.Data == "" {
		return []string{"data is required"}
	}
	return nil
}

// UploadImageResponse is the response body for POST /feed/images.
type UploadImageResponse struct {
	URL string `json:"url"`
}

// FeedListResponse is the response body for GET /events/{eventID}/feed.
type FeedListResponse struct {
	Posts      []domain.FeedPost `json:"posts"`
	Pagination h.PaginationMeta  `json:"pagination"`
}

type FeedController struct {
	Logger   *slog.Logger
	Feed     *services.FeedStore
	upgrader websocket.Upgrader
}

// NewFeedController returns a FeedController. allowedOrigins restricts which
// browser origins may open the live websocket; same-origin requests are always allowed.
func NewFeedController(logger *slog.Logger, feed *services.FeedStore, allowedOrigins []string) *FeedController {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o = strings.TrimSuffix(strings.TrimSpace(o), "/"); o != "" {
			allowed[o] = struct{}{}
		}
	}
	return &FeedController{
		Logger: logger,
		Feed:   feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if _, ok := allowed[origin]; ok {
					return true
				}
				u, err := url.Parse(origin)
				return err == nil && strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

// ListPosts godoc
// @Summary List feed posts of an event
// @Description Fetches the event's posts from the backend, newest first, and returns one page.
// @Tags feed
// @Produce json
// @Param eventID path string true "Event ID"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains posts and pagination"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /events/{eventID}/feed [get]
func (c *FeedController) ListPosts(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing eventID")
		return
	}
	posts, err := c.Feed.RefreshPosts(r.Context(), eventID)
	if err != nil {
		h.WriteJSONError(w, http.StatusServiceUnavailable, h.ErrCodeUnavailable, "failed to load feed")
		return
	}
	params := h.ParsePagination(r)
	h.WriteJSONSuccess(w, http.StatusOK, FeedListResponse{
		Posts:      h.Page(posts, params),
		Pagination: h.NewPaginationMeta(params.Page, params.PageSize, len(posts)),
	})
}

// CreatePost godoc
// @Summary Create a feed post
// @Tags feed
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body CreatePostRequest true "Post content"
// @Success 201 {object} helpers.APIResponse "data contains the created post"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/feed [post]
func (c *FeedController) CreatePost(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req CreatePostRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	post, err := c.Feed.CreatePost(r.Context(), user, domain.CreateFeedPostInput{
		EventID:   eventID,
		Content:   strings.TrimSpace(req.Content),
		ImageURLs: req.ImageURLs,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "failed to create post")
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, post)
}

// DeletePost godoc
// @Summary Delete one of your feed posts
// @Tags feed
// @Produce json
// @Security BearerAuth
// @Param postID path string true "Post ID"
// @Success 204 "No Content"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /feed/{postID} [delete]
func (c *FeedController) DeletePost(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("postID")
	if postID == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing postID")
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Feed.DeletePost(r.Context(), postID, user.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "post not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "failed to delete post")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage godoc
// @Summary Upload a feed image
// @Description Accepts a base64 encoded image and returns its public URL for use in image_urls.
// @Tags feed
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UploadImageRequest true "Image"
// @Success 201 {object} helpers.APIResponse "data contains the url"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /feed/images [post]
func (c *FeedController) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBody)
	var req UploadImageRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	if _, ok := middleware.UserFromContext(r.Context()); !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	publicURL, err := c.Feed.UploadImageBase64(r.Context(), req.Data, req.FileName)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "failed to upload image")
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, UploadImageResponse{URL: publicURL})
}

// Live godoc
// @Summary Live feed changes
// @Description Upgrades to a websocket that streams {eventType, new, old} change messages for the event.
// @Tags feed
// @Param eventID path string true "Event ID"
// @Success 101 "Switching Protocols"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /events/{eventID}/feed/live [get]
func (c *FeedController) Live(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing eventID")
		return
	}
	changes, stop := c.Feed.Watch(eventID)
	defer stop()
	unsubscribe, err := c.Feed.SubscribeToUpdates(r.Context(), eventID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusServiceUnavailable, h.ErrCodeUnavailable, "live feed unavailable")
		return
	}
	defer unsubscribe()

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		c.Logger.WarnContext(r.Context(), "websocket upgrade", "event_id", eventID, "err", err)
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteJSON(change); err != nil {
				c.Logger.DebugContext(r.Context(), "live feed write", "event_id", eventID, "err", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait)); err != nil {
				return
			}
		}
	}
}
