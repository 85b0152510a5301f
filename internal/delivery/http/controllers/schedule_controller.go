package controllers

import (
	"log/slog"
	"net/http"

	"conferencecompanion/internal/delivery/http/helpers"
	"conferencecompanion/internal/domain"
	"conferencecompanion/internal/services"
)

// DayScheduleResponse is the response body for GET /schedule/day.
type DayScheduleResponse struct {
	Day      *domain.EventDay `json:"day"`
	Sessions []domain.Session `json:"sessions"`
}

// SessionDetailResponse is a session with its speakers resolved and its bookmark flag.
type SessionDetailResponse struct {
	Session      domain.Session   `json:"session"`
	Speakers     []domain.Speaker `json:"speakers"`
	IsBookmarked bool             `json:"is_bookmarked"`
	DeepLink     string           `json:"deep_link"`
}

// ToggleBookmarkSuccessResponse is the success envelope for POST /sessions/{sessionID}/bookmark.
type ToggleBookmarkSuccessResponse struct {
	Data  services.ToggleResult `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

type ScheduleController struct {
	Logger  *slog.Logger
	Catalog domain.EventSource
	Store   *services.EventStore
}

func NewScheduleController(logger *slog.Logger, catalog domain.EventSource, store *services.EventStore) *ScheduleController {
	return &ScheduleController{
		Logger:  logger,
		Catalog: catalog,
		Store:   store,
	}
}

// GetDaySchedule godoc
// @Summary Sessions of the active day
// @Tags schedule
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains day and sessions"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /schedule/day [get]
func (c *ScheduleController) GetDaySchedule(w http.ResponseWriter, r *http.Request) {
	events, ok := loadEvents(r.Context(), w, r, c.Catalog, c.Logger)
	if !ok {
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DayScheduleResponse{
		Day:      c.Store.ActiveDay(events),
		Sessions: c.Store.SessionsForActiveDay(events),
	})
}

// GetBookmarkedSessions godoc
// @Summary Bookmarked sessions of the active event, by start time
// @Tags schedule
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains sessions"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /schedule/bookmarks [get]
func (c *ScheduleController) GetBookmarkedSessions(w http.ResponseWriter, r *http.Request) {
	events, ok := loadEvents(r.Context(), w, r, c.Catalog, c.Logger)
	if !ok {
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, c.Store.BookmarkedSessions(events))
}

// ToggleBookmark godoc
// @Summary Bookmark or un-bookmark a session
// @Description Adding schedules a reminder 5 minutes before the session when possible; the reminder field reports the outcome.
// @Tags schedule
// @Produce json
// @Param sessionID path string true "Session ID"
// @Success 200 {object} controllers.ToggleBookmarkSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /sessions/{sessionID}/bookmark [post]
func (c *ScheduleController) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	if sessionID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing sessionID")
		return
	}
	events, ok := loadEvents(r.Context(), w, r, c.Catalog, c.Logger)
	if !ok {
		return
	}
	res, err := c.Store.ToggleBookmark(r.Context(), sessionID, events)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	if res.Action == services.ToggleNoop {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "session not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, res)
}

// GetSession godoc
// @Summary Get a session of the active event
// @Tags schedule
// @Produce json
// @Param sessionID path string true "Session ID"
// @Success 200 {object} helpers.APIResponse "data contains the session detail"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /sessions/{sessionID} [get]
func (c *ScheduleController) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	if sessionID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing sessionID")
		return
	}
	events, ok := loadEvents(r.Context(), w, r, c.Catalog, c.Logger)
	if !ok {
		return
	}
	sess := c.Store.SessionByID(events, sessionID)
	if sess == nil {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "session not found")
		return
	}
	speakers := []domain.Speaker{}
	for _, id := range sess.Speakers {
		// unresolvable speaker ids are skipped
		if sp := c.Store.SpeakerByID(events, id); sp != nil {
			speakers = append(speakers, *sp)
		}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, SessionDetailResponse{
		Session:      *sess,
		Speakers:     speakers,
		IsBookmarked: c.Store.IsBookmarked(sessionID),
		DeepLink:     services.SessionDeepLink(sessionID),
	})
}
