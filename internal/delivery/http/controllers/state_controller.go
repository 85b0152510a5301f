package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"conferencecompanion/internal/delivery/http/helpers"
	"conferencecompanion/internal/domain"
	"conferencecompanion/internal/services"
)

// StateResponse is the persisted companion state plus the active event and day it resolves to.
type StateResponse struct {
	ActiveEventID string                  `json:"active_event_id"`
	ActiveDayID   map[string]string       `json:"active_day_id"`
	Bookmarks     []domain.Bookmark       `json:"bookmarks"`
	IsInitialized bool                    `json:"is_initialized"`
	ActiveEvent   *domain.ConferenceEvent `json:"active_event,omitempty"`
	ActiveDay     *domain.EventDay        `json:"active_day,omitempty"`
}

// StateSuccessResponse is the success envelope for the /state endpoints.
type StateSuccessResponse struct {
	Data  StateResponse     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// SetActiveEventRequest is the request body for PUT /state/active-event.
type SetActiveEventRequest struct {
	EventID string `json:"event_id"`
}

// Validate implements Validator.
func (req SetActiveEventRequest) Validate() []string {
	if req.EventID == "" {
		return []string{"event_id is required"}
	}
	return nil
}

// SetActiveDayRequest is the request body for PUT /state/active-day.
type SetActiveDayRequest struct {
	EventID string `json:"event_id"`
	DayID   string `json:"day_id"`
}

// Validate implements Validator.
func (req SetActiveDayRequest) Validate() []string {
	var errs []string
	if req.EventID == "" {
		errs = append(errs, "event_id is required")
	}
	if req.DayID == "" {
		errs = append(errs, "day_id is required")
	}
	return errs
}

type StateController struct {
	Logger  *slog.Logger
	Catalog domain.EventSource
	Store   *services.EventStore
}

func NewStateController(logger *slog.Logger, catalog domain.EventSource, store *services.EventStore) *StateController {
	return &StateController{
		Logger:  logger,
		Catalog: catalog,
		Store:   store,
	}
}

func (c *StateController) stateResponse(events []domain.ConferenceEvent) StateResponse {
	snap := c.Store.Snapshot()
	return StateResponse{
		ActiveEventID: snap.ActiveEventID,
		ActiveDayID:   snap.ActiveDayID,
		Bookmarks:     snap.Bookmarks,
		IsInitialized: snap.IsInitialized,
		ActiveEvent:   c.Store.ActiveEvent(events),
		ActiveDay:     c.Store.ActiveDay(events),
	}
}

// ListEvents godoc
// @Summary List conference events
// @Description Returns the event catalog with days, sessions and speakers.
// @Tags events
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains the events"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /events [get]
func (c *StateController) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, ok := loadEvents(r.Context(), w, r, c.Catalog, c.Logger)
	if !ok {
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// GetState godoc
// @Summary Get companion state
// @Tags state
// @Produce json
// @Success 200 {object} controllers.StateSuccessResponse
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /state [get]
func (c *StateController) GetState(w http.ResponseWriter, r *http.Request) {
	events, ok := loadEvents(r.Context(), w, r, c.Catalog, c.Logger)
	if !ok {
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, c.stateResponse(events))
}

// Initialize godoc
// @Summary Pick the active event
// @Description Selects the active event on first run: a persisted choice is kept, otherwise the first current or upcoming event, otherwise the first event. Repeated calls change nothing.
// @Tags state
// @Produce json
// @Success 200 {object} controllers.StateSuccessResponse
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /state/initialize [post]
func (c *StateController) Initialize(w http.ResponseWriter, r *http.Request) {
	events, ok := loadEvents(r.Context(), w, r, c.Catalog, c.Logger)
	if !ok {
		return
	}
	c.Store.InitializeActiveEvent(events)
	helpers.WriteJSONSuccess(w, http.StatusOK, c.stateResponse(events))
}

// SetActiveEvent godoc
// @Summary Switch the active event
// @Tags state
// @Accept json
// @Produce json
// @Param body body SetActiveEventRequest true "Event to activate"
// @Success 200 {object} controllers.StateSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /state/active-event [put]
func (c *StateController) SetActiveEvent(w http.ResponseWriter, r *http.Request) {
	var req SetActiveEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	events, ok := loadEvents(r.Context(), w, r, c.Catalog, c.Logger)
	if !ok {
		return
	}
	if domain.FindEvent(events, req.EventID) == nil {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		return
	}
	c.Store.SetActiveEvent(req.EventID, events)
	helpers.WriteJSONSuccess(w, http.StatusOK, c.stateResponse(events))
}

// SetActiveDay godoc
// @Summary Switch the day shown for an event
// @Tags state
// @Accept json
// @Produce json
// @Param body body SetActiveDayRequest true "Event and day"
// @Success 200 {object} controllers.StateSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /state/active-day [put]
func (c *StateController) SetActiveDay(w http.ResponseWriter, r *http.Request) {
	var req SetActiveDayRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	events, ok := loadEvents(r.Context(), w, r, c.Catalog, c.Logger)
	if !ok {
		return
	}
	if err := c.Store.SelectDay(req.EventID, req.DayID, events); err != nil {
		switch {
		case errors.Is(err, domain.ErrEventNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		case errors.Is(err, domain.ErrDayNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "day not found")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, c.stateResponse(events))
}
