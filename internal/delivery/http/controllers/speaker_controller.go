package controllers

import (
	"log/slog"
	"net/http"

	"conferencecompanion/internal/delivery/http/helpers"
	"conferencecompanion/internal/domain"
	"conferencecompanion/internal/services"
)

// SpeakerResponse is a speaker with the avatar URL resolved.
type SpeakerResponse struct {
	domain.Speaker
	Avatar string `json:"avatarUrl,omitempty"`
}

func newSpeakerResponse(sp domain.Speaker) SpeakerResponse {
	return SpeakerResponse{Speaker: sp, Avatar: sp.AvatarURL()}
}

type SpeakerController struct {
	Logger  *slog.Logger
	Catalog domain.EventSource
	Store   *services.EventStore
}

func NewSpeakerController(logger *slog.Logger, catalog domain.EventSource, store *services.EventStore) *SpeakerController {
	return &SpeakerController{
		Logger:  logger,
		Catalog: catalog,
		Store:   store,
	}
}

// ListSpeakers godoc
// @Summary Speakers of the active event
// @Tags speakers
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains speakers"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /speakers [get]
func (c *SpeakerController) ListSpeakers(w http.ResponseWriter, r *http.Request) {
	events, ok := loadEvents(r.Context(), w, r, c.Catalog, c.Logger)
	if !ok {
		return
	}
	speakers := c.Store.AllSpeakers(events)
	out := make([]SpeakerResponse, 0, len(speakers))
	for _, sp := range speakers {
		out = append(out, newSpeakerResponse(sp))
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, out)
}

// GetSpeaker godoc
// @Summary Get a speaker of the active event
// @Tags speakers
// @Produce json
// @Param speakerID path string true "Speaker ID"
// @Success 200 {object} helpers.APIResponse "data contains the speaker"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /speakers/{speakerID} [get]
func (c *SpeakerController) GetSpeaker(w http.ResponseWriter, r *http.Request) {
	speakerID := r.PathValue("speakerID")
	if speakerID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing speakerID")
		return
	}
	events, ok := loadEvents(r.Context(), w, r, c.Catalog, c.Logger)
	if !ok {
		return
	}
	sp := c.Store.SpeakerByID(events, speakerID)
	if sp == nil {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "speaker not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, newSpeakerResponse(*sp))
}

// GetSpeakerSessions godoc
// @Summary Sessions of a speaker in the active event, by start time
// @Tags speakers
// @Produce json
// @Param speakerID path string true "Speaker ID"
// @Success 200 {object} helpers.APIResponse "data contains sessions"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /speakers/{speakerID}/sessions [get]
func (c *SpeakerController) GetSpeakerSessions(w http.ResponseWriter, r *http.Request) {
	speakerID := r.PathValue("speakerID")
	if speakerID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing speakerID")
		return
	}
	events, ok := loadEvents(r.Context(), w, r, c.Catalog, c.Logger)
	if !ok {
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, c.Store.SessionsBySpeakerID(events, speakerID))
}
