package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"conferencecompanion/internal/delivery/http/helpers"
	"conferencecompanion/internal/domain"
)

// loadEvents fetches the catalog for a request. On failure it writes a 503 and returns ok=false.
func loadEvents(ctx context.Context, w http.ResponseWriter, r *http.Request, source domain.EventSource, logger *slog.Logger) ([]domain.ConferenceEvent, bool) {
	events, err := source.ListEvents(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusServiceUnavailable, helpers.ErrCodeUnavailable, "failed to load events")
		return nil, false
	}
	return events, true
}
