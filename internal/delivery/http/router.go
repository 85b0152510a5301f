package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"conferencecompanion/internal/delivery/http/controllers"
	"conferencecompanion/internal/delivery/http/middleware"
	"conferencecompanion/internal/domain"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	State    *controllers.StateController
	Schedule *controllers.ScheduleController
	Speakers *controllers.SpeakerController
	Settings *controllers.SettingsController
	Auth     *controllers.AuthController
	Feed     *controllers.FeedController
}

// NewRouter initializes the HTTP router with all application routes.
// Feed writes require a Bearer token checked by verifier.
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(verifier, logger)

	// Catalog and companion state
	mux.HandleFunc("GET /events", c.State.ListEvents)
	mux.HandleFunc("GET /state", c.State.GetState)
	mux.HandleFunc("POST /state/initialize", c.State.Initialize)
	mux.HandleFunc("PUT /state/active-event", c.State.SetActiveEvent)
	mux.HandleFunc("PUT /state/active-day", c.State.SetActiveDay)

	// Schedule and bookmarks
	mux.HandleFunc("GET /schedule/day", c.Schedule.GetDaySchedule)
	mux.HandleFunc("GET /schedule/bookmarks", c.Schedule.GetBookmarkedSessions)
	mux.HandleFunc("POST /sessions/{sessionID}/bookmark", c.Schedule.ToggleBookmark)
	mux.HandleFunc("GET /sessions/{sessionID}", c.Schedule.GetSession)

	// Speakers
	mux.HandleFunc("GET /speakers", c.Speakers.ListSpeakers)
	mux.HandleFunc("GET /speakers/{speakerID}", c.Speakers.GetSpeaker)
	mux.HandleFunc("GET /speakers/{speakerID}/sessions", c.Speakers.GetSpeakerSessions)

	// Settings
	mux.HandleFunc("GET /settings", c.Settings.GetSettings)
	mux.HandleFunc("PATCH /settings", c.Settings.UpdateSettings)

	// Auth
	mux.HandleFunc("POST /auth/session", c.Auth.SignIn)
	mux.HandleFunc("DELETE /auth/session", c.Auth.SignOut)
	mux.HandleFunc("GET /auth/session", c.Auth.GetSession)

	// Feed
	mux.HandleFunc("GET /events/{eventID}/feed", c.Feed.ListPosts)
	mux.HandleFunc("POST /events/{eventID}/feed", requireAuth(c.Feed.CreatePost))
	mux.HandleFunc("GET /events/{eventID}/feed/live", c.Feed.Live)
	mux.HandleFunc("DELETE /feed/{postID}", requireAuth(c.Feed.DeletePost))
	mux.HandleFunc("POST /feed/images", requireAuth(c.Feed.UploadImage))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
