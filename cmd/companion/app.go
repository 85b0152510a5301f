package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"

	"conferencecompanion/config"
	"conferencecompanion/internal/adapters/auth"
	"conferencecompanion/internal/adapters/catalog"
	"conferencecompanion/internal/adapters/email"
	"conferencecompanion/internal/adapters/notify"
	"conferencecompanion/internal/domain"
	"conferencecompanion/internal/repository/postgres"
	"conferencecompanion/internal/repository/sqlite"
	"conferencecompanion/internal/services"
)

// app holds the wired stores shared by every command.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	kv        *sqlite.Store
	db        *sql.DB
	catalog   *catalog.CachedSource
	settings  *services.SettingsStore
	events    *services.EventStore
	auth      *services.AuthStore
	verifier  domain.TokenVerifier
	scheduler *notify.CronScheduler
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := config.NewLogger(os.Stderr, logLevel)
	a := &app{cfg: cfg, logger: logger}

	a.kv, err = sqlite.Open(ctx, cfg.StateDBPath)
	if err != nil {
		return nil, err
	}

	a.settings = services.NewSettingsStore(a.kv, logger)
	if err := a.settings.Load(ctx); err != nil {
		a.close()
		return nil, err
	}

	source, err := a.openCatalog()
	if err != nil {
		a.close()
		return nil, err
	}
	a.catalog = catalog.NewCachedSource(source, catalog.DefaultStaleTime)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.MailProvider,
		FromAddress: cfg.MailFromAddress,
		FromName:    cfg.MailFromName,
		SES: email.SESConfig{
			Region:             cfg.AWSRegion,
			AccessKeyID:        cfg.AWSAccessKeyID,
			SecretAccessKey:    cfg.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.MailInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create mailer: %w", err)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)
	deliverer := notify.NewMailDeliverer(emailService, func() *domain.UserProfile {
		return a.settings.Settings().UserProfile
	}, notify.LogDeliverer{Logger: logger}, cfg.PublicBaseURL)
	a.scheduler = notify.NewCronScheduler(deliverer, logger)

	coordinator := services.NewBookmarkCoordinator(
		a.scheduler,
		notify.SettingsPermission{Enabled: a.settings.NotificationsEnabled},
		notify.LogHaptics{Logger: logger},
		cfg.Platform,
		a.settings.HapticEnabled,
		logger,
	)
	a.events = services.NewEventStore(a.kv, coordinator, logger)
	if err := a.events.Load(ctx); err != nil {
		a.close()
		return nil, err
	}

	a.verifier = auth.NewJWTVerifier(cfg.JWTSecret)
	a.auth = services.NewAuthStore(auth.NewJWTProvider(a.verifier, cfg.AuthProviderEnabled), a.kv, logger)
	if err := a.auth.Initialize(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) openCatalog() (domain.EventSource, error) {
	client := &http.Client{Timeout: 15 * time.Second}
	switch a.cfg.CatalogSource {
	case config.CatalogHTTP:
		return catalog.NewHTTPSource(client, a.cfg.EventsAPIURL), nil
	case config.CatalogFile:
		return catalog.NewFileSource(a.cfg.EventsFile), nil
	case config.CatalogSessionize:
		return catalog.NewSessionizeSource(client, catalog.SessionizeConfig{
			ID:       a.cfg.SessionizeID,
			Name:     a.cfg.SessionizeEventName,
			TimeZone: a.cfg.SessionizeTimeZone,
		}), nil
	default:
		db, err := a.openDB()
		if err != nil {
			return nil, err
		}
		return postgres.NewCatalogRepository(db), nil
	}
}

// openDB opens the Postgres pool once.
func (a *app) openDB() (*sql.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := sql.Open("postgres", a.cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = db
	return db, nil
}

// loadEvents fetches the catalog and runs the first-launch event selection.
func (a *app) loadEvents(ctx context.Context) ([]domain.ConferenceEvent, error) {
	events, err := a.catalog.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	a.events.InitializeActiveEvent(events)
	a.settings.SetLastRefreshed(time.Now().UTC())
	return events, nil
}

// close flushes pending snapshot writes and releases connections.
func (a *app) close() {
	if a.auth != nil {
		a.auth.Close()
	}
	if a.events != nil {
		a.events.Close()
	}
	if a.settings != nil {
		a.settings.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", "err", err)
		}
	}
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			a.logger.Warn("close state db", "err", err)
		}
	}
}
