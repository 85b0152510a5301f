package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"conferencecompanion/internal/adapters/objectstore"
	deliveryhttp "conferencecompanion/internal/delivery/http"
	"conferencecompanion/internal/delivery/http/controllers"
	"conferencecompanion/internal/delivery/http/middleware"
	"conferencecompanion/internal/repository/postgres"
	"conferencecompanion/internal/services"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API and the reminder scheduler in the foreground.
SIGINT or SIGTERM stops the server gracefully and flushes state to disk.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger

	a.scheduler.Start()
	// Requests load the catalog on their own; reminders wait for the first load.
	go armReminders(ctx, a.loadEvents, a.events.RearmReminders, rearmInitialRetry, logger)

	defer func() {
		<-a.scheduler.Stop().Done()
	}()

	db, err := a.openDB()
	if err != nil {
		return err
	}
	images, err := objectstore.New(objectstore.Config{
		Provider:  a.cfg.StorageProvider,
		PublicURL: a.cfg.StoragePublicURL,
		LocalDir:  a.cfg.StorageLocalDir,
		S3: objectstore.S3Config{
			Region:          a.cfg.AWSRegion,
			AccessKeyID:     a.cfg.AWSAccessKeyID,
			SecretAccessKey: a.cfg.AWSSecretAccessKey,
			Bucket:          a.cfg.StorageBucket,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("create image storage: %w", err)
	}
	feed := services.NewFeedStore(
		postgres.NewFeedRepository(db, logger),
		postgres.NewFeedListener(a.cfg.DBUrl, logger),
		images,
		logger,
	)

	mux := deliveryhttp.NewRouter(deliveryhttp.Controllers{
		State:    controllers.NewStateController(logger, a.catalog, a.events),
		Schedule: controllers.NewScheduleController(logger, a.catalog, a.events),
		Speakers: controllers.NewSpeakerController(logger, a.catalog, a.events),
		Settings: controllers.NewSettingsController(logger, a.settings),
		Auth:     controllers.NewAuthController(logger, a.auth, a.settings),
		Feed:     controllers.NewFeedController(logger, feed, a.cfg.CORSAllowedOrigins),
	}, a.verifier, logger)
	handler := middleware.LoggingMiddleware(logger, middleware.CORS(a.cfg.CORSAllowedOrigins, mux))

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", a.cfg.Environment, "catalog", a.cfg.CatalogSource)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
