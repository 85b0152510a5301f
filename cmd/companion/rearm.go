package main

import (
	"context"
	"log/slog"
	"time"

	"conferencecompanion/internal/domain"
)

const (
	rearmInitialRetry = 2 * time.Second
	rearmMaxRetry     = 5 * time.Minute
)

// armReminders loads the catalog until it succeeds, then rearms the persisted
// bookmarks once. It reports false when ctx ends first.
func armReminders(
	ctx context.Context,
	load func(context.Context) ([]domain.ConferenceEvent, error),
	rearm func(context.Context, []domain.ConferenceEvent) int,
	retry time.Duration,
	logger *slog.Logger,
) bool {
	for {
		events, err := load(ctx)
		if err == nil {
			rearm(ctx, events)
			return true
		}
		logger.Warn("catalog load failed, reminders not armed yet", "err", err, "retry_in", retry)
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
		retry = min(retry*2, rearmMaxRetry)
	}
}
