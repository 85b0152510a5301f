package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"conferencecompanion/internal/domain"
)

func TestArmReminders(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("retries until the catalog loads", func(t *testing.T) {
		loads := 0
		load := func(context.Context) ([]domain.ConferenceEvent, error) {
			loads++
			if loads < 3 {
				return nil, errors.New("catalog unreachable")
			}
			return testEvents(), nil
		}
		var rearmed [][]domain.ConferenceEvent
		rearm := func(_ context.Context, events []domain.ConferenceEvent) int {
			rearmed = append(rearmed, events)
			return 1
		}

		assert.True(t, armReminders(context.Background(), load, rearm, time.Millisecond, logger))
		assert.Equal(t, 3, loads)
		assert.Len(t, rearmed, 1)
		assert.Equal(t, "e1", rearmed[0][0].ID)
	})

	t.Run("gives up when cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		load := func(context.Context) ([]domain.ConferenceEvent, error) {
			cancel()
			return nil, errors.New("catalog unreachable")
		}
		rearm := func(context.Context, []domain.ConferenceEvent) int {
			t.Fatal("rearmed without a catalog")
			return 0
		}

		assert.False(t, armReminders(ctx, load, rearm, time.Hour, logger))
	})
}
