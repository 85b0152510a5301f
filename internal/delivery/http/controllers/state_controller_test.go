package controllers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conferencecompanion/internal/domain"
)

func TestStateController_ListEvents(t *testing.T) {
	store, _ := newEventStore(t)

	ctrl := NewStateController(testLogger, &fakeCatalog{events: testEvents()}, store)
	rr, envelope := serve(t, ctrl.ListEvents, httptest.NewRequest(http.MethodGet, "/events", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var events []domain.ConferenceEvent
	decodeData(t, envelope, &events)
	require.Len(t, events, 2)
	assert.Equal(t, "e1", events[1].ID)

	ctrl = NewStateController(testLogger, &fakeCatalog{err: errors.New("offline")}, store)
	rr, envelope = serve(t, ctrl.ListEvents, httptest.NewRequest(http.MethodGet, "/events", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "unavailable", envelope.Error.Code)
	assert.Equal(t, "failed to load events", envelope.Error.Message)
}

func TestStateController_Initialize(t *testing.T) {
	store, _ := newEventStore(t)
	ctrl := NewStateController(testLogger, &fakeCatalog{events: testEvents()}, store)

	for i := 0; i < 2; i++ {
		rr, envelope := serve(t, ctrl.Initialize, httptest.NewRequest(http.MethodPost, "/state/initialize", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		var state StateResponse
		decodeData(t, envelope, &state)
		assert.True(t, state.IsInitialized)
		assert.Equal(t, "e1", state.ActiveEventID, "first event that has not ended")
		assert.Equal(t, map[string]string{"e1": "d1"}, state.ActiveDayID)
		require.NotNil(t, state.ActiveDay)
		assert.Equal(t, "Day 1", state.ActiveDay.Label)
	}
}

func TestStateController_SetActiveEvent(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		wantStatus     int
		wantBodySubstr string
		wantEventID    string
	}{
		{name: "success", body: `{"event_id":"past"}`, wantStatus: http.StatusOK, wantEventID: "past"},
		{name: "unknown event", body: `{"event_id":"nope"}`, wantStatus: http.StatusNotFound, wantBodySubstr: "event not found"},
		{name: "missing event_id", body: `{}`, wantStatus: http.StatusBadRequest, wantBodySubstr: "event_id is required"},
		{name: "unknown field rejected", body: `{"event_id":"e1","x":1}`, wantStatus: http.StatusBadRequest, wantBodySubstr: "unknown field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newEventStore(t)
			ctrl := NewStateController(testLogger, &fakeCatalog{events: testEvents()}, store)
			req := httptest.NewRequest(http.MethodPut, "/state/active-event", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			rr, envelope := serve(t, ctrl.SetActiveEvent, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			if tt.wantStatus == http.StatusOK {
				var state StateResponse
				decodeData(t, envelope, &state)
				assert.Equal(t, tt.wantEventID, state.ActiveEventID)
				assert.Equal(t, "p1", state.ActiveDayID[tt.wantEventID], "first day seeded")
				return
			}
			require.NotNil(t, envelope.Error, "error response must have error set")
			assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			assert.Empty(t, store.Snapshot().ActiveEventID)
		})
	}
}

func TestStateController_SetActiveDay(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		wantStatus     int
		wantBodySubstr string
		wantDay        string
	}{
		{name: "success", body: `{"event_id":"e1","day_id":"d2"}`, wantStatus: http.StatusOK, wantDay: "d2"},
		{name: "unknown event", body: `{"event_id":"nope","day_id":"d2"}`, wantStatus: http.StatusNotFound, wantBodySubstr: "event not found", wantDay: "d1"},
		{name: "day of another event", body: `{"event_id":"e1","day_id":"p1"}`, wantStatus: http.StatusNotFound, wantBodySubstr: "day not found", wantDay: "d1"},
		{name: "missing fields", body: `{}`, wantStatus: http.StatusBadRequest, wantBodySubstr: "event_id is required; day_id is required", wantDay: "d1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newEventStore(t)
			store.SetActiveEvent("e1", testEvents())
			ctrl := NewStateController(testLogger, &fakeCatalog{events: testEvents()}, store)
			req := httptest.NewRequest(http.MethodPut, "/state/active-day", bytes.NewBufferString(tt.body))

			rr, envelope := serve(t, ctrl.SetActiveDay, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			if tt.wantStatus != http.StatusOK {
				require.NotNil(t, envelope.Error)
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			}
			assert.Equal(t, tt.wantDay, store.Snapshot().ActiveDayID["e1"])
		})
	}
}
