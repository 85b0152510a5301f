package services

import (
	"time"

	"conferencecompanion/internal/domain"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2025, 11, day, hour, minute, 0, 0, time.UTC)
}

func session(id string, start time.Time, speakers ...string) domain.Session {
	return domain.Session{
		ID:        id,
		Title:     "Talk " + id,
		StartTime: start,
		EndTime:   start.Add(45 * time.Minute),
		Type:      domain.SessionTypeTalk,
		Speakers:  speakers,
	}
}

// testCatalog returns a past event, a running event (e1) and an upcoming one (e2), in that order.
func testCatalog() []domain.ConferenceEvent {
	return []domain.ConferenceEvent{
		{
			ID:        "past",
			Name:      "Last Year",
			StartDate: "2024-11-01",
			EndDate:   "2024-11-02",
			Days:      []domain.EventDay{{ID: "p1", Date: "2024-11-01"}},
		},
		{
			ID:        "e1",
			Name:      "DevFest",
			StartDate: "2025-11-01",
			EndDate:   "2025-11-02",
			Days: []domain.EventDay{
				{ID: "d1", Date: "2025-11-01", Label: "Day 1", Sessions: []domain.Session{
					session("s2", at(1, 11, 0), "sp2"),
					session("s1", at(1, 10, 0), "sp1"),
				}},
				{ID: "d2", Date: "2025-11-02", Label: "Day 2", Sessions: []domain.Session{
					session("s3", at(2, 9, 0), "sp1", "sp2"),
				}},
			},
			Speakers: []domain.Speaker{
				{ID: "sp1", Name: "Ana"},
				{ID: "sp2", Name: "Luis"},
			},
		},
		{
			ID:        "e2",
			Name:      "GopherCon",
			StartDate: "2025-12-04",
			EndDate:   "2025-12-05",
			Days: []domain.EventDay{
				{ID: "g1", Date: "2025-12-04", Sessions: []domain.Session{session("gs1", time.Date(2025, 12, 4, 10, 0, 0, 0, time.UTC), "sp9")}},
			},
			Speakers: []domain.Speaker{{ID: "sp9", Name: "Rob"}},
		},
	}
}
