package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"conferencecompanion/internal/domain"
)

// CatalogRepository serves the conference catalog from Postgres. It backs the
// companion when the organisers publish the agenda to the shared database
// instead of the events API.
type CatalogRepository struct {
	DB *sql.DB
}

func NewCatalogRepository(db *sql.DB) domain.EventSource {
	return &CatalogRepository{DB: db}
}

const eventColumns = `
		SELECT id, name, COALESCE(theme, ''), COALESCE(description, ''), COALESCE(location, ''),
			start_date, end_date, COALESCE(image_url, '')
		FROM events
	`

func (r *CatalogRepository) ListEvents(ctx context.Context) ([]domain.ConferenceEvent, error) {
	rows, err := r.DB.QueryContext(ctx, eventColumns+` ORDER BY start_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := []domain.ConferenceEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attach(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *CatalogRepository) GetEvent(ctx context.Context, eventID string) (*domain.ConferenceEvent, error) {
	e, err := scanEvent(r.DB.QueryRowContext(ctx, eventColumns+` WHERE id = $1`, eventID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	events := []domain.ConferenceEvent{e}
	if err := r.attach(ctx, events); err != nil {
		return nil, err
	}
	return &events[0], nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (domain.ConferenceEvent, error) {
	var e domain.ConferenceEvent
	var start, end time.Time
	if err := row.Scan(&e.ID, &e.Name, &e.Theme, &e.Description, &e.Location, &start, &end, &e.ImageURL); err != nil {
		return e, err
	}
	e.StartDate = start.Format(domain.DateLayout)
	e.EndDate = end.Format(domain.DateLayout)
	e.Days = []domain.EventDay{}
	e.Speakers = []domain.Speaker{}
	return e, nil
}

// attach loads days, sessions and speakers for events in place.
func (r *CatalogRepository) attach(ctx context.Context, events []domain.ConferenceEvent) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]string, len(events))
	byID := make(map[string]*domain.ConferenceEvent, len(events))
	for i := range events {
		ids[i] = events[i].ID
		byID[events[i].ID] = &events[i]
	}

	sessionsByDay, err := r.sessions(ctx, ids)
	if err != nil {
		return err
	}

	dayRows, err := r.DB.QueryContext(ctx, `
		SELECT id, event_id, date, COALESCE(label, '')
		FROM event_days
		WHERE event_id = ANY($1)
		ORDER BY date
	`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer dayRows.Close()
	for dayRows.Next() {
		var d domain.EventDay
		var eventID string
		var date time.Time
		if err := dayRows.Scan(&d.ID, &eventID, &date, &d.Label); err != nil {
			return err
		}
		d.Date = date.Format(domain.DateLayout)
		d.Sessions = sessionsByDay[d.ID]
		if d.Sessions == nil {
			d.Sessions = []domain.Session{}
		}
		if e := byID[eventID]; e != nil {
			e.Days = append(e.Days, d)
		}
	}
	if err := dayRows.Err(); err != nil {
		return err
	}

	speakerRows, err := r.DB.QueryContext(ctx, `
		SELECT id, event_id, name, COALESCE(title, ''), COALESCE(company, ''), COALESCE(bio, ''), COALESCE(photo_url, ''),
			github, linkedin, twitter, website
		FROM speakers
		WHERE event_id = ANY($1)
		ORDER BY name
	`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer speakerRows.Close()
	for speakerRows.Next() {
		var sp domain.Speaker
		var eventID string
		var github, linkedin, twitter, website sql.NullString
		if err := speakerRows.Scan(&sp.ID, &eventID, &sp.Name, &sp.Title, &sp.Company, &sp.Bio, &sp.PhotoURL,
			&github, &linkedin, &twitter, &website); err != nil {
			return err
		}
		if github.Valid || linkedin.Valid || twitter.Valid || website.Valid {
			sp.Links = &domain.SpeakerLinks{GitHub: github.String, LinkedIn: linkedin.String, Twitter: twitter.String, Website: website.String}
		}
		if e := byID[eventID]; e != nil {
			e.Speakers = append(e.Speakers, sp)
		}
	}
	return speakerRows.Err()
}

func (r *CatalogRepository) sessions(ctx context.Context, eventIDs []string) (map[string][]domain.Session, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT s.id, s.day_id, s.title, COALESCE(s.description, ''), s.start_time, s.end_time, s.type,
			COALESCE(s.track, ''), COALESCE(s.room, ''),
			ARRAY(SELECT ss.speaker_id FROM session_speakers ss WHERE ss.session_id = s.id ORDER BY ss.position)
		FROM sessions s
		INNER JOIN event_days d ON d.id = s.day_id
		WHERE d.event_id = ANY($1)
		ORDER BY s.start_time, s.room
	`, pq.Array(eventIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type slot struct {
		dayID string
		i     int
	}
	byDay := make(map[string][]domain.Session)
	slots := make(map[string]slot)
	var sessionIDs []string
	for rows.Next() {
		var s domain.Session
		var dayID string
		if err := rows.Scan(&s.ID, &dayID, &s.Title, &s.Description, &s.StartTime, &s.EndTime, &s.Type,
			&s.Track, &s.Room, pq.Array(&s.Speakers)); err != nil {
			return nil, err
		}
		slots[s.ID] = slot{dayID: dayID, i: len(byDay[dayID])}
		byDay[dayID] = append(byDay[dayID], s)
		sessionIDs = append(sessionIDs, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sessionIDs) == 0 {
		return byDay, nil
	}

	tagRows, err := r.DB.QueryContext(ctx, `SELECT session_id, tag FROM session_tags WHERE session_id = ANY($1)`, pq.Array(sessionIDs))
	if err != nil {
		return nil, err
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var sessionID, tag string
		if err := tagRows.Scan(&sessionID, &tag); err != nil {
			return nil, err
		}
		sl, ok := slots[sessionID]
		if !ok {
			continue
		}
		s := &byDay[sl.dayID][sl.i]
		s.Tags = append(s.Tags, tag)
	}
	return byDay, tagRows.Err()
}
