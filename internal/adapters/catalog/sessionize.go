package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"conferencecompanion/internal/domain"
)

const sessionizeBaseURL = "https://sessionize.com/api/v2"

// sessionizeTimeLayout is how Sessionize writes local wall-clock times.
const sessionizeTimeLayout = "2006-01-02T15:04:05"

type sessionizeDateGrid struct {
	Date  string           `json:"date"`
	Rooms []sessionizeRoom `json:"rooms"`
}

type sessionizeRoom struct {
	ID       int                 `json:"id"`
	Name     string              `json:"name"`
	Sessions []sessionizeSession `json:"sessions"`
}

type sessionizeSession struct {
	ID               string               `json:"id"`
	Title            string               `json:"title"`
	Description      *string              `json:"description"`
	StartsAt         string               `json:"startsAt"`
	EndsAt           string               `json:"endsAt"`
	IsServiceSession bool                 `json:"isServiceSession"`
	IsPlenumSession  bool                 `json:"isPlenumSession"`
	Speakers         []sessionizeRef      `json:"speakers"`
	Categories       []sessionizeCategory `json:"categories"`
	RoomID           int                  `json:"roomId"`
}

type sessionizeRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type sessionizeCategory struct {
	Name          string          `json:"name"`
	CategoryItems []sessionizeRef `json:"categoryItems"`
}

type sessionizeSpeaker struct {
	ID             string           `json:"id"`
	FullName       string           `json:"fullName"`
	Bio            string           `json:"bio"`
	TagLine        string           `json:"tagLine"`
	ProfilePicture string           `json:"profilePicture"`
	Links          []sessionizeLink `json:"links"`
}

type sessionizeLink struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	LinkType string `json:"linkType"`
}

// SessionizeConfig describes the single event published by a Sessionize endpoint.
type SessionizeConfig struct {
	// ID is the Sessionize endpoint id.
	ID string
	// EventID is the catalog id of the event; defaults to ID.
	EventID  string
	Name     string
	Location string
	// TimeZone is the zone session times are written in; defaults to UTC.
	TimeZone *time.Location
	// BaseURL overrides the Sessionize API root.
	BaseURL string
}

type sessionizeSource struct {
	config SessionizeConfig
	http   *httpSource
}

// NewSessionizeSource returns an EventSource that builds one event from the
// Sessionize GridSmart and Speakers views.
func NewSessionizeSource(client *http.Client, config SessionizeConfig) domain.EventSource {
	if client == nil {
		client = http.DefaultClient
	}
	if config.EventID == "" {
		config.EventID = config.ID
	}
	if config.TimeZone == nil {
		config.TimeZone = time.UTC
	}
	if config.BaseURL == "" {
		config.BaseURL = sessionizeBaseURL
	}
	return &sessionizeSource{
		config: config,
		http:   &httpSource{client: client, baseURL: strings.TrimSuffix(config.BaseURL, "/")},
	}
}

func (s *sessionizeSource) ListEvents(ctx context.Context) ([]domain.ConferenceEvent, error) {
	ev, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return []domain.ConferenceEvent{*ev}, nil
}

func (s *sessionizeSource) GetEvent(ctx context.Context, eventID string) (*domain.ConferenceEvent, error) {
	if eventID != s.config.EventID {
		return nil, domain.ErrNotFound
	}
	return s.fetch(ctx)
}

func (s *sessionizeSource) fetch(ctx context.Context) (*domain.ConferenceEvent, error) {
	view := s.http.baseURL + "/" + url.PathEscape(s.config.ID) + "/view/"
	var grid []sessionizeDateGrid
	if err := s.http.getJSON(ctx, view+"GridSmart", &grid); err != nil {
		return nil, fmt.Errorf("failed to fetch from sessionize: %w", err)
	}
	var speakers []sessionizeSpeaker
	if err := s.http.getJSON(ctx, view+"Speakers", &speakers); err != nil {
		return nil, fmt.Errorf("failed to fetch from sessionize: %w", err)
	}
	return s.toEvent(grid, speakers)
}

func (s *sessionizeSource) toEvent(grid []sessionizeDateGrid, speakers []sessionizeSpeaker) (*domain.ConferenceEvent, error) {
	ev := &domain.ConferenceEvent{
		ID:       s.config.EventID,
		Name:     s.config.Name,
		Location: s.config.Location,
		Days:     make([]domain.EventDay, 0, len(grid)),
		Speakers: make([]domain.Speaker, 0, len(speakers)),
	}
	if ev.Name == "" {
		ev.Name = s.config.ID
	}

	sort.SliceStable(grid, func(i, j int) bool { return grid[i].Date < grid[j].Date })
	for i, g := range grid {
		date := g.Date
		if len(date) > len(domain.DateLayout) {
			date = date[:len(domain.DateLayout)]
		}
		day := domain.EventDay{
			ID:    fmt.Sprintf("%s-day-%d", ev.ID, i+1),
			Date:  date,
			Label: fmt.Sprintf("Day %d", i+1),
		}
		seen := make(map[string]bool)
		for _, room := range g.Rooms {
			for _, ss := range room.Sessions {
				// Plenum sessions are repeated in every room.
				if seen[ss.ID] {
					continue
				}
				seen[ss.ID] = true
				session, err := s.toSession(ss, room.Name)
				if err != nil {
					return nil, err
				}
				day.Sessions = append(day.Sessions, session)
			}
		}
		sort.SliceStable(day.Sessions, func(a, b int) bool {
			return day.Sessions[a].StartTime.Before(day.Sessions[b].StartTime)
		})
		ev.Days = append(ev.Days, day)
	}
	if n := len(ev.Days); n > 0 {
		ev.StartDate = ev.Days[0].Date
		ev.EndDate = ev.Days[n-1].Date
	}

	for _, sp := range speakers {
		ev.Speakers = append(ev.Speakers, toSpeaker(sp))
	}
	return ev, nil
}

func (s *sessionizeSource) toSession(ss sessionizeSession, room string) (domain.Session, error) {
	start, err := time.ParseInLocation(sessionizeTimeLayout, ss.StartsAt, s.config.TimeZone)
	if err != nil {
		return domain.Session{}, fmt.Errorf("session %s: invalid startsAt: %w", ss.ID, err)
	}
	end, err := time.ParseInLocation(sessionizeTimeLayout, ss.EndsAt, s.config.TimeZone)
	if err != nil {
		return domain.Session{}, fmt.Errorf("session %s: invalid endsAt: %w", ss.ID, err)
	}
	session := domain.Session{
		ID:        ss.ID,
		Title:     ss.Title,
		StartTime: start,
		EndTime:   end,
		Type:      domain.SessionTypeTalk,
		Room:      room,
		Speakers:  make([]string, 0, len(ss.Speakers)),
	}
	if ss.Description != nil {
		session.Description = *ss.Description
	}
	switch {
	case ss.IsServiceSession:
		session.Type = domain.SessionTypeBreak
	case ss.IsPlenumSession:
		session.Type = domain.SessionTypeKeynote
	}
	for _, ref := range ss.Speakers {
		session.Speakers = append(session.Speakers, ref.ID)
	}
	for _, cat := range ss.Categories {
		for _, item := range cat.CategoryItems {
			if strings.EqualFold(cat.Name, "track") && session.Track == "" {
				session.Track = item.Name
				continue
			}
			session.Tags = append(session.Tags, item.Name)
		}
	}
	return session, nil
}

func toSpeaker(sp sessionizeSpeaker) domain.Speaker {
	out := domain.Speaker{
		ID:       sp.ID,
		Name:     sp.FullName,
		Title:    sp.TagLine,
		Bio:      sp.Bio,
		PhotoURL: sp.ProfilePicture,
	}
	var links domain.SpeakerLinks
	for _, l := range sp.Links {
		switch {
		case strings.EqualFold(l.LinkType, "twitter"):
			links.Twitter = l.URL
		case strings.EqualFold(l.LinkType, "linkedin"):
			links.LinkedIn = l.URL
		case strings.Contains(strings.ToLower(l.URL), "github.com"):
			links.GitHub = l.URL
		case links.Website == "":
			links.Website = l.URL
		}
	}
	if links != (domain.SpeakerLinks{}) {
		out.Links = &links
	}
	return out
}
