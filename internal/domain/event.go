package domain

import (
	"context"
	"time"
)

// DateLayout is the wire layout of calendar dates (no time of day).
const DateLayout = "2006-01-02"

// ConferenceEvent represents a conference edition with its days and speakers.
// swagger:model ConferenceEvent
type ConferenceEvent struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Theme       string     `json:"theme,omitempty" yaml:"theme,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Location    string     `json:"location,omitempty" yaml:"location,omitempty"`
	StartDate   string     `json:"startDate" yaml:"startDate"`
	EndDate     string     `json:"endDate" yaml:"endDate"`
	Days        []EventDay `json:"days" yaml:"days"`
	Speakers    []Speaker  `json:"speakers" yaml:"speakers"`
	ImageURL    string     `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
}

// EndsAt returns EndDate as midnight UTC. ok is false when EndDate does not parse.
func (e ConferenceEvent) EndsAt() (t time.Time, ok bool) {
	t, err := time.Parse(DateLayout, e.EndDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DayByID returns the day with the given id, or nil.
func (e *ConferenceEvent) DayByID(dayID string) *EventDay {
	for i := range e.Days {
		if e.Days[i].ID == dayID {
			return &e.Days[i]
		}
	}
	return nil
}

// EventDay is one calendar day of an event with its ordered sessions.
// swagger:model EventDay
type EventDay struct {
	ID       string    `json:"id" yaml:"id"`
	Date     string    `json:"date" yaml:"date"`
	Label    string    `json:"label" yaml:"label"`
	Sessions []Session `json:"sessions" yaml:"sessions"`
}

// FindEvent returns the event with the given id from the catalog, or nil.
func FindEvent(events []ConferenceEvent, eventID string) *ConferenceEvent {
	for i := range events {
		if events[i].ID == eventID {
			return &events[i]
		}
	}
	return nil
}

// EventSource supplies the conference catalog (remote API, file, or a cache in front of either).
type EventSource interface {
	ListEvents(ctx context.Context) ([]ConferenceEvent, error)
	GetEvent(ctx context.Context, eventID string) (*ConferenceEvent, error)
}
