package domain

import (
	"fmt"
	"time"
)

// SessionType tags what kind of slot a session is.
type SessionType string

const (
	SessionTypeTalk       SessionType = "talk"
	SessionTypeWorkshop   SessionType = "workshop"
	SessionTypePanel      SessionType = "panel"
	SessionTypeKeynote    SessionType = "keynote"
	SessionTypeBreak      SessionType = "break"
	SessionTypeNetworking SessionType = "networking"
	SessionTypeOpening    SessionType = "opening"
	SessionTypeClosing    SessionType = "closing"
)

// Valid reports whether t is one of the known session types.
func (t SessionType) Valid() bool {
	switch t {
	case SessionTypeTalk, SessionTypeWorkshop, SessionTypePanel, SessionTypeKeynote,
		SessionTypeBreak, SessionTypeNetworking, SessionTypeOpening, SessionTypeClosing:
		return true
	}
	return false
}

// Session represents a conference session or talk.
// Speakers holds speaker ids from the owning event; ids that do not resolve are tolerated.
// swagger:model Session
type Session struct {
	ID          string      `json:"id" yaml:"id"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`
	StartTime   time.Time   `json:"startTime" yaml:"startTime"`
	EndTime     time.Time   `json:"endTime" yaml:"endTime"`
	Type        SessionType `json:"type" yaml:"type"`
	Track       string      `json:"track,omitempty" yaml:"track,omitempty"`
	Room        string      `json:"room,omitempty" yaml:"room,omitempty"`
	Speakers    []string    `json:"speakers" yaml:"speakers"`
	Tags        []string    `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// HasSpeaker reports whether speakerID is listed on the session.
func (s Session) HasSpeaker(speakerID string) bool {
	for _, id := range s.Speakers {
		if id == speakerID {
			return true
		}
	}
	return false
}

// Validate returns error messages for a malformed session; nil means valid.
func (s Session) Validate() []string {
	var errs []string
	if s.ID == "" {
		errs = append(errs, "session id is required")
	}
	if !s.EndTime.After(s.StartTime) {
		errs = append(errs, fmt.Sprintf("session %q must end after it starts", s.ID))
	}
	if s.Type != "" && !s.Type.Valid() {
		errs = append(errs, fmt.Sprintf("session %q has unknown type %q", s.ID, s.Type))
	}
	return errs
}
