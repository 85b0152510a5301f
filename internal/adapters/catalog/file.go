package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"conferencecompanion/internal/domain"
)

type fileSource struct {
	path string
}

// NewFileSource returns an EventSource reading a local catalog. Files ending
// in .yaml or .yml are parsed as YAML, anything else as JSON. The file is
// re-read on every call; put a CachedSource in front to avoid that.
func NewFileSource(path string) domain.EventSource {
	return &fileSource{path: path}
}

func (s *fileSource) ListEvents(ctx context.Context) ([]domain.ConferenceEvent, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", s.path, err)
	}
	var events []domain.ConferenceEvent
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &events)
	default:
		err = json.Unmarshal(raw, &events)
	}
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", s.path, err)
	}
	if events == nil {
		events = []domain.ConferenceEvent{}
	}
	return events, nil
}

func (s *fileSource) GetEvent(ctx context.Context, eventID string) (*domain.ConferenceEvent, error) {
	events, err := s.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	if ev := domain.FindEvent(events, eventID); ev != nil {
		return ev, nil
	}
	return nil, domain.ErrNotFound
}
