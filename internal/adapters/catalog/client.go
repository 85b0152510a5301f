package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"conferencecompanion/internal/domain"
)

type httpSource struct {
	client  *http.Client
	baseURL string
}

// NewHTTPSource returns an EventSource reading {baseURL}/events.json and
// {baseURL}/events/{id}.json.
func NewHTTPSource(client *http.Client, baseURL string) domain.EventSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpSource{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *httpSource) ListEvents(ctx context.Context) ([]domain.ConferenceEvent, error) {
	var events []domain.ConferenceEvent
	if err := s.getJSON(ctx, s.baseURL+"/events.json", &events); err != nil {
		return nil, err
	}
	if events == nil {
		events = []domain.ConferenceEvent{}
	}
	return events, nil
}

func (s *httpSource) GetEvent(ctx context.Context, eventID string) (*domain.ConferenceEvent, error) {
	var event domain.ConferenceEvent
	if err := s.getJSON(ctx, s.baseURL+"/events/"+url.PathEscape(eventID)+".json", &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *httpSource) getJSON(ctx context.Context, u string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch from %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("failed to fetch from %s: %w", u, domain.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch from %s: HTTP %d", u, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode %s: %w", u, err)
	}
	return nil
}
