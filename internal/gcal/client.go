// Package gcal is a minimal Google Calendar client covering event
// creation and deletion on the primary calendar.
package gcal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/starford/ansuz/internal/apperr"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// EventDuration is the fixed event length. Reminders carry no duration,
// so every calendar event is booked as a one-hour window.
const EventDuration = time.Hour

// Event is the input for CreateEvent.
type Event struct {
	Title       string
	Description string
	Start       time.Time
}

// Client calls the Calendar REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a client with a conservative request timeout.
func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
	}
}

// NewWithBaseURL creates a client against a custom endpoint (tests).
func NewWithBaseURL(base string) *Client {
	c := New()
	c.baseURL = base
	return c
}

type eventTime struct {
	DateTime string `json:"dateTime"`
}

type eventBody struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       eventTime `json:"start"`
	End         eventTime `json:"end"`
}

// CreateEvent inserts a one-hour event starting at ev.Start and
// returns the remote event id.
func (c *Client) CreateEvent(ctx context.Context, token string, ev Event) (string, error) {
	body := eventBody{
		Summary:     ev.Title,
		Description: ev.Description,
		Start:       eventTime{DateTime: ev.Start.UTC().Format(time.RFC3339)},
		End:         eventTime{DateTime: ev.Start.Add(EventDuration).UTC().Format(time.RFC3339)},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("gcal: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/calendars/primary/events", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("gcal: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gcal: create event: %w: %v", apperr.ErrRemoteCallFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("gcal: create event: %w: status %d", apperr.ErrRemoteCallFailed, resp.StatusCode)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("gcal: decode response: %w", err)
	}
	return out.ID, nil
}

// DeleteEvent removes an event from the primary calendar. An event
// that is already gone (404/410) counts as success.
func (c *Client) DeleteEvent(ctx context.Context, token, eventID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/calendars/primary/events/"+url.PathEscape(eventID), nil)
	if err != nil {
		return fmt.Errorf("gcal: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gcal: delete event: %w: %v", apperr.ErrRemoteCallFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return nil
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		return nil
	default:
		return fmt.Errorf("gcal: delete event: %w: status %d", apperr.ErrRemoteCallFailed, resp.StatusCode)
	}
}
