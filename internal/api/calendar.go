package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starford/ansuz/internal/gcal"
	"github.com/starford/ansuz/internal/models"
)

// CalendarClient is the calendar bridge consumed by the /calendar
// passthrough endpoint.
type CalendarClient interface {
	CreateEvent(ctx context.Context, token string, ev gcal.Event) (string, error)
	DeleteEvent(ctx context.Context, token, eventID string) error
}

// CalendarHandler exposes the calendar bridge to the UI, which drives
// the reminder/event lifecycle itself.
type CalendarHandler struct {
	client CalendarClient
	token  func() string // configured fallback access token, may return ""
}

// NewCalendarHandler creates a calendar handler. token provides the
// configured access token used when a request carries none.
func NewCalendarHandler(client CalendarClient, token func() string) *CalendarHandler {
	return &CalendarHandler{client: client, token: token}
}

type calendarRequest struct {
	Action      string `json:"action"`
	AccessToken string `json:"accessToken,omitempty"`
	Data        struct {
		Title       string `json:"title"`
		Description string `json:"description,omitempty"`
		DateTime    string `json:"dateTime"`
		EventID     string `json:"eventId"`
	} `json:"data"`
}

// Post handles POST /api/calendar.
//
//	@Summary		Create or delete a calendar event for a reminder
//	@Tags			calendar
//	@Accept			json
//	@Produce		json
//	@Param			body	body		calendarRequest	true	"Action and event data"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/calendar [post]
func (h *CalendarHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req calendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	token := req.AccessToken
	if token == "" {
		token = h.token()
	}
	if token == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("no calendar access token configured"))
		return
	}

	switch req.Action {
	case "createEvent":
		start, err := models.ParseInstant(req.Data.DateTime)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid dateTime"))
			return
		}
		eventID, err := h.client.CreateEvent(r.Context(), token, gcal.Event{
			Title:       req.Data.Title,
			Description: req.Data.Description,
			Start:       start,
		})
		if err != nil {
			slog.Warn("calendar event creation failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadGateway, errorBody("calendar call failed"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "eventId": eventID})

	case "deleteEvent":
		if req.Data.EventID == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("eventId is required"))
			return
		}
		if err := h.client.DeleteEvent(r.Context(), token, req.Data.EventID); err != nil {
			slog.Warn("calendar event deletion failed",
				slog.String("event_id", req.Data.EventID),
				slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadGateway, errorBody("calendar call failed"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})

	default:
		writeJSON(w, http.StatusBadRequest, errorBody("unknown action"))
	}
}
