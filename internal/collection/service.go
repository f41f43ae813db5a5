// Package collection implements the sync-protocol operations over the
// record store: list, create, update, delete and whole-collection
// replace, plus the reminder-to-calendar lifecycle coupling.
package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/gcal"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/store"
)

// CalendarSync mirrors reminder lifecycle events to an external
// calendar. Implementations are best-effort; the service never lets a
// calendar failure block a local write.
type CalendarSync interface {
	CreateEvent(ctx context.Context, ev gcal.Event) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// RemoteState classifies the outcome of the remote side-effect that
// accompanied a local mutation.
type RemoteState int

const (
	// RemoteNone means no remote call was applicable.
	RemoteNone RemoteState = iota
	// RemoteOK means the remote call succeeded.
	RemoteOK
	// RemoteFailed means the remote call failed; the local mutation
	// still went through.
	RemoteFailed
)

// RemoteStatus reports the remote side-effect outcome alongside a
// successful local mutation.
type RemoteStatus struct {
	State  RemoteState
	Reason string
}

// CreateResult is the outcome of Create.
type CreateResult struct {
	Record   store.Record
	Calendar RemoteStatus
}

// Service coordinates store, calendar bridge and event broker. cal and
// broker may be nil (calendar sync disabled, no live events).
type Service struct {
	st     *store.Store
	cal    CalendarSync
	broker *sse.Broker
}

// NewService creates a collection service.
func NewService(st *store.Store, cal CalendarSync, broker *sse.Broker) *Service {
	return &Service{st: st, cal: cal, broker: broker}
}

// List returns every record of a kind.
func (s *Service) List(ctx context.Context, kind models.Kind) ([]store.Record, error) {
	return s.st.GetAll(ctx, kind)
}

// Get returns one record by id, or nil (no error) on a miss.
func (s *Service) Get(ctx context.Context, kind models.Kind, id string) (store.Record, error) {
	rec, err := s.st.GetByID(ctx, kind, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// Create inserts one record. For reminders with a configured calendar
// bridge, a calendar event is created first and its id attached to the
// record; event creation failure is logged and the reminder persisted
// without an event id.
func (s *Service) Create(ctx context.Context, kind models.Kind, rec store.Record) (*CreateResult, error) {
	res := &CreateResult{Record: rec}

	if kind == models.KindReminder {
		res.Calendar = s.createReminderEvent(ctx, rec)
	}

	if err := s.st.Insert(ctx, kind, rec); err != nil {
		return nil, err
	}
	s.publish(kind, "created", recordID(rec))
	return res, nil
}

// Update overwrites the supplied fields of an existing record. The
// record must carry its id. A reminder transitioning from incomplete to
// complete has its calendar event deleted (best-effort) and the stored
// event id cleared.
func (s *Service) Update(ctx context.Context, kind models.Kind, rec store.Record) (RemoteStatus, error) {
	id := recordID(rec)
	if id == "" {
		return RemoteStatus{}, apperr.ErrMissingID
	}

	remote := RemoteStatus{}
	if kind == models.KindReminder {
		remote = s.completeReminderEvent(ctx, id, rec)
	}

	if err := s.st.Update(ctx, kind, id, rec); err != nil {
		return remote, err
	}
	s.publish(kind, "updated", id)
	return remote, nil
}

// Delete removes a record by id. Deleting an absent id is a no-op
// success. A reminder's calendar event, if any, is deleted best-effort
// before the local delete; the local delete happens regardless.
func (s *Service) Delete(ctx context.Context, kind models.Kind, id string) (RemoteStatus, error) {
	if id == "" {
		return RemoteStatus{}, apperr.ErrMissingID
	}

	remote := RemoteStatus{}
	if kind == models.KindReminder && s.cal != nil {
		if existing, err := s.st.GetByID(ctx, kind, id); err == nil {
			if eventID, _ := existing["calendarEventId"].(string); eventID != "" {
				remote = s.deleteEvent(ctx, eventID)
			}
		}
	}

	if err := s.st.Delete(ctx, kind, id); err != nil {
		return remote, err
	}
	s.publish(kind, "deleted", id)
	return remote, nil
}

// Sync replaces the whole collection with the supplied snapshot, in
// list order. The UI re-sends the entire collection after every local
// mutation rather than issuing diffs.
func (s *Service) Sync(ctx context.Context, kind models.Kind, recs []store.Record) error {
	if err := s.st.ReplaceAll(ctx, kind, recs); err != nil {
		return err
	}
	s.publish(kind, "synced", "")
	return nil
}

// Stats returns the dashboard counters.
func (s *Service) Stats(ctx context.Context) (models.DashboardStats, error) {
	return s.st.Stats(ctx)
}

// createReminderEvent creates the calendar event for a new reminder
// and attaches the returned id to the record. Records that already
// carry an event id (the UI did the lifecycle itself via /api/calendar)
// are left alone.
func (s *Service) createReminderEvent(ctx context.Context, rec store.Record) RemoteStatus {
	if s.cal == nil {
		return RemoteStatus{}
	}
	if eventID, _ := rec["calendarEventId"].(string); eventID != "" {
		return RemoteStatus{}
	}
	raw, _ := rec["dateTime"].(string)
	start, err := models.ParseInstant(raw)
	if err != nil {
		slog.Warn("reminder has unparseable dateTime, skipping calendar sync",
			slog.String("dateTime", raw))
		return RemoteStatus{State: RemoteFailed, Reason: fmt.Sprintf("bad dateTime: %v", err)}
	}

	title, _ := rec["title"].(string)
	desc, _ := rec["description"].(string)
	eventID, err := s.cal.CreateEvent(ctx, gcal.Event{Title: title, Description: desc, Start: start})
	if err != nil {
		slog.Warn("calendar event creation failed, persisting reminder without event id",
			slog.String("error", err.Error()))
		return RemoteStatus{State: RemoteFailed, Reason: err.Error()}
	}
	rec["calendarEventId"] = eventID
	return RemoteStatus{State: RemoteOK}
}

// completeReminderEvent deletes the calendar event when an update
// transitions a reminder from incomplete to complete, and clears the
// stored event id so the delete is attempted exactly once.
func (s *Service) completeReminderEvent(ctx context.Context, id string, rec store.Record) RemoteStatus {
	if s.cal == nil {
		return RemoteStatus{}
	}
	completed, ok := completedFlag(rec["completed"])
	if !ok || !completed {
		return RemoteStatus{}
	}
	existing, err := s.st.GetByID(ctx, models.KindReminder, id)
	if err != nil {
		return RemoteStatus{}
	}
	if wasCompleted, _ := existing["completed"].(bool); wasCompleted {
		return RemoteStatus{}
	}
	eventID, _ := existing["calendarEventId"].(string)
	if eventID == "" {
		return RemoteStatus{}
	}

	remote := s.deleteEvent(ctx, eventID)
	rec["calendarEventId"] = nil
	return remote
}

func (s *Service) deleteEvent(ctx context.Context, eventID string) RemoteStatus {
	if err := s.cal.DeleteEvent(ctx, eventID); err != nil {
		// Accepted tradeoff: the remote event may be orphaned, the
		// local mutation proceeds regardless.
		slog.Warn("calendar event deletion failed",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()))
		return RemoteStatus{State: RemoteFailed, Reason: err.Error()}
	}
	return RemoteStatus{State: RemoteOK}
}

func (s *Service) publish(kind models.Kind, action, id string) {
	if s.broker != nil {
		s.broker.PublishRecordEvent(kind.String(), action, id)
	}
}

func recordID(rec store.Record) string {
	id, _ := rec["id"].(string)
	return id
}

// completedFlag reads a wire completed value, accepting the same
// pre-coerced 0/1 numbers the storage codec does.
func completedFlag(v any) (completed, ok bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case float64:
		return b != 0, true
	}
	return false, false
}
