package collection

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/gcal"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/store"
	"github.com/starford/ansuz/internal/testutil"
)

// fakeCalendar records bridge calls and can be told to fail.
type fakeCalendar struct {
	created    []gcal.Event
	deleted    []string
	failCreate bool
	failDelete bool
}

func (f *fakeCalendar) CreateEvent(_ context.Context, ev gcal.Event) (string, error) {
	if f.failCreate {
		return "", errors.New("calendar unavailable")
	}
	f.created = append(f.created, ev)
	return fmt.Sprintf("evt-%d", len(f.created)), nil
}

func (f *fakeCalendar) DeleteEvent(_ context.Context, eventID string) error {
	if f.failDelete {
		return errors.New("calendar unavailable")
	}
	f.deleted = append(f.deleted, eventID)
	return nil
}

func testService(t *testing.T, cal CalendarSync) *Service {
	t.Helper()
	return NewService(testutil.TestStore(t), cal, nil)
}

func reminderRecord(id string) store.Record {
	return store.Record{
		"id": id, "title": "Dentist", "description": "check-up",
		"dateTime": "2025-01-01T10:00:00Z", "repeat": "none",
		"completed": false, "tagIds": []string{},
		"createdAt": "2025-01-01T00:00:00Z",
	}
}

func TestReminderCreateAttachesEventID(t *testing.T) {
	cal := &fakeCalendar{}
	svc := testService(t, cal)
	ctx := context.Background()

	res, err := svc.Create(ctx, models.KindReminder, reminderRecord("r1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Calendar.State != RemoteOK {
		t.Errorf("calendar state = %v, want RemoteOK", res.Calendar.State)
	}
	if len(cal.created) != 1 {
		t.Fatalf("create calls = %d, want 1", len(cal.created))
	}
	if got := cal.created[0].Start.Format("2006-01-02T15:04:05Z"); got != "2025-01-01T10:00:00Z" {
		t.Errorf("event start = %s", got)
	}
	if cal.created[0].Title != "Dentist" || cal.created[0].Description != "check-up" {
		t.Errorf("event = %+v", cal.created[0])
	}

	stored, err := svc.Get(ctx, models.KindReminder, "r1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored["calendarEventId"] != "evt-1" {
		t.Errorf("calendarEventId = %v", stored["calendarEventId"])
	}
}

func TestReminderCreateSurvivesCalendarFailure(t *testing.T) {
	cal := &fakeCalendar{failCreate: true}
	svc := testService(t, cal)
	ctx := context.Background()

	res, err := svc.Create(ctx, models.KindReminder, reminderRecord("r1"))
	if err != nil {
		t.Fatalf("Create should succeed locally: %v", err)
	}
	if res.Calendar.State != RemoteFailed {
		t.Errorf("calendar state = %v, want RemoteFailed", res.Calendar.State)
	}

	stored, _ := svc.Get(ctx, models.KindReminder, "r1")
	if stored == nil {
		t.Fatal("reminder was not persisted")
	}
	if _, ok := stored["calendarEventId"]; ok {
		t.Errorf("calendarEventId should be absent, got %v", stored["calendarEventId"])
	}
}

func TestReminderCreateKeepsExistingEventID(t *testing.T) {
	// The UI may have done the lifecycle itself through /api/calendar.
	cal := &fakeCalendar{}
	svc := testService(t, cal)

	rec := reminderRecord("r1")
	rec["calendarEventId"] = "ui-evt"
	if _, err := svc.Create(context.Background(), models.KindReminder, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(cal.created) != 0 {
		t.Errorf("create calls = %d, want 0", len(cal.created))
	}
}

func TestCompletingReminderDeletesEventOnce(t *testing.T) {
	cal := &fakeCalendar{}
	svc := testService(t, cal)
	ctx := context.Background()

	if _, err := svc.Create(ctx, models.KindReminder, reminderRecord("r1")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Update(ctx, models.KindReminder, store.Record{"id": "r1", "completed": true}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(cal.deleted) != 1 || cal.deleted[0] != "evt-1" {
		t.Fatalf("delete calls = %v, want exactly [evt-1]", cal.deleted)
	}

	stored, _ := svc.Get(ctx, models.KindReminder, "r1")
	if stored["completed"] != true {
		t.Errorf("completed = %v", stored["completed"])
	}
	if _, ok := stored["calendarEventId"]; ok {
		t.Errorf("calendarEventId should be cleared, got %v", stored["calendarEventId"])
	}

	// Completing an already complete reminder must not delete again.
	if _, err := svc.Update(ctx, models.KindReminder, store.Record{"id": "r1", "completed": true}); err != nil {
		t.Fatalf("second Update: %v", err)
	}
	if len(cal.deleted) != 1 {
		t.Errorf("delete calls = %d, want still 1", len(cal.deleted))
	}
}

func TestCompletingReminderWithNumericFlagDeletesEvent(t *testing.T) {
	// Clients that pre-coerce booleans send completed as 0/1; the
	// storage codec accepts that, so the event delete must fire too.
	cal := &fakeCalendar{}
	svc := testService(t, cal)
	ctx := context.Background()

	if _, err := svc.Create(ctx, models.KindReminder, reminderRecord("r1")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Update(ctx, models.KindReminder, store.Record{"id": "r1", "completed": float64(1)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(cal.deleted) != 1 || cal.deleted[0] != "evt-1" {
		t.Fatalf("delete calls = %v, want exactly [evt-1]", cal.deleted)
	}

	stored, _ := svc.Get(ctx, models.KindReminder, "r1")
	if stored["completed"] != true {
		t.Errorf("completed = %v", stored["completed"])
	}
	if _, ok := stored["calendarEventId"]; ok {
		t.Errorf("calendarEventId should be cleared, got %v", stored["calendarEventId"])
	}
}

func TestCompletingReminderWithoutEventSkipsDelete(t *testing.T) {
	cal := &fakeCalendar{failCreate: true}
	svc := testService(t, cal)
	ctx := context.Background()

	// Event creation failed, so no event id is stored.
	if _, err := svc.Create(ctx, models.KindReminder, reminderRecord("r1")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Update(ctx, models.KindReminder, store.Record{"id": "r1", "completed": true}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(cal.deleted) != 0 {
		t.Errorf("delete calls = %d, want 0", len(cal.deleted))
	}
}

func TestDeletingReminderDeletesEvent(t *testing.T) {
	cal := &fakeCalendar{}
	svc := testService(t, cal)
	ctx := context.Background()

	if _, err := svc.Create(ctx, models.KindReminder, reminderRecord("r1")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Delete(ctx, models.KindReminder, "r1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(cal.deleted) != 1 || cal.deleted[0] != "evt-1" {
		t.Errorf("delete calls = %v", cal.deleted)
	}

	stored, _ := svc.Get(ctx, models.KindReminder, "r1")
	if stored != nil {
		t.Error("reminder should be gone")
	}
}

func TestDeleteProceedsWhenEventDeleteFails(t *testing.T) {
	cal := &fakeCalendar{}
	svc := testService(t, cal)
	ctx := context.Background()

	if _, err := svc.Create(ctx, models.KindReminder, reminderRecord("r1")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	cal.failDelete = true

	remote, err := svc.Delete(ctx, models.KindReminder, "r1")
	if err != nil {
		t.Fatalf("local delete must proceed: %v", err)
	}
	if remote.State != RemoteFailed {
		t.Errorf("remote state = %v, want RemoteFailed", remote.State)
	}
	stored, _ := svc.Get(ctx, models.KindReminder, "r1")
	if stored != nil {
		t.Error("reminder should be gone despite remote failure")
	}
}

func TestUpdateRequiresID(t *testing.T) {
	svc := testService(t, nil)
	if _, err := svc.Update(context.Background(), models.KindTask, store.Record{"title": "x"}); !errors.Is(err, apperr.ErrMissingID) {
		t.Errorf("err = %v, want ErrMissingID", err)
	}
}

func TestDeleteRequiresID(t *testing.T) {
	svc := testService(t, nil)
	if _, err := svc.Delete(context.Background(), models.KindTask, ""); !errors.Is(err, apperr.ErrMissingID) {
		t.Errorf("err = %v, want ErrMissingID", err)
	}
}

func TestGetMissReturnsNil(t *testing.T) {
	svc := testService(t, nil)
	rec, err := svc.Get(context.Background(), models.KindNote, "ghost")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec != nil {
		t.Errorf("rec = %v, want nil", rec)
	}
}

func TestSyncReplacesCollection(t *testing.T) {
	svc := testService(t, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, models.KindTag, store.Record{"id": "t1", "name": "a", "color": "#111"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	snapshot := []store.Record{
		{"id": "t2", "name": "b", "color": "#222"},
		{"id": "t3", "name": "c", "color": "#333"},
	}
	if err := svc.Sync(ctx, models.KindTag, snapshot); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	got, err := svc.List(ctx, models.KindTag)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0]["id"] != "t2" || got[1]["id"] != "t3" {
		t.Errorf("collection = %v", got)
	}

	if err := svc.Sync(ctx, models.KindTag, nil); err != nil {
		t.Fatalf("Sync empty: %v", err)
	}
	got, _ = svc.List(ctx, models.KindTag)
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}
