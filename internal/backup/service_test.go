package backup

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/starford/ansuz/internal/gdrive"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/store"
	"github.com/starford/ansuz/internal/testutil"
)

type fakeDrive struct {
	saveCalls int
	lastName  string
	lastBody  []byte
}

func (f *fakeDrive) ExchangeCode(_ context.Context, code string) (*gdrive.TokenSet, error) {
	return &gdrive.TokenSet{AccessToken: "at-" + code}, nil
}

func (f *fakeDrive) SaveFile(_ context.Context, _, name string, content []byte) (string, error) {
	f.saveCalls++
	f.lastName = name
	f.lastBody = content
	return "file-id", nil
}

func TestCollectGathersAllCollections(t *testing.T) {
	st := testutil.TestStore(t)
	ctx := context.Background()

	task := store.Record{"id": "1", "title": "a", "category": "business", "priority": "low",
		"status": "todo", "tagIds": []string{},
		"createdAt": "2025-01-01T00:00:00Z", "updatedAt": "2025-01-01T00:00:00Z"}
	if err := st.Insert(ctx, models.KindTask, task); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	tag := store.Record{"id": "t1", "name": "work", "color": "#111"}
	if err := st.Insert(ctx, models.KindTag, tag); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	svc := NewService(&fakeDrive{}, st, "")
	snap, err := svc.Collect(ctx)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(snap.Tasks) != 1 || len(snap.Tags) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if len(snap.Notes) != 0 || snap.Notes == nil {
		t.Errorf("empty collections must be present as [], got %v", snap.Notes)
	}
}

func TestSaveUploadsSnapshotFromStore(t *testing.T) {
	st := testutil.TestStore(t)
	drive := &fakeDrive{}
	svc := NewService(drive, st, "custom.json")

	id, skipped, err := svc.Save(context.Background(), "tok", nil)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id != "file-id" || skipped {
		t.Errorf("id = %s, skipped = %v", id, skipped)
	}
	if drive.lastName != "custom.json" {
		t.Errorf("file name = %s", drive.lastName)
	}

	var snap Snapshot
	if err := json.Unmarshal(drive.lastBody, &snap); err != nil {
		t.Fatalf("uploaded body is not a snapshot: %v", err)
	}
}

func TestSaveSkipsUnchangedSnapshot(t *testing.T) {
	st := testutil.TestStore(t)
	drive := &fakeDrive{}
	svc := NewService(drive, st, "")
	ctx := context.Background()

	if _, _, err := svc.Save(ctx, "tok", nil); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	id, skipped, err := svc.Save(ctx, "tok", nil)
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if !skipped || id != "file-id" {
		t.Errorf("skipped = %v, id = %s; want skip with cached id", skipped, id)
	}
	if drive.saveCalls != 1 {
		t.Errorf("save calls = %d, want 1", drive.saveCalls)
	}

	// A data change invalidates the cached checksum.
	note := store.Record{"id": "n1", "title": "a", "content": "b", "category": "personal",
		"tagIds": []string{},
		"createdAt": "2025-01-01T00:00:00Z", "updatedAt": "2025-01-01T00:00:00Z"}
	if err := st.Insert(ctx, models.KindNote, note); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	_, skipped, err = svc.Save(ctx, "tok", nil)
	if err != nil {
		t.Fatalf("third Save: %v", err)
	}
	if skipped || drive.saveCalls != 2 {
		t.Errorf("skipped = %v, calls = %d; want fresh upload", skipped, drive.saveCalls)
	}
}

func TestSaveUploadsClientDataset(t *testing.T) {
	drive := &fakeDrive{}
	svc := NewService(drive, testutil.TestStore(t), "")

	data := json.RawMessage(`{"tasks":[],"notes":[],"documents":[],"reminders":[],"tags":[]}`)
	if _, _, err := svc.Save(context.Background(), "tok", data); err != nil {
		t.Fatalf("Save: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(drive.lastBody, &got); err != nil {
		t.Fatalf("uploaded body: %v", err)
	}
	if _, ok := got["tasks"]; !ok {
		t.Errorf("uploaded body = %s", drive.lastBody)
	}
}

func TestSaveRejectsInvalidDataset(t *testing.T) {
	svc := NewService(&fakeDrive{}, testutil.TestStore(t), "")
	if _, _, err := svc.Save(context.Background(), "tok", json.RawMessage(`{not json`)); err == nil {
		t.Error("want error for malformed dataset")
	}
}

func TestExchangeCodePassthrough(t *testing.T) {
	svc := NewService(&fakeDrive{}, testutil.TestStore(t), "")
	tokens, err := svc.ExchangeCode(context.Background(), "abc")
	if err != nil {
		t.Fatalf("ExchangeCode: %v", err)
	}
	if tokens.AccessToken != "at-abc" {
		t.Errorf("tokens = %+v", tokens)
	}
}
