// Package backup assembles full-dataset snapshots and upserts them as
// a single named file in Google Drive.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/gdrive"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/store"
)

// DefaultFileName is the backup file name when none is configured.
const DefaultFileName = "ansuz-data.json"

// Drive is the remote file store consumed by the service.
type Drive interface {
	ExchangeCode(ctx context.Context, code string) (*gdrive.TokenSet, error)
	SaveFile(ctx context.Context, token, name string, content []byte) (string, error)
}

// Snapshot is the full dataset in upload form.
type Snapshot struct {
	Tasks     []store.Record `json:"tasks"`
	Notes     []store.Record `json:"notes"`
	Documents []store.Record `json:"documents"`
	Reminders []store.Record `json:"reminders"`
	Tags      []store.Record `json:"tags"`
}

// Service coordinates snapshot assembly and Drive upserts.
type Service struct {
	drive    Drive
	st       *store.Store
	fileName string

	mu         sync.Mutex
	lastSum    string
	lastFileID string
}

// NewService creates a backup service writing to fileName.
func NewService(drive Drive, st *store.Store, fileName string) *Service {
	if fileName == "" {
		fileName = DefaultFileName
	}
	return &Service{drive: drive, st: st, fileName: fileName}
}

// ExchangeCode trades an OAuth authorization code for tokens.
func (s *Service) ExchangeCode(ctx context.Context, code string) (*gdrive.TokenSet, error) {
	return s.drive.ExchangeCode(ctx, code)
}

// Collect reads every collection from the store into a snapshot.
func (s *Service) Collect(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	for _, kind := range models.Kinds {
		recs, err := s.st.GetAll(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("backup: collect %s: %w", kind, err)
		}
		switch kind {
		case models.KindTask:
			snap.Tasks = recs
		case models.KindNote:
			snap.Notes = recs
		case models.KindDocument:
			snap.Documents = recs
		case models.KindReminder:
			snap.Reminders = recs
		case models.KindTag:
			snap.Tags = recs
		}
	}
	return snap, nil
}

// Save uploads a snapshot. When data is nil the snapshot is built from
// the store; otherwise the client-supplied dataset is uploaded as-is
// (re-indented). A snapshot identical to the last uploaded one is
// skipped and the cached file id returned.
func (s *Service) Save(ctx context.Context, token string, data json.RawMessage) (fileID string, skipped bool, err error) {
	var content []byte
	if data != nil {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return "", false, fmt.Errorf("backup: invalid dataset: %w", err)
		}
		content = buf.Bytes()
	} else {
		snap, err := s.Collect(ctx)
		if err != nil {
			return "", false, err
		}
		content, err = json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return "", false, fmt.Errorf("backup: marshal snapshot: %w", err)
		}
	}

	sum := checksum.Sum(content)

	s.mu.Lock()
	if sum == s.lastSum && s.lastFileID != "" {
		id := s.lastFileID
		s.mu.Unlock()
		return id, true, nil
	}
	s.mu.Unlock()

	id, err := s.drive.SaveFile(ctx, token, s.fileName, content)
	if err != nil {
		return "", false, err
	}

	s.mu.Lock()
	s.lastSum = sum
	s.lastFileID = id
	s.mu.Unlock()

	return id, false, nil
}
