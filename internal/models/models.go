// Package models defines the domain types for Ansuz.
package models

import (
	"fmt"
	"strconv"
	"time"
)

// Task categories.
const (
	CategoryBusiness = "business"
	CategoryCert     = "cert"
	CategoryHealth   = "health"
	CategorySpanish  = "spanish"
	CategoryTrading  = "trading"
	CategoryCreative = "creative"
	CategoryOther    = "other"
)

// Task priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Task statuses.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in-progress"
	StatusDone       = "done"
)

// Reminder repeat modes.
const (
	RepeatNone    = "none"
	RepeatDaily   = "daily"
	RepeatWeekly  = "weekly"
	RepeatMonthly = "monthly"
)

// Task is a single actionable item.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
	Status      string   `json:"status"`
	DueDate     string   `json:"dueDate,omitempty"`
	TagIDs      []string `json:"tagIds"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

// Note is a free-form text note.
type Note struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	TagIDs    []string `json:"tagIds"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

// Document is an uploaded file reference. FileURL holds either a data
// URI or an /attachments/ path for payloads stored on disk.
type Document struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	FileName  string   `json:"fileName"`
	FileType  string   `json:"fileType"`
	FileSize  int64    `json:"fileSize"`
	FileURL   string   `json:"fileUrl,omitempty"`
	TagIDs    []string `json:"tagIds"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

// Reminder is a dated alert, optionally mirrored to an external
// calendar event. CalendarEventID is set if and only if a remote event
// is believed to exist.
type Reminder struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	DateTime        string   `json:"dateTime"`
	Repeat          string   `json:"repeat,omitempty"`
	Completed       bool     `json:"completed"`
	TagIDs          []string `json:"tagIds"`
	CalendarEventID string   `json:"calendarEventId,omitempty"`
	CreatedAt       string   `json:"createdAt"`
}

// Tag is a user-defined label. Entities reference tags by id; the
// reference is weak and survives tag deletion, so consumers must skip
// ids they cannot resolve.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// DashboardStats are the counters shown on the dashboard.
type DashboardStats struct {
	TasksCompleted int `json:"tasksCompleted"`
	TasksPending   int `json:"tasksPending"`
	NotesCount     int `json:"notesCount"`
	DocsCount      int `json:"docsCount"`
}

// NewID returns a timestamp-derived record id, matching the id scheme
// the UI uses (milliseconds since epoch as a decimal string).
func NewID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// Now returns the current instant in the sortable textual form used
// for createdAt/updatedAt fields.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ParseInstant accepts the instant forms the UI produces: full RFC3339
// and the datetime-local format without zone or seconds.
func ParseInstant(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised instant %q", s)
}
