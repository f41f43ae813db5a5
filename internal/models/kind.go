package models

import (
	"fmt"

	"github.com/starford/ansuz/internal/apperr"
)

// Kind identifies one of the five entity collections. It is a closed
// enum: every switch over Kind in this codebase is exhaustive, so an
// invalid type can only be rejected at the wire-parsing boundary
// (ParseKind).
type Kind int

const (
	KindTask Kind = iota
	KindNote
	KindDocument
	KindReminder
	KindTag
)

// Kinds lists every entity kind in a stable order.
var Kinds = []Kind{KindTask, KindNote, KindDocument, KindReminder, KindTag}

// ParseKind maps the wire type parameter (plural, lower-case) to a Kind.
// Unknown strings fail with apperr.ErrInvalidType.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "tasks":
		return KindTask, nil
	case "notes":
		return KindNote, nil
	case "documents":
		return KindDocument, nil
	case "reminders":
		return KindReminder, nil
	case "tags":
		return KindTag, nil
	default:
		return 0, fmt.Errorf("%w: %q", apperr.ErrInvalidType, s)
	}
}

// String returns the wire name, which doubles as the table name.
func (k Kind) String() string {
	switch k {
	case KindTask:
		return "tasks"
	case KindNote:
		return "notes"
	case KindDocument:
		return "documents"
	case KindReminder:
		return "reminders"
	case KindTag:
		return "tags"
	}
	return "unknown"
}

// Table returns the SQLite table name for the kind.
func (k Kind) Table() string { return k.String() }
