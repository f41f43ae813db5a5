// Package apperr defines sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidType = errors.New("invalid entity type")
	ErrMissingID   = errors.New("missing id")

	// ErrCorruptRecord indicates a stored structured field failed to parse.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrRemoteCallFailed indicates a calendar or drive HTTP call failed.
	ErrRemoteCallFailed = errors.New("remote call failed")

	// ErrAmbiguousBackupTarget indicates more than one remote file matched
	// the configured backup file name.
	ErrAmbiguousBackupTarget = errors.New("ambiguous backup target")
)
