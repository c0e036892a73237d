package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by resources when an id does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrArchiveUnsupported is reported when archiving is configured but the
	// resource does not implement Archiver.
	ErrArchiveUnsupported = errors.New("archive not supported by resource")

	// ErrSubmitBusy is returned when a form is submitted while its previous
	// submission is still outstanding.
	ErrSubmitBusy = errors.New("submit already in progress")

	// ErrModalClosed is returned when submitting a closed modal.
	ErrModalClosed = errors.New("modal is closed")

	// ErrUnknownTable is returned for unregistered table keys.
	ErrUnknownTable = errors.New("unknown table")
)

// OperationError wraps a failed Resource call.
// It is always handled where it occurs: logged and turned into an error
// notification carrying the underlying message.
type OperationError struct {
	Op  string // list, create, update, delete, archive, restore
	ID  any    // nil for list/create
	Err error
}

func (e *OperationError) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("%s %v: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Message is the user-visible text: the underlying failure's message.
func (e *OperationError) Message() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return e.Err.Error()
}
