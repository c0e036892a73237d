package core

import (
	"context"
	"net/url"

	"github.com/JonMunkholm/crudtables/internal/schema"
)

// ModalState is the lifecycle state of a record modal.
type ModalState int

const (
	ModalClosed ModalState = iota
	ModalCreate
	ModalEdit
)

func (s ModalState) String() string {
	switch s {
	case ModalCreate:
		return "open-create"
	case ModalEdit:
		return "open-edit"
	default:
		return "closed"
	}
}

// Modal owns the in-progress edit buffer of a create/edit dialog.
// Implementations may be swapped through Options.Modal.
type Modal interface {
	// Open loads record into the buffer. A record without id opens in
	// create mode.
	Open(record Record)

	// Close discards the buffer.
	Close()

	State() ModalState
	Buffer() Record
	Title() string
	Busy() bool

	// Err is the validation error of the last submission, if any.
	Err() error

	// Submit validates values with engine and hands the model to onSubmit.
	// The modal closes when onSubmit reports success.
	Submit(ctx context.Context, s schema.FieldSchema, values url.Values, engine FormEngine, onSubmit SubmitFunc) error
}

// DefaultModal is the stock Modal.
type DefaultModal struct {
	state  ModalState
	buffer Record
	title  string
	busy   bool
	err    error
}

// NewDefaultModal returns a closed modal.
func NewDefaultModal() *DefaultModal {
	return &DefaultModal{buffer: Record{}}
}

// Open implements Modal. The title is fixed here, from the id at open time.
func (m *DefaultModal) Open(record Record) {
	m.buffer = record.Clone()
	m.err = nil
	m.busy = false
	if m.buffer.IsNew() {
		m.state = ModalCreate
		m.title = "Creating"
	} else {
		m.state = ModalEdit
		m.title = "Editing"
	}
}

// Close implements Modal.
func (m *DefaultModal) Close() {
	m.state = ModalClosed
	m.buffer = Record{}
	m.err = nil
	m.busy = false
}

func (m *DefaultModal) State() ModalState { return m.state }
func (m *DefaultModal) Buffer() Record    { return m.buffer }
func (m *DefaultModal) Title() string     { return m.title }
func (m *DefaultModal) Busy() bool        { return m.busy }
func (m *DefaultModal) Err() error        { return m.err }

// Submit implements Modal.
//
// While onSubmit runs the modal is busy and further submissions fail with
// ErrSubmitBusy. A validation failure keeps the modal open with the raw
// input in the buffer; a rejected save keeps the validated model.
func (m *DefaultModal) Submit(ctx context.Context, s schema.FieldSchema, values url.Values, engine FormEngine, onSubmit SubmitFunc) error {
	if m.state == ModalClosed {
		return ErrModalClosed
	}
	if m.busy {
		return ErrSubmitBusy
	}

	model, err := engine.Validate(s, values, m.buffer)
	if err != nil {
		m.err = err
		m.buffer = withRawInput(m.buffer, s, values)
		return err
	}
	m.err = nil

	m.busy = true
	saved := onSubmit(ctx, Record(model))
	m.busy = false

	if saved {
		m.Close()
		return nil
	}
	if m.state != ModalClosed {
		m.buffer = Record(model)
	}
	return nil
}

// withRawInput overlays submitted strings so the form re-renders what the
// user typed.
func withRawInput(buf Record, s schema.FieldSchema, values url.Values) Record {
	out := buf.Clone()
	for _, p := range s.Properties {
		if v, ok := values[p.Name]; ok && len(v) > 0 {
			out[p.Name] = v[0]
		}
	}
	return out
}
