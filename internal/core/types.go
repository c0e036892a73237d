package core

import (
	"context"
	"net/url"

	"github.com/JonMunkholm/crudtables/internal/access"
	"github.com/JonMunkholm/crudtables/internal/schema"
)

// Resource is the CRUD data-access collaborator for one record type.
// Every method may fail with an error carrying a human-readable message.
type Resource interface {
	List(ctx context.Context) ([]Record, error)
	Create(ctx context.Context, data Record) (Record, error)
	Update(ctx context.Context, id any, data Record) (Record, error)
	Delete(ctx context.Context, id any) error
}

// Archiver is implemented by resources that support soft deletion.
type Archiver interface {
	Archive(ctx context.Context, id any) error
	Restore(ctx context.Context, id any) error
}

// ResourceProvider hands out resources by name.
// Satisfied by every backend in the store package.
type ResourceProvider interface {
	Resource(name string) Resource
}

// Notifier reports operation outcomes to the user. Fire-and-forget.
type Notifier interface {
	Success()
	Error(message string)
}

// Confirmer asks the user a yes/no question and blocks for the answer.
type Confirmer interface {
	Confirm(message string) bool
}

// FormEngine decodes and validates submitted values against a schema.
// It returns the validated model, or an error describing invalid fields.
// Satisfied by *form.Engine.
type FormEngine interface {
	Validate(s schema.FieldSchema, values url.Values, base map[string]any) (map[string]any, error)
}

// SubmitFunc receives a validated model and reports whether it was saved.
type SubmitFunc func(ctx context.Context, model Record) bool

// ActionKind identifies a per-record control in the actions column.
type ActionKind string

const (
	ActionEdit    ActionKind = "edit"
	ActionArchive ActionKind = "archive"
	ActionRestore ActionKind = "restore"
	ActionDelete  ActionKind = "delete"
)

// Action is one control in a record's actions cell together with the
// capability that gates it.
type Action struct {
	Kind       ActionKind
	Capability access.Capability
}

// NotifierFunc adapts two functions to a Notifier.
type NotifierFunc struct {
	OnSuccess func()
	OnError   func(message string)
}

func (n NotifierFunc) Success() {
	if n.OnSuccess != nil {
		n.OnSuccess()
	}
}

func (n NotifierFunc) Error(message string) {
	if n.OnError != nil {
		n.OnError(message)
	}
}

// ConfirmFunc adapts a function to a Confirmer.
type ConfirmFunc func(message string) bool

func (f ConfirmFunc) Confirm(message string) bool {
	return f(message)
}
