package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"

	"github.com/JonMunkholm/crudtables/internal/access"
	"github.com/JonMunkholm/crudtables/internal/form"
	"github.com/JonMunkholm/crudtables/internal/schema"
)

// ActionsColumnWidth is the fixed width of the actions column.
const ActionsColumnWidth = 100

// EditableTable orchestrates one CRUD screen: the record list, the modal and
// the record being edited.
//
// It has a single owner and is not safe for concurrent use. Resource calls
// are made synchronously under the caller's context; failures are reported
// through the Notifier and never returned to the caller.
type EditableTable struct {
	opts Options

	records   []Record
	modalOpen bool
	editing   Record
}

// NewEditableTable applies defaults to opts and validates them.
func NewEditableTable(opts Options) (*EditableTable, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("editable table: %w", err)
	}
	return &EditableTable{
		opts:    opts,
		editing: Record{},
	}, nil
}

// Initialize loads the first set of records. Static rows are seeded once;
// otherwise the resource is listed.
func (t *EditableTable) Initialize(ctx context.Context) {
	if t.static() {
		t.records = cloneRecords(t.opts.Rows)
		return
	}
	t.Refresh(ctx)
}

// Refresh replaces the record list wholesale with the resource's list.
// It does nothing for static tables.
func (t *EditableTable) Refresh(ctx context.Context) {
	if t.static() {
		return
	}
	records, err := t.opts.Resource.List(ctx)
	if err != nil {
		t.fail(ctx, &OperationError{Op: "list", Err: err})
		return
	}
	t.records = records
}

// Create opens the modal for a new record.
func (t *EditableTable) Create() {
	t.editing = Record{}
	t.openModal()
}

// Edit opens the modal for record.
func (t *EditableTable) Edit(record Record) {
	t.editing = record.Clone()
	t.openModal()
}

// Hide closes the modal and discards the edit buffer.
func (t *EditableTable) Hide() {
	t.modalOpen = false
	t.editing = Record{}
	t.opts.Modal.Close()
}

func (t *EditableTable) openModal() {
	t.modalOpen = true
	t.opts.Modal.Open(t.editing)
}

// Remove deletes record after the user confirms. Without confirmation
// nothing happens. It reports whether the record was deleted.
func (t *EditableTable) Remove(ctx context.Context, record Record) bool {
	if !t.opts.Confirmer.Confirm(ConfirmPrompt(ActionDelete, record)) {
		return false
	}

	id, _ := record.ID()
	if err := t.opts.Resource.Delete(ctx, id); err != nil {
		t.fail(ctx, &OperationError{Op: "delete", ID: id, Err: err})
		return false
	}

	t.succeed(ctx)
	return true
}

// Archive shelves record after confirmation. Only available when the table
// is archivable.
func (t *EditableTable) Archive(ctx context.Context, record Record) bool {
	return t.toggleArchive(ctx, record, ActionArchive)
}

// Restore brings an archived record back after confirmation.
func (t *EditableTable) Restore(ctx context.Context, record Record) bool {
	return t.toggleArchive(ctx, record, ActionRestore)
}

func (t *EditableTable) toggleArchive(ctx context.Context, record Record, kind ActionKind) bool {
	if !t.opts.Archivable {
		return false
	}

	if !t.opts.Confirmer.Confirm(ConfirmPrompt(kind, record)) {
		return false
	}

	id, _ := record.ID()
	archiver, ok := t.opts.Resource.(Archiver)
	if !ok {
		t.fail(ctx, &OperationError{Op: string(kind), ID: id, Err: ErrArchiveUnsupported})
		return false
	}

	var err error
	if kind == ActionRestore {
		err = archiver.Restore(ctx, id)
	} else {
		err = archiver.Archive(ctx, id)
	}
	if err != nil {
		t.fail(ctx, &OperationError{Op: string(kind), ID: id, Err: err})
		return false
	}

	t.succeed(ctx)
	return true
}

// Store saves data: an update when the edited record has an id, a create
// otherwise. The modal closes and the list refreshes only on success; on
// failure the modal stays open with the user's input. Store reports whether
// the save succeeded.
func (t *EditableTable) Store(ctx context.Context, data Record) bool {
	var err *OperationError
	if id, ok := t.editing.ID(); ok {
		if _, e := t.opts.Resource.Update(ctx, id, data); e != nil {
			err = &OperationError{Op: "update", ID: id, Err: e}
		}
	} else {
		if _, e := t.opts.Resource.Create(ctx, data); e != nil {
			err = &OperationError{Op: "create", Err: e}
		}
	}
	if err != nil {
		t.fail(ctx, err)
		return false
	}

	t.opts.Notifier.Success()
	t.Hide()
	t.Refresh(ctx)
	return true
}

// Submit runs the modal's submit path with values from the form and Store
// as the save callback. Validation errors are returned so the caller can
// re-render the form; operation errors have already been notified.
func (t *EditableTable) Submit(ctx context.Context, values url.Values) error {
	if !t.modalOpen {
		return ErrModalClosed
	}
	return t.opts.Modal.Submit(ctx, t.opts.Schema, values, t.opts.FormEngine, t.Store)
}

func (t *EditableTable) succeed(ctx context.Context) {
	t.opts.Notifier.Success()
	t.Refresh(ctx)
}

// fail logs err and notifies the underlying message. State is untouched.
func (t *EditableTable) fail(ctx context.Context, err *OperationError) {
	slog.WarnContext(ctx, "resource operation failed",
		"table", t.opts.Title,
		"op", err.Op,
		"id", err.ID,
		"error", err.Err,
	)
	t.opts.Notifier.Error(err.Message())
}

// Columns assembles the visible columns: the optional "#" column, the
// schema's columns, then the actions column when the user may update or
// delete.
func (t *EditableTable) Columns() []schema.Column {
	var cols []schema.Column

	if *t.opts.WithID {
		cols = append(cols, idColumn())
	}

	cols = append(cols, schema.Adapt(t.opts.Schema, schema.WithLanguage(t.opts.Language))...)

	if t.HasActionsColumn() {
		cols = append(cols, schema.Column{
			Title: "Actions",
			Kind:  schema.KindActions,
			Width: ActionsColumnWidth,
		})
	}
	return cols
}

func idColumn() schema.Column {
	return schema.Column{
		Title:     "#",
		DataIndex: "id",
		Type:      schema.TypeInteger,
		Kind:      schema.KindID,
		Render:    schema.ToString,
		Sorter:    schema.NumericSorter("id"),
	}
}

// HasActionsColumn reports whether the actions column is part of the table.
func (t *EditableTable) HasActionsColumn() bool {
	return *t.opts.WithActions && t.opts.Access.HasAny(access.Update, access.Delete)
}

// Actions lists the controls of record's actions cell, left to right: edit,
// the archive/restore toggle (archivable tables only), delete. Each entry
// names the capability that gates it; rendering applies the gate.
func (t *EditableTable) Actions(record Record) []Action {
	actions := []Action{{Kind: ActionEdit, Capability: access.Update}}
	if t.opts.Archivable {
		actions = append(actions, Toggle(record.Archived(t.opts.ArchivedField)).Action())
	}
	return append(actions, Action{Kind: ActionDelete, Capability: access.Delete})
}

// VisibleActions is Actions filtered by the granted capabilities.
func (t *EditableTable) VisibleActions(record Record) []Action {
	var out []Action
	for _, a := range t.Actions(record) {
		if t.opts.Access.Has(a.Capability) {
			out = append(out, a)
		}
	}
	return out
}

// Sorted returns the records ordered by the column reading dataIndex.
// Unknown or unsortable columns leave the order unchanged.
func (t *EditableTable) Sorted(dataIndex string, desc bool) []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)

	var sorter schema.SortFunc
	for _, c := range t.Columns() {
		if c.DataIndex == dataIndex && c.Sortable() {
			sorter = c.Sorter
			break
		}
	}
	if sorter == nil {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := sorter(out[i], out[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// Find returns the listed record whose id formats to id.
func (t *EditableTable) Find(id string) (Record, bool) {
	for _, r := range t.records {
		if r.SameID(id) {
			return r, true
		}
	}
	return nil, false
}

// Records returns the current list.
func (t *EditableTable) Records() []Record { return t.records }

// ModalOpen reports whether the create/edit modal is showing.
func (t *EditableTable) ModalOpen() bool { return t.modalOpen }

// Editing returns the record loaded into the modal; empty when creating.
func (t *EditableTable) Editing() Record { return t.editing }

// Modal returns the modal in use.
func (t *EditableTable) Modal() Modal { return t.opts.Modal }

// Schema returns the field schema.
func (t *EditableTable) Schema() schema.FieldSchema { return t.opts.Schema }

// Access returns the granted capabilities.
func (t *EditableTable) Access() access.Set { return t.opts.Access }

// Title returns the table heading.
func (t *EditableTable) Title() string { return t.opts.Title }

// Archivable reports whether the archive toggle is enabled.
func (t *EditableTable) Archivable() bool { return t.opts.Archivable }

// ArchivedField returns the record key read by the archive toggle.
func (t *EditableTable) ArchivedField() string { return t.opts.ArchivedField }

// CanCreate reports whether the create control is shown.
func (t *EditableTable) CanCreate() bool { return t.opts.Access.Has(access.Create) }

func (t *EditableTable) static() bool {
	return t.opts.Rows != nil
}

// IsValidationError reports whether err carries field errors from the form
// engine, which the modal shows inline.
func IsValidationError(err error) bool {
	var fields form.Errors
	if errors.As(err, &fields) {
		return true
	}
	var field form.FieldError
	return errors.As(err, &field)
}
