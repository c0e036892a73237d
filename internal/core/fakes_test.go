package core

import (
	"context"
	"errors"
	"fmt"
)

// fakeResource is an in-memory Resource that records every call.
type fakeResource struct {
	records []Record
	nextID  int
	calls   []string

	listErr, createErr, updateErr, deleteErr, archiveErr error
}

func newFakeResource(records ...Record) *fakeResource {
	return &fakeResource{records: records, nextID: len(records) + 1}
}

func (f *fakeResource) List(ctx context.Context) ([]Record, error) {
	f.calls = append(f.calls, "list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return cloneRecords(f.records), nil
}

func (f *fakeResource) Create(ctx context.Context, data Record) (Record, error) {
	f.calls = append(f.calls, "create")
	if f.createErr != nil {
		return nil, f.createErr
	}
	rec := data.Clone()
	rec["id"] = f.nextID
	f.nextID++
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeResource) Update(ctx context.Context, id any, data Record) (Record, error) {
	f.calls = append(f.calls, fmt.Sprintf("update %v", id))
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i, r := range f.records {
		if r.SameID(fmt.Sprint(id)) {
			rec := data.Clone()
			rec["id"] = r["id"]
			f.records[i] = rec
			return rec, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeResource) Delete(ctx context.Context, id any) error {
	f.calls = append(f.calls, fmt.Sprintf("delete %v", id))
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, r := range f.records {
		if r.SameID(fmt.Sprint(id)) {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeResource) setArchived(id any, archived bool) error {
	if f.archiveErr != nil {
		return f.archiveErr
	}
	for _, r := range f.records {
		if r.SameID(fmt.Sprint(id)) {
			r[DefaultArchivedField] = archived
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeResource) Archive(ctx context.Context, id any) error {
	f.calls = append(f.calls, fmt.Sprintf("archive %v", id))
	return f.setArchived(id, true)
}

func (f *fakeResource) Restore(ctx context.Context, id any) error {
	f.calls = append(f.calls, fmt.Sprintf("restore %v", id))
	return f.setArchived(id, false)
}

// plainResource hides the Archiver methods of a fakeResource.
type plainResource struct {
	Resource
}

// fakeNotifier records notifications.
type fakeNotifier struct {
	successes int
	errors    []string
}

func (n *fakeNotifier) Success()             { n.successes++ }
func (n *fakeNotifier) Error(message string) { n.errors = append(n.errors, message) }

// fakeConfirmer answers every prompt with answer.
type fakeConfirmer struct {
	answer  bool
	prompts []string
}

func (c *fakeConfirmer) Confirm(message string) bool {
	c.prompts = append(c.prompts, message)
	return c.answer
}

var errBoom = errors.New("boom: backend unavailable")
