package core

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/crudtables/internal/schema"
)

// DefaultArchivedField is the record key that flags archived records.
const DefaultArchivedField = "isArchive"

// Record is an opaque field map owned by a Resource.
// An absent or empty "id" marks a new, unsaved record.
type Record map[string]any

// ID returns the record's identifier and whether it is set.
// nil, "" and numeric zero all count as unset.
func (r Record) ID() (any, bool) {
	v, ok := r["id"]
	if !ok || v == nil {
		return nil, false
	}
	switch id := v.(type) {
	case string:
		if strings.TrimSpace(id) == "" {
			return nil, false
		}
	default:
		if f, isNum := schema.ToFloat(v); isNum && f == 0 {
			return nil, false
		}
	}
	return v, true
}

// IDString formats the identifier for URLs; "" when unset.
func (r Record) IDString() string {
	id, ok := r.ID()
	if !ok {
		return ""
	}
	return schema.ToString(id)
}

// IsNew reports whether the record has no identifier yet.
func (r Record) IsNew() bool {
	_, ok := r.ID()
	return !ok
}

// Label is the display name used in confirmation prompts: "name", then
// "title", then the id.
func (r Record) Label() string {
	for _, key := range []string{"name", "title"} {
		if s := schema.ToString(r[key]); s != "" {
			return s
		}
	}
	if id := r.IDString(); id != "" {
		return "#" + id
	}
	return ""
}

// Archived reports whether the flag stored under field is truthy.
func (r Record) Archived(field string) bool {
	switch v := r[field].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	case nil:
		return false
	default:
		f, ok := schema.ToFloat(v)
		return ok && f != 0
	}
}

// Clone returns a shallow copy. A nil record clones to an empty one.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// SameID reports whether the record's id formats to id.
func (r Record) SameID(id string) bool {
	return id != "" && r.IDString() == id
}

func (r Record) String() string {
	return fmt.Sprintf("Record(%s)", r.Label())
}

func cloneRecords(in []Record) []Record {
	if in == nil {
		return nil
	}
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
