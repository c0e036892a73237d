// Package schema describes record fields declaratively and adapts them into
// render-ready table columns.
//
// A FieldSchema drives both sides of a CRUD screen: the table (via [Adapt])
// and the create/edit form (via the form package). Property order is the
// declaration order and is preserved end to end.
package schema

import (
	"errors"
	"fmt"
)

// Type is the declared data type of a property.
// Unknown types are carried verbatim and produce unsortable columns.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeFloat   Type = "float"
	TypeDate    Type = "date"
	TypeBoolean Type = "boolean"
)

// FormatDate marks a property as a date regardless of its declared type.
const FormatDate = "date"

// Property describes a single field of a record.
type Property struct {
	Name      string // Field name, unique within a schema
	Title     string // Column heading / form label
	Type      Type
	Format    string // Optional format hint ("date")
	DataIndex string // Record key to read; defaults to Name
	Required  bool   // Form must supply a non-empty value
}

// Key returns the record key this property reads from.
func (p Property) Key() string {
	if p.DataIndex != "" {
		return p.DataIndex
	}
	return p.Name
}

// ColumnType resolves the effective column type.
// A property with format "date" is always a date column.
func (p Property) ColumnType() Type {
	if p.Format == FormatDate {
		return TypeDate
	}
	return p.Type
}

// Label returns the title, falling back to the field name.
func (p Property) Label() string {
	if p.Title != "" {
		return p.Title
	}
	return p.Name
}

// FieldSchema is an ordered set of properties.
type FieldSchema struct {
	Properties []Property
}

// ErrDuplicateProperty is returned when two properties share a name.
var ErrDuplicateProperty = errors.New("duplicate property")

// New builds a schema from properties, rejecting duplicate names.
func New(props ...Property) (FieldSchema, error) {
	s := FieldSchema{Properties: props}
	if err := s.Validate(); err != nil {
		return FieldSchema{}, err
	}
	return s, nil
}

// MustNew is like New but panics on error.
// Use only for schemas declared at init time.
func MustNew(props ...Property) FieldSchema {
	s, err := New(props...)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks that every property has a unique, non-empty name.
func (s FieldSchema) Validate() error {
	seen := make(map[string]bool, len(s.Properties))
	for i, p := range s.Properties {
		if p.Name == "" {
			return fmt.Errorf("property %d: empty name", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateProperty, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// Lookup finds a property by name.
func (s FieldSchema) Lookup(name string) (Property, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Len returns the number of properties.
func (s FieldSchema) Len() int {
	return len(s.Properties)
}
