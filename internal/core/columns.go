package core

import (
	"context"

	"github.com/JonMunkholm/crudtables/internal/access"
	"github.com/JonMunkholm/crudtables/internal/schema"
	"golang.org/x/text/language"
)

// ColumnInfo is the serializable form of a column descriptor.
type ColumnInfo struct {
	Title     string `json:"title"`
	DataIndex string `json:"dataIndex,omitempty"`
	Type      string `json:"type,omitempty"`
	Kind      string `json:"kind"`
	Width     int    `json:"width,omitempty"`
	Sortable  bool   `json:"sortable"`
}

// DescribeColumns converts columns for JSON output.
func DescribeColumns(cols []schema.Column) []ColumnInfo {
	out := make([]ColumnInfo, len(cols))
	for i, c := range cols {
		out[i] = ColumnInfo{
			Title:     c.Title,
			DataIndex: c.DataIndex,
			Type:      string(c.Type),
			Kind:      c.Kind.String(),
			Width:     c.Width,
			Sortable:  c.Sortable(),
		}
	}
	return out
}

// Columns derives the column descriptors this definition shows to a user
// holding granted. No records are loaded.
func (d TableDefinition) Columns(granted access.Set, lang language.Tag) ([]ColumnInfo, error) {
	opts := d.Options(emptyResource{}, NotifierFunc{}, ConfirmFunc(func(string) bool { return false }), granted)
	opts.Language = lang
	t, err := NewEditableTable(opts)
	if err != nil {
		return nil, err
	}
	return DescribeColumns(t.Columns()), nil
}

// emptyResource stands in where only the table's shape matters.
type emptyResource struct{}

func (emptyResource) List(context.Context) ([]Record, error) { return nil, nil }
func (emptyResource) Create(context.Context, Record) (Record, error) { return nil, ErrNotFound }
func (emptyResource) Update(context.Context, any, Record) (Record, error) { return nil, ErrNotFound }
func (emptyResource) Delete(context.Context, any) error { return ErrNotFound }
func (emptyResource) Archive(context.Context, any) error { return ErrNotFound }
func (emptyResource) Restore(context.Context, any) error { return ErrNotFound }
