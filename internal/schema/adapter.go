package schema

import (
	"cmp"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Kind distinguishes schema-derived columns from the ones a table adds.
type Kind int

const (
	KindData Kind = iota
	KindID
	KindActions
)

func (k Kind) String() string {
	switch k {
	case KindID:
		return "id"
	case KindActions:
		return "actions"
	default:
		return "data"
	}
}

// RenderFunc converts a raw cell value into display text.
type RenderFunc func(value any) string

// SortFunc orders two records: negative if a sorts before b.
type SortFunc func(a, b map[string]any) int

// Column is a render-ready description of one table column.
// Columns are derived on every render and never persisted.
type Column struct {
	Title     string
	DataIndex string
	Type      Type
	Kind      Kind
	Width     int // Fixed width in pixels; 0 means auto
	Render    RenderFunc
	Sorter    SortFunc // nil means the column is unsortable
}

// Sortable reports whether the column has a comparator.
func (c Column) Sortable() bool {
	return c.Sorter != nil
}

// Value returns the raw value the column reads from rec.
func (c Column) Value(rec map[string]any) any {
	if c.DataIndex == "" {
		return nil
	}
	return rec[c.DataIndex]
}

// Cell renders the column's value for rec.
func (c Column) Cell(rec map[string]any) string {
	v := c.Value(rec)
	if c.Render == nil {
		return ToString(v)
	}
	return c.Render(v)
}

type adaptConfig struct {
	lang language.Tag
}

// AdaptOption configures Adapt.
type AdaptOption func(*adaptConfig)

// WithLanguage sets the collation language for string columns.
func WithLanguage(tag language.Tag) AdaptOption {
	return func(c *adaptConfig) {
		c.lang = tag
	}
}

// Adapt maps each schema property to a column, in declaration order.
//
//   - date columns (format "date") render as DD.MM.YYYY, blank values as ""
//   - number, integer, float columns sort numerically
//   - date columns sort chronologically
//   - string columns sort with locale-aware collation
//   - any other type is unsortable
func Adapt(s FieldSchema, opts ...AdaptOption) []Column {
	cfg := adaptConfig{lang: language.English}
	for _, opt := range opts {
		opt(&cfg)
	}

	cols := make([]Column, 0, len(s.Properties))
	for _, p := range s.Properties {
		typ := p.ColumnType()
		key := p.Key()
		cols = append(cols, Column{
			Title:     p.Title,
			DataIndex: key,
			Type:      typ,
			Kind:      KindData,
			Render:    renderFor(typ),
			Sorter:    sorterFor(typ, key, cfg.lang),
		})
	}
	return cols
}

func renderFor(t Type) RenderFunc {
	if t == TypeDate {
		return RenderDate
	}
	return ToString
}

// RenderDate formats v as DD.MM.YYYY.
// Blank values render as ""; values that are not dates render verbatim.
func RenderDate(v any) string {
	if isBlank(v) {
		return ""
	}
	t, ok := ParseDate(v)
	if !ok {
		return ToString(v)
	}
	return t.Format(DisplayDateLayout)
}

func sorterFor(t Type, key string, lang language.Tag) SortFunc {
	switch t {
	case TypeNumber, TypeInteger, TypeFloat:
		return NumericSorter(key)
	case TypeDate:
		return DateSorter(key)
	case TypeString:
		return StringSorter(key, lang)
	default:
		return nil
	}
}

// NumericSorter compares the numeric values stored under key.
// Missing or non-numeric values compare as zero.
func NumericSorter(key string) SortFunc {
	return func(a, b map[string]any) int {
		x, _ := ToFloat(a[key])
		y, _ := ToFloat(b[key])
		return cmp.Compare(x, y)
	}
}

// DateSorter compares the dates stored under key chronologically.
// Values that do not parse as dates sort first.
func DateSorter(key string) SortFunc {
	return func(a, b map[string]any) int {
		x, okX := ParseDate(a[key])
		y, okY := ParseDate(b[key])
		switch {
		case !okX && !okY:
			return 0
		case !okX:
			return -1
		case !okY:
			return 1
		}
		return x.Compare(y)
	}
}

// StringSorter compares the strings stored under key using the collation
// rules of lang.
func StringSorter(key string, lang language.Tag) SortFunc {
	// collate.Collator is not safe for concurrent use.
	var mu sync.Mutex
	col := collate.New(lang)

	return func(a, b map[string]any) int {
		x := ToString(a[key])
		y := ToString(b[key])

		mu.Lock()
		defer mu.Unlock()
		return col.CompareString(x, y)
	}
}
