package schema

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func employeeSchema(t *testing.T) FieldSchema {
	t.Helper()
	s, err := New(
		Property{Name: "name", Title: "Name", Type: TypeString},
		Property{Name: "salary", Title: "Salary", Type: TypeNumber},
		Property{Name: "hired", Title: "Hired", Type: TypeString, Format: FormatDate},
		Property{Name: "team", Title: "Team", Type: TypeString, DataIndex: "team_name"},
		Property{Name: "active", Title: "Active", Type: TypeBoolean},
	)
	require.NoError(t, err)
	return s
}

func TestAdapt_OneColumnPerPropertyInOrder(t *testing.T) {
	cols := Adapt(employeeSchema(t))

	require.Len(t, cols, 5)
	var titles, indexes []string
	for _, c := range cols {
		titles = append(titles, c.Title)
		indexes = append(indexes, c.DataIndex)
		assert.Equal(t, KindData, c.Kind)
	}
	assert.Equal(t, []string{"Name", "Salary", "Hired", "Team", "Active"}, titles)
	assert.Equal(t, []string{"name", "salary", "hired", "team_name", "active"}, indexes)
}

func TestAdapt_ColumnTypeResolution(t *testing.T) {
	cols := Adapt(employeeSchema(t))

	assert.Equal(t, TypeString, cols[0].Type)
	assert.Equal(t, TypeNumber, cols[1].Type)
	assert.Equal(t, TypeDate, cols[2].Type, "format=date must win over declared type")
	assert.Equal(t, TypeBoolean, cols[4].Type)
}

func TestAdapt_DateRendering(t *testing.T) {
	hired := Adapt(employeeSchema(t))[2]

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"iso date", "2023-01-15", "15.01.2023"},
		{"rfc3339", "2023-01-15T10:30:00Z", "15.01.2023"},
		{"time value", time.Date(2021, 12, 3, 0, 0, 0, 0, time.UTC), "03.12.2021"},
		{"nil", nil, ""},
		{"empty string", "", ""},
		{"false", false, ""},
		{"not a date", "someday", "someday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hired.Render(tt.value))
		})
	}
}

func TestAdapt_DateRendering_MissingField(t *testing.T) {
	hired := Adapt(employeeSchema(t))[2]
	assert.Equal(t, "", hired.Cell(map[string]any{"name": "Ann"}))
}

func TestAdapt_NonDateRendersRawValue(t *testing.T) {
	cols := Adapt(employeeSchema(t))

	assert.Equal(t, "<b>Ann</b>", cols[0].Render("<b>Ann</b>"), "no escaping at the adapter level")
	assert.Equal(t, "5", cols[1].Render(5))
	assert.Equal(t, "2.5", cols[1].Render(2.5))
	assert.Equal(t, "true", cols[4].Render(true))
	assert.Equal(t, "", cols[0].Render(nil))
}

func TestAdapt_StringSorter(t *testing.T) {
	name := Adapt(employeeSchema(t))[0]
	require.True(t, name.Sortable())

	a := map[string]any{"name": "a"}
	b := map[string]any{"name": "b"}

	assert.Negative(t, name.Sorter(a, b))
	assert.Positive(t, name.Sorter(b, a))
	assert.Zero(t, name.Sorter(a, a))
}

func TestAdapt_StringSorter_LocaleAware(t *testing.T) {
	sorter := StringSorter("name", language.German)
	rows := []map[string]any{{"name": "Zebra"}, {"name": "Äpfel"}, {"name": "apfel"}, {"name": "Birne"}}

	sort.SliceStable(rows, func(i, j int) bool { return sorter(rows[i], rows[j]) < 0 })

	var got []string
	for _, r := range rows {
		got = append(got, r["name"].(string))
	}
	// Byte order would put "Zebra" before "apfel" and "Äpfel" last.
	assert.Equal(t, "Zebra", got[3])
	assert.Equal(t, "Birne", got[2])
}

func TestAdapt_NumericSorter(t *testing.T) {
	salary := Adapt(employeeSchema(t))[1]
	require.True(t, salary.Sortable())

	five := map[string]any{"salary": 5}
	two := map[string]any{"salary": 2}

	assert.Positive(t, salary.Sorter(five, two))
	assert.Negative(t, salary.Sorter(two, five))
}

func TestAdapt_NumericSorterForAllNumericTypes(t *testing.T) {
	for _, typ := range []Type{TypeNumber, TypeInteger, TypeFloat} {
		s := MustNew(Property{Name: "n", Type: typ})
		col := Adapt(s)[0]
		require.True(t, col.Sortable(), string(typ))
		assert.Negative(t, col.Sorter(map[string]any{"n": int64(2)}, map[string]any{"n": 10.5}), string(typ))
	}
}

func TestAdapt_DateSorterIsChronological(t *testing.T) {
	hired := Adapt(employeeSchema(t))[2]

	earlier := map[string]any{"hired": "15.01.2023"}
	later := map[string]any{"hired": "2023-02-01"}
	blank := map[string]any{}

	assert.Negative(t, hired.Sorter(earlier, later))
	assert.Positive(t, hired.Sorter(later, earlier))
	assert.Negative(t, hired.Sorter(blank, earlier))
}

func TestAdapt_OtherTypesAreUnsortable(t *testing.T) {
	s := MustNew(
		Property{Name: "active", Type: TypeBoolean},
		Property{Name: "tags", Type: "array"},
		Property{Name: "meta", Type: "object"},
		Property{Name: "untyped"},
	)
	for _, col := range Adapt(s) {
		assert.False(t, col.Sortable(), col.DataIndex)
	}
}

func TestAdapt_Deterministic(t *testing.T) {
	s := employeeSchema(t)
	first := Adapt(s)
	second := Adapt(s)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Title, second[i].Title)
		assert.Equal(t, first[i].DataIndex, second[i].DataIndex)
		assert.Equal(t, first[i].Type, second[i].Type)
		assert.Equal(t, first[i].Sortable(), second[i].Sortable())
	}
}

func TestAdapt_EmptySchema(t *testing.T) {
	assert.Empty(t, Adapt(FieldSchema{}))
}
