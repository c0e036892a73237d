package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/crudtables/internal/config"
	"github.com/JonMunkholm/crudtables/internal/core"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
		ok   bool
	}{
		{"int", 7, 7, true},
		{"int32", int32(8), 8, true},
		{"int64", int64(9), 9, true},
		{"whole float", float64(10), 10, true},
		{"fractional float", 1.5, 0, false},
		{"json number", json.Number("11"), 11, true},
		{"string", " 12 ", 12, true},
		{"bad string", "abc", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseID(tt.in)
			if !tt.ok {
				require.Error(t, err)
				assert.ErrorIs(t, err, core.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeData_DropsColumns(t *testing.T) {
	b, err := encodeData(core.Record{"id": 3, archivedField: true, "name": "Ada"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada"}`, string(b))
}

func TestDecodeRecord_MergesColumns(t *testing.T) {
	rec, err := decodeRecord(4, []byte(`{"name":"Ada","age":36}`), true)
	require.NoError(t, err)
	assert.Equal(t, int64(4), rec["id"])
	assert.Equal(t, true, rec[archivedField])
	assert.Equal(t, "Ada", rec["name"])
	assert.Equal(t, float64(36), rec["age"])

	_, err = decodeRecord(5, []byte(`{not json`), false)
	assert.Error(t, err)
}

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, config.StoreConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, b)
	require.NoError(t, b.Close())

	b, err = Open(ctx, config.StoreConfig{Driver: config.DriverSQLite, URL: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, b)
	require.NoError(t, b.Close())

	_, err = Open(ctx, config.StoreConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "unknown store driver")
}

// exerciseBackend runs the behavior every backend must share.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	people := b.Resource("people")
	other := b.Resource("other")

	list, err := people.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	ada, err := people.Create(ctx, core.Record{"name": "Ada", "age": 36})
	require.NoError(t, err)
	adaID, ok := ada.ID()
	require.True(t, ok)
	assert.Equal(t, "Ada", ada["name"])
	assert.Equal(t, false, ada[archivedField])

	_, err = people.Create(ctx, core.Record{"name": "Grace"})
	require.NoError(t, err)
	_, err = other.Create(ctx, core.Record{"name": "Elsewhere"})
	require.NoError(t, err)

	list, err = people.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ada", list[0]["name"])
	assert.Equal(t, "Grace", list[1]["name"])

	updated, err := people.Update(ctx, adaID, core.Record{"id": adaID, "name": "Ada L.", "age": 37})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", updated["name"])

	archiver, ok := people.(core.Archiver)
	require.True(t, ok)
	require.NoError(t, archiver.Archive(ctx, adaID))

	list, err = people.List(ctx)
	require.NoError(t, err)
	assert.True(t, list[0].Archived(archivedField))
	assert.Equal(t, "Ada L.", list[0]["name"])

	// Updating keeps the archived flag.
	updated, err = people.Update(ctx, adaID, core.Record{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, true, updated[archivedField])

	require.NoError(t, archiver.Restore(ctx, adaID))
	list, err = people.List(ctx)
	require.NoError(t, err)
	assert.False(t, list[0].Archived(archivedField))

	// Ids arriving as strings from form posts resolve too.
	require.NoError(t, people.Delete(ctx, ada.IDString()))
	list, err = people.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Grace", list[0]["name"])

	assert.ErrorIs(t, people.Delete(ctx, adaID), core.ErrNotFound)
	_, err = people.Update(ctx, adaID, core.Record{"name": "ghost"})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, archiver.Archive(ctx, 9999), core.ErrNotFound)
	assert.ErrorIs(t, people.Delete(ctx, "nope"), core.ErrNotFound)

	list, err = other.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemory_Backend(t *testing.T) {
	exerciseBackend(t, NewMemory())
}

func TestSQLite_Backend(t *testing.T) {
	s, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Ping(context.Background()))
	exerciseBackend(t, s)
}

func TestMemory_ListIsIsolated(t *testing.T) {
	ctx := context.Background()
	res := NewMemory().Resource("people")

	_, err := res.Create(ctx, core.Record{"name": "Ada"})
	require.NoError(t, err)

	list, err := res.List(ctx)
	require.NoError(t, err)
	list[0]["name"] = "mutated"

	list, err = res.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", list[0]["name"])
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	defs := []core.TableDefinition{
		{
			Info: core.TableInfo{Key: "teams"},
			Seed: []core.Record{
				{"name": "Core"},
				{"name": "Legacy", archivedField: true},
			},
		},
		{
			Info: core.TableInfo{Key: "static"},
			Rows: []core.Record{{"id": 1}},
			Seed: []core.Record{{"name": "ignored"}},
		},
	}

	require.NoError(t, Seed(ctx, m, defs))
	require.NoError(t, Seed(ctx, m, defs))

	teams, err := m.Resource("teams").List(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.False(t, teams[0].Archived(archivedField))
	assert.True(t, teams[1].Archived(archivedField))

	static, err := m.Resource("static").List(ctx)
	require.NoError(t, err)
	assert.Empty(t, static)
}
