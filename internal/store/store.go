// Package store provides the record backends behind core.Resource: an
// in-memory store, SQLite and PostgreSQL.
//
// Every backend keeps all resources in one records table:
//
//	records(id, resource, data, archived, created_at, updated_at)
//
// data holds the record's fields as JSON; id and the archived flag live in
// their own columns and are merged back into the record on read.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/crudtables/internal/config"
	"github.com/JonMunkholm/crudtables/internal/core"
)

// Backend is a record store serving every named resource.
type Backend interface {
	core.ResourceProvider
	Close() error
}

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.DriverMemory, "":
		return NewMemory(), nil
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.URL)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// archivedField is the record key carrying the archived column.
const archivedField = core.DefaultArchivedField

// parseID converts a record id to the int64 primary key.
func parseID(id any) (int64, error) {
	switch v := id.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v == float64(int64(v)) {
			return int64(v), nil
		}
	case json.Number:
		return v.Int64()
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("invalid record id %v: %w", id, core.ErrNotFound)
}

// encodeData serializes the record's fields without id and archived flag.
func encodeData(data core.Record) ([]byte, error) {
	fields := make(map[string]any, len(data))
	for k, v := range data {
		if k == "id" || k == archivedField {
			continue
		}
		fields[k] = v
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return b, nil
}

// decodeRecord rebuilds a record from its columns.
func decodeRecord(id int64, data []byte, archived bool) (core.Record, error) {
	rec := core.Record{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decode record %d: %w", id, err)
		}
	}
	rec["id"] = id
	rec[archivedField] = archived
	return rec, nil
}

func notFound(resource string, id int64) error {
	return fmt.Errorf("%s %d: %w", resource, id, core.ErrNotFound)
}
