package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/JonMunkholm/crudtables/internal/core"
)

// SQLite stores records in a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the
// records table exists. Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes
	// writers.
	db.SetMaxOpenConns(1)

	s, err := NewSQLite(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLite wraps an open database and creates the schema.
func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	s := &SQLite{db: db}
	if err := s.initTables(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLite) initTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			resource TEXT NOT NULL,
			data TEXT NOT NULL DEFAULT '{}',
			archived INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_resource ON records(resource, id)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("init sqlite schema: %w", err)
		}
	}
	return nil
}

// Resource implements core.ResourceProvider.
func (s *SQLite) Resource(name string) core.Resource {
	return &sqliteResource{db: s.db, name: name}
}

// Close implements Backend.
func (s *SQLite) Close() error {
	return s.db.Close()
}

type sqliteResource struct {
	db   *sql.DB
	name string
}

func (r *sqliteResource) List(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, data, archived FROM records WHERE resource = ? ORDER BY id`, r.name)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.name, err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		var (
			id       int64
			data     string
			archived bool
		)
		if err := rows.Scan(&id, &data, &archived); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.name, err)
		}
		rec, err := decodeRecord(id, []byte(data), archived)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *sqliteResource) Create(ctx context.Context, data core.Record) (core.Record, error) {
	b, err := encodeData(data)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO records (resource, data) VALUES (?, ?)`, r.name, string(b))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", r.name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", r.name, err)
	}
	return decodeRecord(id, b, false)
}

func (r *sqliteResource) Update(ctx context.Context, id any, data core.Record) (core.Record, error) {
	key, err := parseID(id)
	if err != nil {
		return nil, err
	}
	b, err := encodeData(data)
	if err != nil {
		return nil, err
	}

	var archived bool
	err = r.db.QueryRowContext(ctx,
		`UPDATE records SET data = ?, updated_at = ? WHERE resource = ? AND id = ? RETURNING archived`,
		string(b), time.Now().UTC(), r.name, key).Scan(&archived)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(r.name, key)
	}
	if err != nil {
		return nil, fmt.Errorf("update %s %d: %w", r.name, key, err)
	}
	return decodeRecord(key, b, archived)
}

func (r *sqliteResource) Delete(ctx context.Context, id any) error {
	key, err := parseID(id)
	if err != nil {
		return err
	}
	return r.exec(ctx, key, "delete",
		`DELETE FROM records WHERE resource = ? AND id = ?`, r.name, key)
}

func (r *sqliteResource) Archive(ctx context.Context, id any) error {
	return r.setArchived(ctx, id, true)
}

func (r *sqliteResource) Restore(ctx context.Context, id any) error {
	return r.setArchived(ctx, id, false)
}

func (r *sqliteResource) setArchived(ctx context.Context, id any, archived bool) error {
	key, err := parseID(id)
	if err != nil {
		return err
	}
	op := "archive"
	if !archived {
		op = "restore"
	}
	return r.exec(ctx, key, op,
		`UPDATE records SET archived = ?, updated_at = ? WHERE resource = ? AND id = ?`,
		archived, time.Now().UTC(), r.name, key)
}

// exec runs a single-row statement, mapping zero affected rows to ErrNotFound.
func (r *sqliteResource) exec(ctx context.Context, key int64, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s %s %d: %w", op, r.name, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s %d: %w", op, r.name, key, err)
	}
	if n == 0 {
		return notFound(r.name, key)
	}
	return nil
}

// Ping checks the connection.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
