package store

import (
	"context"
	"sync"
	"time"

	"github.com/JonMunkholm/crudtables/internal/core"
)

type memoryRow struct {
	id        int64
	data      []byte
	archived  bool
	createdAt time.Time
	updatedAt time.Time
}

// Memory keeps records in process memory. Safe for concurrent use.
// Rows are stored encoded, so callers never share maps with the store.
type Memory struct {
	mu     sync.RWMutex
	rows   map[string][]*memoryRow
	nextID int64
	now    func() time.Time
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		rows: make(map[string][]*memoryRow),
		now:  time.Now,
	}
}

// Resource implements core.ResourceProvider.
func (m *Memory) Resource(name string) core.Resource {
	return &memoryResource{store: m, name: name}
}

// Close implements Backend.
func (m *Memory) Close() error { return nil }

type memoryResource struct {
	store *Memory
	name  string
}

func (r *memoryResource) List(ctx context.Context) ([]core.Record, error) {
	m := r.store
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := m.rows[r.name]
	out := make([]core.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeRecord(row.id, row.data, row.archived)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *memoryResource) Create(ctx context.Context, data core.Record) (core.Record, error) {
	b, err := encodeData(data)
	if err != nil {
		return nil, err
	}

	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	now := m.now()
	row := &memoryRow{id: m.nextID, data: b, createdAt: now, updatedAt: now}
	m.rows[r.name] = append(m.rows[r.name], row)

	return decodeRecord(row.id, row.data, row.archived)
}

func (r *memoryResource) Update(ctx context.Context, id any, data core.Record) (core.Record, error) {
	key, err := parseID(id)
	if err != nil {
		return nil, err
	}
	b, err := encodeData(data)
	if err != nil {
		return nil, err
	}

	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()

	row := r.find(key)
	if row == nil {
		return nil, notFound(r.name, key)
	}
	row.data = b
	row.updatedAt = m.now()

	return decodeRecord(row.id, row.data, row.archived)
}

func (r *memoryResource) Delete(ctx context.Context, id any) error {
	key, err := parseID(id)
	if err != nil {
		return err
	}

	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.rows[r.name]
	for i, row := range rows {
		if row.id == key {
			m.rows[r.name] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return notFound(r.name, key)
}

func (r *memoryResource) Archive(ctx context.Context, id any) error {
	return r.setArchived(id, true)
}

func (r *memoryResource) Restore(ctx context.Context, id any) error {
	return r.setArchived(id, false)
}

func (r *memoryResource) setArchived(id any, archived bool) error {
	key, err := parseID(id)
	if err != nil {
		return err
	}

	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()

	row := r.find(key)
	if row == nil {
		return notFound(r.name, key)
	}
	row.archived = archived
	row.updatedAt = m.now()
	return nil
}

// find must be called with the lock held.
func (r *memoryResource) find(id int64) *memoryRow {
	for _, row := range r.store.rows[r.name] {
		if row.id == id {
			return row
		}
	}
	return nil
}
