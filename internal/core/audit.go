package core

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// AuditAction represents the type of mutation being audited.
type AuditAction string

const (
	AuditCreate  AuditAction = "record_create"
	AuditUpdate  AuditAction = "record_update"
	AuditDelete  AuditAction = "record_delete"
	AuditArchive AuditAction = "record_archive"
	AuditRestore AuditAction = "record_restore"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "low"
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// AuditEntry represents a single audited mutation.
type AuditEntry struct {
	Action    AuditAction    `json:"action"`
	Severity  AuditSeverity  `json:"severity"`
	Resource  string         `json:"resource"`
	RecordID  string         `json:"recordId,omitempty"`
	IPAddress string         `json:"ipAddress,omitempty"`
	UserAgent string         `json:"userAgent,omitempty"`
	SessionID string         `json:"sessionId,omitempty"`
	RowData   map[string]any `json:"rowData,omitempty"`
	Err       string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case AuditDelete:
		return SeverityHigh
	case AuditArchive, AuditRestore:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// AuditLog keeps the most recent audit entries in memory.
type AuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
	limit   int
}

// NewAuditLog returns a log retaining at most limit entries.
func NewAuditLog(limit int) *AuditLog {
	if limit <= 0 {
		limit = 500
	}
	return &AuditLog{limit: limit}
}

func (l *AuditLog) add(e AuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, e)
	if over := len(l.entries) - l.limit; over > 0 {
		l.entries = append([]AuditEntry(nil), l.entries[over:]...)
	}
}

// Entries returns the retained entries, newest last.
func (l *AuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]AuditEntry(nil), l.entries...)
}

// AuditedResource decorates a Resource, logging every mutation with the
// request metadata found in the context. List calls pass through.
type AuditedResource struct {
	name  string
	inner Resource
	log   *AuditLog
	now   func() time.Time
}

// NewAuditedResource wraps inner. log may be nil to only emit slog records.
func NewAuditedResource(name string, inner Resource, log *AuditLog) *AuditedResource {
	return &AuditedResource{name: name, inner: inner, log: log, now: time.Now}
}

func (a *AuditedResource) List(ctx context.Context) ([]Record, error) {
	return a.inner.List(ctx)
}

func (a *AuditedResource) Create(ctx context.Context, data Record) (Record, error) {
	rec, err := a.inner.Create(ctx, data)
	id := ""
	if rec != nil {
		id = rec.IDString()
	}
	a.record(ctx, AuditCreate, id, data, err)
	return rec, err
}

func (a *AuditedResource) Update(ctx context.Context, id any, data Record) (Record, error) {
	rec, err := a.inner.Update(ctx, id, data)
	a.record(ctx, AuditUpdate, idString(id), data, err)
	return rec, err
}

func (a *AuditedResource) Delete(ctx context.Context, id any) error {
	err := a.inner.Delete(ctx, id)
	a.record(ctx, AuditDelete, idString(id), nil, err)
	return err
}

// Archive forwards to the wrapped resource when it is an Archiver.
func (a *AuditedResource) Archive(ctx context.Context, id any) error {
	arch, ok := a.inner.(Archiver)
	if !ok {
		return ErrArchiveUnsupported
	}
	err := arch.Archive(ctx, id)
	a.record(ctx, AuditArchive, idString(id), nil, err)
	return err
}

// Restore forwards to the wrapped resource when it is an Archiver.
func (a *AuditedResource) Restore(ctx context.Context, id any) error {
	arch, ok := a.inner.(Archiver)
	if !ok {
		return ErrArchiveUnsupported
	}
	err := arch.Restore(ctx, id)
	a.record(ctx, AuditRestore, idString(id), nil, err)
	return err
}

func (a *AuditedResource) record(ctx context.Context, action AuditAction, id string, data Record, err error) {
	meta := RequestMetaFromContext(ctx)
	entry := AuditEntry{
		Action:    action,
		Severity:  determineSeverity(action),
		Resource:  a.name,
		RecordID:  id,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		SessionID: meta.SessionID,
		RowData:   data,
		CreatedAt: a.now(),
	}

	level := slog.LevelInfo
	if err != nil {
		entry.Err = err.Error()
		level = slog.LevelWarn
	}

	slog.Log(ctx, level, "audit",
		"action", entry.Action,
		"severity", entry.Severity,
		"resource", entry.Resource,
		"record_id", entry.RecordID,
		"ip", entry.IPAddress,
		"session", entry.SessionID,
		"error", entry.Err,
	)

	if a.log != nil {
		a.log.add(entry)
	}
}

func idString(id any) string {
	if id == nil {
		return ""
	}
	return Record{"id": id}.IDString()
}
