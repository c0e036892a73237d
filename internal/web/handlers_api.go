package web

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/crudtables/internal/access"
	"github.com/JonMunkholm/crudtables/internal/core"
)

// TableSummary describes a registered table for API callers.
type TableSummary struct {
	Key        string `json:"key"`
	Group      string `json:"group"`
	Label      string `json:"label"`
	Resource   string `json:"resource"`
	Archivable bool   `json:"archivable"`
	Static     bool   `json:"static"`
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	defs := core.All()
	out := make([]TableSummary, 0, len(defs))
	for _, d := range defs {
		out = append(out, TableSummary{
			Key:        d.Info.Key,
			Group:      d.Info.Group,
			Label:      d.Title(),
			Resource:   d.ResourceName(),
			Archivable: d.Archivable,
			Static:     d.Rows != nil,
		})
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleColumns returns the column descriptors the caller would see.
func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	def, err := core.Lookup(key)
	if err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}

	granted, ok := access.FromContext(r.Context())
	if !ok {
		granted = s.granted
	}
	cols, err := def.Columns(granted, s.language)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"table":   key,
		"access":  granted.Strings(),
		"columns": cols,
	})
}

// handleAuditLog lists recent mutations, newest first. Optional query
// parameters: resource, limit.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	resource := r.URL.Query().Get("resource")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, r, errBadLimit, http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries := s.audit.Entries()
	out := make([]core.AuditEntry, 0, min(limit, len(entries)))
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		if resource != "" && entries[i].Resource != resource {
			continue
		}
		out = append(out, entries[i])
	}
	writeJSON(w, r, http.StatusOK, out)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// handleHealth reports liveness and, for database backends, connectivity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":   "ok",
		"tables":   core.TableCount(),
		"sessions": s.sessions.len(),
	}

	if p, ok := s.provider.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			body["status"] = "unavailable"
			body["error"] = core.MapError(err).Message
			writeJSON(w, r, http.StatusServiceUnavailable, body)
			return
		}
	}
	writeJSON(w, r, http.StatusOK, body)
}
