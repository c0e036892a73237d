package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/crudtables/internal/access"
	"github.com/JonMunkholm/crudtables/internal/core"
	"github.com/JonMunkholm/crudtables/internal/logging"
	"github.com/JonMunkholm/crudtables/internal/web/templates"
)

var errBadForm = errors.New("validation failed: malformed form body")

// tableHandler runs one user action against the session's table. The
// table is re-rendered afterwards unless it returns an error.
type tableHandler func(w http.ResponseWriter, r *http.Request, ts *tableState) error

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var groups []templates.TableGroup
	for _, g := range core.Groups() {
		group := templates.TableGroup{Name: g}
		for _, def := range core.ByGroup(g) {
			group.Tables = append(group.Tables, templates.TableCard{
				Key:      def.Info.Key,
				Label:    def.Title(),
				ReadOnly: def.Rows != nil,
			})
		}
		groups = append(groups, group)
	}
	render(w, r, http.StatusOK, templates.Dashboard(groups))
}

// handleTableView renders the page, or just the region for HTMX. A "sort"
// query parameter changes the order kept for the session.
func (s *Server) handleTableView(w http.ResponseWriter, r *http.Request) {
	s.tableAction(func(w http.ResponseWriter, r *http.Request, ts *tableState) error {
		q := r.URL.Query()
		if q.Has("sort") {
			ts.sort = q.Get("sort")
			ts.desc = q.Get("desc") == "true"
		}
		if !ts.fresh && !isHTMX(r) {
			ts.table.Refresh(r.Context())
		}
		return nil
	})(w, r)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, ts *tableState) error {
	if !ts.table.CanCreate() {
		return errForbidden
	}
	ts.table.Create()
	return nil
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request, ts *tableState) error {
	if !ts.table.Access().Has(access.Update) {
		return errForbidden
	}
	rec, err := findRecord(r, ts)
	if err != nil {
		return err
	}
	ts.table.Edit(rec)
	return nil
}

func (s *Server) handleHide(w http.ResponseWriter, r *http.Request, ts *tableState) error {
	ts.table.Hide()
	return nil
}

// handleStore submits the modal. Field errors stay in the modal; a busy
// modal is reported as a toast.
func (s *Server) handleStore(w http.ResponseWriter, r *http.Request, ts *tableState) error {
	need := access.Create
	if !ts.table.Editing().IsNew() {
		need = access.Update
	}
	if !ts.table.Access().Has(need) {
		return errForbidden
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", errBadForm, err)
	}

	err := ts.table.Submit(r.Context(), r.PostForm)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, core.ErrSubmitBusy):
		ts.bridge.Error(err.Error())
		return nil
	case core.IsValidationError(err):
		return nil
	default:
		return err
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, ts *tableState) error {
	if !ts.table.Access().Has(access.Delete) {
		return errForbidden
	}
	rec, err := findRecord(r, ts)
	if err != nil {
		return err
	}
	ts.table.Remove(r.Context(), rec)
	return nil
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request, ts *tableState) error {
	return s.toggle(r, ts, ts.table.Archive)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request, ts *tableState) error {
	return s.toggle(r, ts, ts.table.Restore)
}

// toggle archives or restores; both need the delete capability.
func (s *Server) toggle(r *http.Request, ts *tableState, op func(context.Context, core.Record) bool) error {
	if !ts.table.Access().Has(access.Delete) {
		return errForbidden
	}
	if !ts.table.Archivable() {
		return core.ErrArchiveUnsupported
	}
	rec, err := findRecord(r, ts)
	if err != nil {
		return err
	}
	op(r.Context(), rec)
	return nil
}

// tableAction resolves the session table, runs h and renders the result.
func (s *Server) tableAction(h tableHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		r = r.WithContext(logging.WithAttrs(r.Context(), "table", key))

		ts, err := s.openTable(r, key)
		if err != nil {
			respondError(w, r, err, statusFor(err))
			return
		}
		if err := h(w, r, ts); err != nil {
			respondError(w, r, err, statusFor(err))
			return
		}
		s.renderTable(w, r, ts)
	}
}

// openTable returns the session's table for key, building and loading it on
// first use or when the caller's capabilities changed.
func (s *Server) openTable(r *http.Request, key string) (*tableState, error) {
	sess := sessionFrom(r.Context())
	if sess == nil {
		return nil, errors.New("no session")
	}
	def, err := core.Lookup(key)
	if err != nil {
		return nil, err
	}

	granted, ok := access.FromContext(r.Context())
	if !ok {
		granted = s.granted
	}
	stamp := granted.String()
	confirmed := r.Method == http.MethodPost && r.PostFormValue("confirmed") == "true"

	if ts, ok := sess.tables[key]; ok && ts.granted == stamp {
		ts.fresh = false
		ts.bridge.begin(confirmed)
		return ts, nil
	}

	bridge := &requestBridge{}
	bridge.begin(confirmed)

	name := def.ResourceName()
	opts := def.Options(core.NewAuditedResource(name, s.provider.Resource(name), s.audit), bridge, bridge, granted)
	opts.Language = s.language

	t, err := core.NewEditableTable(opts)
	if err != nil {
		return nil, err
	}
	t.Initialize(r.Context())

	ts := &tableState{key: key, table: t, bridge: bridge, granted: stamp, fresh: true}
	sess.tables[key] = ts
	return ts, nil
}

// renderTable writes the table region with the request's toasts for HTMX
// callers and the full page otherwise. Plain form posts are redirected back
// to the page.
func (s *Server) renderTable(w http.ResponseWriter, r *http.Request, ts *tableState) {
	if r.Method != http.MethodGet && !isHTMX(r) {
		http.Redirect(w, r, templates.TablePath(ts.key), http.StatusSeeOther)
		return
	}

	t := ts.table
	records := t.Records()
	if ts.sort != "" {
		records = t.Sorted(ts.sort, ts.desc)
	}

	data := templates.TableData{
		Key:     ts.key,
		Title:   t.Title(),
		Access:  t.Access(),
		Columns: t.Columns(),
		Records: records,
		Actions: t.Actions,
		Sort:    ts.sort,
		Desc:    ts.desc,
	}
	if t.Archivable() {
		data.ArchivedField = t.ArchivedField()
	}
	if t.ModalOpen() {
		data.Modal = s.modal(templates.NewModalData(ts.key, t.Schema(), t.Modal()))
	}

	if isHTMX(r) {
		render(w, r, http.StatusOK, templates.TablePartial(data), templates.Toasts(ts.bridge.toasts))
		return
	}
	render(w, r, http.StatusOK, templates.TableView(data))
}

func findRecord(r *http.Request, ts *tableState) (core.Record, error) {
	id := chi.URLParam(r, "id")
	rec, ok := ts.table.Find(id)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", ts.key, id, core.ErrNotFound)
	}
	return rec, nil
}

// statusFor maps request-level errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrUnknownTable), errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrModalClosed):
		return http.StatusConflict
	case errors.Is(err, core.ErrArchiveUnsupported), errors.Is(err, errBadForm):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func render(w http.ResponseWriter, r *http.Request, status int, components ...templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templ.Join(components...).Render(r.Context(), w); err != nil {
		slog.WarnContext(r.Context(), "render failed", "error", err)
	}
}
