package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/crudtables/internal/config"
	"github.com/JonMunkholm/crudtables/internal/core"
	"github.com/JonMunkholm/crudtables/internal/schema"
	"github.com/JonMunkholm/crudtables/internal/store"
	"github.com/JonMunkholm/crudtables/internal/web/templates"
)

const peopleSchema = `{
  "properties": {
    "name": {"title": "Name", "type": "string"},
    "age":  {"title": "Age", "type": "integer"},
    "born": {"title": "Born", "type": "string", "format": "date"}
  },
  "required": ["name"]
}`

func registerTables(t *testing.T) {
	t.Helper()
	core.Clear()
	t.Cleanup(core.Clear)

	core.Register(core.TableDefinition{
		Info:       core.TableInfo{Key: "people", Group: "Test", Label: "People"},
		Schema:     schema.MustParseJSON(peopleSchema),
		Archivable: true,
	})
	core.Register(core.TableDefinition{
		Info:   core.TableInfo{Key: "colors", Group: "Test", Label: "Colors"},
		Schema: schema.MustParseJSON(`{"properties": {"name": {"title": "Name", "type": "string"}}}`),
		Rows:   []core.Record{{"id": 1, "name": "red"}, {"id": 2, "name": "blue"}},
	})
}

func newTestServer(t *testing.T, env map[string]string, provider core.ResourceProvider, opts ...Option) *Server {
	t.Helper()
	registerTables(t)

	cfg, err := config.LoadFrom(config.MapLookup(env))
	require.NoError(t, err)
	srv, err := NewServer(cfg, provider, opts...)
	require.NoError(t, err)
	return srv
}

func seedPeople(t *testing.T, m *store.Memory, names ...string) {
	t.Helper()
	for _, n := range names {
		_, err := m.Resource("people").Create(context.Background(), core.Record{"name": n, "age": 30})
		require.NoError(t, err)
	}
}

// client keeps the session cookie between requests like a browser.
type client struct {
	h       http.Handler
	cookies []*http.Cookie
	headers map[string]string
}

func newClient(s *Server) *client {
	return &client{h: s.Router(), headers: map[string]string{}}
}

func (c *client) do(method, path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	if cs := rec.Result().Cookies(); len(cs) > 0 {
		c.cookies = cs
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, path, nil, false)
}

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return c.do(http.MethodPost, path, form, true)
}

func list(t *testing.T, m *store.Memory, name string) []core.Record {
	t.Helper()
	recs, err := m.Resource(name).List(context.Background())
	require.NoError(t, err)
	return recs
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t, nil, store.NewMemory())

	rec := newClient(srv).get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `href="/tables/people"`)
	assert.Contains(t, body, "Colors")
	assert.Contains(t, body, "read-only")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestTableView_RendersRecordsAndSetsSession(t *testing.T) {
	mem := store.NewMemory()
	seedPeople(t, mem, "Ada", "Grace")
	srv := newTestServer(t, nil, mem)

	c := newClient(srv)
	rec := c.get("/tables/people")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, "Ada")
	assert.Contains(t, body, "Grace")
	assert.Contains(t, body, "create-button")
	assert.Contains(t, body, "archive-button archive-archive-button")
	assert.Contains(t, body, `hx-confirm="Delete record Ada?"`)
	assert.NotContains(t, body, "modal-title")

	require.Len(t, c.cookies, 1)
	assert.Equal(t, "crudtables_session", c.cookies[0].Name)
	assert.True(t, c.cookies[0].HttpOnly)
}

func TestTableView_UnknownTable(t *testing.T) {
	srv := newTestServer(t, nil, store.NewMemory())

	rec := newClient(srv).get("/tables/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "ACC004")
}

func TestTableView_Sorting(t *testing.T) {
	mem := store.NewMemory()
	seedPeople(t, mem, "Grace", "Ada")
	srv := newTestServer(t, nil, mem)
	c := newClient(srv)

	body := c.do(http.MethodGet, "/tables/people?sort=name", nil, true).Body.String()
	assert.Less(t, strings.Index(body, "Ada"), strings.Index(body, "Grace"))
	assert.NotContains(t, body, "<!DOCTYPE html>")

	body = c.do(http.MethodGet, "/tables/people?sort=name&desc=true", nil, true).Body.String()
	assert.Less(t, strings.Index(body, "Grace"), strings.Index(body, "Ada"))

	// The order sticks for later actions in the same session.
	body = c.post("/tables/people/create", nil).Body.String()
	assert.Less(t, strings.Index(body, "Grace"), strings.Index(body, "Ada"))
}

func TestCreateAndStore(t *testing.T) {
	mem := store.NewMemory()
	srv := newTestServer(t, nil, mem)
	c := newClient(srv)

	rec := c.post("/tables/people/create", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<h2 class="modal-title">Creating</h2>`)

	rec = c.post("/tables/people/store", url.Values{"name": {"Grace"}, "age": {"41"}, "born": {"1906-12-09"}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "modal-title")
	assert.Contains(t, body, "Grace")
	assert.Contains(t, body, "09.12.1906")
	assert.Contains(t, body, `hx-swap-oob="true"`)
	assert.Contains(t, body, "toast-success")

	recs := list(t, mem, "people")
	require.Len(t, recs, 1)
	assert.Equal(t, "Grace", recs[0]["name"])
}

func TestModal_DisablesSubmitWhileSaving(t *testing.T) {
	srv := newTestServer(t, nil, store.NewMemory())
	c := newClient(srv)

	rec := c.post("/tables/people/create", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, `hx-post="/tables/people/store" hx-target="#table-region" hx-swap="outerHTML" hx-disabled-elt="find button[type=submit]" hx-indicator="#modal-spinner">`)
	assert.Contains(t, body, `<span class="htmx-indicator spinner" aria-hidden="true" id="modal-spinner"></span>`)
	assert.Contains(t, body, `<button type="submit" class="save-button btn btn-primary">Save</button>`)
}

func TestStore_ValidationKeepsModalOpen(t *testing.T) {
	mem := store.NewMemory()
	srv := newTestServer(t, nil, mem)
	c := newClient(srv)

	c.post("/tables/people/create", nil)
	rec := c.post("/tables/people/store", url.Values{"name": {""}, "age": {"abc"}})
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "modal-title")
	assert.Contains(t, body, "field-error")
	assert.Contains(t, body, `value="abc"`)
	assert.NotContains(t, body, "toast-")
	assert.Empty(t, list(t, mem, "people"))
}

func TestStore_WithClosedModalConflicts(t *testing.T) {
	srv := newTestServer(t, nil, store.NewMemory())

	rec := newClient(srv).post("/tables/people/store", url.Values{"name": {"Ada"}})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

type failingProvider struct {
	*store.Memory
	err error
}

type failingResource struct {
	core.Resource
	err error
}

func (p failingProvider) Resource(name string) core.Resource {
	return failingResource{Resource: p.Memory.Resource(name), err: p.err}
}

func (r failingResource) Create(context.Context, core.Record) (core.Record, error) {
	return nil, r.err
}

func (r failingResource) Archive(ctx context.Context, id any) error {
	return r.Resource.(core.Archiver).Archive(ctx, id)
}

func (r failingResource) Restore(ctx context.Context, id any) error {
	return r.Resource.(core.Archiver).Restore(ctx, id)
}

func TestStore_FailureShowsToastAndKeepsInput(t *testing.T) {
	p := failingProvider{Memory: store.NewMemory(), err: errors.New(`duplicate key value violates unique constraint "people_pkey"`)}
	srv := newTestServer(t, nil, p)
	c := newClient(srv)

	c.post("/tables/people/create", nil)
	rec := c.post("/tables/people/store", url.Values{"name": {"Ada"}})
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "modal-title")
	assert.Contains(t, body, `value="Ada"`)
	assert.Contains(t, body, "toast-error")
	assert.Contains(t, body, "A record with this ID already exists")
	assert.Contains(t, body, "DB001")
}

type failingEngine struct{ err error }

func (e failingEngine) Validate(schema.FieldSchema, url.Values, map[string]any) (map[string]any, error) {
	return nil, e.err
}

func TestStore_EngineFailureIsNotValidation(t *testing.T) {
	srv := newTestServer(t, nil, store.NewMemory())
	core.Register(core.TableDefinition{
		Info:       core.TableInfo{Key: "broken", Group: "Test", Label: "Broken"},
		Schema:     schema.MustParseJSON(peopleSchema),
		FormEngine: failingEngine{err: context.DeadlineExceeded},
	})
	c := newClient(srv)

	c.post("/tables/broken/create", nil)
	rec := c.post("/tables/broken/store", url.Values{"name": {"Ada"}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "DB004")
}

func TestEdit(t *testing.T) {
	mem := store.NewMemory()
	seedPeople(t, mem, "Ada")
	srv := newTestServer(t, nil, mem)
	c := newClient(srv)
	c.get("/tables/people")

	id := list(t, mem, "people")[0].IDString()
	rec := c.post("/tables/people/edit/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<h2 class="modal-title">Editing</h2>`)
	assert.Contains(t, rec.Body.String(), `value="Ada"`)

	c.post("/tables/people/store", url.Values{"name": {"Ada L."}, "age": {"37"}})
	recs := list(t, mem, "people")
	require.Len(t, recs, 1)
	assert.Equal(t, "Ada L.", recs[0]["name"])

	assert.Equal(t, http.StatusNotFound, c.post("/tables/people/edit/999", nil).Code)
}

func TestHide_DiscardsModal(t *testing.T) {
	srv := newTestServer(t, nil, store.NewMemory())
	c := newClient(srv)

	c.post("/tables/people/create", nil)
	rec := c.post("/tables/people/hide", nil)
	assert.NotContains(t, rec.Body.String(), "modal-title")
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	mem := store.NewMemory()
	seedPeople(t, mem, "Ada")
	srv := newTestServer(t, nil, mem)
	c := newClient(srv)
	c.get("/tables/people")
	id := list(t, mem, "people")[0].IDString()

	rec := c.post("/tables/people/delete/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, list(t, mem, "people"), 1)
	assert.NotContains(t, rec.Body.String(), "toast-")

	rec = c.post("/tables/people/delete/"+id, url.Values{"confirmed": {"true"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, list(t, mem, "people"))
	assert.Contains(t, rec.Body.String(), "toast-success")
	assert.Contains(t, rec.Body.String(), "No records")
}

func TestArchiveAndRestore(t *testing.T) {
	mem := store.NewMemory()
	seedPeople(t, mem, "Ada")
	srv := newTestServer(t, nil, mem)
	c := newClient(srv)
	c.get("/tables/people")
	id := list(t, mem, "people")[0].IDString()

	rec := c.post("/tables/people/archive/"+id, url.Values{"confirmed": {"true"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, list(t, mem, "people")[0].Archived(core.DefaultArchivedField))
	assert.Contains(t, rec.Body.String(), `<tr class="archived">`)
	assert.Contains(t, rec.Body.String(), "archive-button archive-restore-button")

	rec = c.post("/tables/people/restore/"+id, url.Values{"confirmed": {"true"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, list(t, mem, "people")[0].Archived(core.DefaultArchivedField))

	// Static tables are not archivable.
	assert.Equal(t, http.StatusBadRequest, c.post("/tables/colors/archive/1", url.Values{"confirmed": {"true"}}).Code)
}

func TestAccess_ReadOnlyGrant(t *testing.T) {
	mem := store.NewMemory()
	seedPeople(t, mem, "Ada")
	srv := newTestServer(t, map[string]string{"ACCESS_GRANTED": "create"}, mem)
	c := newClient(srv)

	body := c.get("/tables/people").Body.String()
	assert.Contains(t, body, "create-button")
	assert.NotContains(t, body, "Actions")
	assert.NotContains(t, body, "delete-button")

	id := list(t, mem, "people")[0].IDString()
	rec := c.post("/tables/people/delete/"+id, url.Values{"confirmed": {"true"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "ACC001")
	assert.Len(t, list(t, mem, "people"), 1)
}

func TestAccess_KeyGrants(t *testing.T) {
	mem := store.NewMemory()
	seedPeople(t, mem, "Ada")
	srv := newTestServer(t, map[string]string{
		"REQUIRE_API_KEY":   "true",
		"ACCESS_KEY_GRANTS": "viewer=,editor=update",
	}, mem)

	anon := newClient(srv)
	assert.Equal(t, http.StatusUnauthorized, anon.get("/tables/people").Code)
	assert.Equal(t, http.StatusOK, anon.get("/healthz").Code)

	viewer := newClient(srv)
	viewer.headers["X-API-Key"] = "viewer"
	body := viewer.get("/tables/people").Body.String()
	assert.NotContains(t, body, "create-button")
	assert.NotContains(t, body, "edit-button")

	editor := newClient(srv)
	editor.headers["X-API-Key"] = "editor"
	body = editor.get("/tables/people").Body.String()
	assert.Contains(t, body, "edit-button")
	assert.NotContains(t, body, "delete-button")
}

func TestSessionsAreIsolated(t *testing.T) {
	srv := newTestServer(t, nil, store.NewMemory())
	a := newClient(srv)
	b := newClient(srv)

	assert.Contains(t, a.post("/tables/people/create", nil).Body.String(), "modal-title")
	assert.NotContains(t, b.do(http.MethodGet, "/tables/people", nil, true).Body.String(), "modal-title")
	assert.Contains(t, a.do(http.MethodGet, "/tables/people", nil, true).Body.String(), "modal-title")
	assert.NotEqual(t, a.cookies[0].Value, b.cookies[0].Value)
}

func TestPlainPostRedirects(t *testing.T) {
	srv := newTestServer(t, nil, store.NewMemory())
	rec := newClient(srv).do(http.MethodPost, "/tables/people/create", url.Values{}, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/tables/people", rec.Header().Get("Location"))
}

func TestStaticTable(t *testing.T) {
	srv := newTestServer(t, nil, store.NewMemory())
	body := newClient(srv).get("/tables/colors").Body.String()
	assert.Contains(t, body, "red")
	assert.Contains(t, body, "blue")
}

func TestModalRendererOverride(t *testing.T) {
	custom := func(d templates.ModalData) templ.Component {
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			_, err := io.WriteString(w, "<div>custom "+d.Title+"</div>")
			return err
		})
	}
	srv := newTestServer(t, nil, store.NewMemory(), WithModalRenderer(custom))

	body := newClient(srv).post("/tables/people/create", nil).Body.String()
	assert.Contains(t, body, "custom Creating")
	assert.NotContains(t, body, "modal-title")
}

func TestColumnsAPI(t *testing.T) {
	srv := newTestServer(t, nil, store.NewMemory())

	rec := newClient(srv).get("/api/tables/people/columns")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Table   string            `json:"table"`
		Columns []core.ColumnInfo `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Columns, 5)
	assert.Equal(t, "#", body.Columns[0].Title)
	assert.Equal(t, "Name", body.Columns[1].Title)
	assert.Equal(t, "date", body.Columns[3].Type)
	assert.Equal(t, "actions", body.Columns[4].Kind)

	rec = newClient(srv).get("/api/tables/nope/columns")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestListTablesAPI(t *testing.T) {
	srv := newTestServer(t, nil, store.NewMemory())

	var tables []TableSummary
	require.NoError(t, json.Unmarshal(newClient(srv).get("/api/tables").Body.Bytes(), &tables))
	require.Len(t, tables, 2)
	assert.Equal(t, "colors", tables[0].Key)
	assert.True(t, tables[0].Static)
	assert.True(t, tables[1].Archivable)
}

func TestAuditAPI(t *testing.T) {
	mem := store.NewMemory()
	srv := newTestServer(t, nil, mem)
	c := newClient(srv)

	c.post("/tables/people/create", nil)
	c.post("/tables/people/store", url.Values{"name": {"Ada"}})

	var entries []core.AuditEntry
	require.NoError(t, json.Unmarshal(c.get("/api/audit?resource=people").Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, core.AuditCreate, entries[0].Action)
	assert.Equal(t, c.cookies[0].Value, entries[0].SessionID)
	assert.Equal(t, "192.0.2.1", entries[0].IPAddress)

	assert.Equal(t, http.StatusBadRequest, c.get("/api/audit?limit=-1").Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil, store.NewMemory())

	rec := newClient(srv).get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, map[string]string{"RATE_LIMIT_REQUESTS_PER_MINUTE": "2"}, store.NewMemory())
	c := newClient(srv)

	assert.Equal(t, http.StatusOK, c.get("/healthz").Code)
	assert.Equal(t, http.StatusOK, c.get("/healthz").Code)
	rec := c.get("/healthz")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
}

func TestSessionStore_Expire(t *testing.T) {
	st := newSessionStore(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }

	old := st.create()
	now = now.Add(45 * time.Second)
	fresh := st.create()

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, st.expire())

	_, ok := st.get(old.id)
	assert.False(t, ok)
	_, ok = st.get(fresh.id)
	assert.True(t, ok)
	assert.Equal(t, 1, st.len())
}

func TestRateLimiter_Prune(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.allow("a"))

	now = now.Add(3 * time.Minute)
	assert.Equal(t, 1, rl.prune())
}

func TestRateLimiter_RefillsPerToken(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("a"))
	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))
	assert.True(t, rl.allow("b"))

	// One token comes back every 30s.
	now = now.Add(31 * time.Second)
	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))
}

func TestJanitorStopsOnCancel(t *testing.T) {
	srv := newTestServer(t, nil, store.NewMemory())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		srv.runJanitor(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
