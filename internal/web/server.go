// Package web serves the admin CRUD screens over HTTP with HTMX.
//
// Every browser session owns one core.EditableTable per table key. Requests
// of a session are serialized by the session's mutex, which keeps each table
// single-owner.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/JonMunkholm/crudtables/internal/access"
	"github.com/JonMunkholm/crudtables/internal/config"
	"github.com/JonMunkholm/crudtables/internal/core"
	mw "github.com/JonMunkholm/crudtables/internal/web/middleware"
	"github.com/JonMunkholm/crudtables/internal/web/templates"
)

// Server is the HTTP server for the admin screens.
type Server struct {
	cfg      *config.Config
	provider core.ResourceProvider
	audit    *core.AuditLog
	sessions *sessionStore
	limiter  *rateLimiter
	granted  access.Set
	keys     map[string]access.Set
	language language.Tag
	modal    templates.ModalRenderer

	router *chi.Mux
	server *http.Server
}

// Option customizes a Server.
type Option func(*Server)

// WithModalRenderer replaces the stock create/edit dialog.
func WithModalRenderer(r templates.ModalRenderer) Option {
	return func(s *Server) { s.modal = r }
}

// WithAuditLog shares an audit log with the caller.
func WithAuditLog(l *core.AuditLog) Option {
	return func(s *Server) { s.audit = l }
}

// NewServer wires the router. provider serves the records of every
// registered table.
func NewServer(cfg *config.Config, provider core.ResourceProvider, opts ...Option) (*Server, error) {
	grants, err := cfg.Access.ParseKeyGrants()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		provider: provider,
		sessions: newSessionStore(cfg.Session.IdleTimeout),
		limiter:  newRateLimiter(cfg.Rate.RequestsPerMinute, time.Minute),
		granted:  access.FromStrings(cfg.Access.Granted),
		keys:     make(map[string]access.Set, len(grants)),
		language: cfg.Locale.LanguageTag(),
		modal:    templates.RecordModal,
		router:   chi.NewRouter(),
	}
	for key, caps := range grants {
		s.keys[key] = access.Parse(caps)
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.audit == nil {
		s.audit = core.NewAuditLog(0)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(s.securityHeaders)

	if s.cfg.Rate.Enabled {
		s.router.Use(s.limiter.middleware)
	}

	// Keys with their own grants authenticate as well.
	keys := append([]string(nil), s.cfg.Security.APIKeys...)
	for k := range s.keys {
		keys = append(keys, k)
	}
	s.router.Use(mw.APIKeyAuth(s.cfg.Security.RequireAPIKey, keys, "/healthz"))
	s.router.Use(mw.Grants(s.granted, s.keys))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/", s.handleDashboard)

	s.router.Route("/tables/{key}", func(r chi.Router) {
		r.Use(s.withSession)

		r.Get("/", s.handleTableView)
		r.Post("/create", s.tableAction(s.handleCreate))
		r.Post("/edit/{id}", s.tableAction(s.handleEdit))
		r.Post("/hide", s.tableAction(s.handleHide))
		r.Post("/store", s.tableAction(s.handleStore))
		r.Post("/delete/{id}", s.tableAction(s.handleDelete))
		r.Post("/archive/{id}", s.tableAction(s.handleArchive))
		r.Post("/restore/{id}", s.tableAction(s.handleRestore))
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/tables", s.handleListTables)
		r.Get("/tables/{key}/columns", s.handleColumns)
		r.Get("/audit", s.handleAuditLog)
	})
}

// Start listens until ctx is cancelled or the server fails. The session
// janitor runs for the same lifetime.
func (s *Server) Start(ctx context.Context) error {
	addr := s.cfg.Server.Addr()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	go s.runJanitor(ctx, s.cfg.Session.JanitorInterval)

	slog.Info("starting server", "addr", addr, "tables", core.TableCount())
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if s.cfg.Security.EnableCSP {
			// htmx is served from unpkg; inline styles are used by the templates.
			h.Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimiter keeps a token bucket per client IP. Each bucket holds rate
// tokens and refills rate tokens per window.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(n int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     n,
		window:   window,
		now:      time.Now,
	}
}

// allow consumes a token from ip's bucket if one is available.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(rl.refill()), rl.rate)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// refill is the time it takes one token to come back.
func (rl *rateLimiter) refill() time.Duration {
	if rl.rate <= 0 {
		return rl.window
	}
	return rl.window / time.Duration(rl.rate)
}

// prune drops visitors idle for two windows and reports how many it removed.
func (rl *rateLimiter) prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	n := 0
	now := rl.now()
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.window*2 {
			delete(rl.visitors, ip)
			n++
		}
	}
	return n
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// RemoteAddr was already rewritten by TrustedRealIP when applicable.
		ip := r.RemoteAddr
		if host, ok := clientHost(ip); ok {
			ip = host
		}
		if !rl.allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(rl.refill().Seconds()))))
			respondError(w, r, errRateLimited, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON. Encoding errors are only logged since the
// header is already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.WarnContext(r.Context(), "json encode error", "error", err)
	}
}
