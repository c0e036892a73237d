package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/crudtables/internal/core"
)

// tableState is one session's table together with its per-request
// notifier/confirmer bridge.
type tableState struct {
	key     string
	table   *core.EditableTable
	bridge  *requestBridge
	granted string

	sort string
	desc bool

	// fresh is set on the request that built the table.
	fresh bool
}

// session holds the tables a browser has opened. mu is held for the whole
// of every table request.
type session struct {
	id     string
	mu     sync.Mutex
	tables map[string]*tableState
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	lastSeen map[string]time.Time
	idle     time.Duration
	now      func() time.Time
}

func newSessionStore(idle time.Duration) *sessionStore {
	return &sessionStore{
		sessions: make(map[string]*session),
		lastSeen: make(map[string]time.Time),
		idle:     idle,
		now:      time.Now,
	}
}

// get returns the live session with id and marks it as seen.
func (st *sessionStore) get(id string) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[id]
	if ok {
		st.lastSeen[id] = st.now()
	}
	return sess, ok
}

func (st *sessionStore) create() *session {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess := &session{id: uuid.NewString(), tables: make(map[string]*tableState)}
	st.sessions[sess.id] = sess
	st.lastSeen[sess.id] = st.now()
	return sess
}

// expire drops sessions idle for longer than the idle timeout.
func (st *sessionStore) expire() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	n := 0
	cutoff := st.now().Add(-st.idle)
	for id, seen := range st.lastSeen {
		if seen.Before(cutoff) {
			delete(st.sessions, id)
			delete(st.lastSeen, id)
			n++
		}
	}
	return n
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// runJanitor expires idle sessions and stale rate-limit entries every
// interval until ctx is cancelled.
func (s *Server) runJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	slog.Info("session janitor started", "interval", interval, "idle_timeout", s.sessions.idle)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session janitor stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Server) sweep(ctx context.Context) {
	sessions := s.sessions.expire()
	visitors := s.limiter.prune()
	if sessions > 0 || visitors > 0 {
		slog.DebugContext(ctx, "janitor sweep",
			"sessions_expired", sessions,
			"visitors_pruned", visitors,
			"sessions_live", s.sessions.len(),
		)
	}
}

// withSession resolves or starts the caller's session, locks it for the
// rest of the request and records the request metadata used by auditing.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *session
		if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
			sess, _ = s.sessions.get(c.Value)
		}
		if sess == nil {
			sess = s.sessions.create()
			http.SetCookie(w, &http.Cookie{
				Name:     s.cfg.Session.CookieName,
				Value:    sess.id,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cfg.Session.Secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		sess.mu.Lock()
		defer sess.mu.Unlock()

		ctx := withRequestMeta(r.Context(), r, sess.id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionKey{}, sess)))
	})
}
