package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/crudtables/internal/core"
	"github.com/JonMunkholm/crudtables/internal/logging"
)

type sessionKey struct{}

func sessionFrom(ctx context.Context) *session {
	sess, _ := ctx.Value(sessionKey{}).(*session)
	return sess
}

// withRequestMeta adds the client IP, User-Agent and session for audit
// logging, and the session as a log attribute.
func withRequestMeta(ctx context.Context, r *http.Request, sessionID string) context.Context {
	ip := r.RemoteAddr
	if host, ok := clientHost(ip); ok {
		ip = host
	}
	ctx = core.ContextWithRequestMeta(ctx, core.RequestMeta{
		IPAddress: ip,
		UserAgent: r.UserAgent(),
		SessionID: sessionID,
	})
	return logging.WithAttrs(ctx, "session", sessionID)
}
