package core

import "context"

type contextKey string

const (
	ctxKeyIPAddress contextKey = "audit_ip"
	ctxKeyUserAgent contextKey = "audit_ua"
	ctxKeySession   contextKey = "audit_session"
)

// RequestMeta identifies who triggered a mutation.
type RequestMeta struct {
	IPAddress string
	UserAgent string
	SessionID string
}

// ContextWithRequestMeta attaches meta for audit logging.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	ctx = context.WithValue(ctx, ctxKeyIPAddress, meta.IPAddress)
	ctx = context.WithValue(ctx, ctxKeyUserAgent, meta.UserAgent)
	return context.WithValue(ctx, ctxKeySession, meta.SessionID)
}

// RequestMetaFromContext returns the attached meta; missing fields are empty.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	var meta RequestMeta
	meta.IPAddress, _ = ctx.Value(ctxKeyIPAddress).(string)
	meta.UserAgent, _ = ctx.Value(ctxKeyUserAgent).(string)
	meta.SessionID, _ = ctx.Value(ctxKeySession).(string)
	return meta
}
