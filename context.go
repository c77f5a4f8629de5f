package phoneauth

import "context"

type contextKey int

const (
	clientIPKey contextKey = iota
	userIDKey
)

// WithClientIP attaches the caller's IP to the context so audit events
// and the request throttle can see it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

func clientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}

// WithUserID attaches an authenticated user ID to the context. Used by
// the middleware after a successful Authenticate.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext returns the authenticated user ID placed by the
// middleware, or false when the request is anonymous.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}
