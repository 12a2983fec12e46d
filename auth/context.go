package auth

import "context"

type ctxKey int

const (
	userKey ctxKey = iota
	clientKey
)

// WithUser stores the staff principal in ctx.
func WithUser(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, userKey, p)
}

// UserFromContext returns the staff principal attached by Middleware.
func UserFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(userKey).(Principal)
	return p, ok && p.ID != ""
}

// WithClient stores the portal principal in ctx.
func WithClient(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, clientKey, p)
}

// ClientFromContext returns the portal principal attached by Middleware.
func ClientFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(clientKey).(Principal)
	return p, ok && p.ID != ""
}
