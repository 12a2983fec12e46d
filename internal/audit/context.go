package audit

import (
	"context"

	"github.com/diewo77/go-lawfirm/auth"
)

// Actor identifies who performed an audited action. Staff actions carry the user,
// portal actions carry the client.
type Actor struct {
	UserID      string
	UserEmail   string
	ClientID    string
	ClientEmail string
	IP          string
	UserAgent   string
}

type requestMeta struct {
	ip        string
	userAgent string
}

type metaKey struct{}

// WithRequest stores the caller's address and user agent in ctx.
func WithRequest(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, metaKey{}, requestMeta{ip: ip, userAgent: userAgent})
}

// ActorFrom builds the actor from the session principals and request metadata in ctx.
// Unauthenticated contexts yield an actor with only IP and user agent.
func ActorFrom(ctx context.Context) Actor {
	var a Actor
	if p, ok := auth.UserFromContext(ctx); ok {
		a.UserID, a.UserEmail = p.ID, p.Email
	}
	if p, ok := auth.ClientFromContext(ctx); ok {
		a.ClientID, a.ClientEmail = p.ID, p.Email
	}
	if m, ok := ctx.Value(metaKey{}).(requestMeta); ok {
		a.IP, a.UserAgent = m.ip, m.userAgent
	}
	return a
}
