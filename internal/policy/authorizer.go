// Package policy maps staff roles to gate profiles and guards routes with them.
package policy

import (
	"context"
	"errors"
	"net/http"

	"github.com/diewo77/go-lawfirm/auth"
	"github.com/diewo77/go-lawfirm/gate"
	"github.com/diewo77/go-lawfirm/httpx"
	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/models"
)

// Authorizer is the central authorization point for staff requests.
type Authorizer struct {
	Gate *gate.Gate[auth.Principal]
}

// NewAuthorizer resolves principals by role through the fixed role table.
func NewAuthorizer() *Authorizer {
	profiles := Profiles()
	g := gate.New[auth.Principal](gate.ResolverFunc[auth.Principal](func(_ context.Context, p auth.Principal) (gate.Profile, error) {
		if p.Scope != auth.ScopeStaff {
			return nil, nil
		}
		return profiles[p.Role], nil
	}))
	g.Register(ResourceUser, gate.PolicyFunc[auth.Principal](notSelf))
	return &Authorizer{Gate: g}
}

// notSelf forbids deleting one's own account.
func notSelf(_ context.Context, p auth.Principal, action gate.Action, resource any) bool {
	u, ok := resource.(*models.User)
	return !ok || action != gate.ActionDelete || u.ID != p.ID
}

// Authorize checks the current staff principal. Errors are apperr sentinels so
// handlers can pass them to httpx.Error.
func (a *Authorizer) Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error {
	p, _ := auth.UserFromContext(ctx)
	err := a.Gate.Authorize(ctx, p, action, resourceType, resource)
	switch {
	case errors.Is(err, gate.ErrUnauthorized):
		return apperr.ErrUnauthorized
	case errors.Is(err, gate.ErrForbidden):
		return apperr.ErrForbidden
	}
	return err
}

// Can reports whether the current principal holds the permission, ignoring policies.
func (a *Authorizer) Can(ctx context.Context, action gate.Action, resourceType string) bool {
	p, _ := auth.UserFromContext(ctx)
	return a.Gate.CanProfile(ctx, p, action, resourceType)
}

// Permissions lists what the current principal may do, for the session endpoint.
func (a *Authorizer) Permissions(ctx context.Context) []gate.Permission {
	p, _ := auth.UserFromContext(ctx)
	prof := a.Gate.Profile(ctx, p)
	if prof == nil {
		return nil
	}
	return prof.Permissions()
}

// Require returns middleware answering 401 without a staff session and 403 when
// the role lacks the permission.
func (a *Authorizer) Require(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := a.Authorize(r.Context(), action, resourceType, nil); err != nil {
				httpx.Error(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin lets only holders of the super permission through.
func (a *Authorizer) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.UserFromContext(r.Context())
			if !ok {
				httpx.Error(w, apperr.ErrUnauthorized)
				return
			}
			prof := a.Gate.Profile(r.Context(), p)
			if prof == nil || !prof.HasPermission(gate.PermissionSuperAdmin) {
				httpx.Error(w, apperr.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
