package auth

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/diewo77/go-lawfirm/httpx"
)

// Verifier reports whether the subject of a valid token is still allowed in.
type Verifier func(ctx context.Context, p Principal) bool

// Middleware attaches staff and portal principals to the request context when the
// corresponding cookies are valid. Sessions rejected by a verifier are cleared.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if p, ok := m.ParseRequest(r, ScopeStaff); ok {
			if m.VerifyUser == nil || m.VerifyUser(ctx, p) {
				ctx = WithUser(ctx, p)
			} else {
				m.ClearSession(w, ScopeStaff)
			}
		}
		if p, ok := m.ParseRequest(r, ScopePortal); ok {
			if m.VerifyClient == nil || m.VerifyClient(ctx, p) {
				ctx = WithClient(ctx, p)
			} else {
				m.ClearSession(w, ScopePortal)
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects requests without a staff session with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePortal rejects requests without a portal session with 401.
func RequirePortal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClientFromContext(r.Context()); !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCSRF checks that unsafe requests echo the CSRF token of the session in the
// X-CSRF-Token header or the _csrf form field. Requests without any session pass
// through; authentication is enforced separately.
func RequireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		var expected []string
		if p, ok := UserFromContext(r.Context()); ok {
			expected = append(expected, p.CSRF)
		}
		if p, ok := ClientFromContext(r.Context()); ok {
			expected = append(expected, p.CSRF)
		}
		if len(expected) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		got := r.Header.Get(CSRFHeader)
		if got == "" {
			got = r.FormValue(CSRFField)
		}
		for _, want := range expected {
			if got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
		}
		httpx.JSONError(w, http.StatusForbidden, "csrf_token_invalid", nil)
	})
}
