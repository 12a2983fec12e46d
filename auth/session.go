// Package auth issues and verifies session cookies for staff users and portal clients.
//
// A session is a signed JWT (HS256) stored in an HttpOnly cookie. Staff and portal
// sessions live in different cookies and carry a scope claim, so a portal token can
// never be replayed as a staff session. Each session embeds a CSRF token that
// state-changing requests must echo back.
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Scope separates staff sessions from client portal sessions.
type Scope string

const (
	ScopeStaff  Scope = "staff"
	ScopePortal Scope = "portal"
)

const (
	SessionCookie = "session"
	PortalCookie  = "portal_session"
	CSRFHeader    = "X-CSRF-Token"
	CSRFField     = "_csrf"
)

// ErrInvalidSession is returned for tokens that are malformed, expired, badly signed
// or issued for another scope.
var ErrInvalidSession = errors.New("auth: invalid session")

// Principal is the authenticated subject of a session. For portal sessions ID is the
// client identifier and Role is empty.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	Scope Scope  `json:"scope"`
	CSRF  string `json:"csrf_token"`
}

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	Scope Scope  `json:"scope"`
	CSRF  string `json:"csrf"`
	jwt.RegisteredClaims
}

// Manager signs and parses session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time

	// VerifyUser and VerifyClient, when set, are consulted on every request so that a
	// session for a deleted user or a client whose portal access was revoked stops working.
	VerifyUser   Verifier
	VerifyClient Verifier
}

// NewManager returns a Manager signing with secret. A zero ttl defaults to 8 hours.
func NewManager(secret string, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}
}

// SetClock replaces the time source, for tests.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// Issue signs a token for p. A CSRF token is generated when p has none.
func (m *Manager) Issue(p Principal) (string, Principal, error) {
	if p.CSRF == "" {
		tok, err := NewToken(32)
		if err != nil {
			return "", p, err
		}
		p.CSRF = tok
	}
	now := m.now()
	c := claims{
		Email: p.Email,
		Role:  p.Role,
		Scope: p.Scope,
		CSRF:  p.CSRF,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", p, err
	}
	return signed, p, nil
}

// Parse validates token and checks that it was issued for scope.
func (m *Manager) Parse(token string, scope Scope) (Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return Principal{}, ErrInvalidSession
	}
	if c.Scope != scope || c.Subject == "" {
		return Principal{}, ErrInvalidSession
	}
	return Principal{ID: c.Subject, Email: c.Email, Role: c.Role, Scope: c.Scope, CSRF: c.CSRF}, nil
}

// CreateSession issues a token for p and stores it in the cookie of p's scope.
// The returned Principal carries the CSRF token the client must send back.
func (m *Manager) CreateSession(w http.ResponseWriter, p Principal) (Principal, error) {
	token, p, err := m.Issue(p)
	if err != nil {
		return p, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName(p.Scope),
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  m.now().Add(m.ttl),
	})
	return p, nil
}

// ClearSession deletes the cookie of scope.
func (m *Manager) ClearSession(w http.ResponseWriter, scope Scope) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName(scope),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ParseRequest reads and validates the session cookie of scope.
func (m *Manager) ParseRequest(r *http.Request, scope Scope) (Principal, bool) {
	c, err := r.Cookie(cookieName(scope))
	if err != nil || c.Value == "" {
		return Principal{}, false
	}
	p, err := m.Parse(c.Value, scope)
	if err != nil {
		return Principal{}, false
	}
	return p, true
}

func cookieName(scope Scope) string {
	if scope == ScopePortal {
		return PortalCookie
	}
	return SessionCookie
}
