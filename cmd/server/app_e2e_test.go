package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-lawfirm/internal/config"
	"github.com/diewo77/go-lawfirm/internal/db"
	"github.com/diewo77/go-lawfirm/internal/db/dbtest"
	"github.com/diewo77/go-lawfirm/internal/storage"
	"go.uber.org/zap"
)

const adminPassword = "Admin123!"

func setupE2EApp(t *testing.T) *App {
	t.Helper()
	conn := dbtest.Open(t)
	cfg := &config.Config{}
	cfg.Session = config.SessionConfig{Secret: "e2e-secret", TTL: time.Hour}
	cfg.Server.LoginRate = 100
	cfg.Log.Service = "lawfirm-test"
	cfg.Billing = config.BillingConfig{VATRate: 0.18, Currency: "TRY"}
	cfg.Admin = config.AdminConfig{Email: "admin@example.com", Password: adminPassword}
	if _, err := db.EnsureAdmin(t.Context(), conn, cfg.Admin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	files, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	return NewApp(conn, cfg, zap.NewNop(), Backends{Storage: files})
}

// browser carries cookies and the CSRF token between requests.
type browser struct {
	t       *testing.T
	app     *App
	cookies map[string]*http.Cookie
	csrf    string
}

func newBrowser(t *testing.T, app *App) *browser {
	return &browser{t: t, app: app, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(method, path string, body any) *httptest.ResponseRecorder {
	b.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			b.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if b.csrf != "" {
		req.Header.Set("X-CSRF-Token", b.csrf)
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	b.app.ServeHTTP(rr, req)
	for _, c := range rr.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rr
}

func (b *browser) login(path, email, password string) {
	b.t.Helper()
	rr := b.do(http.MethodPost, path, map[string]string{"email": email, "password": password})
	if rr.Code != http.StatusOK {
		b.t.Fatalf("login %s: expected 200 got %d body=%s", email, rr.Code, rr.Body.String())
	}
	var sess struct {
		CSRFToken string `json:"csrf_token"`
	}
	decodeBody(b.t, rr, &sess)
	if sess.CSRFToken == "" {
		b.t.Fatalf("login %s: no csrf token", email)
	}
	b.csrf = sess.CSRFToken
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected %d got %d body=%s", want, rr.Code, rr.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	app := setupE2EApp(t)
	rr := newBrowser(t, app).do(http.MethodGet, "/healthz", nil)
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `"database":"up"`) {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestAPIRequiresSession(t *testing.T) {
	app := setupE2EApp(t)
	b := newBrowser(t, app)
	expectStatus(t, b.do(http.MethodGet, "/api/clients", nil), http.StatusUnauthorized)
	expectStatus(t, b.do(http.MethodGet, "/api/portal/matters", nil), http.StatusUnauthorized)

	rr := b.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "admin@example.com", "password": "wrong"})
	expectStatus(t, rr, http.StatusUnauthorized)
}

func TestStaffFlowE2E(t *testing.T) {
	app := setupE2EApp(t)
	admin := newBrowser(t, app)
	admin.login("/api/auth/login", "ADMIN@example.com", adminPassword)

	rr := admin.do(http.MethodGet, "/api/auth/session", nil)
	expectStatus(t, rr, http.StatusOK)
	var sess struct {
		Role        string   `json:"role"`
		Permissions []string `json:"permissions"`
	}
	decodeBody(t, rr, &sess)
	if sess.Role != "Admin" || len(sess.Permissions) == 0 {
		t.Fatalf("unexpected session %+v", sess)
	}

	// Unsafe requests without the token are refused.
	token := admin.csrf
	admin.csrf = ""
	expectStatus(t, admin.do(http.MethodPost, "/api/clients", map[string]string{"name": "X", "email": "x@example.com"}), http.StatusForbidden)
	admin.csrf = token

	rr = admin.do(http.MethodPost, "/api/clients", map[string]string{"name": "Ayşe Yılmaz", "email": "ayse@example.com"})
	expectStatus(t, rr, http.StatusCreated)
	var client struct {
		ID string `json:"id"`
	}
	decodeBody(t, rr, &client)

	rr = admin.do(http.MethodPost, "/api/clients", map[string]string{"name": "", "email": "nope"})
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	if !strings.Contains(rr.Body.String(), `"validation_failed"`) {
		t.Fatalf("expected validation error body, got %s", rr.Body.String())
	}

	rr = admin.do(http.MethodPost, "/api/clients", map[string]string{"name": "Dup", "email": "ayse@example.com"})
	expectStatus(t, rr, http.StatusConflict)

	rr = admin.do(http.MethodGet, "/api/clients/"+client.ID, nil)
	expectStatus(t, rr, http.StatusOK)
	expectStatus(t, admin.do(http.MethodGet, "/api/clients/missing", nil), http.StatusNotFound)

	rr = admin.do(http.MethodPost, "/api/users", map[string]string{
		"email": "assoc@example.com", "name": "Associate", "role": "Associate", "password": "Secret123!",
	})
	expectStatus(t, rr, http.StatusCreated)

	assoc := newBrowser(t, app)
	assoc.login("/api/auth/login", "assoc@example.com", "Secret123!")
	expectStatus(t, assoc.do(http.MethodGet, "/api/clients", nil), http.StatusOK)
	expectStatus(t, assoc.do(http.MethodDelete, "/api/clients/"+client.ID, nil), http.StatusForbidden)
	expectStatus(t, assoc.do(http.MethodGet, "/api/users", nil), http.StatusForbidden)
	expectStatus(t, assoc.do(http.MethodGet, "/api/audit-logs", nil), http.StatusForbidden)

	expectStatus(t, admin.do(http.MethodGet, "/api/audit-logs", nil), http.StatusOK)

	expectStatus(t, assoc.do(http.MethodPost, "/api/auth/logout", nil), http.StatusNoContent)
	expectStatus(t, assoc.do(http.MethodGet, "/api/clients", nil), http.StatusUnauthorized)
}

func TestRoleChangeEndsSessions(t *testing.T) {
	app := setupE2EApp(t)
	admin := newBrowser(t, app)
	admin.login("/api/auth/login", "admin@example.com", adminPassword)

	rr := admin.do(http.MethodPost, "/api/users", map[string]string{
		"email": "p@example.com", "name": "Partner", "role": "Partner", "password": "Secret123!",
	})
	expectStatus(t, rr, http.StatusCreated)
	var user struct {
		ID string `json:"id"`
	}
	decodeBody(t, rr, &user)

	partner := newBrowser(t, app)
	partner.login("/api/auth/login", "p@example.com", "Secret123!")
	expectStatus(t, partner.do(http.MethodGet, "/api/dashboard", nil), http.StatusOK)

	expectStatus(t, admin.do(http.MethodPatch, "/api/users/"+user.ID+"/role", map[string]string{"role": "Associate"}), http.StatusOK)
	expectStatus(t, partner.do(http.MethodGet, "/api/dashboard", nil), http.StatusUnauthorized)
}

func TestPortalFlowE2E(t *testing.T) {
	app := setupE2EApp(t)
	admin := newBrowser(t, app)
	admin.login("/api/auth/login", "admin@example.com", adminPassword)

	rr := admin.do(http.MethodPost, "/api/clients", map[string]any{
		"name": "Mehmet Demir", "email": "mehmet@example.com",
		"portal_access": true, "portal_password": "Portal123!",
	})
	expectStatus(t, rr, http.StatusCreated)

	portal := newBrowser(t, app)
	portal.login("/api/portal/login", "mehmet@example.com", "Portal123!")
	expectStatus(t, portal.do(http.MethodGet, "/api/portal/dashboard", nil), http.StatusOK)
	expectStatus(t, portal.do(http.MethodGet, "/api/portal/matters", nil), http.StatusOK)

	// A portal session is not a staff session.
	expectStatus(t, portal.do(http.MethodGet, "/api/clients", nil), http.StatusUnauthorized)

	rr = portal.do(http.MethodPost, "/api/portal/messages", map[string]string{"subject": "Soru", "message": "Duruşma ne zaman?"})
	expectStatus(t, rr, http.StatusCreated)

	rr = admin.do(http.MethodGet, "/api/messages/unread-count", nil)
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `"unread":1`) {
		t.Fatalf("expected one unread message, got %s", rr.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := setupE2EApp(t)
	b := newBrowser(t, app)
	b.do(http.MethodGet, "/healthz", nil)
	rr := b.do(http.MethodGet, "/metrics", nil)
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `http_requests_total{method="GET",path="GET /healthz"`) {
		t.Fatalf("healthz request not counted:\n%s", rr.Body.String())
	}
}
