package handlers

import (
	"net/http"

	"github.com/diewo77/go-lawfirm/auth"
	"github.com/diewo77/go-lawfirm/gate"
	"github.com/diewo77/go-lawfirm/httpx"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/policy"
	"github.com/diewo77/go-lawfirm/internal/services"
)

// AuthHandler serves staff sign-in, password recovery and the current session.
type AuthHandler struct {
	auth     *services.AuthService
	users    *services.UserService
	sessions *auth.Manager
	authz    *policy.Authorizer
}

func NewAuthHandler(svc *services.Services, sessions *auth.Manager, authz *policy.Authorizer) *AuthHandler {
	return &AuthHandler{auth: svc.Auth, users: svc.Users, sessions: sessions, authz: authz}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionView is returned by login and the session endpoint. Clients echo
// CSRFToken in the X-CSRF-Token header on unsafe requests.
type SessionView struct {
	User        *models.User      `json:"user,omitempty"`
	Client      *models.Client    `json:"client,omitempty"`
	Role        string            `json:"role,omitempty"`
	CSRFToken   string            `json:"csrf_token"`
	Permissions []gate.Permission `json:"permissions,omitempty"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !decode(w, r, &in) {
		return
	}
	u, err := h.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	p, err := h.sessions.CreateSession(w, auth.Principal{ID: u.ID, Email: u.Email, Role: u.Role, Scope: auth.ScopeStaff})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	ctx := auth.WithUser(r.Context(), p)
	httpx.JSON(w, http.StatusOK, SessionView{User: u, Role: u.Role, CSRFToken: p.CSRF, Permissions: h.authz.Permissions(ctx)})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if p, ok := auth.UserFromContext(r.Context()); ok {
		if err := h.auth.Logout(r.Context(), p); err != nil {
			httpx.Error(w, err)
			return
		}
	}
	h.sessions.ClearSession(w, auth.ScopeStaff)
	noContent(w)
}

// Session describes the signed-in user.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	p := staff(r)
	u, err := h.users.Get(r.Context(), p.ID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, SessionView{User: u, Role: p.Role, CSRFToken: p.CSRF, Permissions: h.authz.Permissions(r.Context())})
}

// ForgotPassword always answers 202 so the endpoint cannot be used to probe accounts.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &in) {
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), in.Email, lang(r)); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}
	if err := h.auth.ResetPassword(r.Context(), in.Token, in.Password); err != nil {
		httpx.Error(w, err)
		return
	}
	noContent(w)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Current string `json:"current_password"`
		New     string `json:"new_password"`
	}
	if !decode(w, r, &in) {
		return
	}
	if err := h.auth.ChangePassword(r.Context(), staff(r).ID, in.Current, in.New); err != nil {
		httpx.Error(w, err)
		return
	}
	noContent(w)
}

// UpdateProfile edits the signed-in user's own name and contact details.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in services.ProfileInput
	if !decode(w, r, &in) {
		return
	}
	u, err := h.users.UpdateProfile(r.Context(), staff(r).ID, in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}
