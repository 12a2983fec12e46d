package handlers

import (
	"net/http"

	"github.com/diewo77/go-lawfirm/gate"
	"github.com/diewo77/go-lawfirm/httpx"
	"github.com/diewo77/go-lawfirm/internal/policy"
	"github.com/diewo77/go-lawfirm/internal/services"
)

// UserHandler manages staff accounts. Routes are restricted to administrators.
type UserHandler struct {
	svc   *services.UserService
	authz *policy.Authorizer
}

func NewUserHandler(svc *services.UserService, authz *policy.Authorizer) *UserHandler {
	return &UserHandler{svc: svc, authz: authz}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.UserInput
	if !decode(w, r, &in) {
		return
	}
	u, err := h.svc.Create(r.Context(), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, u)
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Role string `json:"role"`
	}
	if !decode(w, r, &in) {
		return
	}
	u, err := h.svc.UpdateRole(r.Context(), r.PathValue("id"), in.Role)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if err := h.authz.Authorize(r.Context(), gate.ActionDelete, policy.ResourceUser, u); err != nil {
		httpx.Error(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), staff(r).ID, u.ID); err != nil {
		httpx.Error(w, err)
		return
	}
	noContent(w)
}
