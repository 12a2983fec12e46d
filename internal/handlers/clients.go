package handlers

import (
	"net/http"

	"github.com/diewo77/go-lawfirm/httpx"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/services"
)

type ClientHandler struct {
	svc *services.ClientService
}

func NewClientHandler(svc *services.ClientService) *ClientHandler {
	return &ClientHandler{svc: svc}
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	q := r.URL.Query()
	items, total, err := h.svc.List(r.Context(), services.ClientFilter{
		Status: q.Get("status"),
		Type:   q.Get("type"),
		Search: q.Get("q"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Page[models.Client]{Items: items, Total: total, Page: page, Limit: limit})
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.ClientInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.svc.Create(r.Context(), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.ClientInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.svc.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

// SetPortalAccess toggles portal access; a password, when given, replaces the current one.
func (h *ClientHandler) SetPortalAccess(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Enabled  bool   `json:"enabled"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}
	if err := h.svc.SetPortalAccess(r.Context(), r.PathValue("id"), in.Enabled, in.Password); err != nil {
		httpx.Error(w, err)
		return
	}
	noContent(w)
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		httpx.Error(w, err)
		return
	}
	noContent(w)
}
