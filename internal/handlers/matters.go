package handlers

import (
	"net/http"

	"github.com/diewo77/go-lawfirm/httpx"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/services"
)

type MatterHandler struct {
	svc *services.MatterService
}

func NewMatterHandler(svc *services.MatterService) *MatterHandler {
	return &MatterHandler{svc: svc}
}

func (h *MatterHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	q := r.URL.Query()
	items, total, err := h.svc.List(r.Context(), services.MatterFilter{
		ClientID:     q.Get("client_id"),
		Status:       q.Get("status"),
		PracticeArea: q.Get("practice_area"),
		Search:       q.Get("q"),
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Page[models.Matter]{Items: items, Total: total, Page: page, Limit: limit})
}

func (h *MatterHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *MatterHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.MatterInput
	if !decode(w, r, &in) {
		return
	}
	m, err := h.svc.Create(r.Context(), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *MatterHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.MatterInput
	if !decode(w, r, &in) {
		return
	}
	m, err := h.svc.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *MatterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		httpx.Error(w, err)
		return
	}
	noContent(w)
}
