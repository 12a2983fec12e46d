package handlers

import (
	"net/http"

	"github.com/diewo77/go-lawfirm/httpx"
	"github.com/diewo77/go-lawfirm/internal/services"
)

type LeadHandler struct {
	svc *services.LeadService
}

func NewLeadHandler(svc *services.LeadService) *LeadHandler {
	return &LeadHandler{svc: svc}
}

// List returns the filtered leads with pipeline statistics.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.List(r.Context(), services.LeadFilter{
		Status:       r.URL.Query().Get("status"),
		PracticeArea: r.URL.Query().Get("practice_area"),
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, l)
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.LeadInput
	if !decode(w, r, &in) {
		return
	}
	l, err := h.svc.Create(r.Context(), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, l)
}

func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.LeadInput
	if !decode(w, r, &in) {
		return
	}
	l, err := h.svc.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, l)
}

func (h *LeadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var in statusInput
	if !decode(w, r, &in) {
		return
	}
	l, err := h.svc.UpdateStatus(r.Context(), r.PathValue("id"), in.Status)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, l)
}

// Convert turns the lead into a client and answers with the new client.
func (h *LeadHandler) Convert(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Convert(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		httpx.Error(w, err)
		return
	}
	noContent(w)
}
