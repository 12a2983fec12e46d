package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/go-lawfirm/httpx"
	"github.com/diewo77/go-lawfirm/internal/services"
)

type InvoiceHandler struct {
	svc *services.InvoiceService
}

func NewInvoiceHandler(svc *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{svc: svc}
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	list, err := h.svc.List(r.Context(), services.InvoiceFilter{
		Status:   r.URL.Query().Get("status"),
		ClientID: r.URL.Query().Get("client_id"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

// NextNumber previews the number the next invoice will get. It is not reserved.
func (h *InvoiceHandler) NextNumber(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.NextNumber(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"number": n})
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.InvoiceInput
	if !decode(w, r, &in) {
		return
	}
	inv, err := h.svc.Create(r.Context(), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var in statusInput
	if !decode(w, r, &in) {
		return
	}
	inv, err := h.svc.UpdateStatus(r.Context(), r.PathValue("id"), in.Status)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Print renders the invoice as HTML (default) or PDF, chosen with ?format=.
func (h *InvoiceHandler) Print(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Print(r.Context(), r.PathValue("id"), lang(r), r.URL.Query().Get("format"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Body)))
	if out.ContentType == "application/pdf" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+out.Filename+`"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Body)
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		httpx.Error(w, err)
		return
	}
	noContent(w)
}
