package handlers

import (
	"net/http"

	"github.com/diewo77/go-lawfirm/httpx"
	"github.com/diewo77/go-lawfirm/internal/services"
)

type DraftingHandler struct {
	svc *services.DraftingService
}

func NewDraftingHandler(svc *services.DraftingService) *DraftingHandler {
	return &DraftingHandler{svc: svc}
}

func (h *DraftingHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var in services.DraftRequest
	if !decode(w, r, &in) {
		return
	}
	text, err := h.svc.Generate(r.Context(), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"content": text})
}

// Save stores a reviewed draft as a text document.
func (h *DraftingHandler) Save(w http.ResponseWriter, r *http.Request) {
	var in services.SaveDraftInput
	if !decode(w, r, &in) {
		return
	}
	doc, err := h.svc.SaveDraft(r.Context(), in)
	if err != nil {
		documentError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}
