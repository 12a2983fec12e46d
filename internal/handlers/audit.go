package handlers

import (
	"net/http"

	"github.com/diewo77/go-lawfirm/httpx"
	"github.com/diewo77/go-lawfirm/internal/services"
)

type AuditLogHandler struct {
	svc *services.AuditLogService
}

func NewAuditLogHandler(svc *services.AuditLogService) *AuditLogHandler {
	return &AuditLogHandler{svc: svc}
}

func (h *AuditLogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := h.svc.List(r.Context(), services.AuditFilter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		UserID:     q.Get("user_id"),
		Page:       queryInt(r, "page"),
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}
