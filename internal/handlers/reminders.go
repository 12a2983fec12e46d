package handlers

import (
	"net/http"

	"github.com/diewo77/go-lawfirm/httpx"
	"github.com/diewo77/go-lawfirm/internal/services"
)

type ReminderHandler struct {
	svc *services.ReminderService
}

func NewReminderHandler(svc *services.ReminderService) *ReminderHandler {
	return &ReminderHandler{svc: svc}
}

// List shows the signed-in user's reminders, or everybody's with ?all=true.
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := staff(r).ID
	if queryBool(r, "all") {
		userID = ""
	}
	items, err := h.svc.List(r.Context(), userID, queryBool(r, "pending"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

// Create defaults the recipient to the signed-in user.
func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.ReminderInput
	if !decode(w, r, &in) {
		return
	}
	if in.UserID == nil || *in.UserID == "" {
		id := staff(r).ID
		in.UserID = &id
	}
	rem, err := h.svc.Create(r.Context(), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rem)
}

func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		httpx.Error(w, err)
		return
	}
	noContent(w)
}
