package handlers

import (
	"net/http"

	"github.com/diewo77/go-lawfirm/httpx"
	"github.com/diewo77/go-lawfirm/internal/services"
)

// CommunicationHandler serves the staff inbox, outgoing e-mail and notifications.
type CommunicationHandler struct {
	svc *services.CommunicationService
}

func NewCommunicationHandler(svc *services.CommunicationService) *CommunicationHandler {
	return &CommunicationHandler{svc: svc}
}

func (h *CommunicationHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Inbox(r.Context(), services.InboxFilter{
		ClientID:   r.URL.Query().Get("client_id"),
		UnreadOnly: queryBool(r, "unread"),
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *CommunicationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.UnreadCount(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"unread": n})
}

func (h *CommunicationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.MarkRead(r.Context(), r.PathValue("id")); err != nil {
		httpx.Error(w, err)
		return
	}
	noContent(w)
}

func (h *CommunicationHandler) Reply(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Reply string `json:"reply"`
	}
	if !decode(w, r, &in) {
		return
	}
	msg, err := h.svc.Reply(r.Context(), r.PathValue("id"), in.Reply, lang(r))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, msg)
}

func (h *CommunicationHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteMessage(r.Context(), r.PathValue("id")); err != nil {
		httpx.Error(w, err)
		return
	}
	noContent(w)
}

func (h *CommunicationHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var in services.EmailInput
	if !decode(w, r, &in) {
		return
	}
	if err := h.svc.SendEmail(r.Context(), in, lang(r)); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (h *CommunicationHandler) recipient(r *http.Request) services.Recipient {
	return services.Recipient{UserID: staff(r).ID}
}

func (h *CommunicationHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Notifications(r.Context(), h.recipient(r), queryBool(r, "unread"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *CommunicationHandler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var in services.NotificationInput
	if !decode(w, r, &in) {
		return
	}
	n, err := h.svc.CreateNotification(r.Context(), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, n)
}

func (h *CommunicationHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.MarkNotificationRead(r.Context(), h.recipient(r), r.PathValue("id")); err != nil {
		httpx.Error(w, err)
		return
	}
	noContent(w)
}

func (h *CommunicationHandler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.MarkAllNotificationsRead(r.Context(), h.recipient(r))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"updated": n})
}
