package handlers

import (
	"net/http"

	"github.com/diewo77/go-lawfirm/auth"
	"github.com/diewo77/go-lawfirm/httpx"
	"github.com/diewo77/go-lawfirm/internal/services"
)

// PortalHandler serves the client portal. Every query is scoped to the client
// of the portal session.
type PortalHandler struct {
	auth     *services.AuthService
	clients  *services.ClientService
	portal   *services.PortalService
	comms    *services.CommunicationService
	sessions *auth.Manager
}

func NewPortalHandler(svc *services.Services, sessions *auth.Manager) *PortalHandler {
	return &PortalHandler{auth: svc.Auth, clients: svc.Clients, portal: svc.Portal, comms: svc.Communications, sessions: sessions}
}

func (h *PortalHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !decode(w, r, &in) {
		return
	}
	c, err := h.auth.ClientLogin(r.Context(), in.Email, in.Password)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	p, err := h.sessions.CreateSession(w, auth.Principal{ID: c.ID, Email: c.Email, Scope: auth.ScopePortal})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, SessionView{Client: c, CSRFToken: p.CSRF})
}

func (h *PortalHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if p, ok := auth.ClientFromContext(r.Context()); ok {
		if err := h.auth.ClientLogout(r.Context(), p); err != nil {
			httpx.Error(w, err)
			return
		}
	}
	h.sessions.ClearSession(w, auth.ScopePortal)
	noContent(w)
}

func (h *PortalHandler) Session(w http.ResponseWriter, r *http.Request) {
	p := portalClient(r)
	d, err := h.clients.Get(r.Context(), p.ID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, SessionView{Client: &d.Client, CSRFToken: p.CSRF})
}

func (h *PortalHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.portal.Dashboard(r.Context(), portalClient(r).ID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *PortalHandler) Matters(w http.ResponseWriter, r *http.Request) {
	items, err := h.portal.Matters(r.Context(), portalClient(r).ID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *PortalHandler) Matter(w http.ResponseWriter, r *http.Request) {
	m, err := h.portal.Matter(r.Context(), portalClient(r).ID, r.PathValue("id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *PortalHandler) Documents(w http.ResponseWriter, r *http.Request) {
	items, err := h.portal.Documents(r.Context(), portalClient(r).ID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *PortalHandler) Download(w http.ResponseWriter, r *http.Request) {
	doc, rc, err := h.portal.OpenDocument(r.Context(), portalClient(r).ID, r.PathValue("id"))
	if err != nil {
		documentError(w, err)
		return
	}
	serveDocument(w, r, doc, rc)
}

func (h *PortalHandler) Invoices(w http.ResponseWriter, r *http.Request) {
	items, err := h.portal.Invoices(r.Context(), portalClient(r).ID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *PortalHandler) Messages(w http.ResponseWriter, r *http.Request) {
	items, err := h.portal.Messages(r.Context(), portalClient(r).ID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *PortalHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var in services.MessageInput
	if !decode(w, r, &in) {
		return
	}
	msg, err := h.portal.SendMessage(r.Context(), portalClient(r).ID, in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, msg)
}

func (h *PortalHandler) recipient(r *http.Request) services.Recipient {
	return services.Recipient{ClientID: portalClient(r).ID}
}

func (h *PortalHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	items, err := h.comms.Notifications(r.Context(), h.recipient(r), queryBool(r, "unread"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *PortalHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.comms.MarkNotificationRead(r.Context(), h.recipient(r), r.PathValue("id")); err != nil {
		httpx.Error(w, err)
		return
	}
	noContent(w)
}

func (h *PortalHandler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.comms.MarkAllNotificationsRead(r.Context(), h.recipient(r))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"updated": n})
}
