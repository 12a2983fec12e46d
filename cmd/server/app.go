package main

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/go-lawfirm/auth"
	"github.com/diewo77/go-lawfirm/gate"
	"github.com/diewo77/go-lawfirm/httpx"
	"github.com/diewo77/go-lawfirm/internal/ai"
	"github.com/diewo77/go-lawfirm/internal/audit"
	"github.com/diewo77/go-lawfirm/internal/config"
	"github.com/diewo77/go-lawfirm/internal/db"
	"github.com/diewo77/go-lawfirm/internal/handlers"
	"github.com/diewo77/go-lawfirm/internal/mail"
	"github.com/diewo77/go-lawfirm/internal/metrics"
	"github.com/diewo77/go-lawfirm/internal/middleware"
	"github.com/diewo77/go-lawfirm/internal/policy"
	"github.com/diewo77/go-lawfirm/internal/services"
	"github.com/diewo77/go-lawfirm/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Backends are the external collaborators of the application. Nil fields fall
// back to the service defaults (log mailer, disabled AI, no file storage).
type Backends struct {
	Storage storage.Storage
	Mailer  mail.Mailer
	AI      ai.Generator
	Now     func() time.Time
}

// App is the main application handler that sets up all routes.
type App struct {
	mux      *http.ServeMux
	handler  http.Handler
	db       *gorm.DB
	cfg      *config.Config
	log      *zap.Logger
	sessions *auth.Manager
	authz    *policy.Authorizer
	metrics  *metrics.HTTPMetrics
	limiter  *middleware.RateLimiter
	svc      *services.Services
}

// NewApp wires services, sessions and authorization and configures all routes.
func NewApp(conn *gorm.DB, cfg *config.Config, log *zap.Logger, b Backends) *App {
	m := metrics.NewHTTPMetrics(cfg.Log.Service)
	svc := services.New(services.Deps{
		DB:      conn,
		Audit:   audit.New(m.AuditRecorded),
		Mailer:  b.Mailer,
		Storage: b.Storage,
		AI:      b.AI,
		Config:  cfg,
		Log:     log,
		Now:     b.Now,
	})
	sessions := auth.NewManager(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.Secure)
	if b.Now != nil {
		sessions.SetClock(b.Now)
	}
	sessions.VerifyUser = svc.Auth.VerifyUser
	sessions.VerifyClient = svc.Auth.VerifyClient

	app := &App{
		mux:      http.NewServeMux(),
		db:       conn,
		cfg:      cfg,
		log:      log,
		sessions: sessions,
		authz:    policy.NewAuthorizer(),
		metrics:  m,
		limiter:  middleware.NewRateLimiter(cfg.Server.LoginRate),
		svc:      svc,
	}
	app.setupRoutes()

	// Outermost first: request id and logging see every request; metrics wrap
	// the mux directly so the matched pattern is visible to them.
	var h http.Handler = app.metrics.Middleware(app.mux)
	h = auth.RequireCSRF(h)
	h = middleware.Prefs(h)
	h = middleware.RequestMeta(h)
	h = sessions.Middleware(h)
	h = middleware.Recover(h)
	h = middleware.AccessLog(h)
	app.handler = middleware.RequestID(log)(h)
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// staff guards a route with a staff session and a permission.
func (a *App) staff(resource string, action gate.Action, h http.HandlerFunc) http.Handler {
	return auth.RequireAuth(a.authz.Require(resource, action)(h))
}

// signedIn guards a route with a staff session only.
func (a *App) signedIn(h http.HandlerFunc) http.Handler {
	return auth.RequireAuth(h)
}

func (a *App) portal(h http.HandlerFunc) http.Handler {
	return auth.RequirePortal(h)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	// Public routes (no auth required)
	a.mux.HandleFunc("GET /healthz", a.healthz)
	a.mux.Handle("GET /metrics", a.metrics.Handler())

	ah := handlers.NewAuthHandler(a.svc, a.sessions, a.authz)
	a.mux.Handle("POST /api/auth/login", a.limiter.Middleware(http.HandlerFunc(ah.Login)))
	a.mux.HandleFunc("POST /api/auth/logout", ah.Logout)
	a.mux.Handle("POST /api/auth/forgot-password", a.limiter.Middleware(http.HandlerFunc(ah.ForgotPassword)))
	a.mux.HandleFunc("POST /api/auth/reset-password", ah.ResetPassword)

	// Authenticated routes (require logged-in user)
	a.mux.Handle("GET /api/auth/session", a.signedIn(ah.Session))
	a.mux.Handle("POST /api/auth/change-password", a.signedIn(ah.ChangePassword))
	a.mux.Handle("PUT /api/auth/profile", a.signedIn(ah.UpdateProfile))

	dh := handlers.NewDashboardHandler(a.svc.Dashboard)
	a.mux.Handle("GET /api/dashboard", a.staff(policy.ResourceDashboard, gate.ActionView, dh.Get))

	// Protected resource routes (require auth + specific permissions)
	ch := handlers.NewClientHandler(a.svc.Clients)
	a.mux.Handle("GET /api/clients", a.staff(policy.ResourceClient, gate.ActionList, ch.List))
	a.mux.Handle("POST /api/clients", a.staff(policy.ResourceClient, gate.ActionCreate, ch.Create))
	a.mux.Handle("GET /api/clients/{id}", a.staff(policy.ResourceClient, gate.ActionView, ch.Get))
	a.mux.Handle("PUT /api/clients/{id}", a.staff(policy.ResourceClient, gate.ActionUpdate, ch.Update))
	a.mux.Handle("PUT /api/clients/{id}/portal", a.staff(policy.ResourceClient, gate.ActionUpdate, ch.SetPortalAccess))
	a.mux.Handle("DELETE /api/clients/{id}", a.staff(policy.ResourceClient, gate.ActionDelete, ch.Delete))

	mh := handlers.NewMatterHandler(a.svc.Matters)
	a.mux.Handle("GET /api/matters", a.staff(policy.ResourceMatter, gate.ActionList, mh.List))
	a.mux.Handle("POST /api/matters", a.staff(policy.ResourceMatter, gate.ActionCreate, mh.Create))
	a.mux.Handle("GET /api/matters/{id}", a.staff(policy.ResourceMatter, gate.ActionView, mh.Get))
	a.mux.Handle("PUT /api/matters/{id}", a.staff(policy.ResourceMatter, gate.ActionUpdate, mh.Update))
	a.mux.Handle("DELETE /api/matters/{id}", a.staff(policy.ResourceMatter, gate.ActionDelete, mh.Delete))

	th := handlers.NewTaskHandler(a.svc.Tasks)
	a.mux.Handle("GET /api/tasks", a.staff(policy.ResourceTask, gate.ActionList, th.List))
	a.mux.Handle("GET /api/tasks/board", a.staff(policy.ResourceTask, gate.ActionList, th.Board))
	a.mux.Handle("POST /api/tasks", a.staff(policy.ResourceTask, gate.ActionCreate, th.Create))
	a.mux.Handle("GET /api/tasks/{id}", a.staff(policy.ResourceTask, gate.ActionView, th.Get))
	a.mux.Handle("PUT /api/tasks/{id}", a.staff(policy.ResourceTask, gate.ActionUpdate, th.Update))
	a.mux.Handle("PATCH /api/tasks/{id}/status", a.staff(policy.ResourceTask, gate.ActionStatus, th.UpdateStatus))
	a.mux.Handle("DELETE /api/tasks/{id}", a.staff(policy.ResourceTask, gate.ActionDelete, th.Delete))
	a.mux.Handle("GET /api/task-templates", a.staff(policy.ResourceTaskTemplate, gate.ActionList, th.Templates))
	a.mux.Handle("POST /api/task-templates", a.staff(policy.ResourceTaskTemplate, gate.ActionCreate, th.CreateTemplate))
	a.mux.Handle("DELETE /api/task-templates/{id}", a.staff(policy.ResourceTaskTemplate, gate.ActionDelete, th.DeleteTemplate))
	a.mux.Handle("POST /api/task-templates/{id}/apply", a.staff(policy.ResourceTask, gate.ActionCreate, th.ApplyTemplate))

	tmh := handlers.NewTimeHandler(a.svc.Time)
	a.mux.Handle("GET /api/time-entries", a.staff(policy.ResourceTimeEntry, gate.ActionList, tmh.List))
	a.mux.Handle("GET /api/time-entries/unbilled", a.staff(policy.ResourceTimeEntry, gate.ActionList, tmh.Unbilled))
	a.mux.Handle("POST /api/time-entries", a.staff(policy.ResourceTimeEntry, gate.ActionCreate, tmh.Log))
	a.mux.Handle("POST /api/time-entries/bill", a.staff(policy.ResourceTimeEntry, gate.ActionBill, tmh.MarkAsBilled))
	a.mux.Handle("GET /api/time-entries/{id}", a.staff(policy.ResourceTimeEntry, gate.ActionView, tmh.Get))
	a.mux.Handle("PUT /api/time-entries/{id}", a.staff(policy.ResourceTimeEntry, gate.ActionUpdate, tmh.Update))
	a.mux.Handle("DELETE /api/time-entries/{id}", a.staff(policy.ResourceTimeEntry, gate.ActionDelete, tmh.Delete))
	a.mux.Handle("GET /api/expenses", a.staff(policy.ResourceExpense, gate.ActionList, tmh.Expenses))
	a.mux.Handle("POST /api/expenses", a.staff(policy.ResourceExpense, gate.ActionCreate, tmh.CreateExpense))
	a.mux.Handle("PUT /api/expenses/{id}", a.staff(policy.ResourceExpense, gate.ActionUpdate, tmh.UpdateExpense))
	a.mux.Handle("DELETE /api/expenses/{id}", a.staff(policy.ResourceExpense, gate.ActionDelete, tmh.DeleteExpense))

	ih := handlers.NewInvoiceHandler(a.svc.Invoices)
	a.mux.Handle("GET /api/invoices", a.staff(policy.ResourceInvoice, gate.ActionList, ih.List))
	a.mux.Handle("GET /api/invoices/next-number", a.staff(policy.ResourceInvoice, gate.ActionCreate, ih.NextNumber))
	a.mux.Handle("POST /api/invoices", a.staff(policy.ResourceInvoice, gate.ActionCreate, ih.Create))
	a.mux.Handle("GET /api/invoices/{id}", a.staff(policy.ResourceInvoice, gate.ActionView, ih.Get))
	a.mux.Handle("PATCH /api/invoices/{id}/status", a.staff(policy.ResourceInvoice, gate.ActionStatus, ih.UpdateStatus))
	a.mux.Handle("GET /api/invoices/{id}/print", a.staff(policy.ResourceInvoice, gate.ActionPrint, ih.Print))
	a.mux.Handle("DELETE /api/invoices/{id}", a.staff(policy.ResourceInvoice, gate.ActionDelete, ih.Delete))

	lh := handlers.NewLeadHandler(a.svc.Leads)
	a.mux.Handle("GET /api/leads", a.staff(policy.ResourceLead, gate.ActionList, lh.List))
	a.mux.Handle("POST /api/leads", a.staff(policy.ResourceLead, gate.ActionCreate, lh.Create))
	a.mux.Handle("GET /api/leads/{id}", a.staff(policy.ResourceLead, gate.ActionView, lh.Get))
	a.mux.Handle("PUT /api/leads/{id}", a.staff(policy.ResourceLead, gate.ActionUpdate, lh.Update))
	a.mux.Handle("PATCH /api/leads/{id}/status", a.staff(policy.ResourceLead, gate.ActionStatus, lh.UpdateStatus))
	a.mux.Handle("POST /api/leads/{id}/convert", a.staff(policy.ResourceLead, gate.ActionConvert, lh.Convert))
	a.mux.Handle("DELETE /api/leads/{id}", a.staff(policy.ResourceLead, gate.ActionDelete, lh.Delete))

	cal := handlers.NewCalendarHandler(a.svc.Calendar)
	a.mux.Handle("GET /api/calendar", a.staff(policy.ResourceEvent, gate.ActionList, cal.List))
	a.mux.Handle("GET /api/calendar/upcoming", a.staff(policy.ResourceEvent, gate.ActionList, cal.Upcoming))
	a.mux.Handle("POST /api/calendar", a.staff(policy.ResourceEvent, gate.ActionCreate, cal.Create))
	a.mux.Handle("GET /api/calendar/{id}", a.staff(policy.ResourceEvent, gate.ActionView, cal.Get))
	a.mux.Handle("PUT /api/calendar/{id}", a.staff(policy.ResourceEvent, gate.ActionUpdate, cal.Update))
	a.mux.Handle("DELETE /api/calendar/{id}", a.staff(policy.ResourceEvent, gate.ActionDelete, cal.Delete))

	cm := handlers.NewCommunicationHandler(a.svc.Communications)
	a.mux.Handle("GET /api/messages", a.staff(policy.ResourceMessage, gate.ActionList, cm.Inbox))
	a.mux.Handle("GET /api/messages/unread-count", a.staff(policy.ResourceMessage, gate.ActionList, cm.UnreadCount))
	a.mux.Handle("POST /api/messages/{id}/read", a.staff(policy.ResourceMessage, gate.ActionUpdate, cm.MarkRead))
	a.mux.Handle("POST /api/messages/{id}/reply", a.staff(policy.ResourceMessage, gate.ActionReply, cm.Reply))
	a.mux.Handle("DELETE /api/messages/{id}", a.staff(policy.ResourceMessage, gate.ActionDelete, cm.DeleteMessage))
	a.mux.Handle("POST /api/emails", a.staff(policy.ResourceEmail, gate.ActionSend, cm.SendEmail))
	a.mux.Handle("GET /api/notifications", a.signedIn(cm.Notifications))
	a.mux.Handle("POST /api/notifications", a.staff(policy.ResourceNotification, gate.ActionCreate, cm.CreateNotification))
	a.mux.Handle("POST /api/notifications/read-all", a.signedIn(cm.MarkAllNotificationsRead))
	a.mux.Handle("POST /api/notifications/{id}/read", a.signedIn(cm.MarkNotificationRead))

	doc := handlers.NewDocumentHandler(a.svc.Documents)
	a.mux.Handle("GET /api/documents", a.staff(policy.ResourceDocument, gate.ActionList, doc.List))
	a.mux.Handle("POST /api/documents", a.staff(policy.ResourceDocument, gate.ActionCreate, doc.Upload))
	a.mux.Handle("GET /api/documents/{id}", a.staff(policy.ResourceDocument, gate.ActionView, doc.Get))
	a.mux.Handle("GET /api/documents/{id}/versions", a.staff(policy.ResourceDocument, gate.ActionView, doc.Versions))
	a.mux.Handle("GET /api/documents/{id}/download", a.staff(policy.ResourceDocument, gate.ActionView, doc.Download))
	a.mux.Handle("PUT /api/documents/{id}", a.staff(policy.ResourceDocument, gate.ActionUpdate, doc.Update))
	a.mux.Handle("DELETE /api/documents/{id}", a.staff(policy.ResourceDocument, gate.ActionDelete, doc.Delete))
	a.mux.Handle("GET /api/document-templates", a.staff(policy.ResourceTemplate, gate.ActionList, doc.Templates))
	a.mux.Handle("POST /api/document-templates", a.staff(policy.ResourceTemplate, gate.ActionCreate, doc.CreateTemplate))
	a.mux.Handle("GET /api/document-templates/{id}", a.staff(policy.ResourceTemplate, gate.ActionView, doc.Template))
	a.mux.Handle("PUT /api/document-templates/{id}", a.staff(policy.ResourceTemplate, gate.ActionUpdate, doc.UpdateTemplate))
	a.mux.Handle("DELETE /api/document-templates/{id}", a.staff(policy.ResourceTemplate, gate.ActionDelete, doc.DeleteTemplate))

	dr := handlers.NewDraftingHandler(a.svc.Drafting)
	a.mux.Handle("POST /api/drafting/generate", a.staff(policy.ResourceDrafting, gate.ActionGenerate, dr.Generate))
	a.mux.Handle("POST /api/drafting/save", a.staff(policy.ResourceDocument, gate.ActionCreate, dr.Save))

	rh := handlers.NewReminderHandler(a.svc.Reminders)
	a.mux.Handle("GET /api/reminders", a.staff(policy.ResourceReminder, gate.ActionList, rh.List))
	a.mux.Handle("POST /api/reminders", a.staff(policy.ResourceReminder, gate.ActionCreate, rh.Create))
	a.mux.Handle("DELETE /api/reminders/{id}", a.staff(policy.ResourceReminder, gate.ActionDelete, rh.Delete))

	// Settings (administrators only)
	uh := handlers.NewUserHandler(a.svc.Users, a.authz)
	a.mux.Handle("GET /api/users", a.staff(policy.ResourceUser, gate.ActionList, uh.List))
	a.mux.Handle("POST /api/users", a.staff(policy.ResourceUser, gate.ActionCreate, uh.Create))
	a.mux.Handle("PATCH /api/users/{id}/role", a.staff(policy.ResourceUser, gate.ActionUpdate, uh.UpdateRole))
	a.mux.Handle("DELETE /api/users/{id}", a.staff(policy.ResourceUser, gate.ActionDelete, uh.Delete))

	al := handlers.NewAuditLogHandler(a.svc.AuditLogs)
	a.mux.Handle("GET /api/audit-logs", a.staff(policy.ResourceAudit, gate.ActionList, al.List))

	// Client portal
	ph := handlers.NewPortalHandler(a.svc, a.sessions)
	a.mux.Handle("POST /api/portal/login", a.limiter.Middleware(http.HandlerFunc(ph.Login)))
	a.mux.HandleFunc("POST /api/portal/logout", ph.Logout)
	a.mux.Handle("GET /api/portal/session", a.portal(ph.Session))
	a.mux.Handle("GET /api/portal/dashboard", a.portal(ph.Dashboard))
	a.mux.Handle("GET /api/portal/matters", a.portal(ph.Matters))
	a.mux.Handle("GET /api/portal/matters/{id}", a.portal(ph.Matter))
	a.mux.Handle("GET /api/portal/documents", a.portal(ph.Documents))
	a.mux.Handle("GET /api/portal/documents/{id}/download", a.portal(ph.Download))
	a.mux.Handle("GET /api/portal/invoices", a.portal(ph.Invoices))
	a.mux.Handle("GET /api/portal/messages", a.portal(ph.Messages))
	a.mux.Handle("POST /api/portal/messages", a.portal(ph.SendMessage))
	a.mux.Handle("GET /api/portal/notifications", a.portal(ph.Notifications))
	a.mux.Handle("POST /api/portal/notifications/read-all", a.portal(ph.MarkAllNotificationsRead))
	a.mux.Handle("POST /api/portal/notifications/{id}/read", a.portal(ph.MarkNotificationRead))
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := db.Ping(ctx, a.db); err != nil {
		a.log.Warn("health check failed", zap.Error(err))
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "down"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "up"})
}
