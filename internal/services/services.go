// Package services implements the firm's use cases on top of the store. Every
// state-changing operation writes its audit row in the same transaction as the
// mutation it describes.
package services

import (
	"strings"
	"time"

	"github.com/diewo77/go-lawfirm/internal/ai"
	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/audit"
	"github.com/diewo77/go-lawfirm/internal/billing"
	"github.com/diewo77/go-lawfirm/internal/config"
	"github.com/diewo77/go-lawfirm/internal/mail"
	"github.com/diewo77/go-lawfirm/internal/storage"
	"github.com/diewo77/go-lawfirm/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Entity type names recorded in the audit trail.
const (
	entityUser             = "User"
	entityClient           = "Client"
	entityMatter           = "Matter"
	entityTask             = "Task"
	entityTaskTemplate     = "TaskTemplate"
	entityTimeEntry        = "TimeEntry"
	entityExpense          = "Expense"
	entityLead             = "Lead"
	entityEvent            = "CalendarEvent"
	entityInvoice          = "Invoice"
	entityNotification     = "Notification"
	entityMessage          = "ClientMessage"
	entityDocument         = "Document"
	entityDocumentTemplate = "DocumentTemplate"
	entityReminder         = "Reminder"
	entityDrafter          = "AIDrafter"
	entityEmail            = "Email"
)

// Deps are the collaborators shared by all services. Config is resolved once at
// start and passed in; nothing reads the environment at call time.
type Deps struct {
	DB      *gorm.DB
	Audit   *audit.Service
	Mailer  mail.Mailer
	Storage storage.Storage
	AI      ai.Generator
	Config  *config.Config
	Log     *zap.Logger
	Now     func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Audit == nil {
		d.Audit = audit.New(nil)
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Mailer == nil {
		d.Mailer = mail.New(config.MailConfig{}, d.Log)
	}
	if d.AI == nil {
		d.AI = ai.Disabled{}
	}
	if d.Config == nil {
		d.Config = &config.Config{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

func (d Deps) now() time.Time { return d.Now().UTC() }

func (d Deps) vatRate() float64 {
	if d.Config.Billing.VATRate > 0 {
		return d.Config.Billing.VATRate
	}
	return billing.DefaultVATRate
}

func (d Deps) currency() string {
	if d.Config.Billing.Currency == "" {
		return "TRY"
	}
	return d.Config.Billing.Currency
}

// Services groups every use case of the application.
type Services struct {
	Auth           *AuthService
	Users          *UserService
	Clients        *ClientService
	Matters        *MatterService
	Tasks          *TaskService
	Time           *TimeService
	Invoices       *InvoiceService
	Leads          *LeadService
	Calendar       *CalendarService
	Dashboard      *DashboardService
	Communications *CommunicationService
	Portal         *PortalService
	Documents      *DocumentService
	Drafting       *DraftingService
	Reminders      *ReminderService
	AuditLogs      *AuditLogService
}

func New(d Deps) *Services {
	d = d.withDefaults()
	docs := NewDocumentService(d)
	return &Services{
		Auth:           NewAuthService(d),
		Users:          NewUserService(d),
		Clients:        NewClientService(d),
		Matters:        NewMatterService(d),
		Tasks:          NewTaskService(d),
		Time:           NewTimeService(d),
		Invoices:       NewInvoiceService(d),
		Leads:          NewLeadService(d),
		Calendar:       NewCalendarService(d),
		Dashboard:      NewDashboardService(d),
		Communications: NewCommunicationService(d),
		Portal:         NewPortalService(d, docs),
		Documents:      docs,
		Drafting:       NewDraftingService(d, docs),
		Reminders:      NewReminderService(d),
		AuditLogs:      NewAuditLogService(d),
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// optionalID turns an empty identifier into nil.
func optionalID(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	v := strings.TrimSpace(*id)
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func invalidField(field, code string) error {
	return apperr.Invalid(validation.Violations{field: code})
}

// requireRow reports a violation on field when no row of T has id.
func requireRow[T any](tx *gorm.DB, field, id string, v validation.Violations) error {
	var n int64
	if err := tx.Model(new(T)).Where("id = ?", id).Count(&n).Error; err != nil {
		return apperr.FromDB(err)
	}
	if n == 0 {
		v.Add(field, "not_found")
	}
	return nil
}
