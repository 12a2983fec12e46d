package services

import (
	"context"
	"io"
	"strings"

	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/audit"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/store"
	"github.com/diewo77/go-lawfirm/validation"
	"gorm.io/gorm"
)

// PortalService serves the client portal. Every method is scoped to one client
// and never returns another client's data; foreign ids read as not found.
type PortalService struct {
	Deps
	docs *DocumentService
}

func NewPortalService(d Deps, docs *DocumentService) *PortalService {
	return &PortalService{Deps: d.withDefaults(), docs: docs}
}

type PortalDashboard struct {
	Client          models.Client    `json:"client"`
	ActiveMatters   int64            `json:"active_matters"`
	OpenInvoices    int64            `json:"open_invoices"`
	AmountDue       float64          `json:"amount_due"`
	UnreadNotices   int64            `json:"unread_notifications"`
	RecentMatters   []models.Matter  `json:"recent_matters"`
	RecentInvoices  []models.Invoice `json:"recent_invoices"`
	PendingMessages int64            `json:"pending_messages"`
}

func (s *PortalService) Dashboard(ctx context.Context, clientID string) (*PortalDashboard, error) {
	c, err := store.New[models.Client](s.DB).Find(ctx, clientID)
	if err != nil {
		return nil, err
	}
	d := &PortalDashboard{Client: *c}
	own := store.Query{}.Where("client_id = ?", clientID)
	unpaid := own.Where("status IN ?", []string{models.InvoiceStatusSent, models.InvoiceStatusOverdue})
	matters := store.New[models.Matter](s.DB)
	invoices := store.New[models.Invoice](s.DB)
	if d.ActiveMatters, err = matters.Count(ctx, own.Where("status <> ?", models.MatterStatusClosed)); err != nil {
		return nil, err
	}
	if d.OpenInvoices, err = invoices.Count(ctx, unpaid); err != nil {
		return nil, err
	}
	if d.AmountDue, err = invoices.Sum(ctx, "amount", unpaid); err != nil {
		return nil, err
	}
	if d.UnreadNotices, err = store.New[models.Notification](s.DB).Count(ctx, own.Where("read = ?", false)); err != nil {
		return nil, err
	}
	if d.PendingMessages, err = store.New[models.ClientMessage](s.DB).Count(ctx, own.Where("(reply = '' OR reply IS NULL)")); err != nil {
		return nil, err
	}
	if d.RecentMatters, err = matters.List(ctx, own.OrderBy("open_date DESC").Limit(dashboardItems)); err != nil {
		return nil, err
	}
	if d.RecentInvoices, err = invoices.List(ctx, own.OrderBy("issue_date DESC").Limit(dashboardItems)); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *PortalService) Matters(ctx context.Context, clientID string) ([]models.Matter, error) {
	return store.New[models.Matter](s.DB).List(ctx, store.Query{}.Where("client_id = ?", clientID).OrderBy("open_date DESC"))
}

// PortalMatter is what a client sees of one of their matters.
type PortalMatter struct {
	Matter    models.Matter          `json:"matter"`
	Documents []models.Document      `json:"documents"`
	Events    []models.CalendarEvent `json:"events"`
}

func (s *PortalService) Matter(ctx context.Context, clientID, matterID string) (*PortalMatter, error) {
	m, err := store.New[models.Matter](s.DB).First(ctx, store.Query{}.Where("id = ? AND client_id = ?", matterID, clientID))
	if err != nil {
		return nil, err
	}
	out := &PortalMatter{Matter: *m}
	byMatter := store.Query{}.Where("matter_id = ?", matterID)
	if out.Documents, err = store.New[models.Document](s.DB).List(ctx, byMatter.OrderBy("created_at DESC")); err != nil {
		return nil, err
	}
	if out.Events, err = store.New[models.CalendarEvent](s.DB).List(ctx, byMatter.OrderBy("date ASC")); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PortalService) ownMatters(clientID string) *gorm.DB {
	return s.DB.Model(&models.Matter{}).Select("id").Where("client_id = ?", clientID)
}

func (s *PortalService) Documents(ctx context.Context, clientID string) ([]models.Document, error) {
	q := store.Query{}.Where("matter_id IN (?)", s.ownMatters(clientID)).Preload("Matter").OrderBy("created_at DESC")
	return store.New[models.Document](s.DB).List(ctx, q)
}

// OpenDocument streams one of the client's documents and records a DOWNLOAD.
func (s *PortalService) OpenDocument(ctx context.Context, clientID, id string) (*models.Document, io.ReadCloser, error) {
	if s.Storage == nil {
		return nil, nil, ErrStorageDisabled
	}
	doc, err := store.New[models.Document](s.DB).First(ctx, store.Query{}.
		Where("id = ? AND matter_id IN (?)", id, s.ownMatters(clientID)))
	if err != nil {
		return nil, nil, err
	}
	return s.docs.open(ctx, doc)
}

func (s *PortalService) Invoices(ctx context.Context, clientID string) ([]models.Invoice, error) {
	return store.New[models.Invoice](s.DB).List(ctx, store.Query{}.Where("client_id = ?", clientID).OrderBy("issue_date DESC"))
}

func (s *PortalService) Messages(ctx context.Context, clientID string) ([]models.ClientMessage, error) {
	q := store.Query{}.Where("client_id = ?", clientID).Preload("Matter").OrderBy("created_at DESC")
	return store.New[models.ClientMessage](s.DB).List(ctx, q)
}

type MessageInput struct {
	Subject  string  `json:"subject"`
	Message  string  `json:"message"`
	MatterID *string `json:"matter_id"`
}

// SendMessage stores a message from the client and notifies partners and admins.
func (s *PortalService) SendMessage(ctx context.Context, clientID string, in MessageInput) (*models.ClientMessage, error) {
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	in.MatterID = optionalID(in.MatterID)
	msg := &models.ClientMessage{ClientID: clientID, Subject: in.Subject, Message: in.Message, MatterID: in.MatterID}
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		v := validation.Violations{}
		validation.Required("subject", in.Subject, v)
		validation.MaxLen("subject", in.Subject, 255, v)
		validation.Required("message", in.Message, v)
		if in.MatterID != nil {
			var n int64
			if err := tx.Model(&models.Matter{}).Where("id = ? AND client_id = ?", *in.MatterID, clientID).Count(&n).Error; err != nil {
				return audit.Entry{}, apperr.FromDB(err)
			}
			if n == 0 {
				v.Add("matter_id", "not_found")
			}
		}
		if err := apperr.Invalid(v); err != nil {
			return audit.Entry{}, err
		}
		c, err := store.New[models.Client](tx).Find(ctx, clientID)
		if err != nil {
			return audit.Entry{}, err
		}
		if err := store.New[models.ClientMessage](tx).Create(ctx, msg); err != nil {
			return audit.Entry{}, err
		}
		if err := notifyStaff(ctx, tx, "Yeni müvekkil mesajı: "+c.Name, in.Subject, "/communications?tab=messages"); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionSendMessage, EntityType: entityMessage, EntityID: msg.ID}, nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}
