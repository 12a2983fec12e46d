package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/audit"
	"github.com/diewo77/go-lawfirm/internal/mail"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/store"
	"github.com/diewo77/go-lawfirm/validation"
	"github.com/diewo77/go-lawfirm/view"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CommunicationService covers the staff side of client messages, outgoing
// e-mail and in-app notifications.
type CommunicationService struct {
	Deps
}

func NewCommunicationService(d Deps) *CommunicationService {
	return &CommunicationService{Deps: d.withDefaults()}
}

type InboxFilter struct {
	ClientID   string
	UnreadOnly bool
}

func (s *CommunicationService) Inbox(ctx context.Context, f InboxFilter) ([]models.ClientMessage, error) {
	q := store.Query{}.
		WhereIf(f.ClientID != "", "client_id = ?", f.ClientID).
		WhereIf(f.UnreadOnly, "read = ?", false).
		Preload("Client", "Matter").
		OrderBy("created_at DESC")
	return store.New[models.ClientMessage](s.DB).List(ctx, q)
}

func (s *CommunicationService) UnreadCount(ctx context.Context) (int64, error) {
	return store.New[models.ClientMessage](s.DB).Count(ctx, store.Query{}.Where("read = ?", false))
}

func (s *CommunicationService) MarkRead(ctx context.Context, id string) error {
	return store.New[models.ClientMessage](s.DB).UpdateFields(ctx, id, map[string]any{"read": true})
}

// Reply answers a client message. The client gets a notification in the portal
// and, best effort, an e-mail.
func (s *CommunicationService) Reply(ctx context.Context, id, text, lang string) (*models.ClientMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalidField("reply", "required")
	}
	actor := audit.ActorFrom(ctx)
	now := s.now()
	var msg *models.ClientMessage
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		messages := store.New[models.ClientMessage](tx)
		var err error
		if msg, err = messages.Find(ctx, id, "Client"); err != nil {
			return audit.Entry{}, err
		}
		fields := map[string]any{"reply": text, "replied_at": now, "read": true}
		if actor.UserID != "" {
			fields["replied_by"] = actor.UserID
		}
		if err := messages.UpdateFields(ctx, id, fields); err != nil {
			return audit.Entry{}, err
		}
		msg.Reply, msg.RepliedAt, msg.Read = text, &now, true
		note := &models.Notification{
			ClientID: &msg.ClientID,
			Title:    "Re: " + msg.Subject,
			Message:  text,
			Type:     models.NotificationInfo,
			Link:     "/portal/messages",
		}
		if err := store.New[models.Notification](tx).Create(ctx, note); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionReplyMessage, EntityType: entityMessage, EntityID: id, New: map[string]any{"reply": text}}, nil
	})
	if err != nil {
		return nil, err
	}
	if msg.Client != nil {
		s.mailReply(ctx, msg, lang)
	}
	return msg, nil
}

func (s *CommunicationService) mailReply(ctx context.Context, msg *models.ClientMessage, lang string) {
	body, err := view.RenderEmail("message_reply", lang, view.MessageReplyEmail{
		Name:    msg.Client.Name,
		Subject: msg.Subject,
		Reply:   msg.Reply,
		Link:    s.Config.App.BaseURL + "/portal/messages",
	})
	if err == nil {
		err = s.Mailer.Send(ctx, mail.Message{To: msg.Client.Email, Subject: body.Subject, Text: body.Text, HTML: body.HTML})
	}
	if err != nil {
		s.Log.Warn("send reply mail", zap.String("message_id", msg.ID), zap.Error(err))
	}
}

type EmailInput struct {
	To       string  `json:"to"`
	Subject  string  `json:"subject"`
	Body     string  `json:"body"`
	MatterID *string `json:"matter_id"`
}

// SendEmail mails a free-form message. Delivery failures surface as
// apperr.ErrExternalService and are not audited as sent.
func (s *CommunicationService) SendEmail(ctx context.Context, in EmailInput, lang string) error {
	in.To = normalizeEmail(in.To)
	in.Subject = strings.TrimSpace(in.Subject)
	in.MatterID = optionalID(in.MatterID)
	v := validation.Violations{}
	validation.Required("to", in.To, v)
	validation.Email("to", in.To, v)
	validation.Required("subject", in.Subject, v)
	validation.Required("body", in.Body, v)
	if err := apperr.Invalid(v); err != nil {
		return err
	}
	body, err := view.RenderEmail("message", lang, view.MessageEmail{Subject: in.Subject, Body: in.Body})
	if err != nil {
		return err
	}
	if err := s.Mailer.Send(ctx, mail.Message{To: in.To, Subject: body.Subject, Text: body.Text, HTML: body.HTML}); err != nil {
		return apperr.External("smtp", err)
	}
	return s.Audit.Run(ctx, s.DB, func(*gorm.DB) (audit.Entry, error) {
		return audit.Entry{
			Action:     models.ActionSendEmail,
			EntityType: entityEmail,
			EntityID:   deref(in.MatterID),
			Details:    fmt.Sprintf("To: %s, Subject: %s", in.To, in.Subject),
		}, nil
	})
}

func (s *CommunicationService) DeleteMessage(ctx context.Context, id string) error {
	return s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		messages := store.New[models.ClientMessage](tx)
		msg, err := messages.Find(ctx, id)
		if err != nil {
			return audit.Entry{}, err
		}
		if err := messages.Delete(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionDelete, EntityType: entityMessage, EntityID: id, Old: msg}, nil
	})
}

// Recipient selects whose notifications are read: a staff user or a portal client.
type Recipient struct {
	UserID   string
	ClientID string
}

func (r Recipient) query() store.Query {
	if r.ClientID != "" {
		return store.Query{}.Where("client_id = ?", r.ClientID)
	}
	return store.Query{}.Where("user_id = ?", r.UserID)
}

func (s *CommunicationService) Notifications(ctx context.Context, r Recipient, unreadOnly bool) ([]models.Notification, error) {
	q := r.query().WhereIf(unreadOnly, "read = ?", false).OrderBy("created_at DESC").Limit(store.MaxLimit)
	return store.New[models.Notification](s.DB).List(ctx, q)
}

type NotificationInput struct {
	UserID   *string `json:"user_id"`
	ClientID *string `json:"client_id"`
	Title    string  `json:"title"`
	Message  string  `json:"message"`
	Type     string  `json:"type"`
	Link     string  `json:"link"`
}

// CreateNotification targets a user, a client, or both; at least one is required.
func (s *CommunicationService) CreateNotification(ctx context.Context, in NotificationInput) (*models.Notification, error) {
	in.UserID, in.ClientID = optionalID(in.UserID), optionalID(in.ClientID)
	in.Title = strings.TrimSpace(in.Title)
	if in.Type == "" {
		in.Type = models.NotificationInfo
	}
	n := &models.Notification{
		UserID: in.UserID, ClientID: in.ClientID,
		Title: in.Title, Message: in.Message, Type: in.Type, Link: strings.TrimSpace(in.Link),
	}
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		v := validation.Violations{}
		validation.Required("title", in.Title, v)
		validation.OneOf("type", in.Type, models.NotificationTypes, v)
		if in.UserID == nil && in.ClientID == nil {
			v.Add("recipient", "required")
		}
		if in.UserID != nil {
			if err := requireRow[models.User](tx, "user_id", *in.UserID, v); err != nil {
				return audit.Entry{}, err
			}
		}
		if in.ClientID != nil {
			if err := requireRow[models.Client](tx, "client_id", *in.ClientID, v); err != nil {
				return audit.Entry{}, err
			}
		}
		if err := apperr.Invalid(v); err != nil {
			return audit.Entry{}, err
		}
		if err := store.New[models.Notification](tx).Create(ctx, n); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionCreate, EntityType: entityNotification, EntityID: n.ID, New: n}, nil
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// MarkNotificationRead marks one notification of r as read. Notifications of
// someone else are reported as not found.
func (s *CommunicationService) MarkNotificationRead(ctx context.Context, r Recipient, id string) error {
	q := r.query().Where("id = ?", id)
	res := q.Apply(s.DB.WithContext(ctx).Model(&models.Notification{})).Update("read", true)
	if res.Error != nil {
		return apperr.FromDB(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead returns the number of notifications changed.
func (s *CommunicationService) MarkAllNotificationsRead(ctx context.Context, r Recipient) (int64, error) {
	q := r.query().Where("read = ?", false)
	res := q.Apply(s.DB.WithContext(ctx).Model(&models.Notification{})).Update("read", true)
	if res.Error != nil {
		return 0, apperr.FromDB(res.Error)
	}
	return res.RowsAffected, nil
}

// notifyStaff creates one notification for every Admin and Partner.
func notifyStaff(ctx context.Context, tx *gorm.DB, title, message, link string) error {
	var ids []string
	err := tx.Model(&models.User{}).Where("role IN ?", []string{models.RoleAdmin, models.RolePartner}).Pluck("id", &ids).Error
	if err != nil {
		return apperr.FromDB(err)
	}
	notes := store.New[models.Notification](tx)
	for _, id := range ids {
		n := &models.Notification{UserID: &id, Title: title, Message: message, Type: models.NotificationInfo, Link: link}
		if err := notes.Create(ctx, n); err != nil {
			return err
		}
	}
	return nil
}
