package services

import (
	"context"
	"strings"
	"time"

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

// ReminderService keeps reminders and dispatches the due ones.
type ReminderService struct {
	Deps
}

func NewReminderService(d Deps) *ReminderService {
	return &ReminderService{Deps: d.withDefaults()}
}

type ReminderInput struct {
	Type       string    `json:"type"`
	TriggerAt  time.Time `json:"trigger_at"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Message    string    `json:"message"`
	UserID     *string   `json:"user_id"`
}

func (s *ReminderService) Create(ctx context.Context, in ReminderInput) (*models.Reminder, error) {
	in.UserID = optionalID(in.UserID)
	in.EntityType, in.EntityID = strings.TrimSpace(in.EntityType), strings.TrimSpace(in.EntityID)
	if in.Type == "" {
		in.Type = models.ReminderNotification
	}
	r := &models.Reminder{
		Type: in.Type, TriggerAt: in.TriggerAt.UTC(), EntityType: in.EntityType,
		EntityID: in.EntityID, Message: in.Message, UserID: in.UserID,
	}
	err := s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		v := validation.Violations{}
		validation.OneOf("type", in.Type, models.ReminderTypes, v)
		validation.Required("entity_type", in.EntityType, v)
		validation.Required("entity_id", in.EntityID, v)
		if in.TriggerAt.IsZero() {
			v.Add("trigger_at", "required")
		}
		if in.UserID == nil {
			v.Add("user_id", "required")
		} else if err := requireRow[models.User](tx, "user_id", *in.UserID, v); err != nil {
			return audit.Entry{}, err
		}
		if err := apperr.Invalid(v); err != nil {
			return audit.Entry{}, err
		}
		if err := store.New[models.Reminder](tx).Create(ctx, r); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionCreate, EntityType: entityReminder, EntityID: r.ID, New: r}, nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ReminderService) List(ctx context.Context, userID string, pendingOnly bool) ([]models.Reminder, error) {
	q := store.Query{}.
		WhereIf(userID != "", "user_id = ?", userID).
		WhereIf(pendingOnly, "sent = ?", false).
		OrderBy("trigger_at ASC")
	return store.New[models.Reminder](s.DB).List(ctx, q)
}

func (s *ReminderService) Delete(ctx context.Context, id string) error {
	return s.Audit.Run(ctx, s.DB, func(tx *gorm.DB) (audit.Entry, error) {
		reminders := store.New[models.Reminder](tx)
		r, err := reminders.Find(ctx, id)
		if err != nil {
			return audit.Entry{}, err
		}
		if err := reminders.Delete(ctx, id); err != nil {
			return audit.Entry{}, err
		}
		return audit.Entry{Action: models.ActionDelete, EntityType: entityReminder, EntityID: id, Old: r}, nil
	})
}

// DispatchDue delivers every unsent reminder whose trigger time has passed and
// returns how many were claimed. Each reminder is claimed by flipping its sent
// flag before delivery, so concurrent dispatchers never deliver one twice;
// a failed delivery is logged and not retried.
func (s *ReminderService) DispatchDue(ctx context.Context, lang string) (int, error) {
	now := s.now()
	due, err := store.New[models.Reminder](s.DB).List(ctx, store.Query{}.
		Where("sent = ? AND trigger_at <= ?", false, now).
		Preload("User").
		OrderBy("trigger_at ASC").
		Limit(store.MaxLimit))
	if err != nil {
		return 0, err
	}
	claimed := 0
	for _, r := range due {
		res := s.DB.WithContext(ctx).Model(&models.Reminder{}).
			Where("id = ? AND sent = ?", r.ID, false).
			Updates(map[string]any{"sent": true, "sent_at": now})
		if res.Error != nil {
			return claimed, apperr.FromDB(res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}
		claimed++
		if err := s.deliver(ctx, r, lang); err != nil {
			s.Log.Warn("deliver reminder", zap.String("reminder_id", r.ID), zap.String("type", r.Type), zap.Error(err))
		}
	}
	return claimed, nil
}

func (s *ReminderService) deliver(ctx context.Context, r models.Reminder, lang string) error {
	if r.User == nil {
		s.Log.Warn("reminder without recipient", zap.String("reminder_id", r.ID))
		return nil
	}
	title := r.EntityType + " hatırlatması"
	switch r.Type {
	case models.ReminderEmail:
		body, err := view.RenderEmail("reminder", lang, view.ReminderEmail{Title: title, Message: r.Message})
		if err != nil {
			return err
		}
		return s.Mailer.Send(ctx, mail.Message{To: r.User.Email, Subject: body.Subject, Text: body.Text, HTML: body.HTML})
	case models.ReminderSMS:
		// No SMS gateway is wired; the reminder lands in the notification list instead.
		s.Log.Info("sms reminders are delivered as notifications", zap.String("reminder_id", r.ID))
	}
	n := &models.Notification{UserID: r.UserID, Title: title, Message: r.Message, Type: models.NotificationWarning}
	return store.New[models.Notification](s.DB).Create(ctx, n)
}
