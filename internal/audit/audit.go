// Package audit appends immutable audit rows for state-changing operations.
//
// Rows are written with the caller's transaction handle, so the business mutation
// and its audit entry commit or roll back together.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diewo77/go-lawfirm/internal/models"
	"gorm.io/gorm"
)

// Entry describes one audited operation.
type Entry struct {
	Action     string
	EntityType string
	EntityID   string
	// Old and New are serialized as JSON. Strings are stored as is.
	Old     any
	New     any
	Details string
	// Actor overrides the actor derived from the context, for operations such as
	// login where the session does not exist yet.
	Actor *Actor
}

// Service writes audit rows.
type Service struct {
	onRecord func(action string)
	now      func() time.Time
}

// New returns a Service. onRecord, when non-nil, is called for every appended row.
func New(onRecord func(action string)) *Service {
	return &Service{onRecord: onRecord, now: time.Now}
}

// Record appends one row for e using tx.
func (s *Service) Record(ctx context.Context, tx *gorm.DB, e Entry) error {
	if e.Action == "" || e.EntityType == "" {
		return fmt.Errorf("audit: action and entity type are required")
	}
	actor := ActorFrom(ctx)
	if e.Actor != nil {
		ip, ua := actor.IP, actor.UserAgent
		actor = *e.Actor
		if actor.IP == "" {
			actor.IP = ip
		}
		if actor.UserAgent == "" {
			actor.UserAgent = ua
		}
	}
	oldValues, err := serialize(e.Old)
	if err != nil {
		return fmt.Errorf("audit: old values: %w", err)
	}
	newValues, err := serialize(e.New)
	if err != nil {
		return fmt.Errorf("audit: new values: %w", err)
	}
	row := models.AuditLog{
		UserID:      optional(actor.UserID),
		UserEmail:   optional(actor.UserEmail),
		ClientID:    optional(actor.ClientID),
		ClientEmail: optional(actor.ClientEmail),
		Action:      e.Action,
		EntityType:  e.EntityType,
		EntityID:    optional(e.EntityID),
		OldValues:   oldValues,
		NewValues:   newValues,
		Details:     optional(e.Details),
		IPAddress:   optional(actor.IP),
		UserAgent:   optional(truncate(actor.UserAgent, 500)),
		CreatedAt:   s.now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("audit: append %s %s: %w", e.Action, e.EntityType, err)
	}
	if s.onRecord != nil {
		s.onRecord(e.Action)
	}
	return nil
}

// Run executes fn and the audit append for the entry it returns in one transaction.
// When fn fails nothing is written.
func (s *Service) Run(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) (Entry, error)) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := fn(tx)
		if err != nil {
			return err
		}
		return s.Record(ctx, tx, e)
	})
}

func serialize(v any) (*string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return optional(val), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(b)
	if s == "null" {
		return nil, nil
	}
	return &s, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
