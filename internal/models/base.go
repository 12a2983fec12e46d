package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Model carries the identifier and timestamps shared by every entity.
// IDs are UUID strings assigned on first insert and never reassigned.
type Model struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Model) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// All lists every entity in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Client{},
		&Matter{},
		&TaskTemplate{},
		&Task{},
		&TimeEntry{},
		&Expense{},
		&Lead{},
		&CalendarEvent{},
		&Invoice{},
		&InvoiceItem{},
		&Notification{},
		&ClientMessage{},
		&Document{},
		&DocumentTemplate{},
		&AuditLog{},
		&PasswordResetToken{},
		&Reminder{},
	}
}
