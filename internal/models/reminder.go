package models

import "time"

const (
	ReminderEmail        = "email"
	ReminderSMS          = "sms"
	ReminderNotification = "notification"
)

var ReminderTypes = []string{ReminderEmail, ReminderSMS, ReminderNotification}

// Reminder is dispatched by the scheduled job once TriggerAt has passed.
type Reminder struct {
	Model
	Type       string     `gorm:"size:20;not null;default:'notification'" json:"type"`
	TriggerAt  time.Time  `gorm:"not null;index" json:"trigger_at"`
	Sent       bool       `gorm:"not null;default:false;index" json:"sent"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
	EntityType string     `gorm:"size:100;not null" json:"entity_type"`
	EntityID   string     `gorm:"size:36;not null" json:"entity_id"`
	Message    string     `gorm:"type:text" json:"message,omitempty"`

	UserID *string `gorm:"size:36;index" json:"user_id,omitempty"`
	User   *User   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
