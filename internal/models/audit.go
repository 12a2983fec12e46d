package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit actions. The string values are stored and must not change.
const (
	ActionCreate            = "CREATE"
	ActionUpdate            = "UPDATE"
	ActionDelete            = "DELETE"
	ActionView              = "VIEW"
	ActionLogin             = "LOGIN"
	ActionLogout            = "LOGOUT"
	ActionClientLogin       = "CLIENT_LOGIN"
	ActionClientLogout      = "CLIENT_LOGOUT"
	ActionConvert           = "CONVERT"
	ActionUpload            = "UPLOAD"
	ActionDownload          = "DOWNLOAD"
	ActionPrint             = "PRINT"
	ActionSendMessage       = "SEND_MESSAGE"
	ActionSendEmail         = "SEND_EMAIL"
	ActionReplyMessage      = "REPLY_MESSAGE"
	ActionChangePassword    = "CHANGE_PASSWORD"
	ActionAIGenerate        = "AI_GENERATE"
	ActionCreateZoomMeeting = "CREATE_ZOOM_MEETING"
	ActionCreateGoogleMeet  = "CREATE_GOOGLE_MEET"
)

var AuditActions = []string{
	ActionCreate, ActionUpdate, ActionDelete, ActionView, ActionLogin, ActionLogout,
	ActionClientLogin, ActionClientLogout, ActionConvert, ActionUpload, ActionDownload,
	ActionPrint, ActionSendMessage, ActionSendEmail, ActionReplyMessage, ActionChangePassword,
	ActionAIGenerate, ActionCreateZoomMeeting, ActionCreateGoogleMeet,
}

// ErrAuditImmutable is returned when code tries to modify a written audit row.
var ErrAuditImmutable = errors.New("audit_log_immutable")

// AuditLog is an append-only record of a state-changing operation.
type AuditLog struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      *string   `gorm:"size:36;index" json:"user_id,omitempty"`
	UserEmail   *string   `gorm:"size:255" json:"user_email,omitempty"`
	ClientID    *string   `gorm:"size:36;index" json:"client_id,omitempty"`
	ClientEmail *string   `gorm:"size:255" json:"client_email,omitempty"`
	Action      string    `gorm:"size:50;not null;index" json:"action"`
	EntityType  string    `gorm:"size:100;not null;index" json:"entity_type"`
	EntityID    *string   `gorm:"size:36;index" json:"entity_id,omitempty"`
	OldValues   *string   `gorm:"type:text" json:"old_values,omitempty"`
	NewValues   *string   `gorm:"type:text" json:"new_values,omitempty"`
	Details     *string   `gorm:"type:text" json:"details,omitempty"`
	IPAddress   *string   `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent   *string   `gorm:"size:500" json:"user_agent,omitempty"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

func (a *AuditLog) BeforeUpdate(*gorm.DB) error { return ErrAuditImmutable }

func (a *AuditLog) BeforeDelete(*gorm.DB) error { return ErrAuditImmutable }
