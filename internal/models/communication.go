package models

import "time"

const (
	NotificationInfo    = "info"
	NotificationWarning = "warning"
	NotificationError   = "error"
	NotificationSuccess = "success"
)

var NotificationTypes = []string{NotificationInfo, NotificationWarning, NotificationError, NotificationSuccess}

// Notification targets a staff user, a portal client, or both.
type Notification struct {
	Model
	UserID   *string `gorm:"size:36;index" json:"user_id,omitempty"`
	User     *User   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ClientID *string `gorm:"size:36;index" json:"client_id,omitempty"`
	Client   *Client `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title    string  `gorm:"size:255;not null" json:"title"`
	Message  string  `gorm:"type:text" json:"message"`
	Type     string  `gorm:"size:20;not null;default:'info'" json:"type"`
	Link     string  `gorm:"size:500" json:"link,omitempty"`
	Read     bool    `gorm:"not null;default:false;index" json:"read"`
}

// ClientMessage is sent by a client through the portal.
type ClientMessage struct {
	Model
	ClientID  string     `gorm:"size:36;not null;index" json:"client_id"`
	Client    *Client    `gorm:"constraint:OnDelete:CASCADE" json:"client,omitempty"`
	MatterID  *string    `gorm:"size:36;index" json:"matter_id,omitempty"`
	Matter    *Matter    `gorm:"constraint:OnDelete:SET NULL" json:"matter,omitempty"`
	Subject   string     `gorm:"size:255;not null" json:"subject"`
	Message   string     `gorm:"type:text;not null" json:"message"`
	Read      bool       `gorm:"not null;default:false" json:"read"`
	Reply     string     `gorm:"type:text" json:"reply,omitempty"`
	RepliedAt *time.Time `json:"replied_at,omitempty"`
	RepliedBy *string    `gorm:"size:36" json:"replied_by,omitempty"`
}
