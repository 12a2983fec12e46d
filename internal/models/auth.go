package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResetTokenTTL is how long a password reset token stays usable.
const ResetTokenTTL = 24 * time.Hour

// PasswordResetToken is a single-use credential for resetting a staff password.
type PasswordResetToken struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Email     string    `gorm:"size:255;not null;index" json:"email"`
	Token     string    `gorm:"size:128;not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Used      bool      `gorm:"not null;default:false" json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *PasswordResetToken) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Usable reports whether the token is unused and not past ExpiresAt at now.
func (t *PasswordResetToken) Usable(now time.Time) bool {
	return !t.Used && !now.After(t.ExpiresAt)
}
