package models

import "time"

const (
	RoleAdmin     = "Admin"
	RolePartner   = "Partner"
	RoleAssociate = "Associate"
)

var Roles = []string{RoleAdmin, RolePartner, RoleAssociate}

// User is a member of the firm's staff.
type User struct {
	Model
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	Role         string     `gorm:"size:20;not null;default:'Associate'" json:"role"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Phone        string     `gorm:"size:50" json:"phone,omitempty"`
	BarNumber    string     `gorm:"size:50" json:"bar_number,omitempty"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
