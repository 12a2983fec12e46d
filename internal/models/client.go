package models

import "time"

const (
	ClientTypeIndividual = "Individual"
	ClientTypeCorporate  = "Corporate"

	ClientStatusActive   = "Active"
	ClientStatusInactive = "Inactive"
)

var (
	ClientTypes    = []string{ClientTypeIndividual, ClientTypeCorporate}
	ClientStatuses = []string{ClientStatusActive, ClientStatusInactive}
)

// Client is a person or company the firm represents.
// Deleting a client removes its matters, invoices, messages and notifications.
type Client struct {
	Model
	Name               string     `gorm:"size:255;not null" json:"name"`
	Email              string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone              string     `gorm:"size:50" json:"phone,omitempty"`
	Company            string     `gorm:"size:255" json:"company,omitempty"`
	Address            string     `gorm:"size:500" json:"address,omitempty"`
	TaxID              string     `gorm:"size:50" json:"tax_id,omitempty"`
	Type               string     `gorm:"size:20;not null;default:'Individual'" json:"type"`
	Status             string     `gorm:"size:20;not null;default:'Active'" json:"status"`
	Notes              string     `gorm:"type:text" json:"notes,omitempty"`
	PortalPasswordHash string     `gorm:"size:255" json:"-"`
	PortalAccess       bool       `gorm:"not null;default:false" json:"portal_access"`
	LastLogin          *time.Time `json:"last_login,omitempty"`
}

// CanUsePortal reports whether the client may log into the portal at all.
func (c *Client) CanUsePortal() bool {
	return c.PortalAccess && c.PortalPasswordHash != ""
}
