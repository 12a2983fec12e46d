package models

import "time"

const (
	MatterStatusOpen    = "Open"
	MatterStatusPending = "Pending"
	MatterStatusTrial   = "Trial"
	MatterStatusClosed  = "Closed"

	FeeHourly      = "Hourly"
	FeeFixed       = "Fixed"
	FeeContingency = "Contingency"
)

var (
	MatterStatuses = []string{MatterStatusOpen, MatterStatusPending, MatterStatusTrial, MatterStatusClosed}
	FeeStructures  = []string{FeeHourly, FeeFixed, FeeContingency}
)

// Matter is a legal case or engagement. It always belongs to one client.
type Matter struct {
	Model
	CaseNumber          string    `gorm:"size:50;not null;index" json:"case_number"`
	Name                string    `gorm:"size:255;not null" json:"name"`
	PracticeArea        string    `gorm:"size:100" json:"practice_area"`
	Status              string    `gorm:"size:20;not null;default:'Open';index" json:"status"`
	FeeStructure        string    `gorm:"size:20;not null;default:'Hourly'" json:"fee_structure"`
	ResponsibleAttorney string    `gorm:"size:255" json:"responsible_attorney"`
	BillableRate        float64   `gorm:"type:decimal(12,2);not null;default:0" json:"billable_rate"`
	TrustBalance        float64   `gorm:"type:decimal(12,2);not null;default:0" json:"trust_balance"`
	OpenDate            time.Time `json:"open_date"`
	Description         string    `gorm:"type:text" json:"description,omitempty"`

	ClientID string  `gorm:"size:36;not null;index" json:"client_id"`
	Client   *Client `gorm:"constraint:OnDelete:CASCADE" json:"client,omitempty"`
}

func (m *Matter) IsClosed() bool { return m.Status == MatterStatusClosed }
