package models

import (
	"encoding/json"
	"time"
)

// TimeEntry is recorded work in minutes. Its amount is derived, never stored.
type TimeEntry struct {
	Model
	Description string    `gorm:"size:500;not null" json:"description"`
	Duration    int       `gorm:"not null" json:"duration"`
	Rate        float64   `gorm:"type:decimal(12,2);not null;default:0" json:"rate"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	Type        string    `gorm:"size:50" json:"type,omitempty"`
	IsBilled    bool      `gorm:"not null;default:false;index" json:"is_billed"`

	MatterID *string `gorm:"size:36;index" json:"matter_id,omitempty"`
	Matter   *Matter `gorm:"constraint:OnDelete:SET NULL" json:"matter,omitempty"`
}

// Amount is (duration / 60) × rate.
func (t TimeEntry) Amount() float64 {
	return float64(t.Duration) / 60 * t.Rate
}

// Hours is the duration in hours.
func (t TimeEntry) Hours() float64 {
	return float64(t.Duration) / 60
}

func (t TimeEntry) MarshalJSON() ([]byte, error) {
	type plain TimeEntry
	return json.Marshal(struct {
		plain
		Amount float64 `json:"amount"`
	}{plain(t), t.Amount()})
}

// Expense is an out-of-pocket cost attributable to a matter.
type Expense struct {
	Model
	Description string    `gorm:"size:500;not null" json:"description"`
	Amount      float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Category    string    `gorm:"size:100" json:"category"`
	Type        string    `gorm:"size:50" json:"type,omitempty"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	IsBilled    bool      `gorm:"not null;default:false" json:"is_billed"`

	MatterID *string `gorm:"size:36;index" json:"matter_id,omitempty"`
	Matter   *Matter `gorm:"constraint:OnDelete:SET NULL" json:"matter,omitempty"`
}

// SumAmounts totals the derived amount of entries.
func SumAmounts(entries []TimeEntry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Amount()
	}
	return total
}
