package models

import (
	"slices"
	"time"
)

const (
	LeadStatusNew       = "New"
	LeadStatusContacted = "Contacted"
	LeadStatusConverted = "Converted"
	LeadStatusLost      = "Lost"

	EventMeeting  = "Meeting"
	EventCourt    = "Court"
	EventDeadline = "Deadline"
)

var (
	LeadStatuses = []string{LeadStatusNew, LeadStatusContacted, LeadStatusConverted, LeadStatusLost}
	EventTypes   = []string{EventMeeting, EventCourt, EventDeadline}
)

// Lead is a prospective client.
type Lead struct {
	Model
	Name           string  `gorm:"size:255;not null" json:"name"`
	Email          string  `gorm:"size:255" json:"email,omitempty"`
	Phone          string  `gorm:"size:50" json:"phone,omitempty"`
	Source         string  `gorm:"size:100" json:"source"`
	Status         string  `gorm:"size:20;not null;default:'New';index" json:"status"`
	EstimatedValue float64 `gorm:"type:decimal(12,2);not null;default:0" json:"estimated_value"`
	PracticeArea   string  `gorm:"size:100" json:"practice_area"`
	Notes          string  `gorm:"type:text" json:"notes,omitempty"`
}

// IsTerminal reports whether the lead is Converted or Lost.
func (l *Lead) IsTerminal() bool {
	return l.Status == LeadStatusConverted || l.Status == LeadStatusLost
}

// CanTransitionTo follows New → Contacted → Converted | Lost.
// Converted and Lost admit no further transition.
func (l *Lead) CanTransitionTo(status string) bool {
	if !slices.Contains(LeadStatuses, status) {
		return false
	}
	if l.Status == status {
		return true
	}
	switch l.Status {
	case LeadStatusNew:
		return true
	case LeadStatusContacted:
		return status != LeadStatusNew
	}
	return false
}

// CalendarEvent is a dated entry such as a hearing or a filing deadline.
type CalendarEvent struct {
	Model
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Date        time.Time  `gorm:"not null;index" json:"date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Location    string     `gorm:"size:255" json:"location,omitempty"`
	Type        string     `gorm:"size:20;not null;default:'Meeting'" json:"type"`

	MatterID *string `gorm:"size:36;index" json:"matter_id,omitempty"`
	Matter   *Matter `gorm:"constraint:OnDelete:SET NULL" json:"matter,omitempty"`
}
