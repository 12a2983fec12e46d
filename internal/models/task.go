package models

import (
	"encoding/json"
	"time"
)

const (
	TaskStatusToDo       = "To Do"
	TaskStatusInProgress = "In Progress"
	TaskStatusReview     = "Review"
	TaskStatusDone       = "Done"

	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

var (
	TaskStatuses = []string{TaskStatusToDo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone}
	Priorities   = []string{PriorityHigh, PriorityMedium, PriorityLow}
)

// Task is a unit of internal work, optionally tied to a matter.
// It survives deletion of its matter, assignee or template.
type Task struct {
	Model
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ReminderAt  *time.Time `json:"reminder_at,omitempty"`
	Priority    string     `gorm:"size:10;not null;default:'Medium'" json:"priority"`
	Status      string     `gorm:"size:20;not null;default:'To Do';index" json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	MatterID     *string       `gorm:"size:36;index" json:"matter_id,omitempty"`
	Matter       *Matter       `gorm:"constraint:OnDelete:SET NULL" json:"matter,omitempty"`
	AssignedToID *string       `gorm:"size:36;index" json:"assigned_to_id,omitempty"`
	AssignedTo   *User         `gorm:"foreignKey:AssignedToID;constraint:OnDelete:SET NULL" json:"assigned_to,omitempty"`
	TemplateID   *string       `gorm:"size:36;index" json:"template_id,omitempty"`
	Template     *TaskTemplate `gorm:"foreignKey:TemplateID;constraint:OnDelete:SET NULL" json:"-"`
}

// SetStatus applies a status change. Moving into Done from any other status
// stamps CompletedAt with now; staying in Done leaves it untouched.
func (t *Task) SetStatus(status string, now time.Time) {
	if status == TaskStatusDone && t.Status != TaskStatusDone {
		t.CompletedAt = &now
	}
	t.Status = status
}

// TaskTemplate is a reusable checklist that expands into tasks.
type TaskTemplate struct {
	Model
	Name        string `gorm:"size:255;not null" json:"name"`
	Category    string `gorm:"size:100" json:"category"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Definition  string `gorm:"type:text" json:"definition"`
	IsActive    bool   `gorm:"not null" json:"is_active"`
}

// TemplateStep is one entry of a TaskTemplate definition.
type TemplateStep struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueInDays   int    `json:"due_in_days,omitempty"`
}

// Steps decodes Definition, a JSON array of TemplateStep.
func (t *TaskTemplate) Steps() ([]TemplateStep, error) {
	if t.Definition == "" {
		return nil, nil
	}
	var steps []TemplateStep
	if err := json.Unmarshal([]byte(t.Definition), &steps); err != nil {
		return nil, err
	}
	return steps, nil
}
