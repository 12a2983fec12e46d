package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	InvoiceStatusDraft   = "Draft"
	InvoiceStatusSent    = "Sent"
	InvoiceStatusPaid    = "Paid"
	InvoiceStatusOverdue = "Overdue"

	InvoicePrefix = "INV-"
)

var InvoiceStatuses = []string{InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue}

// Invoice is a bill issued to a client. Overdue is set explicitly, never derived from DueDate.
type Invoice struct {
	Model
	Number    string    `gorm:"size:20;not null;uniqueIndex" json:"number"`
	Amount    float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	IssueDate time.Time `gorm:"not null" json:"issue_date"`
	DueDate   time.Time `gorm:"not null;index" json:"due_date"`
	Status    string    `gorm:"size:20;not null;default:'Draft';index" json:"status"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`

	ClientID string        `gorm:"size:36;not null;index" json:"client_id"`
	Client   *Client       `gorm:"constraint:OnDelete:CASCADE" json:"client,omitempty"`
	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// InvoiceItem is an optional line of an invoice breakdown.
type InvoiceItem struct {
	Model
	InvoiceID   string  `gorm:"size:36;not null;index" json:"invoice_id"`
	Description string  `gorm:"size:500;not null" json:"description"`
	Quantity    float64 `gorm:"type:decimal(10,3);not null;default:1" json:"quantity"`
	UnitPrice   float64 `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Position    int     `gorm:"default:0" json:"position"`
}

// Total is quantity × unit price.
func (item InvoiceItem) Total() float64 {
	return item.Quantity * item.UnitPrice
}

// FormatInvoiceNumber renders seq as INV-NNNN (at least four digits).
func FormatInvoiceNumber(seq int) string {
	return fmt.Sprintf("%s%04d", InvoicePrefix, seq)
}

// ParseInvoiceNumber returns the numeric suffix of an INV-NNNN number.
func ParseInvoiceNumber(number string) (int, bool) {
	if !strings.HasPrefix(number, InvoicePrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(number[len(InvoicePrefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// NextInvoiceNumber returns the number following last, or INV-0001 when last
// is empty or not in INV-NNNN form.
func NextInvoiceNumber(last string) string {
	n, ok := ParseInvoiceNumber(last)
	if !ok {
		return FormatInvoiceNumber(1)
	}
	return FormatInvoiceNumber(n + 1)
}
