// Package billing holds the pure money arithmetic of invoices: printable
// statements with VAT, and time entry aggregation.
package billing

import (
	"fmt"
	"math"
	"time"

	"github.com/diewo77/go-lawfirm/i18n"
	"github.com/diewo77/go-lawfirm/internal/models"
)

// DefaultVATRate is applied to printed invoices.
const DefaultVATRate = 0.18

// Line is one row of a printed invoice.
type Line struct {
	Description string
	Quantity    float64
	UnitPrice   float64
	Total       float64
}

// Statement is everything needed to print an invoice as HTML or PDF.
type Statement struct {
	Lang          string
	Number        string
	Status        string
	Date          time.Time
	DueDate       time.Time
	ClientName    string
	ClientAddress string
	ClientEmail   string
	ClientTaxID   string
	Lines         []Line
	Subtotal      float64
	VATRate       float64
	VATAmount     float64
	Total         float64
	Currency      string
	Notes         string
}

// NewStatement computes the printable totals of inv. With line items the subtotal is
// the sum of quantity × unit price; without them the invoice amount is a single
// legal services line. VAT is applied to the subtotal.
func NewStatement(inv *models.Invoice, vatRate float64, currency, lang string, printed time.Time) Statement {
	s := Statement{
		Lang:     lang,
		Number:   inv.Number,
		Status:   inv.Status,
		Date:     printed,
		DueDate:  inv.DueDate,
		VATRate:  vatRate,
		Currency: currency,
		Notes:    inv.Notes,
	}
	if c := inv.Client; c != nil {
		s.ClientName, s.ClientAddress, s.ClientEmail, s.ClientTaxID = c.Name, c.Address, c.Email, c.TaxID
	}
	if len(inv.Items) == 0 {
		s.Lines = []Line{{
			Description: i18n.T(lang, "legal_services"),
			Quantity:    1,
			UnitPrice:   inv.Amount,
			Total:       inv.Amount,
		}}
	} else {
		for _, it := range inv.Items {
			s.Lines = append(s.Lines, Line{
				Description: it.Description,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
				Total:       it.Total(),
			})
		}
	}
	for _, l := range s.Lines {
		s.Subtotal += l.Total
	}
	s.VATAmount = s.Subtotal * vatRate
	s.Total = s.Subtotal * (1 + vatRate)
	return s
}

// ItemsSubtotal sums quantity × unit price over items.
func ItemsSubtotal(items []models.InvoiceItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Total()
	}
	return total
}

// Round2 rounds half away from zero to two decimals. Amounts are only rounded for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatMoney renders an amount with two decimals and the currency code.
func FormatMoney(v float64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", Round2(v))
	}
	return fmt.Sprintf("%.2f %s", Round2(v), currency)
}

// VATPercent renders the rate as a percentage, e.g. 0.18 -> "18".
func VATPercent(rate float64) string {
	return fmt.Sprintf("%g", Round2(rate*100))
}
