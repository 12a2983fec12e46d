package billing

import (
	"testing"
	"time"

	"github.com/diewo77/go-lawfirm/internal/models"
)

func TestNewStatementWithoutItemsAppliesVAT(t *testing.T) {
	inv := &models.Invoice{
		Number: "INV-0007",
		Amount: 1000,
		Client: &models.Client{Name: "Ayşe Yılmaz", Email: "ayse@example.com"},
	}
	s := NewStatement(inv, DefaultVATRate, "TRY", "tr", time.Now())
	if len(s.Lines) != 1 || s.Lines[0].Description != "Hukuki Danışmanlık Hizmeti" {
		t.Fatalf("unexpected lines %+v", s.Lines)
	}
	if s.Subtotal != 1000 || Round2(s.VATAmount) != 180 || Round2(s.Total) != 1180 {
		t.Fatalf("unexpected totals subtotal=%v vat=%v total=%v", s.Subtotal, s.VATAmount, s.Total)
	}
	if s.ClientName != "Ayşe Yılmaz" {
		t.Fatalf("client not copied: %+v", s)
	}
}

func TestNewStatementWithItems(t *testing.T) {
	inv := &models.Invoice{
		Number: "INV-0008",
		Amount: 999, // ignored when items exist
		Items: []models.InvoiceItem{
			{Description: "Dilekçe", Quantity: 2, UnitPrice: 250},
			{Description: "Duruşma", Quantity: 1.5, UnitPrice: 1000},
		},
	}
	s := NewStatement(inv, DefaultVATRate, "TRY", "en", time.Now())
	if s.Subtotal != 2000 {
		t.Fatalf("expected subtotal 2000, got %v", s.Subtotal)
	}
	if Round2(s.Total) != 2360 {
		t.Fatalf("expected total 2360, got %v", s.Total)
	}
	if s.Lines[1].Total != 1500 {
		t.Fatalf("unexpected line total %v", s.Lines[1].Total)
	}
}

func TestSumTime(t *testing.T) {
	entries := []models.TimeEntry{
		{Duration: 90, Rate: 500, IsBilled: false},
		{Duration: 30, Rate: 200, IsBilled: true},
		{Duration: 45, Rate: 100, IsBilled: false},
	}
	got := SumTime(entries)
	if got.Unbilled != 750+75 || got.Billed != 100 {
		t.Fatalf("unexpected totals %+v", got)
	}
	if got.TotalMinutes != 165 || got.BilledMinutes != 30 {
		t.Fatalf("unexpected minutes %+v", got)
	}
}

func TestFormatting(t *testing.T) {
	if got := FormatMoney(1234.5, "TRY"); got != "1234.50 TRY" {
		t.Fatalf("got %q", got)
	}
	if got := VATPercent(0.18); got != "18" {
		t.Fatalf("got %q", got)
	}
}
