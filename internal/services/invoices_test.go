package services_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceNumbersAreSequential(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RolePartner)
	c := e.client(t, ctx, "Ayşe Yılmaz", "ayse@example.com")

	next, err := e.svc.Invoices.NextNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-0001", next)

	var got []string
	for i := 0; i < 3; i++ {
		inv, err := e.svc.Invoices.Create(ctx, services.InvoiceInput{
			ClientID: c.ID, Amount: 1000, DueDate: e.clock.Now().AddDate(0, 0, 30),
		})
		require.NoError(t, err)
		assert.Equal(t, models.InvoiceStatusDraft, inv.Status)
		got = append(got, inv.Number)
	}
	assert.Equal(t, []string{"INV-0001", "INV-0002", "INV-0003"}, got)
}

func TestInvoiceNumberingPastFourDigits(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RoleAdmin)
	c := e.client(t, ctx, "A", "a@example.com")
	seed := models.Invoice{Number: "INV-9999", Amount: 1, IssueDate: e.clock.Now(), DueDate: e.clock.Now(), ClientID: c.ID}
	require.NoError(t, e.db.Create(&seed).Error)

	inv, err := e.svc.Invoices.Create(ctx, services.InvoiceInput{ClientID: c.ID, Amount: 5, DueDate: e.clock.Now()})
	require.NoError(t, err)
	assert.Equal(t, "INV-10000", inv.Number)

	inv, err = e.svc.Invoices.Create(ctx, services.InvoiceInput{ClientID: c.ID, Amount: 5, DueDate: e.clock.Now()})
	require.NoError(t, err)
	assert.Equal(t, "INV-10001", inv.Number)
}

func TestInvoiceCreateValidation(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RoleAdmin)

	_, err := e.svc.Invoices.Create(ctx, services.InvoiceInput{Amount: -5})
	v, ok := apperr.Violations(err)
	require.True(t, ok)
	assert.Equal(t, "required", v["client_id"])
	assert.Equal(t, "required", v["due_date"])
	assert.Equal(t, "must_not_be_negative", v["amount"])

	_, err = e.svc.Invoices.Create(ctx, services.InvoiceInput{ClientID: "missing", Amount: 1, DueDate: e.clock.Now()})
	v, _ = apperr.Violations(err)
	assert.Equal(t, "not_found", v["client_id"])

	n, err := e.svc.Invoices.NextNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-0001", n, "rejected invoices must not consume numbers")
}

func TestInvoiceZeroAmount(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RolePartner)
	c := e.client(t, ctx, "A", "a@example.com")

	inv, err := e.svc.Invoices.Create(ctx, services.InvoiceInput{ClientID: c.ID, DueDate: e.clock.Now()})
	require.NoError(t, err)
	assert.Equal(t, "INV-0001", inv.Number)
	assert.Zero(t, inv.Amount)

	st, err := e.svc.Invoices.Statement(ctx, inv.ID, "tr")
	require.NoError(t, err)
	assert.Zero(t, st.Total)
}

func TestInvoiceItemsDefineAmount(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RolePartner)
	c := e.client(t, ctx, "Acme", "acme@example.com")

	inv, err := e.svc.Invoices.Create(ctx, services.InvoiceInput{
		ClientID: c.ID,
		Amount:   1,
		DueDate:  e.clock.Now().AddDate(0, 1, 0),
		Items: []services.InvoiceItemInput{
			{Description: "Danışmanlık", Quantity: 2, UnitPrice: 500},
			{Description: "Dilekçe", UnitPrice: 250},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1250.0, inv.Amount)

	got, err := e.svc.Invoices.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Danışmanlık", got.Items[0].Description)
	assert.Equal(t, 1.0, got.Items[1].Quantity)

	st, err := e.svc.Invoices.Statement(ctx, inv.ID, "tr")
	require.NoError(t, err)
	assert.InDelta(t, 1250, st.Subtotal, 1e-9)
	assert.InDelta(t, 225, st.VATAmount, 1e-9)
	assert.InDelta(t, 1475, st.Total, 1e-9)
	assert.Equal(t, e.clock.Now(), st.Date)
}

func TestInvoiceStatusChangesAreAudited(t *testing.T) {
	e := newEnv(t)
	ctx, u := e.staff(t, models.RolePartner)
	c := e.client(t, ctx, "A", "a@example.com")
	inv, err := e.svc.Invoices.Create(ctx, services.InvoiceInput{ClientID: c.ID, Amount: 100, DueDate: e.clock.Now()})
	require.NoError(t, err)

	// Any status may follow any other; Overdue is only ever set explicitly.
	for _, st := range []string{models.InvoiceStatusOverdue, models.InvoiceStatusDraft, models.InvoiceStatusPaid} {
		_, err := e.svc.Invoices.UpdateStatus(ctx, inv.ID, st)
		require.NoError(t, err)
	}
	_, err = e.svc.Invoices.UpdateStatus(ctx, inv.ID, "Cancelled")
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
	_, err = e.svc.Invoices.UpdateStatus(ctx, "missing", models.InvoiceStatusPaid)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var updates []models.AuditLog
	require.NoError(t, e.db.Where("action = ? AND entity_type = ?", models.ActionUpdate, "Invoice").Order("created_at").Find(&updates).Error)
	require.Len(t, updates, 3)
	first := updates[0]
	assert.Equal(t, u.ID, *first.UserID)
	var old, neu map[string]string
	require.NoError(t, json.Unmarshal([]byte(*first.OldValues), &old))
	require.NoError(t, json.Unmarshal([]byte(*first.NewValues), &neu))
	assert.Equal(t, "Draft", old["status"])
	assert.Equal(t, "Overdue", neu["status"])
}

func TestInvoiceListSums(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RolePartner)
	a := e.client(t, ctx, "A", "a@example.com")
	b := e.client(t, ctx, "B", "b@example.com")
	for _, amount := range []float64{100, 200} {
		_, err := e.svc.Invoices.Create(ctx, services.InvoiceInput{ClientID: a.ID, Amount: amount, DueDate: e.clock.Now()})
		require.NoError(t, err)
	}
	inv, err := e.svc.Invoices.Create(ctx, services.InvoiceInput{ClientID: b.ID, Amount: 50, DueDate: e.clock.Now()})
	require.NoError(t, err)
	_, err = e.svc.Invoices.UpdateStatus(ctx, inv.ID, models.InvoiceStatusOverdue)
	require.NoError(t, err)

	list, err := e.svc.Invoices.List(ctx, services.InvoiceFilter{ClientID: a.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.Total)
	assert.Equal(t, 300.0, list.Sums[models.InvoiceStatusDraft])
	assert.Equal(t, 50.0, list.Sums[models.InvoiceStatusOverdue])
	assert.Equal(t, 0.0, list.Sums[models.InvoiceStatusPaid])
}

func TestInvoicePrint(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RolePartner)
	c := e.client(t, ctx, "Ayşe Yılmaz", "ayse@example.com")
	inv, err := e.svc.Invoices.Create(ctx, services.InvoiceInput{ClientID: c.ID, Amount: 1000, DueDate: e.clock.Now().Add(24 * time.Hour)})
	require.NoError(t, err)

	html, err := e.svc.Invoices.Print(ctx, inv.ID, "tr", services.FormatHTML)
	require.NoError(t, err)
	assert.Equal(t, "INV-0001.html", html.Filename)
	assert.Contains(t, string(html.Body), "INV-0001")
	assert.Contains(t, string(html.Body), "Ayşe Yılmaz")
	assert.Contains(t, string(html.Body), "1180.00")

	pdf, err := e.svc.Invoices.Print(ctx, inv.ID, "en", services.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.True(t, bytes.HasPrefix(pdf.Body, []byte("%PDF-")))

	_, err = e.svc.Invoices.Print(ctx, inv.ID, "tr", "docx")
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)

	assert.Len(t, e.auditRows(t, models.ActionPrint), 2)
}

func TestInvoiceDeleteRemovesItems(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RoleAdmin)
	c := e.client(t, ctx, "A", "a@example.com")
	inv, err := e.svc.Invoices.Create(ctx, services.InvoiceInput{
		ClientID: c.ID, DueDate: e.clock.Now(),
		Items: []services.InvoiceItemInput{{Description: "x", Quantity: 1, UnitPrice: 10}},
	})
	require.NoError(t, err)

	require.NoError(t, e.svc.Invoices.Delete(ctx, inv.ID))
	_, err = e.svc.Invoices.Get(ctx, inv.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	var items int64
	require.NoError(t, e.db.Model(&models.InvoiceItem{}).Count(&items).Error)
	assert.Zero(t, items)
	assert.Len(t, e.auditRows(t, models.ActionDelete), 1)
}
