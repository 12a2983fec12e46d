package services_test

import (
	"testing"
	"time"

	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogTimeUsesMatterRate(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RoleAssociate)
	c := e.client(t, ctx, "Ayşe Yılmaz", "ayse@example.com")
	m := e.matter(t, ctx, c.ID, "2024/123", 500)

	entry, err := e.svc.Time.Log(ctx, services.TimeEntryInput{
		Description: "Dilekçe hazırlığı", Duration: 90, MatterID: &m.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 500.0, entry.Rate)
	assert.Equal(t, 750.0, entry.Amount())
	assert.False(t, entry.IsBilled)
	assert.Equal(t, e.clock.Now(), entry.Date.UTC())

	sheet, err := e.svc.Time.List(ctx, services.TimeFilter{MatterID: m.ID})
	require.NoError(t, err)
	require.Len(t, sheet.Entries, 1)
	assert.Equal(t, 750.0, sheet.Totals.Unbilled)
	assert.Equal(t, 90, sheet.Totals.TotalMinutes)

	details, err := e.svc.Matters.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 750.0, details.Time.Unbilled)
}

func TestLogTimeExplicitRateAndValidation(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RoleAssociate)
	c := e.client(t, ctx, "A", "a@example.com")
	m := e.matter(t, ctx, c.ID, "2024/1", 500)

	entry, err := e.svc.Time.Log(ctx, services.TimeEntryInput{Description: "Duruşma", Duration: 30, Rate: 1200, MatterID: &m.ID})
	require.NoError(t, err)
	assert.Equal(t, 600.0, entry.Amount())

	zero, err := e.svc.Time.Log(ctx, services.TimeEntryInput{Description: "Telefon", Duration: 0, Rate: 500})
	require.NoError(t, err)
	assert.Zero(t, zero.Duration)
	assert.Zero(t, zero.Amount())

	_, err = e.svc.Time.Log(ctx, services.TimeEntryInput{Description: "x", Duration: -1})
	v, ok := apperr.Violations(err)
	require.True(t, ok)
	assert.Equal(t, "must_not_be_negative", v["duration"])

	_, err = e.svc.Time.Log(ctx, services.TimeEntryInput{Duration: 10, Rate: -1, MatterID: ptr("missing")})
	v, _ = apperr.Violations(err)
	assert.Equal(t, "required", v["description"])
	assert.Equal(t, "must_not_be_negative", v["rate"])
	assert.Equal(t, "not_found", v["matter_id"])
}

func TestMarkAsBilled(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RolePartner)
	c := e.client(t, ctx, "A", "a@example.com")
	other := e.client(t, ctx, "B", "b@example.com")
	m := e.matter(t, ctx, c.ID, "2024/1", 600)
	om := e.matter(t, ctx, other.ID, "2024/2", 600)

	var ids []string
	for _, d := range []int{60, 30} {
		entry, err := e.svc.Time.Log(ctx, services.TimeEntryInput{Description: "iş", Duration: d, MatterID: &m.ID})
		require.NoError(t, err)
		ids = append(ids, entry.ID)
	}
	_, err := e.svc.Time.Log(ctx, services.TimeEntryInput{Description: "başka", Duration: 15, MatterID: &om.ID})
	require.NoError(t, err)

	unbilled, err := e.svc.Time.Unbilled(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, unbilled, 2)

	n, err := e.svc.Time.MarkAsBilled(ctx, ids)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	rows := e.auditRows(t, models.ActionUpdate)
	require.Len(t, rows, 1)
	assert.Equal(t, "TimeEntry", rows[0].EntityType)
	assert.Equal(t, "Marked 2 entries as billed", *rows[0].Details)

	n, err = e.svc.Time.MarkAsBilled(ctx, ids)
	require.NoError(t, err)
	assert.Zero(t, n)

	unbilled, err = e.svc.Time.Unbilled(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, unbilled)
	unbilled, err = e.svc.Time.Unbilled(ctx, "")
	require.NoError(t, err)
	assert.Len(t, unbilled, 1)

	billed := true
	sheet, err := e.svc.Time.List(ctx, services.TimeFilter{Billed: &billed})
	require.NoError(t, err)
	assert.Len(t, sheet.Entries, 2)
	assert.Equal(t, 900.0, sheet.Totals.Billed)
	assert.Equal(t, 90, sheet.Totals.BilledMinutes)

	_, err = e.svc.Time.Update(ctx, ids[0], services.TimeEntryInput{Description: "değişti", Duration: 5})
	v, _ := apperr.Violations(err)
	assert.Equal(t, "already_billed", v["is_billed"])

	_, err = e.svc.Time.MarkAsBilled(ctx, nil)
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
}

func TestTimeListDateRange(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RoleAssociate)
	day := e.clock.Now()
	for i := 0; i < 3; i++ {
		_, err := e.svc.Time.Log(ctx, services.TimeEntryInput{Description: "gün", Duration: 60, Rate: 100, Date: day.AddDate(0, 0, i)})
		require.NoError(t, err)
	}
	from, to := day.Add(time.Hour), day.AddDate(0, 0, 2)
	sheet, err := e.svc.Time.List(ctx, services.TimeFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, sheet.Entries, 2)
	assert.Equal(t, 200.0, sheet.Totals.Unbilled)
}

func TestExpenses(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RoleAssociate)
	c := e.client(t, ctx, "A", "a@example.com")
	m := e.matter(t, ctx, c.ID, "2024/9", 0)

	first, err := e.svc.Time.CreateExpense(ctx, services.ExpenseInput{Description: "Harç", Amount: 427.6, Category: "Mahkeme", MatterID: &m.ID})
	require.NoError(t, err)
	_, err = e.svc.Time.CreateExpense(ctx, services.ExpenseInput{Description: "Yol", Amount: 150, MatterID: &m.ID})
	require.NoError(t, err)

	list, total, err := e.svc.Time.Expenses(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.InDelta(t, 577.6, total, 1e-9)

	updated, err := e.svc.Time.UpdateExpense(ctx, first.ID, services.ExpenseInput{Description: "Harç", Amount: 500, MatterID: &m.ID})
	require.NoError(t, err)
	assert.Equal(t, 500.0, updated.Amount)

	_, err = e.svc.Time.CreateExpense(ctx, services.ExpenseInput{Description: "x", Amount: -1})
	v, _ := apperr.Violations(err)
	assert.Equal(t, "must_not_be_negative", v["amount"])

	require.NoError(t, e.svc.Time.DeleteExpense(ctx, first.ID))
	assert.ErrorIs(t, e.svc.Time.DeleteExpense(ctx, first.ID), apperr.ErrNotFound)
}
