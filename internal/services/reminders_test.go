package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchDueReminders(t *testing.T) {
	e := newEnv(t)
	ctx, u := e.staff(t, models.RoleAssociate)
	now := e.clock.Now()
	for _, in := range []services.ReminderInput{
		{Type: models.ReminderEmail, TriggerAt: now.Add(-time.Minute), EntityType: "Task", EntityID: "t1", Message: "Cevap dilekçesi son gün", UserID: &u.ID},
		{Type: models.ReminderSMS, TriggerAt: now, EntityType: "CalendarEvent", EntityID: "e1", Message: "Duruşma", UserID: &u.ID},
		{TriggerAt: now.Add(time.Hour), EntityType: "Task", EntityID: "t2", Message: "Sonra", UserID: &u.ID},
	} {
		_, err := e.svc.Reminders.Create(ctx, in)
		require.NoError(t, err)
	}

	n, err := e.svc.Reminders.DispatchDue(ctx, "tr")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	mails := e.mail.messages()
	require.Len(t, mails, 1)
	assert.Equal(t, u.Email, mails[0].To)
	assert.Contains(t, mails[0].Text, "Cevap dilekçesi son gün")

	notes, err := e.svc.Communications.Notifications(ctx, services.Recipient{UserID: u.ID}, true)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Duruşma", notes[0].Message)
	assert.Equal(t, models.NotificationWarning, notes[0].Type)

	pending, err := e.svc.Reminders.List(ctx, u.ID, true)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "t2", pending[0].EntityID)

	n, err = e.svc.Reminders.DispatchDue(ctx, "tr")
	require.NoError(t, err)
	assert.Zero(t, n, "sent reminders are never dispatched again")

	e.clock.Advance(2 * time.Hour)
	n, err = e.svc.Reminders.DispatchDue(ctx, "tr")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDispatchIsAtMostOnce(t *testing.T) {
	e := newEnv(t)
	ctx, u := e.staff(t, models.RoleAssociate)
	r, err := e.svc.Reminders.Create(ctx, services.ReminderInput{
		Type: models.ReminderEmail, TriggerAt: e.clock.Now(), EntityType: "Task", EntityID: "t", UserID: &u.ID,
	})
	require.NoError(t, err)

	e.mail.err = errors.New("smtp down")
	n, err := e.svc.Reminders.DispatchDue(ctx, "en")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := e.svc.Reminders.List(ctx, "", false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, r.ID, all[0].ID)
	assert.True(t, all[0].Sent)
	require.NotNil(t, all[0].SentAt)

	e.mail.err = nil
	n, err = e.svc.Reminders.DispatchDue(ctx, "en")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, e.mail.messages())
}

func TestReminderValidation(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RoleAssociate)
	_, err := e.svc.Reminders.Create(ctx, services.ReminderInput{Type: "pigeon"})
	v, ok := apperr.Violations(err)
	require.True(t, ok)
	assert.Equal(t, "invalid_choice", v["type"])
	assert.Equal(t, "required", v["trigger_at"])
	assert.Equal(t, "required", v["user_id"])
	assert.Equal(t, "required", v["entity_id"])
}

func TestCalendar(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RolePartner)
	c := e.client(t, ctx, "A", "a@example.com")
	m := e.matter(t, ctx, c.ID, "2024/1", 0)
	now := e.clock.Now()

	hearing, err := e.svc.Calendar.Create(ctx, services.EventInput{Title: "Duruşma", Date: now.Add(48 * time.Hour), Type: models.EventCourt, MatterID: &m.ID})
	require.NoError(t, err)
	_, err = e.svc.Calendar.Create(ctx, services.EventInput{Title: "Toplantı", Date: now.Add(24 * time.Hour)})
	require.NoError(t, err)
	_, err = e.svc.Calendar.Create(ctx, services.EventInput{Title: "Nisan", Date: time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	march, err := e.svc.Calendar.Month(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, march, 2)
	assert.Equal(t, "Toplantı", march[0].Title)

	upcoming, err := e.svc.Calendar.Upcoming(ctx, 36*time.Hour, 5)
	require.NoError(t, err)
	assert.Len(t, upcoming, 1)

	forMatter, err := e.svc.Calendar.Range(ctx, now, now.AddDate(1, 0, 0), m.ID)
	require.NoError(t, err)
	require.Len(t, forMatter, 1)
	assert.Equal(t, hearing.ID, forMatter[0].ID)

	end := now
	_, err = e.svc.Calendar.Update(ctx, hearing.ID, services.EventInput{Title: "Duruşma", Date: now.Add(time.Hour), EndDate: &end})
	v, _ := apperr.Violations(err)
	assert.Equal(t, "before_start", v["end_date"])

	require.NoError(t, e.svc.Calendar.Delete(ctx, hearing.ID))
	_, err = e.svc.Calendar.Get(ctx, hearing.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDashboard(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RolePartner)
	c := e.client(t, ctx, "A", "a@example.com")
	m := e.matter(t, ctx, c.ID, "2024/1", 600)
	closed := e.matter(t, ctx, c.ID, "2024/2", 0)
	_, err := e.svc.Matters.Update(ctx, closed.ID, services.MatterInput{ClientID: c.ID, CaseNumber: "2024/2", Name: "x", Status: models.MatterStatusClosed})
	require.NoError(t, err)

	billed, err := e.svc.Time.Log(ctx, services.TimeEntryInput{Description: "a", Duration: 60, MatterID: &m.ID})
	require.NoError(t, err)
	_, err = e.svc.Time.Log(ctx, services.TimeEntryInput{Description: "b", Duration: 30, MatterID: &m.ID})
	require.NoError(t, err)
	_, err = e.svc.Time.MarkAsBilled(ctx, []string{billed.ID})
	require.NoError(t, err)

	_, err = e.svc.Tasks.Create(ctx, services.TaskInput{Title: "open"})
	require.NoError(t, err)
	_, err = e.svc.Tasks.Create(ctx, services.TaskInput{Title: "done", Status: models.TaskStatusDone})
	require.NoError(t, err)

	inv, err := e.svc.Invoices.Create(ctx, services.InvoiceInput{ClientID: c.ID, Amount: 1500, DueDate: e.clock.Now()})
	require.NoError(t, err)
	_, err = e.svc.Invoices.UpdateStatus(ctx, inv.ID, models.InvoiceStatusOverdue)
	require.NoError(t, err)

	_, err = e.svc.Calendar.Create(ctx, services.EventInput{Title: "soon", Date: e.clock.Now().Add(time.Hour)})
	require.NoError(t, err)
	_, err = e.svc.Calendar.Create(ctx, services.EventInput{Title: "later", Date: e.clock.Now().AddDate(0, 0, 8)})
	require.NoError(t, err)

	d, err := e.svc.Dashboard.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, d.TotalClients)
	assert.EqualValues(t, 1, d.ActiveMatters)
	assert.EqualValues(t, 1, d.PendingTasks)
	assert.Equal(t, 600.0, d.TotalBilled)
	assert.Equal(t, 300.0, d.TotalUnbilled)
	assert.Equal(t, 1500.0, d.OverdueInvoices)
	require.Len(t, d.UpcomingEvents, 1)
	assert.Equal(t, "soon", d.UpcomingEvents[0].Title)
	assert.Len(t, d.RecentTasks, 2)
	assert.EqualValues(t, 1, d.MattersByStatus[models.MatterStatusClosed])
}

func TestAuditLogPages(t *testing.T) {
	e := newEnv(t)
	ctx, u := e.staff(t, models.RoleAdmin)
	for i := 0; i < services.AuditPageSize+3; i++ {
		_, err := e.svc.Leads.Create(ctx, services.LeadInput{Name: "L"})
		require.NoError(t, err)
	}
	first, err := e.svc.AuditLogs.List(ctx, services.AuditFilter{EntityType: "Lead"})
	require.NoError(t, err)
	assert.EqualValues(t, services.AuditPageSize+3, first.Total)
	assert.EqualValues(t, 2, first.Pages)
	assert.Equal(t, 1, first.Page)
	assert.Len(t, first.Logs, services.AuditPageSize)

	second, err := e.svc.AuditLogs.List(ctx, services.AuditFilter{EntityType: "Lead", UserID: u.ID, Page: 2})
	require.NoError(t, err)
	assert.Len(t, second.Logs, 3)

	none, err := e.svc.AuditLogs.List(ctx, services.AuditFilter{Action: models.ActionDelete})
	require.NoError(t, err)
	assert.Zero(t, none.Total)
	assert.Empty(t, none.Logs)
}
