package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/go-lawfirm/auth"
	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func portalCtx(c *models.Client) context.Context {
	return auth.WithClient(context.Background(), auth.Principal{ID: c.ID, Email: c.Email, Scope: auth.ScopePortal})
}

func TestClientMessageRoundTrip(t *testing.T) {
	e := newEnv(t)
	staffCtx, partner := e.staff(t, models.RolePartner)
	_, associate := e.staff(t, models.RoleAssociate)
	c := e.client(t, staffCtx, "Ayşe Yılmaz", "ayse@example.com")
	m := e.matter(t, staffCtx, c.ID, "2024/123", 500)
	pctx := portalCtx(c)

	msg, err := e.svc.Portal.SendMessage(pctx, c.ID, services.MessageInput{Subject: "Duruşma tarihi", Message: "Ne zaman?", MatterID: &m.ID})
	require.NoError(t, err)
	assert.False(t, msg.Read)

	partnerNotes, err := e.svc.Communications.Notifications(staffCtx, services.Recipient{UserID: partner.ID}, true)
	require.NoError(t, err)
	require.Len(t, partnerNotes, 1)
	assert.Equal(t, "Yeni müvekkil mesajı: Ayşe Yılmaz", partnerNotes[0].Title)
	associateNotes, err := e.svc.Communications.Notifications(staffCtx, services.Recipient{UserID: associate.ID}, false)
	require.NoError(t, err)
	assert.Empty(t, associateNotes)

	sent := e.auditRows(t, models.ActionSendMessage)
	require.Len(t, sent, 1)
	assert.Equal(t, c.ID, *sent[0].ClientID)

	unread, err := e.svc.Communications.UnreadCount(staffCtx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	replied, err := e.svc.Communications.Reply(staffCtx, msg.ID, "  15 Nisan 10:00  ", "tr")
	require.NoError(t, err)
	assert.Equal(t, "15 Nisan 10:00", replied.Reply)
	assert.True(t, replied.Read)

	inbox, err := e.svc.Communications.Inbox(staffCtx, services.InboxFilter{ClientID: c.ID})
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	require.NotNil(t, inbox[0].RepliedBy)
	assert.Equal(t, partner.ID, *inbox[0].RepliedBy)

	clientNotes, err := e.svc.Communications.Notifications(pctx, services.Recipient{ClientID: c.ID}, true)
	require.NoError(t, err)
	require.Len(t, clientNotes, 1)
	assert.Equal(t, "Re: Duruşma tarihi", clientNotes[0].Title)
	assert.Equal(t, "/portal/messages", clientNotes[0].Link)

	mails := e.mail.messages()
	require.Len(t, mails, 1)
	assert.Equal(t, "ayse@example.com", mails[0].To)
	assert.Contains(t, mails[0].Text, "15 Nisan 10:00")
	assert.Len(t, e.auditRows(t, models.ActionReplyMessage), 1)

	assert.ErrorIs(t, e.svc.Communications.MarkNotificationRead(pctx, services.Recipient{ClientID: c.ID}, partnerNotes[0].ID), apperr.ErrNotFound)
	require.NoError(t, e.svc.Communications.MarkNotificationRead(pctx, services.Recipient{ClientID: c.ID}, clientNotes[0].ID))
	n, err := e.svc.Communications.MarkAllNotificationsRead(staffCtx, services.Recipient{UserID: partner.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestReplySurvivesMailFailure(t *testing.T) {
	e := newEnv(t)
	staffCtx, _ := e.staff(t, models.RoleAdmin)
	c := e.client(t, staffCtx, "A", "a@example.com")
	msg, err := e.svc.Portal.SendMessage(portalCtx(c), c.ID, services.MessageInput{Subject: "s", Message: "m"})
	require.NoError(t, err)

	e.mail.err = errors.New("smtp down")
	_, err = e.svc.Communications.Reply(staffCtx, msg.ID, "ok", "en")
	require.NoError(t, err)
	assert.Len(t, e.auditRows(t, models.ActionReplyMessage), 1)

	_, err = e.svc.Communications.Reply(staffCtx, msg.ID, "   ", "en")
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
}

func TestPortalMessageRejectsForeignMatter(t *testing.T) {
	e := newEnv(t)
	staffCtx, _ := e.staff(t, models.RoleAdmin)
	a := e.client(t, staffCtx, "A", "a@example.com")
	b := e.client(t, staffCtx, "B", "b@example.com")
	bm := e.matter(t, staffCtx, b.ID, "2024/2", 0)

	_, err := e.svc.Portal.SendMessage(portalCtx(a), a.ID, services.MessageInput{Subject: "s", Message: "m", MatterID: &bm.ID})
	v, ok := apperr.Violations(err)
	require.True(t, ok)
	assert.Equal(t, "not_found", v["matter_id"])

	_, err = e.svc.Portal.Matter(portalCtx(a), a.ID, bm.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSendEmail(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RolePartner)

	in := services.EmailInput{To: "Karsi.Taraf@Example.com", Subject: "İhtarname", Body: "Metin"}
	require.NoError(t, e.svc.Communications.SendEmail(ctx, in, "tr"))
	mails := e.mail.messages()
	require.Len(t, mails, 1)
	assert.Equal(t, "karsi.taraf@example.com", mails[0].To)
	assert.Equal(t, "İhtarname", mails[0].Subject)
	rows := e.auditRows(t, models.ActionSendEmail)
	require.Len(t, rows, 1)
	assert.Equal(t, "To: karsi.taraf@example.com, Subject: İhtarname", *rows[0].Details)

	e.mail.err = errors.New("connection refused")
	err := e.svc.Communications.SendEmail(ctx, in, "tr")
	assert.ErrorIs(t, err, apperr.ErrExternalService)
	assert.Len(t, e.auditRows(t, models.ActionSendEmail), 1)

	err = e.svc.Communications.SendEmail(ctx, services.EmailInput{To: "not-an-address"}, "tr")
	v, _ := apperr.Violations(err)
	assert.Equal(t, "invalid_email", v["to"])
}

func TestCreateNotificationNeedsRecipient(t *testing.T) {
	e := newEnv(t)
	ctx, u := e.staff(t, models.RoleAdmin)
	_, err := e.svc.Communications.CreateNotification(ctx, services.NotificationInput{Title: "x"})
	v, _ := apperr.Violations(err)
	assert.Equal(t, "required", v["recipient"])

	n, err := e.svc.Communications.CreateNotification(ctx, services.NotificationInput{UserID: &u.ID, Title: "Süre doluyor", Type: models.NotificationWarning})
	require.NoError(t, err)
	assert.False(t, n.Read)
	list, err := e.svc.Communications.Notifications(ctx, services.Recipient{UserID: u.ID}, false)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPortalDashboard(t *testing.T) {
	e := newEnv(t)
	staffCtx, _ := e.staff(t, models.RolePartner)
	c := e.client(t, staffCtx, "A", "a@example.com")
	other := e.client(t, staffCtx, "B", "b@example.com")
	e.matter(t, staffCtx, c.ID, "2024/1", 0)
	closed := e.matter(t, staffCtx, c.ID, "2024/2", 0)
	_, err := e.svc.Matters.Update(staffCtx, closed.ID, services.MatterInput{
		ClientID: c.ID, CaseNumber: "2024/2", Name: "Kapalı", Status: models.MatterStatusClosed,
	})
	require.NoError(t, err)
	e.matter(t, staffCtx, other.ID, "2024/3", 0)

	for _, amount := range []float64{100, 250} {
		inv, err := e.svc.Invoices.Create(staffCtx, services.InvoiceInput{ClientID: c.ID, Amount: amount, DueDate: e.clock.Now()})
		require.NoError(t, err)
		_, err = e.svc.Invoices.UpdateStatus(staffCtx, inv.ID, models.InvoiceStatusSent)
		require.NoError(t, err)
	}
	_, err = e.svc.Invoices.Create(staffCtx, services.InvoiceInput{ClientID: other.ID, Amount: 999, DueDate: e.clock.Now()})
	require.NoError(t, err)
	_, err = e.svc.Portal.SendMessage(portalCtx(c), c.ID, services.MessageInput{Subject: "s", Message: "m"})
	require.NoError(t, err)

	d, err := e.svc.Portal.Dashboard(portalCtx(c), c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, d.ActiveMatters)
	assert.EqualValues(t, 2, d.OpenInvoices)
	assert.Equal(t, 350.0, d.AmountDue)
	assert.EqualValues(t, 1, d.PendingMessages)
	assert.Len(t, d.RecentMatters, 2)
	assert.Len(t, d.RecentInvoices, 2)

	matters, err := e.svc.Portal.Matters(portalCtx(c), c.ID)
	require.NoError(t, err)
	assert.Len(t, matters, 2)
	invoices, err := e.svc.Portal.Invoices(portalCtx(c), c.ID)
	require.NoError(t, err)
	assert.Len(t, invoices, 2)
}
