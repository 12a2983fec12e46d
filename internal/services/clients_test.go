package services_test

import (
	"strings"
	"testing"

	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCreateNormalizesAndAudits(t *testing.T) {
	e := newEnv(t)
	ctx, u := e.staff(t, models.RolePartner)

	c, err := e.svc.Clients.Create(ctx, services.ClientInput{Name: "  Ayşe Yılmaz ", Email: " AYSE@Example.com "})
	require.NoError(t, err)
	assert.Equal(t, "Ayşe Yılmaz", c.Name)
	assert.Equal(t, "ayse@example.com", c.Email)
	assert.Equal(t, models.ClientTypeIndividual, c.Type)
	assert.Equal(t, models.ClientStatusActive, c.Status)
	assert.False(t, c.CanUsePortal())

	rows := e.auditRows(t, models.ActionCreate)
	require.Len(t, rows, 1)
	assert.Equal(t, "Client", rows[0].EntityType)
	assert.Equal(t, c.ID, *rows[0].EntityID)
	assert.Equal(t, u.ID, *rows[0].UserID)
	assert.NotContains(t, *rows[0].NewValues, "portal_password_hash")
}

func TestClientValidation(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RoleAdmin)

	_, err := e.svc.Clients.Create(ctx, services.ClientInput{Email: "not-an-email", Type: "Alien", PortalPassword: "short"})
	v, ok := apperr.Violations(err)
	require.True(t, ok)
	assert.Contains(t, v, "name")
	assert.Contains(t, v, "email")
	assert.Contains(t, v, "type")
	assert.Contains(t, v, "portal_password")

	_, err = e.svc.Clients.Create(ctx, services.ClientInput{Name: strings.Repeat("a", 256), Email: "a@example.com"})
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
	assert.Empty(t, e.auditRows(t, models.ActionCreate))
}

func TestClientListFiltersAndPages(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RoleAdmin)
	e.client(t, ctx, "Zeynep Kaya", "zeynep@example.com")
	e.client(t, ctx, "Ali Veli", "ali@example.com")
	_, err := e.svc.Clients.Create(ctx, services.ClientInput{Name: "Acme AŞ", Email: "info@acme.example", Company: "Acme", Type: models.ClientTypeCorporate})
	require.NoError(t, err)

	all, total, err := e.svc.Clients.List(ctx, services.ClientFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, "Acme AŞ", all[0].Name)

	corp, total, err := e.svc.Clients.List(ctx, services.ClientFilter{Type: models.ClientTypeCorporate})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "info@acme.example", corp[0].Email)

	found, _, err := e.svc.Clients.List(ctx, services.ClientFilter{Search: "ALI"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Ali Veli", found[0].Name)

	page, total, err := e.svc.Clients.List(ctx, services.ClientFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "Zeynep Kaya", page[0].Name)
}

func TestClientPortalAccess(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RolePartner)
	c := e.client(t, ctx, "Mehmet", "mehmet@example.com")

	err := e.svc.Clients.SetPortalAccess(ctx, c.ID, true, "")
	v, ok := apperr.Violations(err)
	require.True(t, ok)
	assert.Equal(t, "required", v["portal_password"])

	require.NoError(t, e.svc.Clients.SetPortalAccess(ctx, c.ID, true, "Portal123!"))
	_, err = e.svc.Auth.ClientLogin(ctx, "mehmet@example.com", "Portal123!")
	require.NoError(t, err)

	require.NoError(t, e.svc.Clients.SetPortalAccess(ctx, c.ID, false, ""))
	_, err = e.svc.Auth.ClientLogin(ctx, "mehmet@example.com", "Portal123!")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	// The stored password survives and re-enabling needs none.
	require.NoError(t, e.svc.Clients.SetPortalAccess(ctx, c.ID, true, ""))
	assert.ErrorIs(t, e.svc.Clients.SetPortalAccess(ctx, "missing", true, ""), apperr.ErrNotFound)
}
