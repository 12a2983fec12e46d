package policy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diewo77/go-lawfirm/auth"
	"github.com/diewo77/go-lawfirm/gate"
	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/models"
)

func staffCtx(role string) context.Context {
	return auth.WithUser(context.Background(), auth.Principal{ID: "u-" + role, Email: role + "@example.com", Role: role, Scope: auth.ScopeStaff})
}

func TestRoleTable(t *testing.T) {
	a := NewAuthorizer()
	cases := []struct {
		role     string
		action   gate.Action
		resource string
		want     bool
	}{
		{models.RoleAdmin, gate.ActionDelete, ResourceUser, true},
		{models.RoleAdmin, gate.ActionList, ResourceAudit, true},
		{models.RolePartner, gate.ActionDelete, ResourceInvoice, true},
		{models.RolePartner, gate.ActionConvert, ResourceLead, true},
		{models.RolePartner, gate.ActionStatus, ResourceInvoice, true},
		{models.RolePartner, gate.ActionList, ResourceUser, false},
		{models.RolePartner, gate.ActionList, ResourceAudit, false},
		{models.RoleAssociate, gate.ActionCreate, ResourceMatter, true},
		{models.RoleAssociate, gate.ActionUpdate, ResourceClient, true},
		{models.RoleAssociate, gate.ActionDelete, ResourceTask, true},
		{models.RoleAssociate, gate.ActionDelete, ResourceTimeEntry, true},
		{models.RoleAssociate, gate.ActionDelete, ResourceDocument, true},
		{models.RoleAssociate, gate.ActionDelete, ResourceClient, false},
		{models.RoleAssociate, gate.ActionDelete, ResourceInvoice, false},
		{models.RoleAssociate, gate.ActionStatus, ResourceInvoice, false},
		{models.RoleAssociate, gate.ActionConvert, ResourceLead, false},
		{models.RoleAssociate, gate.ActionView, ResourceUser, false},
		{models.RoleAssociate, gate.ActionList, ResourceAudit, false},
		{"Intern", gate.ActionView, ResourceClient, false},
	}
	for _, tc := range cases {
		got := a.Can(staffCtx(tc.role), tc.action, tc.resource)
		if got != tc.want {
			t.Errorf("%s %s:%s = %v, want %v", tc.role, tc.resource, tc.action, got, tc.want)
		}
	}
}

func TestAuthorizeErrors(t *testing.T) {
	a := NewAuthorizer()
	if err := a.Authorize(context.Background(), gate.ActionView, ResourceClient, nil); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("anonymous: got %v", err)
	}
	if err := a.Authorize(staffCtx(models.RoleAssociate), gate.ActionDelete, ResourceInvoice, nil); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("associate delete: got %v", err)
	}
	portal := auth.WithClient(context.Background(), auth.Principal{ID: "c1", Scope: auth.ScopePortal})
	if a.Can(portal, gate.ActionView, ResourceClient) {
		t.Fatal("portal sessions must not reach staff resources")
	}
}

func TestNobodyDeletesThemselves(t *testing.T) {
	a := NewAuthorizer()
	ctx := staffCtx(models.RoleAdmin)
	self := &models.User{Model: models.Model{ID: "u-Admin"}}
	other := &models.User{Model: models.Model{ID: "u-2"}}
	if err := a.Authorize(ctx, gate.ActionDelete, ResourceUser, self); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("self delete: got %v", err)
	}
	if err := a.Authorize(ctx, gate.ActionDelete, ResourceUser, other); err != nil {
		t.Fatalf("delete other: %v", err)
	}
}

func TestRequireMiddleware(t *testing.T) {
	a := NewAuthorizer()
	h := a.Require(ResourceInvoice, gate.ActionDelete)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, tc := range []struct {
		name string
		ctx  context.Context
		want int
	}{
		{"anonymous", context.Background(), http.StatusUnauthorized},
		{"associate", staffCtx(models.RoleAssociate), http.StatusForbidden},
		{"partner", staffCtx(models.RolePartner), http.StatusNoContent},
	} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/invoices/1", nil).WithContext(tc.ctx)
		h.ServeHTTP(rr, req)
		if rr.Code != tc.want {
			t.Errorf("%s: status %d, want %d", tc.name, rr.Code, tc.want)
		}
	}
}

func TestRequireAdmin(t *testing.T) {
	a := NewAuthorizer()
	h := a.RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(staffCtx(models.RolePartner)))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("partner: status %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(staffCtx(models.RoleAdmin)))
	if rr.Code != http.StatusOK {
		t.Fatalf("admin: status %d", rr.Code)
	}
}

func TestPermissionsListing(t *testing.T) {
	a := NewAuthorizer()
	perms := a.Permissions(staffCtx(models.RoleAdmin))
	if len(perms) != 1 || perms[0] != gate.PermissionSuperAdmin {
		t.Fatalf("admin permissions = %v", perms)
	}
	if a.Permissions(context.Background()) != nil {
		t.Fatal("anonymous has no permissions")
	}
}
