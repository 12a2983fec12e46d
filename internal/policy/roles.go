package policy

import (
	"github.com/diewo77/go-lawfirm/gate"
	"github.com/diewo77/go-lawfirm/internal/models"
)

// Resource types checked by the gate.
const (
	ResourceClient       = "client"
	ResourceMatter       = "matter"
	ResourceTask         = "task"
	ResourceTaskTemplate = "task_template"
	ResourceTimeEntry    = "time_entry"
	ResourceExpense      = "expense"
	ResourceInvoice      = "invoice"
	ResourceLead         = "lead"
	ResourceEvent        = "calendar_event"
	ResourceDocument     = "document"
	ResourceTemplate     = "document_template"
	ResourceNotification = "notification"
	ResourceMessage      = "message"
	ResourceEmail        = "email"
	ResourceReminder     = "reminder"
	ResourceDashboard    = "dashboard"
	ResourceDrafting     = "drafting"
	ResourceUser         = "user"
	ResourceAudit        = "audit"
)

// DomainResources are the resources every staff role works with.
var DomainResources = []string{
	ResourceClient, ResourceMatter, ResourceTask, ResourceTaskTemplate, ResourceTimeEntry,
	ResourceExpense, ResourceInvoice, ResourceLead, ResourceEvent, ResourceDocument,
	ResourceTemplate, ResourceNotification, ResourceMessage, ResourceEmail, ResourceReminder,
	ResourceDashboard, ResourceDrafting,
}

// associateDeletes lists the resources an Associate may delete.
var associateDeletes = []string{
	ResourceTask, ResourceTimeEntry, ResourceExpense, ResourceEvent, ResourceDocument,
	ResourceNotification, ResourceReminder,
}

// associateExtras are domain actions an Associate needs for day-to-day work.
var associateExtras = []gate.Permission{
	gate.NewPermission(ResourceTask, gate.ActionStatus),
	gate.NewPermission(ResourceLead, gate.ActionStatus),
	gate.NewPermission(ResourceInvoice, gate.ActionPrint),
	gate.NewPermission(ResourceMessage, gate.ActionReply),
	gate.NewPermission(ResourceEmail, gate.ActionSend),
	gate.NewPermission(ResourceDrafting, gate.ActionGenerate),
}

// Profiles returns the fixed profile of every staff role.
func Profiles() map[string]gate.Profile {
	partner := make([]gate.Permission, 0, len(DomainResources))
	for _, res := range DomainResources {
		partner = append(partner, gate.NewPermission(res, gate.WildcardAll))
	}

	var associate []gate.Permission
	for _, res := range DomainResources {
		associate = append(associate, gate.Permissions(res, gate.CRUD...)...)
	}
	for _, res := range associateDeletes {
		associate = append(associate, gate.NewPermission(res, gate.ActionDelete))
	}
	associate = append(associate, associateExtras...)

	return map[string]gate.Profile{
		models.RoleAdmin:     gate.NewStaticProfile(models.RoleAdmin, gate.PermissionSuperAdmin),
		models.RolePartner:   gate.NewStaticProfile(models.RolePartner, partner...),
		models.RoleAssociate: gate.NewStaticProfile(models.RoleAssociate, associate...),
	}
}
