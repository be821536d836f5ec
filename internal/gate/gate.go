// Package gate is the single role→permission predicate consumed by every
// entry point, HTML-free and framework-free. Roles map to the resources and
// actions they may perform; admins (role ADMIN or the superuser flag) pass
// every check. List scoping (who sees which rows) lives in the services, built
// on the same role constants.
package gate

import "github.com/praevia/atmp/internal/models"

type Action string

const (
	ActionCreate   Action = "create"
	ActionList     Action = "list"
	ActionView     Action = "view"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionStart    Action = "start"
	ActionFinalize Action = "finalize"
	ActionUpload   Action = "upload"
	ActionDownload Action = "download"
)

type Resource string

const (
	ResourceDossier            Resource = "dossier"
	ResourceAudit              Resource = "audit"
	ResourceContentieux        Resource = "contentieux"
	ResourceDocument           Resource = "document"
	ResourceDashboardJuridique Resource = "dashboard_juridique"
	ResourceDashboardRH        Resource = "dashboard_rh"
	ResourceDashboardQSE       Resource = "dashboard_qse"
	ResourceDashboardDirection Resource = "dashboard_direction"
)

// rolePermissions is the fixed permission matrix. Employees declare and see
// their own dossiers; safety managers work their assigned dossiers and audits;
// jurists own the contentieux lifecycle; RH/QSE/Direction get their dashboard
// only. Document upload/download is open to case-level roles, scoped by the
// service.
var rolePermissions = map[models.UserRole]map[Resource][]Action{
	models.RoleEmployee: {
		ResourceDossier:  {ActionCreate, ActionList, ActionView, ActionUpdate},
		ResourceDocument: {ActionUpload, ActionDownload, ActionList, ActionDelete},
	},
	models.RoleSafetyManager: {
		ResourceDossier:  {ActionList, ActionView, ActionUpdate},
		ResourceAudit:    {ActionList, ActionView, ActionStart, ActionFinalize},
		ResourceDocument: {ActionUpload, ActionDownload, ActionList, ActionDelete},
	},
	models.RoleJuriste: {
		ResourceContentieux:        {ActionCreate, ActionList, ActionView, ActionUpdate},
		ResourceDocument:           {ActionUpload, ActionDownload, ActionList, ActionDelete},
		ResourceDashboardJuridique: {ActionView},
	},
	models.RoleRH: {
		ResourceDashboardRH: {ActionView},
	},
	models.RoleQSE: {
		ResourceDashboardQSE: {ActionView},
	},
	models.RoleDirection: {
		ResourceDashboardDirection: {ActionView},
	},
	models.RoleManager: {},
}

// Allows reports whether the user may perform act on res.
func Allows(u *models.User, res Resource, act Action) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin() {
		return true
	}
	perms, ok := rolePermissions[u.Role]
	if !ok {
		return false
	}
	for _, a := range perms[res] {
		if a == act {
			return true
		}
	}
	return false
}
