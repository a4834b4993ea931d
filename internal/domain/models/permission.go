// File: backend/services/integrity-service/internal/domain/models/permission.go
package models

// Permission is an enumerated capability. Role permission sets are explicit
// tagged data rather than free-form JSON so the escalation scoring logic can
// reason over them without parsing ambiguity.
type Permission string

const (
	PermAttendanceRead     Permission = "attendance.read"
	PermAttendanceWrite    Permission = "attendance.write"
	PermAttendanceOverride Permission = "attendance.override"
	PermReportsRead        Permission = "reports.read"
	PermReportsExport      Permission = "reports.export"
	PermMembersRead        Permission = "members.read"
	PermMembersWrite       Permission = "members.write"
	PermRolesRead          Permission = "roles.read"
	PermRolesAssign        Permission = "roles.assign"
	PermTenantsManage      Permission = "tenants.manage"
	PermAuditRead          Permission = "audit.read"
	PermIncidentsManage    Permission = "incidents.manage"
	PermSystemAdmin        Permission = "system.admin"
)

// RoleID identifies a role in the attendance platform.
type RoleID string

const (
	RoleGuest       RoleID = "guest"
	RoleMember      RoleID = "member"
	RoleStaff       RoleID = "staff"
	RoleManager     RoleID = "manager"
	RoleTenantAdmin RoleID = "tenant_admin"
	RoleSuperadmin  RoleID = "superadmin"
)

// RolePermissions is the canonical role-to-capability table. It is the single
// source of truth for escalation scoring; there is deliberately no secondary
// copy in the database.
var RolePermissions = map[RoleID][]Permission{
	RoleGuest:  {},
	RoleMember: {PermAttendanceRead},
	RoleStaff: {
		PermAttendanceRead, PermAttendanceWrite,
		PermReportsRead, PermMembersRead,
	},
	RoleManager: {
		PermAttendanceRead, PermAttendanceWrite, PermAttendanceOverride,
		PermReportsRead, PermReportsExport,
		PermMembersRead, PermMembersWrite, PermRolesRead,
	},
	RoleTenantAdmin: {
		PermAttendanceRead, PermAttendanceWrite, PermAttendanceOverride,
		PermReportsRead, PermReportsExport,
		PermMembersRead, PermMembersWrite,
		PermRolesRead, PermRolesAssign,
		PermAuditRead, PermIncidentsManage,
	},
	RoleSuperadmin: {
		PermAttendanceRead, PermAttendanceWrite, PermAttendanceOverride,
		PermReportsRead, PermReportsExport,
		PermMembersRead, PermMembersWrite,
		PermRolesRead, PermRolesAssign,
		PermTenantsManage, PermAuditRead, PermIncidentsManage,
		PermSystemAdmin,
	},
}

// PermissionsForRole returns the capability set of a role. Unknown roles get
// an empty set, same as RoleGuest.
func PermissionsForRole(role RoleID) []Permission {
	return RolePermissions[role]
}

// RoleHasPermission reports whether a role's capability set contains p.
func RoleHasPermission(role RoleID, p Permission) bool {
	for _, have := range RolePermissions[role] {
		if have == p {
			return true
		}
	}
	return false
}

// IsPrivilegedRole reports whether a role carries administrative reach.
// Jumping straight into the highest role from outside this set is always
// treated as a critical escalation signal.
func IsPrivilegedRole(role RoleID) bool {
	switch role {
	case RoleManager, RoleTenantAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// PermissionDiff returns the permissions present in next but not in prev.
func PermissionDiff(prev, next RoleID) []Permission {
	have := make(map[Permission]struct{}, len(RolePermissions[prev]))
	for _, p := range RolePermissions[prev] {
		have[p] = struct{}{}
	}
	var gained []Permission
	for _, p := range RolePermissions[next] {
		if _, ok := have[p]; !ok {
			gained = append(gained, p)
		}
	}
	return gained
}

// IsStrictSuperset reports whether next's permission set strictly contains
// prev's.
func IsStrictSuperset(prev, next RoleID) bool {
	nextSet := make(map[Permission]struct{}, len(RolePermissions[next]))
	for _, p := range RolePermissions[next] {
		nextSet[p] = struct{}{}
	}
	for _, p := range RolePermissions[prev] {
		if _, ok := nextSet[p]; !ok {
			return false
		}
	}
	return len(RolePermissions[next]) > len(RolePermissions[prev])
}
