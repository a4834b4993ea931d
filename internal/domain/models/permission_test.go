// File: backend/services/integrity-service/internal/domain/models/permission_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermissionDiff(t *testing.T) {
	gained := PermissionDiff(RoleStaff, RoleManager)
	assert.ElementsMatch(t, []Permission{
		PermAttendanceOverride, PermReportsExport, PermMembersWrite, PermRolesRead,
	}, gained)

	assert.Empty(t, PermissionDiff(RoleManager, RoleStaff))
	assert.Len(t, PermissionDiff(RoleGuest, RoleSuperadmin), len(RolePermissions[RoleSuperadmin]))
}

func TestIsStrictSuperset(t *testing.T) {
	assert.True(t, IsStrictSuperset(RoleMember, RoleStaff))
	assert.True(t, IsStrictSuperset(RoleTenantAdmin, RoleSuperadmin))
	assert.False(t, IsStrictSuperset(RoleStaff, RoleMember))
	assert.False(t, IsStrictSuperset(RoleStaff, RoleStaff))
}

func TestRoleHasPermission(t *testing.T) {
	assert.True(t, RoleHasPermission(RoleTenantAdmin, PermAuditRead))
	assert.False(t, RoleHasPermission(RoleStaff, PermAuditRead))
	assert.False(t, RoleHasPermission("unknown", PermAttendanceRead))
}

func TestIsPrivilegedRole(t *testing.T) {
	assert.True(t, IsPrivilegedRole(RoleManager))
	assert.True(t, IsPrivilegedRole(RoleSuperadmin))
	assert.False(t, IsPrivilegedRole(RoleStaff))
	assert.False(t, IsPrivilegedRole(RoleGuest))
}
