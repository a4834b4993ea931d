// File: backend/services/integrity-service/internal/domain/models/tenant.go
package models

import (
	"github.com/google/uuid"

	domainErrors "github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/errors"
)

// PlatformKind identifies which product surface the request originated from.
type PlatformKind string

const (
	PlatformSchool    PlatformKind = "school"
	PlatformCorporate PlatformKind = "corporate"
	// PlatformInternal marks operations performed by the service itself,
	// such as incident aggregation, rather than by a tenant request.
	PlatformInternal PlatformKind = "internal"
)

// SystemActorID is the fixed actor recorded for internally originated
// mutations. It is a valid non-nil UUID so ledger entries stay uniform.
var SystemActorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// SystemContext builds the context used by background workers acting inside
// a tenant. It carries superadmin privileges because aggregation spans the
// same data a platform operator may touch.
func SystemContext(tenantID uuid.UUID) TenantContext {
	return TenantContext{
		TenantID:  tenantID,
		Platform:  PlatformInternal,
		ActorID:   SystemActorID,
		ActorRole: RoleSuperadmin,
	}
}

// TenantContext is the immutable per-request value every core operation
// carries. It is created once from the authenticated session and never
// persisted directly; its fields are embedded in every ledger entry.
type TenantContext struct {
	TenantID  uuid.UUID    `json:"tenant_id" validate:"required"`
	Platform  PlatformKind `json:"platform" validate:"required,oneof=school corporate internal"`
	ActorID   uuid.UUID    `json:"actor_id" validate:"required"`
	ActorRole RoleID       `json:"actor_role" validate:"required"`
	ClientIP  string       `json:"client_ip,omitempty"`
	UserAgent string       `json:"user_agent,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
}

// Validate rejects a context whose tenant id is absent or malformed before
// any storage access happens. An unknown actor role is rejected for the same
// reason: nothing downstream can reason about its permissions.
func (c TenantContext) Validate() error {
	if c.TenantID == uuid.Nil {
		return domainErrors.ErrInvalidTenantContext
	}
	if c.ActorID == uuid.Nil {
		return domainErrors.ErrInvalidTenantContext
	}
	if _, ok := RolePermissions[c.ActorRole]; !ok {
		return domainErrors.ErrInvalidTenantContext
	}
	switch c.Platform {
	case PlatformSchool, PlatformCorporate, PlatformInternal:
	default:
		return domainErrors.ErrInvalidTenantContext
	}
	return nil
}
