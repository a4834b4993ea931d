// File: backend/services/integrity-service/internal/domain/repository/audit_log_repository.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
)

// ListAuditLogParams filters ledger reads. Nil fields are not applied.
type ListAuditLogParams struct {
	TenantID     *uuid.UUID
	ActorID      *uuid.UUID
	Action       *string
	ResourceType *string
	ResourceID   *string
	DateFrom     *time.Time
	DateTo       *time.Time
	Page         int
	PerPage      int
}

// AuditLogRepository persists the append-only ledger. There is deliberately
// no Update or Delete: mutation is blocked at the storage layer and any
// attempt surfaces as ErrImmutabilityViolation.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLogEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.AuditLogEntry, error)
	List(ctx context.Context, params ListAuditLogParams) ([]*models.AuditLogEntry, int, error)
	// ListRange streams entries for checksum verification sweeps.
	ListRange(ctx context.Context, from, to time.Time) ([]*models.AuditLogEntry, error)
}
