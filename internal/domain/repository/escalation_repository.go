// File: backend/services/integrity-service/internal/domain/repository/escalation_repository.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
)

// ListEscalationParams filters escalation event reads.
type ListEscalationParams struct {
	TenantID *uuid.UUID
	UserID   *uuid.UUID
	Status   *models.EscalationStatus
	Severity *models.Severity
	Page     int
	PerPage  int
}

// EscalationRepository persists escalation events. Status and notes are the
// only mutable fields after creation.
type EscalationRepository interface {
	Create(ctx context.Context, e *models.EscalationEvent) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.EscalationEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.EscalationStatus, notes []string) error
	List(ctx context.Context, params ListEscalationParams) ([]*models.EscalationEvent, int, error)
}
