// File: backend/services/integrity-service/internal/domain/repository/attendance_repository.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
)

// AttendanceRepository persists attendance records, their transition history
// and the transition attempt log. All lookups are tenant-scoped; a row owned
// by another tenant behaves exactly like an absent one.
type AttendanceRepository interface {
	Create(ctx context.Context, rec *models.AttendanceRecord) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.AttendanceRecord, error)
	// GetForUpdate loads the record under a row lock so concurrent
	// transitions serialize.
	GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*models.AttendanceRecord, error)
	FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*models.AttendanceRecord, error)
	FindBySubjectSession(ctx context.Context, tenantID, subjectID uuid.UUID, sessionKey string) (*models.AttendanceRecord, error)
	// UpdateState writes the new state guarded by the optimistic version
	// check; a stale version yields ErrConcurrentModification.
	UpdateState(ctx context.Context, rec *models.AttendanceRecord) error

	InsertTransition(ctx context.Context, t *models.AttendanceStateTransition) error
	ListTransitions(ctx context.Context, recordID uuid.UUID) ([]*models.AttendanceStateTransition, error)

	InsertAttempt(ctx context.Context, a *models.TransitionAttempt) error
}
