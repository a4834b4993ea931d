// File: backend/services/integrity-service/internal/domain/repository/role_history_repository.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
)

// RoleHistoryRepository appends to the role assignment history. Append-only.
type RoleHistoryRepository interface {
	Create(ctx context.Context, h *models.RoleAssignmentHistory) error
	// CountForUserSince counts role changes for a user after the cutoff;
	// the timing-anomaly signal is built on it.
	CountForUserSince(ctx context.Context, tenantID, userID uuid.UUID, since time.Time) (int, error)
	ListByUser(ctx context.Context, tenantID, userID uuid.UUID, limit int) ([]*models.RoleAssignmentHistory, error)
}
