// File: backend/services/integrity-service/internal/domain/repository/integrity_flag_repository.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
)

// IntegrityFlagRepository persists integrity flags. Only the review fields
// (state, resolution) are mutable.
type IntegrityFlagRepository interface {
	Create(ctx context.Context, flag *models.IntegrityFlag) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.IntegrityFlag, error)
	UpdateResolution(ctx context.Context, flag *models.IntegrityFlag) error
	ListByRecord(ctx context.Context, tenantID, recordID uuid.UUID) ([]*models.IntegrityFlag, error)
}
