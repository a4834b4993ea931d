// File: backend/services/integrity-service/internal/domain/repository/clock_drift_repository.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
)

// ClockDriftRepository appends to the drift event log. Append-only; events
// back later dispute resolution and are never mutated.
type ClockDriftRepository interface {
	Create(ctx context.Context, event *models.ClockDriftEvent) error
	ListByUser(ctx context.Context, tenantID, userID uuid.UUID, from, to time.Time) ([]*models.ClockDriftEvent, error)
}
