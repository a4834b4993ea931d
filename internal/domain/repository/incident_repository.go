// File: backend/services/integrity-service/internal/domain/repository/incident_repository.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
)

// OverdueIncident is a read-model row for the SLA sweep.
type OverdueIncident struct {
	Incident *models.Incident
	Overdue  time.Duration
}

// IncidentRepository persists incidents, their linked sources and the
// append-only timeline.
type IncidentRepository interface {
	Create(ctx context.Context, inc *models.Incident) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	// FindOpenByGroupKey returns the open incident aggregating a given group
	// key, if any; the intake loop links new sources into it.
	FindOpenByGroupKey(ctx context.Context, tenantID uuid.UUID, groupKey string) (*models.Incident, error)
	Update(ctx context.Context, inc *models.Incident) error

	AddSource(ctx context.Context, src *models.IncidentSource) error
	ListSources(ctx context.Context, incidentID uuid.UUID) ([]*models.IncidentSource, error)

	InsertTimelineEvent(ctx context.Context, ev *models.IncidentTimelineEvent) error
	ListTimeline(ctx context.Context, incidentID uuid.UUID) ([]*models.IncidentTimelineEvent, error)

	// ListUnacknowledgedBefore returns OPEN incidents of a severity created
	// before the cutoff. The SLA sweep composes severities on top of it.
	ListUnacknowledgedBefore(ctx context.Context, severity models.Severity, cutoff time.Time) ([]*models.Incident, error)
}
