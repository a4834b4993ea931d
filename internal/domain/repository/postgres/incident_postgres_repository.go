// File: backend/services/integrity-service/internal/domain/repository/postgres/incident_postgres_repository.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/errors"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
)

// IncidentRepositoryPostgres implements repository.IncidentRepository.
type IncidentRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewIncidentRepositoryPostgres creates a new instance.
func NewIncidentRepositoryPostgres(pool *pgxpool.Pool) *IncidentRepositoryPostgres {
	return &IncidentRepositoryPostgres{pool: pool}
}

const incidentColumns = `id, tenant_id, type, severity, status, escalated, title, group_key,
	acknowledged_by, acknowledged_at, root_cause, resolution, created_at, updated_at`

// Create persists a new incident.
func (r *IncidentRepositoryPostgres) Create(ctx context.Context, inc *models.Incident) error {
	query := `
		INSERT INTO incidents (` + incidentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := querierFrom(ctx, r.pool).Exec(ctx, query,
		inc.ID, inc.TenantID, inc.Type, inc.Severity, inc.Status, inc.Escalated, inc.Title,
		inc.GroupKey, inc.AcknowledgedBy, inc.AcknowledgedAt, inc.RootCause, inc.Resolution,
		inc.CreatedAt, inc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", mapPgError(err))
	}
	return nil
}

// FindByID retrieves an incident.
func (r *IncidentRepositoryPostgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`
	return scanIncident(querierFrom(ctx, r.pool).QueryRow(ctx, query, id))
}

// FindOpenByGroupKey returns the newest still-open incident for a group key,
// or ErrIncidentNotFound.
func (r *IncidentRepositoryPostgres) FindOpenByGroupKey(ctx context.Context, tenantID uuid.UUID, groupKey string) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents
		WHERE tenant_id = $1 AND group_key = $2 AND status IN ('OPEN', 'ACKNOWLEDGED', 'INVESTIGATING')
		ORDER BY created_at DESC LIMIT 1`
	return scanIncident(querierFrom(ctx, r.pool).QueryRow(ctx, query, tenantID, groupKey))
}

// Update writes the incident's mutable lifecycle fields.
func (r *IncidentRepositoryPostgres) Update(ctx context.Context, inc *models.Incident) error {
	query := `
		UPDATE incidents
		SET status = $1, escalated = $2, severity = $3, acknowledged_by = $4, acknowledged_at = $5,
			root_cause = $6, resolution = $7, updated_at = $8
		WHERE id = $9`
	tag, err := querierFrom(ctx, r.pool).Exec(ctx, query,
		inc.Status, inc.Escalated, inc.Severity, inc.AcknowledgedBy, inc.AcknowledgedAt,
		inc.RootCause, inc.Resolution, inc.UpdatedAt, inc.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update incident: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrIncidentNotFound
	}
	return nil
}

// AddSource links a flag or escalation into the incident.
func (r *IncidentRepositoryPostgres) AddSource(ctx context.Context, src *models.IncidentSource) error {
	query := `
		INSERT INTO incident_sources (incident_id, kind, source_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (incident_id, kind, source_id) DO NOTHING`
	_, err := querierFrom(ctx, r.pool).Exec(ctx, query, src.IncidentID, src.Kind, src.SourceID, src.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add incident source: %w", mapPgError(err))
	}
	return nil
}

// ListSources returns the flags/escalations linked into an incident.
func (r *IncidentRepositoryPostgres) ListSources(ctx context.Context, incidentID uuid.UUID) ([]*models.IncidentSource, error) {
	query := `SELECT incident_id, kind, source_id, created_at FROM incident_sources
		WHERE incident_id = $1 ORDER BY created_at ASC`
	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list incident sources: %w", err)
	}
	defer rows.Close()

	var out []*models.IncidentSource
	for rows.Next() {
		src := &models.IncidentSource{}
		if err := rows.Scan(&src.IncidentID, &src.Kind, &src.SourceID, &src.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan incident source: %w", err)
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

// InsertTimelineEvent appends to the incident timeline.
func (r *IncidentRepositoryPostgres) InsertTimelineEvent(ctx context.Context, ev *models.IncidentTimelineEvent) error {
	query := `
		INSERT INTO incident_timeline_events (id, incident_id, from_status, to_status, actor_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := querierFrom(ctx, r.pool).Exec(ctx, query,
		ev.ID, ev.IncidentID, ev.FromStatus, ev.ToStatus, ev.ActorID, ev.Note, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert incident timeline event: %w", mapPgError(err))
	}
	return nil
}

// ListTimeline returns an incident's timeline, oldest first.
func (r *IncidentRepositoryPostgres) ListTimeline(ctx context.Context, incidentID uuid.UUID) ([]*models.IncidentTimelineEvent, error) {
	query := `SELECT id, incident_id, from_status, to_status, actor_id, note, created_at
		FROM incident_timeline_events WHERE incident_id = $1 ORDER BY created_at ASC`
	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list incident timeline: %w", err)
	}
	defer rows.Close()

	var out []*models.IncidentTimelineEvent
	for rows.Next() {
		ev := &models.IncidentTimelineEvent{}
		if err := rows.Scan(&ev.ID, &ev.IncidentID, &ev.FromStatus, &ev.ToStatus, &ev.ActorID, &ev.Note, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan incident timeline event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// ListUnacknowledgedBefore returns OPEN incidents of a severity created
// before the cutoff, oldest first.
func (r *IncidentRepositoryPostgres) ListUnacknowledgedBefore(ctx context.Context, severity models.Severity, cutoff time.Time) ([]*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents
		WHERE status = 'OPEN' AND severity = $1 AND created_at <= $2 ORDER BY created_at ASC`
	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, severity, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list unacknowledged incidents: %w", err)
	}
	defer rows.Close()

	var out []*models.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}

func scanIncident(row pgx.Row) (*models.Incident, error) {
	inc := &models.Incident{}
	err := row.Scan(
		&inc.ID, &inc.TenantID, &inc.Type, &inc.Severity, &inc.Status, &inc.Escalated,
		&inc.Title, &inc.GroupKey, &inc.AcknowledgedBy, &inc.AcknowledgedAt,
		&inc.RootCause, &inc.Resolution, &inc.CreatedAt, &inc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("failed to scan incident: %w", err)
	}
	return inc, nil
}
