// File: backend/services/integrity-service/internal/domain/repository/postgres/clock_drift_postgres_repository.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
)

// ClockDriftRepositoryPostgres implements repository.ClockDriftRepository.
// The table is append-only at the storage layer.
type ClockDriftRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewClockDriftRepositoryPostgres creates a new instance.
func NewClockDriftRepositoryPostgres(pool *pgxpool.Pool) *ClockDriftRepositoryPostgres {
	return &ClockDriftRepositoryPostgres{pool: pool}
}

// Create appends a drift event. Deliberately uses the pool, never a caller
// transaction: a BLOCKED classification aborts the surrounding operation, but
// the drift event itself must survive as evidence.
func (r *ClockDriftRepositoryPostgres) Create(ctx context.Context, event *models.ClockDriftEvent) error {
	query := `
		INSERT INTO clock_drift_events
			(id, tenant_id, user_id, device_class, client_time, server_time, drift_seconds, severity, blocked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.pool.Exec(ctx, query,
		event.ID, event.TenantID, event.UserID, event.DeviceClass,
		event.ClientTime, event.ServerTime, event.DriftSeconds, event.Severity,
		event.Blocked, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create clock drift event: %w", mapPgError(err))
	}
	return nil
}

// ListByUser returns a user's drift events in [from, to], newest first. This
// is the dispute-resolution read path.
func (r *ClockDriftRepositoryPostgres) ListByUser(ctx context.Context, tenantID, userID uuid.UUID, from, to time.Time) ([]*models.ClockDriftEvent, error) {
	query := `
		SELECT id, tenant_id, user_id, device_class, client_time, server_time, drift_seconds, severity, blocked, created_at
		FROM clock_drift_events
		WHERE tenant_id = $1 AND user_id = $2 AND created_at >= $3 AND created_at <= $4
		ORDER BY created_at DESC`
	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, tenantID, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list clock drift events: %w", err)
	}
	defer rows.Close()

	var out []*models.ClockDriftEvent
	for rows.Next() {
		ev := &models.ClockDriftEvent{}
		if err := rows.Scan(&ev.ID, &ev.TenantID, &ev.UserID, &ev.DeviceClass, &ev.ClientTime,
			&ev.ServerTime, &ev.DriftSeconds, &ev.Severity, &ev.Blocked, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan clock drift event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
