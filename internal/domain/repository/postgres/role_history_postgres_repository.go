// File: backend/services/integrity-service/internal/domain/repository/postgres/role_history_postgres_repository.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
)

// RoleHistoryRepositoryPostgres implements repository.RoleHistoryRepository.
type RoleHistoryRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewRoleHistoryRepositoryPostgres creates a new instance.
func NewRoleHistoryRepositoryPostgres(pool *pgxpool.Pool) *RoleHistoryRepositoryPostgres {
	return &RoleHistoryRepositoryPostgres{pool: pool}
}

// Create appends a role assignment history row.
func (r *RoleHistoryRepositoryPostgres) Create(ctx context.Context, h *models.RoleAssignmentHistory) error {
	query := `
		INSERT INTO role_assignment_history
			(id, tenant_id, user_id, previous_role, new_role, changed_by, reason, severity, anomaly_score, signals, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := querierFrom(ctx, r.pool).Exec(ctx, query,
		h.ID, h.TenantID, h.UserID, h.PreviousRole, h.NewRole, h.ChangedBy,
		h.Reason, h.Severity, h.AnomalyScore, h.Signals, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create role assignment history: %w", mapPgError(err))
	}
	return nil
}

// CountForUserSince counts role changes for a user after the cutoff.
func (r *RoleHistoryRepositoryPostgres) CountForUserSince(ctx context.Context, tenantID, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM role_assignment_history
		WHERE tenant_id = $1 AND user_id = $2 AND created_at >= $3`
	if err := querierFrom(ctx, r.pool).QueryRow(ctx, query, tenantID, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count role assignment history: %w", err)
	}
	return count, nil
}

// ListByUser returns a user's role change history, newest first.
func (r *RoleHistoryRepositoryPostgres) ListByUser(ctx context.Context, tenantID, userID uuid.UUID, limit int) ([]*models.RoleAssignmentHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, tenant_id, user_id, previous_role, new_role, changed_by, reason, severity, anomaly_score, signals, created_at
		FROM role_assignment_history
		WHERE tenant_id = $1 AND user_id = $2 ORDER BY created_at DESC LIMIT $3`
	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, tenantID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list role assignment history: %w", err)
	}
	defer rows.Close()

	var out []*models.RoleAssignmentHistory
	for rows.Next() {
		h := &models.RoleAssignmentHistory{}
		if err := rows.Scan(&h.ID, &h.TenantID, &h.UserID, &h.PreviousRole, &h.NewRole,
			&h.ChangedBy, &h.Reason, &h.Severity, &h.AnomalyScore, &h.Signals, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role assignment history: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
