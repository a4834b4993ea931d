// File: backend/services/integrity-service/internal/domain/repository/postgres/escalation_postgres_repository.go
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
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/repository"
)

// EscalationRepositoryPostgres implements repository.EscalationRepository.
type EscalationRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewEscalationRepositoryPostgres creates a new instance.
func NewEscalationRepositoryPostgres(pool *pgxpool.Pool) *EscalationRepositoryPostgres {
	return &EscalationRepositoryPostgres{pool: pool}
}

const escalationColumns = `id, tenant_id, user_id, previous_role, new_role, severity, signals,
	anomaly_score, status, notes, created_at, updated_at`

// Create persists an escalation event.
func (r *EscalationRepositoryPostgres) Create(ctx context.Context, e *models.EscalationEvent) error {
	query := `
		INSERT INTO escalation_events (` + escalationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := querierFrom(ctx, r.pool).Exec(ctx, query,
		e.ID, e.TenantID, e.UserID, e.PreviousRole, e.NewRole, e.Severity, e.Signals,
		e.AnomalyScore, e.Status, e.Notes, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create escalation event: %w", mapPgError(err))
	}
	return nil
}

// FindByID retrieves an escalation event.
func (r *EscalationRepositoryPostgres) FindByID(ctx context.Context, id uuid.UUID) (*models.EscalationEvent, error) {
	query := `SELECT ` + escalationColumns + ` FROM escalation_events WHERE id = $1`
	return scanEscalation(querierFrom(ctx, r.pool).QueryRow(ctx, query, id))
}

// UpdateStatus writes the investigation fields; everything else about the
// event is immutable after creation.
func (r *EscalationRepositoryPostgres) UpdateStatus(ctx context.Context, id uuid.UUID, status models.EscalationStatus, notes []string) error {
	query := `UPDATE escalation_events SET status = $1, notes = $2, updated_at = $3 WHERE id = $4`
	tag, err := querierFrom(ctx, r.pool).Exec(ctx, query, status, notes, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update escalation event status: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrEscalationNotFound
	}
	return nil
}

// List retrieves escalation events matching params, newest first.
func (r *EscalationRepositoryPostgres) List(ctx context.Context, params repository.ListEscalationParams) ([]*models.EscalationEvent, int, error) {
	conditions := ""
	args := []any{}
	argCount := 1

	addCondition := func(clause string, value any) {
		if conditions == "" {
			conditions = " WHERE "
		} else {
			conditions += " AND "
		}
		conditions += fmt.Sprintf(clause, argCount)
		args = append(args, value)
		argCount++
	}

	if params.TenantID != nil {
		addCondition("tenant_id = $%d", *params.TenantID)
	}
	if params.UserID != nil {
		addCondition("user_id = $%d", *params.UserID)
	}
	if params.Status != nil {
		addCondition("status = $%d", *params.Status)
	}
	if params.Severity != nil {
		addCondition("severity = $%d", *params.Severity)
	}

	q := querierFrom(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM escalation_events`+conditions, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count escalation events: %w", err)
	}
	if total == 0 {
		return []*models.EscalationEvent{}, 0, nil
	}

	perPage := params.PerPage
	if perPage <= 0 {
		perPage = 50
	}
	page := params.Page
	if page <= 0 {
		page = 1
	}
	query := fmt.Sprintf(`SELECT `+escalationColumns+` FROM escalation_events%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		conditions, argCount, argCount+1)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list escalation events: %w", err)
	}
	defer rows.Close()

	var out []*models.EscalationEvent
	for rows.Next() {
		e, err := scanEscalation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func scanEscalation(row pgx.Row) (*models.EscalationEvent, error) {
	e := &models.EscalationEvent{}
	err := row.Scan(
		&e.ID, &e.TenantID, &e.UserID, &e.PreviousRole, &e.NewRole, &e.Severity, &e.Signals,
		&e.AnomalyScore, &e.Status, &e.Notes, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEscalationNotFound
		}
		return nil, fmt.Errorf("failed to scan escalation event: %w", err)
	}
	return e, nil
}
