// File: backend/services/integrity-service/internal/domain/repository/postgres/integrity_flag_postgres_repository.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/errors"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
)

// IntegrityFlagRepositoryPostgres implements repository.IntegrityFlagRepository.
type IntegrityFlagRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewIntegrityFlagRepositoryPostgres creates a new instance.
func NewIntegrityFlagRepositoryPostgres(pool *pgxpool.Pool) *IntegrityFlagRepositoryPostgres {
	return &IntegrityFlagRepositoryPostgres{pool: pool}
}

const flagColumns = `id, tenant_id, record_id, type, severity, state, raised_by, reason,
	resolved_by, resolution, resolved_at, created_at, updated_at`

// Create persists a new integrity flag.
func (r *IntegrityFlagRepositoryPostgres) Create(ctx context.Context, flag *models.IntegrityFlag) error {
	query := `
		INSERT INTO integrity_flags (` + flagColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := querierFrom(ctx, r.pool).Exec(ctx, query,
		flag.ID, flag.TenantID, flag.RecordID, flag.Type, flag.Severity, flag.State,
		flag.RaisedBy, flag.Reason, flag.ResolvedBy, flag.Resolution, flag.ResolvedAt,
		flag.CreatedAt, flag.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create integrity flag: %w", mapPgError(err))
	}
	return nil
}

// FindByID retrieves a flag scoped to one tenant.
func (r *IntegrityFlagRepositoryPostgres) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.IntegrityFlag, error) {
	query := `SELECT ` + flagColumns + ` FROM integrity_flags WHERE id = $1 AND tenant_id = $2`
	return scanFlag(querierFrom(ctx, r.pool).QueryRow(ctx, query, id, tenantID))
}

// UpdateResolution writes the review fields. The flag's type, record and
// raiser are immutable.
func (r *IntegrityFlagRepositoryPostgres) UpdateResolution(ctx context.Context, flag *models.IntegrityFlag) error {
	query := `
		UPDATE integrity_flags
		SET state = $1, resolved_by = $2, resolution = $3, resolved_at = $4, updated_at = $5
		WHERE id = $6 AND tenant_id = $7`
	tag, err := querierFrom(ctx, r.pool).Exec(ctx, query,
		flag.State, flag.ResolvedBy, flag.Resolution, flag.ResolvedAt, flag.UpdatedAt,
		flag.ID, flag.TenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update integrity flag: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrFlagNotFound
	}
	return nil
}

// ListByRecord returns every flag raised against a record, newest first.
func (r *IntegrityFlagRepositoryPostgres) ListByRecord(ctx context.Context, tenantID, recordID uuid.UUID) ([]*models.IntegrityFlag, error) {
	query := `SELECT ` + flagColumns + ` FROM integrity_flags
		WHERE tenant_id = $1 AND record_id = $2 ORDER BY created_at DESC`
	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, tenantID, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list integrity flags: %w", err)
	}
	defer rows.Close()

	var out []*models.IntegrityFlag
	for rows.Next() {
		flag, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, flag)
	}
	return out, rows.Err()
}

func scanFlag(row pgx.Row) (*models.IntegrityFlag, error) {
	flag := &models.IntegrityFlag{}
	err := row.Scan(
		&flag.ID, &flag.TenantID, &flag.RecordID, &flag.Type, &flag.Severity, &flag.State,
		&flag.RaisedBy, &flag.Reason, &flag.ResolvedBy, &flag.Resolution, &flag.ResolvedAt,
		&flag.CreatedAt, &flag.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrFlagNotFound
		}
		return nil, fmt.Errorf("failed to scan integrity flag: %w", err)
	}
	return flag, nil
}
