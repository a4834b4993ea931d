// File: backend/services/integrity-service/internal/domain/repository/postgres/attendance_postgres_repository.go
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

// AttendanceRepositoryPostgres implements repository.AttendanceRepository.
type AttendanceRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepositoryPostgres creates a new instance.
func NewAttendanceRepositoryPostgres(pool *pgxpool.Pool) *AttendanceRepositoryPostgres {
	return &AttendanceRepositoryPostgres{pool: pool}
}

const attendanceColumns = `id, tenant_id, subject_id, session_key, state, method, confidence,
	idempotency_key, version, created_at, updated_at`

// Create persists a new attendance record.
func (r *AttendanceRepositoryPostgres) Create(ctx context.Context, rec *models.AttendanceRecord) error {
	query := `
		INSERT INTO attendance_records (` + attendanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := querierFrom(ctx, r.pool).Exec(ctx, query,
		rec.ID, rec.TenantID, rec.SubjectID, rec.SessionKey, rec.State, rec.Method,
		rec.Confidence, rec.IdempotencyKey, rec.Version, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create attendance record: %w", mapPgError(err))
	}
	return nil
}

// FindByID retrieves a record scoped to one tenant. A record owned by a
// different tenant is indistinguishable from an absent one.
func (r *AttendanceRepositoryPostgres) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE id = $1 AND tenant_id = $2`
	return r.scanOne(querierFrom(ctx, r.pool).QueryRow(ctx, query, id, tenantID))
}

// GetForUpdate loads the record under FOR UPDATE so concurrent transitions
// on the same record serialize behind the row lock.
func (r *AttendanceRepositoryPostgres) GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records
		WHERE id = $1 AND tenant_id = $2 FOR UPDATE`
	return r.scanOne(querierFrom(ctx, r.pool).QueryRow(ctx, query, id, tenantID))
}

// FindByIdempotencyKey retrieves the record created by a previous submission
// with the same key, if any.
func (r *AttendanceRepositoryPostgres) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records
		WHERE tenant_id = $1 AND idempotency_key = $2`
	return r.scanOne(querierFrom(ctx, r.pool).QueryRow(ctx, query, tenantID, key))
}

// FindBySubjectSession retrieves the record for a (subject, session) pair.
func (r *AttendanceRepositoryPostgres) FindBySubjectSession(ctx context.Context, tenantID, subjectID uuid.UUID, sessionKey string) (*models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records
		WHERE tenant_id = $1 AND subject_id = $2 AND session_key = $3`
	return r.scanOne(querierFrom(ctx, r.pool).QueryRow(ctx, query, tenantID, subjectID, sessionKey))
}

// UpdateState writes the new state guarded by the optimistic version check.
// The version the caller read must still be current; otherwise another
// transition won the race and ErrConcurrentModification is returned.
func (r *AttendanceRepositoryPostgres) UpdateState(ctx context.Context, rec *models.AttendanceRecord) error {
	query := `
		UPDATE attendance_records
		SET state = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND tenant_id = $4 AND version = $5`
	tag, err := querierFrom(ctx, r.pool).Exec(ctx, query,
		rec.State, rec.UpdatedAt, rec.ID, rec.TenantID, rec.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance record state: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrConcurrentModification
	}
	rec.Version++
	return nil
}

// InsertTransition appends one row of the transition history.
func (r *AttendanceRepositoryPostgres) InsertTransition(ctx context.Context, t *models.AttendanceStateTransition) error {
	query := `
		INSERT INTO attendance_state_transitions (id, record_id, from_state, to_state, reason, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := querierFrom(ctx, r.pool).Exec(ctx, query,
		t.ID, t.RecordID, t.FromState, t.ToState, t.Reason, t.ActorID, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert state transition: %w", mapPgError(err))
	}
	return nil
}

// ListTransitions returns the full transition history of a record, oldest
// first.
func (r *AttendanceRepositoryPostgres) ListTransitions(ctx context.Context, recordID uuid.UUID) ([]*models.AttendanceStateTransition, error) {
	query := `
		SELECT id, record_id, from_state, to_state, reason, actor_id, created_at
		FROM attendance_state_transitions WHERE record_id = $1 ORDER BY created_at ASC`
	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list state transitions: %w", err)
	}
	defer rows.Close()

	var out []*models.AttendanceStateTransition
	for rows.Next() {
		t := &models.AttendanceStateTransition{}
		if err := rows.Scan(&t.ID, &t.RecordID, &t.FromState, &t.ToState, &t.Reason, &t.ActorID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan state transition: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// InsertAttempt appends to the transition-attempt log. Attempts are written
// outside the transition's transaction so a rejected (rolled back) attempt
// still leaves its forensic trace.
func (r *AttendanceRepositoryPostgres) InsertAttempt(ctx context.Context, a *models.TransitionAttempt) error {
	query := `
		INSERT INTO attendance_transition_attempts
			(id, tenant_id, record_id, from_state, to_state, actor_id, accepted, reject_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, query,
		a.ID, a.TenantID, a.RecordID, a.FromState, a.ToState, a.ActorID, a.Accepted, a.RejectReason, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transition attempt: %w", mapPgError(err))
	}
	return nil
}

func (r *AttendanceRepositoryPostgres) scanOne(row pgx.Row) (*models.AttendanceRecord, error) {
	rec := &models.AttendanceRecord{}
	err := row.Scan(
		&rec.ID, &rec.TenantID, &rec.SubjectID, &rec.SessionKey, &rec.State, &rec.Method,
		&rec.Confidence, &rec.IdempotencyKey, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to scan attendance record: %w", err)
	}
	return rec, nil
}
