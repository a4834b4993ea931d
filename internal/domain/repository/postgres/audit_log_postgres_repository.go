// File: backend/services/integrity-service/internal/domain/repository/postgres/audit_log_postgres_repository.go
package postgres

import (
	"context"
	"encoding/json"
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

// AuditLogRepositoryPostgres implements repository.AuditLogRepository.
// The audit_logs table is append-only at the storage layer; this type
// intentionally has no update or delete methods.
type AuditLogRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepositoryPostgres creates a new instance.
func NewAuditLogRepositoryPostgres(pool *pgxpool.Pool) *AuditLogRepositoryPostgres {
	return &AuditLogRepositoryPostgres{pool: pool}
}

const auditColumns = `id, tenant_id, actor_id, actor_role, action, scope, resource_type, resource_id,
	before_state, after_state, justification, request_id, client_ip, user_agent, created_at, checksum`

// Create persists a new ledger entry. It joins the caller's transaction when
// one is open, which is how the entry commits atomically with the change it
// documents.
func (r *AuditLogRepositoryPostgres) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	before, err := marshalSnapshot(entry.BeforeState)
	if err != nil {
		return fmt.Errorf("failed to marshal before-state snapshot: %w", err)
	}
	after, err := marshalSnapshot(entry.AfterState)
	if err != nil {
		return fmt.Errorf("failed to marshal after-state snapshot: %w", err)
	}

	query := `
		INSERT INTO audit_logs (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err = querierFrom(ctx, r.pool).Exec(ctx, query,
		entry.ID, entry.TenantID, entry.ActorID, entry.ActorRole, entry.Action, entry.Scope,
		entry.ResourceType, entry.ResourceID, before, after,
		entry.Justification, entry.RequestID, entry.ClientIP, entry.UserAgent,
		entry.CreatedAt, entry.Checksum,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log entry: %w", mapPgError(err))
	}
	return nil
}

// FindByID retrieves a ledger entry.
func (r *AuditLogRepositoryPostgres) FindByID(ctx context.Context, id uuid.UUID) (*models.AuditLogEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE id = $1`
	entry, err := scanAuditEntry(querierFrom(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find audit log entry: %w", err)
	}
	return entry, nil
}

// List retrieves ledger entries matching params, newest first.
func (r *AuditLogRepositoryPostgres) List(ctx context.Context, params repository.ListAuditLogParams) ([]*models.AuditLogEntry, int, error) {
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
	if params.ActorID != nil {
		addCondition("actor_id = $%d", *params.ActorID)
	}
	if params.Action != nil {
		addCondition("action = $%d", *params.Action)
	}
	if params.ResourceType != nil {
		addCondition("resource_type = $%d", *params.ResourceType)
	}
	if params.ResourceID != nil {
		addCondition("resource_id = $%d", *params.ResourceID)
	}
	if params.DateFrom != nil {
		addCondition("created_at >= $%d", *params.DateFrom)
	}
	if params.DateTo != nil {
		addCondition("created_at <= $%d", *params.DateTo)
	}

	var total int
	q := querierFrom(ctx, r.pool)
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+conditions, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}
	if total == 0 {
		return []*models.AuditLogEntry{}, 0, nil
	}

	perPage := params.PerPage
	if perPage <= 0 {
		perPage = 50
	}
	page := params.Page
	if page <= 0 {
		page = 1
	}
	query := fmt.Sprintf(`SELECT `+auditColumns+` FROM audit_logs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		conditions, argCount, argCount+1)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditLogEntry
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit log row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, total, rows.Err()
}

// ListRange returns every entry created in [from, to], oldest first, for the
// verification sweep.
func (r *AuditLogRepositoryPostgres) ListRange(ctx context.Context, from, to time.Time) ([]*models.AuditLogEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs
		WHERE created_at >= $1 AND created_at <= $2 ORDER BY created_at ASC`
	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log range: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditLogEntry
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func marshalSnapshot(s *models.Snapshot) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func unmarshalSnapshot(raw []byte) (*models.Snapshot, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var s models.Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanAuditEntry(row pgx.Row) (*models.AuditLogEntry, error) {
	entry := &models.AuditLogEntry{}
	var before, after []byte
	err := row.Scan(
		&entry.ID, &entry.TenantID, &entry.ActorID, &entry.ActorRole, &entry.Action, &entry.Scope,
		&entry.ResourceType, &entry.ResourceID, &before, &after,
		&entry.Justification, &entry.RequestID, &entry.ClientIP, &entry.UserAgent,
		&entry.CreatedAt, &entry.Checksum,
	)
	if err != nil {
		return nil, err
	}
	if entry.BeforeState, err = unmarshalSnapshot(before); err != nil {
		return nil, err
	}
	if entry.AfterState, err = unmarshalSnapshot(after); err != nil {
		return nil, err
	}
	return entry, nil
}
