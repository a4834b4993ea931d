// File: backend/services/integrity-service/internal/domain/repository/postgres/tenant_store.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/errors"
)

// TableSpec registers a tenant-owned table with the guarded store. Columns
// lists the caller-writable/filterable columns; id and tenant_id are implied
// and never caller-controlled.
type TableSpec struct {
	Name    string
	Columns []string
}

// TenantStore is the storage side of the tenant boundary guard: every query
// it issues carries an implicit tenant_id predicate that callers cannot
// override. A row owned by another tenant and a row that does not exist
// produce the identical ErrAccessDenied, so error shape leaks no existence
// information across tenants.
type TenantStore struct {
	pool   *pgxpool.Pool
	tables map[string]TableSpec
}

// NewTenantStore creates a guarded store over the registered tables.
func NewTenantStore(pool *pgxpool.Pool, specs []TableSpec) *TenantStore {
	tables := make(map[string]TableSpec, len(specs))
	for _, s := range specs {
		tables[s.Name] = s
	}
	return &TenantStore{pool: pool, tables: tables}
}

func (s *TenantStore) spec(table string) (TableSpec, error) {
	sp, ok := s.tables[table]
	if !ok {
		return TableSpec{}, fmt.Errorf("table %q is not registered with the tenant store", table)
	}
	return sp, nil
}

func (s *TenantStore) columnAllowed(sp TableSpec, col string) bool {
	for _, c := range sp.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Get retrieves one row by id within the caller's tenant.
func (s *TenantStore) Get(ctx context.Context, tenantID uuid.UUID, table string, id uuid.UUID) (map[string]any, error) {
	sp, err := s.spec(table)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, tenant_id, %s FROM %s WHERE id = $1 AND tenant_id = $2`,
		strings.Join(sp.Columns, ", "), sp.Name)
	rows, err := querierFrom(ctx, s.pool).Query(ctx, query, id, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s row: %w", table, err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrAccessDenied
		}
		return nil, fmt.Errorf("failed to collect %s row: %w", table, err)
	}
	return row, nil
}

// List retrieves rows matching the caller-supplied equality filter. The
// tenant predicate is always applied first; a tenant_id key in the filter is
// discarded rather than honored.
func (s *TenantStore) List(ctx context.Context, tenantID uuid.UUID, table string, filter map[string]any) ([]map[string]any, error) {
	sp, err := s.spec(table)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, `SELECT id, tenant_id, %s FROM %s WHERE tenant_id = $1`,
		strings.Join(sp.Columns, ", "), sp.Name)
	args := []any{tenantID}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		if k == "tenant_id" || k == "id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !s.columnAllowed(sp, k) {
			return nil, fmt.Errorf("column %q is not filterable on %s", k, table)
		}
		args = append(args, filter[k])
		fmt.Fprintf(&b, " AND %s = $%d", k, len(args))
	}
	b.WriteString(" ORDER BY created_at DESC")

	rows, err := querierFrom(ctx, s.pool).Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s rows: %w", table, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("failed to collect %s rows: %w", table, err)
	}
	return out, nil
}

// Insert creates a row owned by the caller's tenant. Any tenant id the
// caller smuggled into data is overwritten, which closes the tenant-id
// injection path.
func (s *TenantStore) Insert(ctx context.Context, tenantID uuid.UUID, table string, data map[string]any) (uuid.UUID, error) {
	sp, err := s.spec(table)
	if err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()
	cols := []string{"id", "tenant_id"}
	args := []any{id, tenantID}

	keys := make([]string, 0, len(data))
	for k := range data {
		if k == "tenant_id" || k == "id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !s.columnAllowed(sp, k) {
			return uuid.Nil, fmt.Errorf("column %q is not writable on %s", k, table)
		}
		cols = append(cols, k)
		args = append(args, data[k])
	}

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		sp.Name, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if _, err := querierFrom(ctx, s.pool).Exec(ctx, query, args...); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert %s row: %w", table, mapPgError(err))
	}
	return id, nil
}

// Update patches a row within the caller's tenant.
func (s *TenantStore) Update(ctx context.Context, tenantID uuid.UUID, table string, id uuid.UUID, patch map[string]any) error {
	sp, err := s.spec(table)
	if err != nil {
		return err
	}
	if len(patch) == 0 {
		return nil
	}

	var sets []string
	args := []any{}
	keys := make([]string, 0, len(patch))
	for k := range patch {
		if k == "tenant_id" || k == "id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !s.columnAllowed(sp, k) {
			return fmt.Errorf("column %q is not writable on %s", k, table)
		}
		args = append(args, patch[k])
		sets = append(sets, fmt.Sprintf("%s = $%d", k, len(args)))
	}

	args = append(args, id, tenantID)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d AND tenant_id = $%d`,
		sp.Name, strings.Join(sets, ", "), len(args)-1, len(args))
	tag, err := querierFrom(ctx, s.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s row: %w", table, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrAccessDenied
	}
	return nil
}

// Delete removes a row within the caller's tenant.
func (s *TenantStore) Delete(ctx context.Context, tenantID uuid.UUID, table string, id uuid.UUID) error {
	sp, err := s.spec(table)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND tenant_id = $2`, sp.Name)
	tag, err := querierFrom(ctx, s.pool).Exec(ctx, query, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete %s row: %w", table, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrAccessDenied
	}
	return nil
}

// Exists reports whether the id is visible within the caller's tenant.
func (s *TenantStore) Exists(ctx context.Context, tenantID uuid.UUID, table string, id uuid.UUID) (bool, error) {
	sp, err := s.spec(table)
	if err != nil {
		return false, err
	}
	var found bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1 AND tenant_id = $2)`, sp.Name)
	if err := querierFrom(ctx, s.pool).QueryRow(ctx, query, id, tenantID).Scan(&found); err != nil {
		return false, fmt.Errorf("failed to check %s row existence: %w", table, err)
	}
	return found, nil
}
