// File: backend/services/integrity-service/internal/domain/service/tenant_guard_service.go
package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/errors"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/repository"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/utils/metrics"
)

// TenantScopedStore is the storage contract of the boundary guard. The
// postgres TenantStore implements it; every method takes the tenant id as an
// explicit first-class argument so no query can forget the predicate.
type TenantScopedStore interface {
	Get(ctx context.Context, tenantID uuid.UUID, table string, id uuid.UUID) (map[string]any, error)
	List(ctx context.Context, tenantID uuid.UUID, table string, filter map[string]any) ([]map[string]any, error)
	Insert(ctx context.Context, tenantID uuid.UUID, table string, data map[string]any) (uuid.UUID, error)
	Update(ctx context.Context, tenantID uuid.UUID, table string, id uuid.UUID, patch map[string]any) error
	Delete(ctx context.Context, tenantID uuid.UUID, table string, id uuid.UUID) error
	Exists(ctx context.Context, tenantID uuid.UUID, table string, id uuid.UUID) (bool, error)
}

// TenantGuardService is the only path to tenant-owned business tables. The
// tenant id always comes from the validated context, never from caller
// input, and a row owned by another tenant is indistinguishable from an
// absent one. Mutations are paired with a ledger entry in one transaction.
type TenantGuardService interface {
	CheckTenantAccess(ctx context.Context, tctx models.TenantContext, table string, id uuid.UUID) error
	Get(ctx context.Context, tctx models.TenantContext, table string, id uuid.UUID) (map[string]any, error)
	List(ctx context.Context, tctx models.TenantContext, table string, filter map[string]any) ([]map[string]any, error)
	Insert(ctx context.Context, tctx models.TenantContext, table string, data map[string]any) (uuid.UUID, error)
	Update(ctx context.Context, tctx models.TenantContext, table string, id uuid.UUID, patch map[string]any) error
	Delete(ctx context.Context, tctx models.TenantContext, table string, id uuid.UUID) error
}

type tenantGuardServiceImpl struct {
	store  TenantScopedStore
	ledger AuditLedgerService
	tm     repository.TxManager
	logger *zap.Logger
}

// NewTenantGuardService creates the boundary guard.
func NewTenantGuardService(store TenantScopedStore, ledger AuditLedgerService, tm repository.TxManager, logger *zap.Logger) TenantGuardService {
	return &tenantGuardServiceImpl{
		store:  store,
		ledger: ledger,
		tm:     tm,
		logger: logger.Named("tenant_guard_service"),
	}
}

// CheckTenantAccess reports whether the resource is reachable under the
// caller's tenant. A foreign row yields the same ErrAccessDenied as an
// absent one.
func (s *tenantGuardServiceImpl) CheckTenantAccess(ctx context.Context, tctx models.TenantContext, table string, id uuid.UUID) error {
	if err := tctx.Validate(); err != nil {
		return err
	}
	found, err := s.store.Exists(ctx, tctx.TenantID, table, id)
	if err != nil {
		return err
	}
	if !found {
		s.countDenied(domainErrors.ErrAccessDenied)
		return domainErrors.ErrAccessDenied
	}
	return nil
}

func (s *tenantGuardServiceImpl) Get(ctx context.Context, tctx models.TenantContext, table string, id uuid.UUID) (map[string]any, error) {
	if err := tctx.Validate(); err != nil {
		return nil, err
	}
	row, err := s.store.Get(ctx, tctx.TenantID, table, id)
	if err != nil {
		s.countDenied(err)
		return nil, err
	}
	return row, nil
}

func (s *tenantGuardServiceImpl) List(ctx context.Context, tctx models.TenantContext, table string, filter map[string]any) ([]map[string]any, error) {
	if err := tctx.Validate(); err != nil {
		return nil, err
	}
	return s.store.List(ctx, tctx.TenantID, table, filter)
}

func (s *tenantGuardServiceImpl) Insert(ctx context.Context, tctx models.TenantContext, table string, data map[string]any) (uuid.UUID, error) {
	if err := tctx.Validate(); err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	err := s.tm.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		id, err = s.store.Insert(txCtx, tctx.TenantID, table, data)
		if err != nil {
			return err
		}
		_, err = s.ledger.Append(txCtx, tctx, models.AppendAuditEntryRequest{
			Action:       "tenant_data.insert",
			Scope:        models.ScopeUser,
			ResourceType: table,
			ResourceID:   id.String(),
			AfterState:   snapshotOf(data),
		})
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *tenantGuardServiceImpl) Update(ctx context.Context, tctx models.TenantContext, table string, id uuid.UUID, patch map[string]any) error {
	if err := tctx.Validate(); err != nil {
		return err
	}
	err := s.tm.WithinTransaction(ctx, func(txCtx context.Context) error {
		before, err := s.store.Get(txCtx, tctx.TenantID, table, id)
		if err != nil {
			return err
		}
		if err := s.store.Update(txCtx, tctx.TenantID, table, id, patch); err != nil {
			return err
		}
		after, err := s.store.Get(txCtx, tctx.TenantID, table, id)
		if err != nil {
			return err
		}
		_, err = s.ledger.Append(txCtx, tctx, models.AppendAuditEntryRequest{
			Action:       "tenant_data.update",
			Scope:        models.ScopeUser,
			ResourceType: table,
			ResourceID:   id.String(),
			BeforeState:  snapshotOf(before),
			AfterState:   snapshotOf(after),
		})
		return err
	})
	s.countDenied(err)
	return err
}

func (s *tenantGuardServiceImpl) Delete(ctx context.Context, tctx models.TenantContext, table string, id uuid.UUID) error {
	if err := tctx.Validate(); err != nil {
		return err
	}
	err := s.tm.WithinTransaction(ctx, func(txCtx context.Context) error {
		before, err := s.store.Get(txCtx, tctx.TenantID, table, id)
		if err != nil {
			return err
		}
		if err := s.store.Delete(txCtx, tctx.TenantID, table, id); err != nil {
			return err
		}
		_, err = s.ledger.Append(txCtx, tctx, models.AppendAuditEntryRequest{
			Action:       "tenant_data.delete",
			Scope:        models.ScopeUser,
			ResourceType: table,
			ResourceID:   id.String(),
			BeforeState:  snapshotOf(before),
		})
		return err
	})
	s.countDenied(err)
	return err
}

func (s *tenantGuardServiceImpl) countDenied(err error) {
	if domainErrors.IsAccessDenied(err) {
		metrics.AccessDeniedTotal.Inc()
	}
}
