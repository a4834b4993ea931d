// File: backend/services/integrity-service/internal/domain/service/audit_ledger_service.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/errors"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/repository"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/utils/metrics"
)

// VerificationReport is the outcome of a checksum sweep over a time range.
type VerificationReport struct {
	Checked    int         `json:"checked"`
	Mismatched []uuid.UUID `json:"mismatched"`
}

// Ok reports whether every checked entry verified.
func (r VerificationReport) Ok() bool { return len(r.Mismatched) == 0 }

// AuditLedgerService appends to and reads the tamper-evident ledger. Append
// joins the caller's transaction when one is carried in ctx, which is how a
// state change and its ledger entry commit or roll back together.
type AuditLedgerService interface {
	Append(ctx context.Context, tctx models.TenantContext, req models.AppendAuditEntryRequest) (*models.AuditLogEntry, error)
	List(ctx context.Context, tctx models.TenantContext, params repository.ListAuditLogParams) ([]*models.AuditLogEntry, int, error)
	// VerifyEntry recomputes one entry's checksum.
	VerifyEntry(ctx context.Context, tctx models.TenantContext, id uuid.UUID) (bool, error)
	// VerifyRange sweeps a time window and reports every entry whose stored
	// checksum no longer matches its canonical recomputation.
	VerifyRange(ctx context.Context, tctx models.TenantContext, from, to time.Time) (*VerificationReport, error)
}

type auditLedgerServiceImpl struct {
	repo   repository.AuditLogRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewAuditLedgerService creates the ledger service.
func NewAuditLedgerService(repo repository.AuditLogRepository, logger *zap.Logger) AuditLedgerService {
	return &auditLedgerServiceImpl{
		repo:   repo,
		logger: logger.Named("audit_ledger_service"),
		now:    time.Now,
	}
}

// Append validates the tenant context, enforces the scope rule, stamps
// identity and time, computes the checksum and persists the entry. Scope
// enforcement happens here, at append time, not at read time: an entry that
// should not exist is never written.
func (s *auditLedgerServiceImpl) Append(ctx context.Context, tctx models.TenantContext, req models.AppendAuditEntryRequest) (*models.AuditLogEntry, error) {
	if err := tctx.Validate(); err != nil {
		return nil, err
	}
	if err := models.ValidateStruct(req); err != nil {
		return nil, &domainErrors.AppError{Err: domainErrors.ErrInternal, Msg: err.Error(), Code: domainErrors.CodeValidation}
	}
	if !req.Scope.Allows(tctx.ActorRole) {
		s.logger.Warn("audit scope rejected",
			zap.String("tenant_id", tctx.TenantID.String()),
			zap.String("actor_role", string(tctx.ActorRole)),
			zap.String("scope", string(req.Scope)),
			zap.String("action", req.Action))
		return nil, domainErrors.ErrAuditScopeViolation
	}

	entry := &models.AuditLogEntry{
		ID:            uuid.New(),
		TenantID:      tctx.TenantID,
		ActorID:       tctx.ActorID,
		ActorRole:     tctx.ActorRole,
		Action:        req.Action,
		Scope:         req.Scope,
		ResourceType:  req.ResourceType,
		ResourceID:    req.ResourceID,
		BeforeState:   req.BeforeState,
		AfterState:    req.AfterState,
		Justification: req.Justification,
		CreatedAt:     s.now().UTC(),
	}
	if tctx.RequestID != "" {
		entry.RequestID = &tctx.RequestID
	}
	if tctx.ClientIP != "" {
		entry.ClientIP = &tctx.ClientIP
	}
	if tctx.UserAgent != "" {
		entry.UserAgent = &tctx.UserAgent
	}

	checksum, err := entry.ComputeChecksum()
	if err != nil {
		return nil, &domainErrors.AppError{Err: domainErrors.ErrInternal, Msg: "failed to compute entry checksum"}
	}
	entry.Checksum = checksum

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	metrics.LedgerAppendsTotal.WithLabelValues(string(entry.Scope)).Inc()
	return entry, nil
}

// List reads ledger entries. Non-superadmin callers are pinned to their own
// tenant regardless of what the params ask for.
func (s *auditLedgerServiceImpl) List(ctx context.Context, tctx models.TenantContext, params repository.ListAuditLogParams) ([]*models.AuditLogEntry, int, error) {
	if err := tctx.Validate(); err != nil {
		return nil, 0, err
	}
	if !models.RoleHasPermission(tctx.ActorRole, models.PermAuditRead) {
		metrics.AccessDeniedTotal.Inc()
		return nil, 0, domainErrors.ErrAccessDenied
	}
	if tctx.ActorRole != models.RoleSuperadmin {
		tenantID := tctx.TenantID
		params.TenantID = &tenantID
	}
	return s.repo.List(ctx, params)
}

func (s *auditLedgerServiceImpl) VerifyEntry(ctx context.Context, tctx models.TenantContext, id uuid.UUID) (bool, error) {
	if err := tctx.Validate(); err != nil {
		return false, err
	}
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if tctx.ActorRole != models.RoleSuperadmin && entry.TenantID != tctx.TenantID {
		metrics.AccessDeniedTotal.Inc()
		return false, domainErrors.ErrAccessDenied
	}
	return entry.VerifyChecksum()
}

func (s *auditLedgerServiceImpl) VerifyRange(ctx context.Context, tctx models.TenantContext, from, to time.Time) (*VerificationReport, error) {
	if err := tctx.Validate(); err != nil {
		return nil, err
	}
	// Cross-tenant sweeps are an operator task.
	if tctx.ActorRole != models.RoleSuperadmin {
		metrics.AccessDeniedTotal.Inc()
		return nil, domainErrors.ErrAccessDenied
	}
	entries, err := s.repo.ListRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	report := &VerificationReport{Checked: len(entries)}
	for _, e := range entries {
		ok, err := e.VerifyChecksum()
		if err != nil {
			return nil, err
		}
		if !ok {
			s.logger.Error("ledger checksum mismatch",
				zap.String("entry_id", e.ID.String()),
				zap.String("tenant_id", e.TenantID.String()),
				zap.String("action", e.Action))
			report.Mismatched = append(report.Mismatched, e.ID)
		}
	}
	return report, nil
}
