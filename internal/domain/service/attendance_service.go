// File: backend/services/integrity-service/internal/domain/service/attendance_service.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/errors"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/repository"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/utils/metrics"
)

const snapshotSchemaVersion = 1

// snapshotOf serializes an entity into a versioned audit snapshot.
func snapshotOf(v interface{}) *models.Snapshot {
	b, err := json.Marshal(v)
	if err != nil {
		return &models.Snapshot{SchemaVersion: snapshotSchemaVersion}
	}
	return &models.Snapshot{SchemaVersion: snapshotSchemaVersion, Data: b}
}

// AttendanceService owns the record lifecycle: submission with drift and
// duplicate enforcement, state transitions through the transition table, and
// flag resolution.
type AttendanceService interface {
	Submit(ctx context.Context, tctx models.TenantContext, req models.SubmitAttendanceRequest) (*models.AttendanceRecord, error)
	Transition(ctx context.Context, tctx models.TenantContext, req models.TransitionRequest) (*models.AttendanceRecord, error)
	ResolveFlag(ctx context.Context, tctx models.TenantContext, req models.ResolveFlagRequest) (*models.IntegrityFlag, error)
	GetRecord(ctx context.Context, tctx models.TenantContext, id uuid.UUID) (*models.AttendanceRecord, error)
	History(ctx context.Context, tctx models.TenantContext, recordID uuid.UUID) ([]*models.AttendanceStateTransition, error)
	ListFlags(ctx context.Context, tctx models.TenantContext, recordID uuid.UUID) ([]*models.IntegrityFlag, error)
}

type attendanceServiceImpl struct {
	records repository.AttendanceRepository
	flags   repository.IntegrityFlagRepository
	drift   ClockDriftService
	ledger  AuditLedgerService
	tm      repository.TxManager
	sink    IncidentSink
	logger  *zap.Logger
	now     func() time.Time
}

// NewAttendanceService creates the attendance state machine service.
func NewAttendanceService(
	records repository.AttendanceRepository,
	flags repository.IntegrityFlagRepository,
	drift ClockDriftService,
	ledger AuditLedgerService,
	tm repository.TxManager,
	sink IncidentSink,
	logger *zap.Logger,
) AttendanceService {
	return &attendanceServiceImpl{
		records: records,
		flags:   flags,
		drift:   drift,
		ledger:  ledger,
		tm:      tm,
		sink:    sink,
		logger:  logger.Named("attendance_service"),
		now:     time.Now,
	}
}

// Submit runs the submission pipeline in a fixed order: drift evaluation
// first (the drift event is recorded even when the submission is refused),
// then idempotency replay, then duplicate detection, then the atomic create.
func (s *attendanceServiceImpl) Submit(ctx context.Context, tctx models.TenantContext, req models.SubmitAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := tctx.Validate(); err != nil {
		return nil, err
	}
	if err := models.ValidateStruct(req); err != nil {
		return nil, &domainErrors.AppError{Err: domainErrors.ErrInternal, Msg: err.Error(), Code: domainErrors.CodeValidation}
	}

	serverTime := s.now().UTC()
	driftEvent, err := s.drift.Evaluate(ctx, tctx, req.SubjectID, req.ClientTime, serverTime, req.DeviceClass)
	if err != nil {
		return nil, err
	}
	if driftEvent.Blocked {
		return nil, domainErrors.ErrClockDriftExceeded
	}

	if req.IdempotencyKey != "" {
		existing, err := s.records.FindByIdempotencyKey(ctx, tctx.TenantID, req.IdempotencyKey)
		if err == nil {
			// Replay of an already-accepted submission: return the original
			// record, no new rows, no new ledger entry.
			return existing, nil
		}
		if !domainErrors.Is(err, domainErrors.ErrRecordNotFound) {
			return nil, err
		}
	}

	if dup, err := s.records.FindBySubjectSession(ctx, tctx.TenantID, req.SubjectID, req.SessionKey); err == nil {
		return nil, s.flagDuplicate(ctx, tctx, dup)
	} else if !domainErrors.Is(err, domainErrors.ErrRecordNotFound) {
		return nil, err
	}

	rec := &models.AttendanceRecord{
		ID:         uuid.New(),
		TenantID:   tctx.TenantID,
		SubjectID:  req.SubjectID,
		SessionKey: req.SessionKey,
		State:      models.StateVerified,
		Method:     req.Method,
		Confidence: req.Confidence,
		Version:    1,
		CreatedAt:  serverTime,
		UpdatedAt:  serverTime,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		rec.IdempotencyKey = &key
	}

	var driftFlag *models.IntegrityFlag
	err = s.tm.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.records.Create(txCtx, rec); err != nil {
			return err
		}
		if _, err := s.ledger.Append(txCtx, tctx, models.AppendAuditEntryRequest{
			Action:       "attendance.submit",
			Scope:        models.ScopeUser,
			ResourceType: "attendance_record",
			ResourceID:   rec.ID.String(),
			AfterState:   snapshotOf(rec),
		}); err != nil {
			return err
		}
		// WARNING and CRITICAL drift admit the record but flag it for
		// review; only BLOCKED refuses outright.
		if driftEvent.Severity == models.DriftWarning || driftEvent.Severity == models.DriftCritical {
			driftFlag = s.newFlag(tctx, rec.ID, models.FlagClockDriftViolation,
				driftFlagSeverity(driftEvent.Severity),
				"client clock drift outside acceptable band")
			if err := s.createFlag(txCtx, tctx, driftFlag); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if driftFlag != nil {
		s.sink.SubmitFlag(driftFlag)
	}
	return rec, nil
}

// Transition moves a record to a new state under a row lock, validates the
// edge against the transition table, and writes the transition row and
// ledger entry in the same transaction. Every attempt, accepted or rejected,
// lands in the attempt log regardless of the transaction outcome.
func (s *attendanceServiceImpl) Transition(ctx context.Context, tctx models.TenantContext, req models.TransitionRequest) (*models.AttendanceRecord, error) {
	if err := tctx.Validate(); err != nil {
		return nil, err
	}
	if err := models.ValidateStruct(req); err != nil {
		return nil, &domainErrors.AppError{Err: domainErrors.ErrInternal, Msg: err.Error(), Code: domainErrors.CodeValidation}
	}
	if !models.KnownState(req.NewState) {
		return nil, domainErrors.ErrInvalidStateTransition
	}

	var rec *models.AttendanceRecord
	var attempt *models.TransitionAttempt
	err := s.tm.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		rec, err = s.records.GetForUpdate(txCtx, tctx.TenantID, req.RecordID)
		if err != nil {
			return err
		}
		from := rec.State
		attempt = &models.TransitionAttempt{
			ID:        uuid.New(),
			TenantID:  tctx.TenantID,
			RecordID:  rec.ID,
			FromState: from,
			ToState:   req.NewState,
			ActorID:   tctx.ActorID,
			CreatedAt: s.now().UTC(),
		}
		if !models.IsValidTransition(from, req.NewState) {
			reason := "transition not in table"
			attempt.RejectReason = &reason
			return domainErrors.ErrInvalidStateTransition
		}
		attempt.Accepted = true

		before := snapshotOf(rec)
		rec.State = req.NewState
		rec.UpdatedAt = s.now().UTC()
		if err := s.records.UpdateState(txCtx, rec); err != nil {
			return err
		}
		if err := s.records.InsertTransition(txCtx, &models.AttendanceStateTransition{
			ID:        uuid.New(),
			RecordID:  rec.ID,
			FromState: from,
			ToState:   req.NewState,
			Reason:    req.Reason,
			ActorID:   tctx.ActorID,
			CreatedAt: s.now().UTC(),
		}); err != nil {
			return err
		}
		reason := req.Reason
		_, err = s.ledger.Append(txCtx, tctx, models.AppendAuditEntryRequest{
			Action:        "attendance.transition",
			Scope:         models.ScopeUser,
			ResourceType:  "attendance_record",
			ResourceID:    rec.ID.String(),
			BeforeState:   before,
			AfterState:    snapshotOf(rec),
			Justification: &reason,
		})
		return err
	})

	// The attempt log is written outside the transaction through a direct
	// pool connection; rejected attempts must survive the rollback.
	if attempt != nil {
		if insErr := s.records.InsertAttempt(ctx, attempt); insErr != nil {
			s.logger.Error("failed to record transition attempt",
				zap.Error(insErr),
				zap.String("record_id", attempt.RecordID.String()))
		}
		outcome := "rejected"
		if attempt.Accepted && err == nil {
			outcome = "accepted"
		}
		metrics.TransitionsTotal.WithLabelValues(outcome).Inc()
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ResolveFlag moves a flag through its review lifecycle. The raiser of a
// flag can never resolve it; a second actor with override capability must.
func (s *attendanceServiceImpl) ResolveFlag(ctx context.Context, tctx models.TenantContext, req models.ResolveFlagRequest) (*models.IntegrityFlag, error) {
	if err := tctx.Validate(); err != nil {
		return nil, err
	}
	if err := models.ValidateStruct(req); err != nil {
		return nil, &domainErrors.AppError{Err: domainErrors.ErrInternal, Msg: err.Error(), Code: domainErrors.CodeValidation}
	}
	if !models.RoleHasPermission(tctx.ActorRole, models.PermAttendanceOverride) {
		metrics.AccessDeniedTotal.Inc()
		return nil, domainErrors.ErrAccessDenied
	}

	flag, err := s.flags.FindByID(ctx, tctx.TenantID, req.FlagID)
	if err != nil {
		return nil, err
	}
	if flag.RaisedBy == tctx.ActorID {
		metrics.AccessDeniedTotal.Inc()
		return nil, domainErrors.ErrAccessDenied
	}

	before := snapshotOf(flag)
	now := s.now().UTC()
	flag.State = req.NewState
	flag.UpdatedAt = now
	if req.NewState == models.FlagStateResolved || req.NewState == models.FlagStateRevoked {
		actorID := tctx.ActorID
		resolution := req.Resolution
		flag.ResolvedBy = &actorID
		flag.Resolution = &resolution
		flag.ResolvedAt = &now
	}

	err = s.tm.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.flags.UpdateResolution(txCtx, flag); err != nil {
			return err
		}
		resolution := req.Resolution
		_, err := s.ledger.Append(txCtx, tctx, models.AppendAuditEntryRequest{
			Action:        "integrity_flag.resolve",
			Scope:         models.ScopeUser,
			ResourceType:  "integrity_flag",
			ResourceID:    flag.ID.String(),
			BeforeState:   before,
			AfterState:    snapshotOf(flag),
			Justification: &resolution,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return flag, nil
}

func (s *attendanceServiceImpl) GetRecord(ctx context.Context, tctx models.TenantContext, id uuid.UUID) (*models.AttendanceRecord, error) {
	if err := tctx.Validate(); err != nil {
		return nil, err
	}
	return s.records.FindByID(ctx, tctx.TenantID, id)
}

func (s *attendanceServiceImpl) History(ctx context.Context, tctx models.TenantContext, recordID uuid.UUID) ([]*models.AttendanceStateTransition, error) {
	if err := tctx.Validate(); err != nil {
		return nil, err
	}
	// Ownership check first so a foreign record id yields the same error as
	// an absent one, never its history.
	if _, err := s.records.FindByID(ctx, tctx.TenantID, recordID); err != nil {
		return nil, err
	}
	return s.records.ListTransitions(ctx, recordID)
}

func (s *attendanceServiceImpl) ListFlags(ctx context.Context, tctx models.TenantContext, recordID uuid.UUID) ([]*models.IntegrityFlag, error) {
	if err := tctx.Validate(); err != nil {
		return nil, err
	}
	return s.flags.ListByRecord(ctx, tctx.TenantID, recordID)
}

// flagDuplicate raises a DUPLICATE_SUBMISSION flag on the original record
// and returns ErrDuplicateSubmission. The flag commits in its own
// transaction: the refused submission writes no record rows.
func (s *attendanceServiceImpl) flagDuplicate(ctx context.Context, tctx models.TenantContext, original *models.AttendanceRecord) error {
	flag := s.newFlag(tctx, original.ID, models.FlagDuplicateSubmission, models.SeverityMedium,
		"second submission for subject and session")
	err := s.tm.WithinTransaction(ctx, func(txCtx context.Context) error {
		return s.createFlag(txCtx, tctx, flag)
	})
	if err != nil {
		s.logger.Error("failed to raise duplicate flag",
			zap.Error(err),
			zap.String("record_id", original.ID.String()))
		return err
	}
	s.sink.SubmitFlag(flag)
	return domainErrors.ErrDuplicateSubmission
}

func (s *attendanceServiceImpl) newFlag(tctx models.TenantContext, recordID uuid.UUID, t models.FlagType, sev models.Severity, reason string) *models.IntegrityFlag {
	now := s.now().UTC()
	return &models.IntegrityFlag{
		ID:        uuid.New(),
		TenantID:  tctx.TenantID,
		RecordID:  recordID,
		Type:      t,
		Severity:  sev,
		State:     models.FlagStateFlagged,
		RaisedBy:  tctx.ActorID,
		Reason:    reason,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *attendanceServiceImpl) createFlag(ctx context.Context, tctx models.TenantContext, flag *models.IntegrityFlag) error {
	if err := s.flags.Create(ctx, flag); err != nil {
		return err
	}
	if _, err := s.ledger.Append(ctx, tctx, models.AppendAuditEntryRequest{
		Action:       "integrity_flag.raise",
		Scope:        models.ScopeUser,
		ResourceType: "integrity_flag",
		ResourceID:   flag.ID.String(),
		AfterState:   snapshotOf(flag),
	}); err != nil {
		return err
	}
	metrics.IntegrityFlagsTotal.WithLabelValues(string(flag.Type)).Inc()
	return nil
}

func driftFlagSeverity(d models.DriftSeverity) models.Severity {
	if d == models.DriftCritical {
		return models.SeverityHigh
	}
	return models.SeverityMedium
}
