// File: backend/services/integrity-service/internal/domain/service/escalation_service.go
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/config"
	domainErrors "github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/errors"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/repository"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/events/kafka"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/utils/metrics"
)

// Per-signal contribution to the anomaly score.
const (
	scorePrivilegeElevation = 2
	scoreSuperadminJump     = 4
	scoreTimingAnomaly      = 2
	scorePolicyViolation    = 3
	scorePermissionJump     = 2
)

// escalationTransitions lists the investigation lifecycle edges.
var escalationTransitions = map[models.EscalationStatus][]models.EscalationStatus{
	models.EscalationOpen: {
		models.EscalationInvestigating,
		models.EscalationResolvedLegitimate,
		models.EscalationResolvedReverted,
	},
	models.EscalationInvestigating: {
		models.EscalationResolvedLegitimate,
		models.EscalationResolvedReverted,
	},
}

// EscalationService evaluates role changes against the five-signal scoring
// model. Every evaluated change lands in the role assignment history whether
// or not it escalates; anomalous ones additionally produce an escalation
// event, and CRITICAL ones enter the revalidation queue.
type EscalationService interface {
	// Detect evaluates a role change. When the change matches a disallowed
	// transition rule the full result is still recorded and returned
	// alongside ErrPolicyViolation so the caller refuses the assignment.
	Detect(ctx context.Context, tctx models.TenantContext, req models.RoleChangeRequest) (*models.EscalationResult, error)
	UpdateStatus(ctx context.Context, tctx models.TenantContext, id uuid.UUID, status models.EscalationStatus, note string) (*models.EscalationEvent, error)
	List(ctx context.Context, tctx models.TenantContext, params repository.ListEscalationParams) ([]*models.EscalationEvent, int, error)
}

type escalationServiceImpl struct {
	history    repository.RoleHistoryRepository
	events     repository.EscalationRepository
	queue      repository.RevalidationQueue
	ledger     AuditLedgerService
	tm         repository.TxManager
	publisher  EventPublisher
	sink       IncidentSink
	cfg        config.IntegrityConfig
	disallowed map[string]struct{}
	logger     *zap.Logger
	now        func() time.Time
}

// NewEscalationService creates the privilege escalation detector.
func NewEscalationService(
	history repository.RoleHistoryRepository,
	events repository.EscalationRepository,
	queue repository.RevalidationQueue,
	ledger AuditLedgerService,
	tm repository.TxManager,
	publisher EventPublisher,
	sink IncidentSink,
	cfg config.IntegrityConfig,
	logger *zap.Logger,
) EscalationService {
	disallowed := make(map[string]struct{}, len(cfg.DisallowedTransitions))
	for _, rule := range cfg.DisallowedTransitions {
		disallowed[strings.TrimSpace(rule)] = struct{}{}
	}
	return &escalationServiceImpl{
		history:    history,
		events:     events,
		queue:      queue,
		ledger:     ledger,
		tm:         tm,
		publisher:  publisher,
		sink:       sink,
		cfg:        cfg,
		disallowed: disallowed,
		logger:     logger.Named("escalation_service"),
		now:        time.Now,
	}
}

func (s *escalationServiceImpl) Detect(ctx context.Context, tctx models.TenantContext, req models.RoleChangeRequest) (*models.EscalationResult, error) {
	if err := tctx.Validate(); err != nil {
		return nil, err
	}
	if err := models.ValidateStruct(req); err != nil {
		return nil, &domainErrors.AppError{Err: domainErrors.ErrInternal, Msg: err.Error(), Code: domainErrors.CodeValidation}
	}
	if _, ok := models.RolePermissions[req.NewRole]; !ok {
		return nil, &domainErrors.AppError{Err: domainErrors.ErrInternal, Msg: "unknown target role", Code: domainErrors.CodeValidation}
	}

	prev := req.PreviousRole
	noPrevious := prev == ""
	if noPrevious {
		prev = models.RoleGuest
	}
	now := s.now().UTC()

	var signals []string
	var score int
	severity := models.SeverityLow

	gained := models.PermissionDiff(prev, req.NewRole)

	if req.NewRole == models.RoleSuperadmin && (noPrevious || !models.IsPrivilegedRole(prev)) {
		signals = append(signals, models.SignalSuperadminJump)
		score += scoreSuperadminJump
		severity = models.MaxSeverity(severity, models.SeverityCritical)
	}
	if models.IsStrictSuperset(prev, req.NewRole) && len(gained) >= s.cfg.ElevationMinGain {
		signals = append(signals, models.SignalPrivilegeElevation)
		score += scorePrivilegeElevation
		severity = models.MaxSeverity(severity, models.SeverityHigh)
	}
	recent, err := s.history.CountForUserSince(ctx, tctx.TenantID, req.UserID, now.Add(-s.cfg.TimingWindow))
	if err != nil {
		return nil, err
	}
	if recent >= 1 {
		signals = append(signals, models.SignalTimingAnomaly)
		score += scoreTimingAnomaly
		severity = models.MaxSeverity(severity, models.SeverityHigh)
	}
	rule := string(prev) + "->" + string(req.NewRole)
	_, policyViolated := s.disallowed[rule]
	if policyViolated {
		signals = append(signals, models.SignalPolicyViolation)
		score += scorePolicyViolation
		severity = models.MaxSeverity(severity, models.SeverityCritical)
	}
	if len(gained) >= s.cfg.PermissionJumpThreshold {
		signals = append(signals, models.SignalPermissionJump)
		score += scorePermissionJump
		severity = models.MaxSeverity(severity, models.SeverityHigh)
	}

	result := &models.EscalationResult{
		IsEscalation:         len(signals) > 0,
		Severity:             severity,
		Reasons:              signals,
		AnomalyScore:         score,
		RequiresRevalidation: severity == models.SeverityCritical,
	}

	histRow := &models.RoleAssignmentHistory{
		ID:           uuid.New(),
		TenantID:     tctx.TenantID,
		UserID:       req.UserID,
		PreviousRole: prev,
		NewRole:      req.NewRole,
		ChangedBy:    tctx.ActorID,
		Reason:       req.Reason,
		Severity:     severity,
		AnomalyScore: score,
		Signals:      signals,
		CreatedAt:    now,
	}

	var event *models.EscalationEvent
	if result.IsEscalation {
		event = &models.EscalationEvent{
			ID:           uuid.New(),
			TenantID:     tctx.TenantID,
			UserID:       req.UserID,
			PreviousRole: prev,
			NewRole:      req.NewRole,
			Severity:     severity,
			Signals:      signals,
			AnomalyScore: score,
			Status:       models.EscalationOpen,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		result.Event = event
	}

	err = s.tm.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.history.Create(txCtx, histRow); err != nil {
			return err
		}
		if event == nil {
			return nil
		}
		if err := s.events.Create(txCtx, event); err != nil {
			return err
		}
		_, err := s.ledger.Append(txCtx, tctx, models.AppendAuditEntryRequest{
			Action:       "role.escalation_detected",
			Scope:        models.ScopeTenant,
			ResourceType: "escalation_event",
			ResourceID:   event.ID.String(),
			AfterState:   snapshotOf(event),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if event != nil {
		metrics.EscalationsTotal.WithLabelValues(string(severity)).Inc()
		s.sink.SubmitEscalation(event)
	}
	if result.RequiresRevalidation {
		s.enqueueRevalidation(ctx, tctx, req, severity, now)
		s.publishCreated(event)
	}

	if policyViolated {
		// Detection is evidence, not permission: the event and history are
		// committed above, but the assignment itself must be refused.
		return result, domainErrors.ErrPolicyViolation
	}
	return result, nil
}

func (s *escalationServiceImpl) enqueueRevalidation(ctx context.Context, tctx models.TenantContext, req models.RoleChangeRequest, severity models.Severity, now time.Time) {
	item := repository.RevalidationItem{
		TenantID:   tctx.TenantID,
		UserID:     req.UserID,
		Role:       req.NewRole,
		Severity:   severity,
		EnqueuedAt: now,
	}
	if err := s.queue.Enqueue(ctx, item); err != nil {
		s.logger.Error("failed to enqueue revalidation",
			zap.Error(err),
			zap.String("tenant_id", tctx.TenantID.String()),
			zap.String("user_id", req.UserID.String()))
	}
}

func (s *escalationServiceImpl) publishCreated(event *models.EscalationEvent) {
	if event == nil {
		return
	}
	err := s.publisher.PublishEscalationCreated(kafka.EscalationCreatedData{
		EscalationID: event.ID,
		TenantID:     event.TenantID,
		UserID:       event.UserID,
		PreviousRole: event.PreviousRole,
		NewRole:      event.NewRole,
		Severity:     event.Severity,
		Signals:      event.Signals,
	})
	if err != nil {
		s.logger.Error("failed to publish escalation event",
			zap.Error(err),
			zap.String("escalation_id", event.ID.String()))
	}
}

func (s *escalationServiceImpl) UpdateStatus(ctx context.Context, tctx models.TenantContext, id uuid.UUID, status models.EscalationStatus, note string) (*models.EscalationEvent, error) {
	if err := tctx.Validate(); err != nil {
		return nil, err
	}
	if !models.RoleHasPermission(tctx.ActorRole, models.PermIncidentsManage) {
		metrics.AccessDeniedTotal.Inc()
		return nil, domainErrors.ErrAccessDenied
	}

	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tctx.ActorRole != models.RoleSuperadmin && event.TenantID != tctx.TenantID {
		metrics.AccessDeniedTotal.Inc()
		return nil, domainErrors.ErrEscalationNotFound
	}
	if !escalationStatusAllowed(event.Status, status) {
		return nil, domainErrors.ErrInvalidStateTransition
	}

	before := snapshotOf(event)
	event.Status = status
	if note != "" {
		event.Notes = append(event.Notes, note)
	}
	event.UpdatedAt = s.now().UTC()

	err = s.tm.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.events.UpdateStatus(txCtx, event.ID, event.Status, event.Notes); err != nil {
			return err
		}
		_, err := s.ledger.Append(txCtx, tctx, models.AppendAuditEntryRequest{
			Action:       "escalation.status_change",
			Scope:        models.ScopeTenant,
			ResourceType: "escalation_event",
			ResourceID:   event.ID.String(),
			BeforeState:  before,
			AfterState:   snapshotOf(event),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *escalationServiceImpl) List(ctx context.Context, tctx models.TenantContext, params repository.ListEscalationParams) ([]*models.EscalationEvent, int, error) {
	if err := tctx.Validate(); err != nil {
		return nil, 0, err
	}
	if tctx.ActorRole != models.RoleSuperadmin {
		tenantID := tctx.TenantID
		params.TenantID = &tenantID
	}
	return s.events.List(ctx, params)
}

func escalationStatusAllowed(from, to models.EscalationStatus) bool {
	for _, next := range escalationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
