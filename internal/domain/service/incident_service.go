// File: backend/services/integrity-service/internal/domain/service/incident_service.go
package service

import (
	"context"
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

// IncidentService owns the incident lifecycle and the aggregation of flags
// and escalation events into incidents.
type IncidentService interface {
	Open(ctx context.Context, tctx models.TenantContext, req models.OpenIncidentRequest) (*models.Incident, error)
	// OpenOrLink links the request's sources into an already-open incident
	// with the same group key, bumping its severity if the new sources are
	// worse; absent one it opens a new incident. Returns whether a new
	// incident was created.
	OpenOrLink(ctx context.Context, tctx models.TenantContext, req models.OpenIncidentRequest) (*models.Incident, bool, error)
	Transition(ctx context.Context, tctx models.TenantContext, req models.IncidentTransitionRequest) (*models.Incident, error)
	// Escalate sets the lateral escalated marker without leaving the
	// current lifecycle status.
	Escalate(ctx context.Context, tctx models.TenantContext, id uuid.UUID, note string) (*models.Incident, error)
	Get(ctx context.Context, tctx models.TenantContext, id uuid.UUID) (*models.Incident, error)
	Timeline(ctx context.Context, tctx models.TenantContext, id uuid.UUID) ([]*models.IncidentTimelineEvent, error)
	// ListOverdue surfaces OPEN incidents past their per-severity
	// acknowledgement SLA. Pure read; nothing is auto-escalated.
	ListOverdue(ctx context.Context, now time.Time) ([]repository.OverdueIncident, error)
}

type incidentServiceImpl struct {
	repo      repository.IncidentRepository
	ledger    AuditLedgerService
	tm        repository.TxManager
	publisher EventPublisher
	cfg       config.IntegrityConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewIncidentService creates the incident lifecycle service.
func NewIncidentService(
	repo repository.IncidentRepository,
	ledger AuditLedgerService,
	tm repository.TxManager,
	publisher EventPublisher,
	cfg config.IntegrityConfig,
	logger *zap.Logger,
) IncidentService {
	return &incidentServiceImpl{
		repo:      repo,
		ledger:    ledger,
		tm:        tm,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.Named("incident_service"),
		now:       time.Now,
	}
}

func (s *incidentServiceImpl) Open(ctx context.Context, tctx models.TenantContext, req models.OpenIncidentRequest) (*models.Incident, error) {
	if err := tctx.Validate(); err != nil {
		return nil, err
	}
	if err := models.ValidateStruct(req); err != nil {
		return nil, &domainErrors.AppError{Err: domainErrors.ErrInternal, Msg: err.Error(), Code: domainErrors.CodeValidation}
	}

	now := s.now().UTC()
	inc := &models.Incident{
		ID:        uuid.New(),
		TenantID:  tctx.TenantID,
		Type:      req.Type,
		Severity:  req.Severity,
		Status:    models.IncidentOpen,
		Title:     req.Title,
		GroupKey:  req.GroupKey,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.tm.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, inc); err != nil {
			return err
		}
		for _, src := range req.Sources {
			src.IncidentID = inc.ID
			src.CreatedAt = now
			if err := s.repo.AddSource(txCtx, &src); err != nil {
				return err
			}
		}
		if err := s.repo.InsertTimelineEvent(txCtx, &models.IncidentTimelineEvent{
			ID:         uuid.New(),
			IncidentID: inc.ID,
			FromStatus: models.IncidentOpen,
			ToStatus:   models.IncidentOpen,
			ActorID:    tctx.ActorID,
			CreatedAt:  now,
		}); err != nil {
			return err
		}
		_, err := s.ledger.Append(txCtx, tctx, models.AppendAuditEntryRequest{
			Action:       "incident.open",
			Scope:        models.ScopeTenant,
			ResourceType: "incident",
			ResourceID:   inc.ID.String(),
			AfterState:   snapshotOf(inc),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.IncidentsOpenedTotal.WithLabelValues(string(inc.Severity)).Inc()
	if inc.Severity == models.SeverityCritical {
		s.publishIncident(s.publisher.PublishIncidentOpened, inc)
	}
	return inc, nil
}

func (s *incidentServiceImpl) OpenOrLink(ctx context.Context, tctx models.TenantContext, req models.OpenIncidentRequest) (*models.Incident, bool, error) {
	if err := tctx.Validate(); err != nil {
		return nil, false, err
	}
	existing, err := s.repo.FindOpenByGroupKey(ctx, tctx.TenantID, req.GroupKey)
	if err != nil {
		if !domainErrors.Is(err, domainErrors.ErrIncidentNotFound) {
			return nil, false, err
		}
		inc, openErr := s.Open(ctx, tctx, req)
		return inc, true, openErr
	}

	now := s.now().UTC()
	before := snapshotOf(existing)
	bumped := models.MaxSeverity(existing.Severity, req.Severity) != existing.Severity

	err = s.tm.WithinTransaction(ctx, func(txCtx context.Context) error {
		for _, src := range req.Sources {
			src.IncidentID = existing.ID
			src.CreatedAt = now
			if err := s.repo.AddSource(txCtx, &src); err != nil {
				return err
			}
		}
		if !bumped {
			return nil
		}
		existing.Severity = models.MaxSeverity(existing.Severity, req.Severity)
		existing.UpdatedAt = now
		if err := s.repo.Update(txCtx, existing); err != nil {
			return err
		}
		_, err := s.ledger.Append(txCtx, tctx, models.AppendAuditEntryRequest{
			Action:       "incident.severity_bump",
			Scope:        models.ScopeTenant,
			ResourceType: "incident",
			ResourceID:   existing.ID.String(),
			BeforeState:  before,
			AfterState:   snapshotOf(existing),
		})
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Transition moves an incident along its lifecycle. RESOLVED demands a root
// cause and a resolution; CLOSED is only reachable from RESOLVED via the
// transition table.
func (s *incidentServiceImpl) Transition(ctx context.Context, tctx models.TenantContext, req models.IncidentTransitionRequest) (*models.Incident, error) {
	if err := tctx.Validate(); err != nil {
		return nil, err
	}
	if err := models.ValidateStruct(req); err != nil {
		return nil, &domainErrors.AppError{Err: domainErrors.ErrInternal, Msg: err.Error(), Code: domainErrors.CodeValidation}
	}
	if !models.RoleHasPermission(tctx.ActorRole, models.PermIncidentsManage) {
		metrics.AccessDeniedTotal.Inc()
		return nil, domainErrors.ErrAccessDenied
	}

	inc, err := s.loadScoped(ctx, tctx, req.IncidentID)
	if err != nil {
		return nil, err
	}
	from := inc.Status
	if !models.IsValidIncidentTransition(from, req.NewStatus) {
		return nil, domainErrors.ErrInvalidStateTransition
	}
	if req.NewStatus == models.IncidentResolved && (req.RootCause == "" || req.Resolution == "") {
		return nil, domainErrors.ErrIncidentPreconditionFailed
	}

	now := s.now().UTC()
	before := snapshotOf(inc)
	inc.Status = req.NewStatus
	inc.UpdatedAt = now
	switch req.NewStatus {
	case models.IncidentAcknowledged:
		actorID := tctx.ActorID
		inc.AcknowledgedBy = &actorID
		inc.AcknowledgedAt = &now
	case models.IncidentResolved:
		rootCause, resolution := req.RootCause, req.Resolution
		inc.RootCause = &rootCause
		inc.Resolution = &resolution
	}

	err = s.tm.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, inc); err != nil {
			return err
		}
		ev := &models.IncidentTimelineEvent{
			ID:         uuid.New(),
			IncidentID: inc.ID,
			FromStatus: from,
			ToStatus:   req.NewStatus,
			ActorID:    tctx.ActorID,
			CreatedAt:  now,
		}
		if req.Note != "" {
			note := req.Note
			ev.Note = &note
		}
		if err := s.repo.InsertTimelineEvent(txCtx, ev); err != nil {
			return err
		}
		_, err := s.ledger.Append(txCtx, tctx, models.AppendAuditEntryRequest{
			Action:       "incident.transition",
			Scope:        models.ScopeTenant,
			ResourceType: "incident",
			ResourceID:   inc.ID.String(),
			BeforeState:  before,
			AfterState:   snapshotOf(inc),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return inc, nil
}

func (s *incidentServiceImpl) Escalate(ctx context.Context, tctx models.TenantContext, id uuid.UUID, note string) (*models.Incident, error) {
	if err := tctx.Validate(); err != nil {
		return nil, err
	}
	if !models.RoleHasPermission(tctx.ActorRole, models.PermIncidentsManage) {
		metrics.AccessDeniedTotal.Inc()
		return nil, domainErrors.ErrAccessDenied
	}

	inc, err := s.loadScoped(ctx, tctx, id)
	if err != nil {
		return nil, err
	}
	if !models.IsOpenIncidentStatus(inc.Status) {
		return nil, domainErrors.ErrIncidentPreconditionFailed
	}
	if inc.Escalated {
		return inc, nil
	}

	now := s.now().UTC()
	before := snapshotOf(inc)
	inc.Escalated = true
	inc.UpdatedAt = now

	err = s.tm.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, inc); err != nil {
			return err
		}
		ev := &models.IncidentTimelineEvent{
			ID:         uuid.New(),
			IncidentID: inc.ID,
			FromStatus: inc.Status,
			ToStatus:   inc.Status,
			ActorID:    tctx.ActorID,
			CreatedAt:  now,
		}
		if note != "" {
			n := note
			ev.Note = &n
		}
		if err := s.repo.InsertTimelineEvent(txCtx, ev); err != nil {
			return err
		}
		_, err := s.ledger.Append(txCtx, tctx, models.AppendAuditEntryRequest{
			Action:       "incident.escalate",
			Scope:        models.ScopeTenant,
			ResourceType: "incident",
			ResourceID:   inc.ID.String(),
			BeforeState:  before,
			AfterState:   snapshotOf(inc),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishIncident(s.publisher.PublishIncidentEscalated, inc)
	return inc, nil
}

func (s *incidentServiceImpl) Get(ctx context.Context, tctx models.TenantContext, id uuid.UUID) (*models.Incident, error) {
	if err := tctx.Validate(); err != nil {
		return nil, err
	}
	return s.loadScoped(ctx, tctx, id)
}

func (s *incidentServiceImpl) Timeline(ctx context.Context, tctx models.TenantContext, id uuid.UUID) ([]*models.IncidentTimelineEvent, error) {
	if err := tctx.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.loadScoped(ctx, tctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListTimeline(ctx, id)
}

func (s *incidentServiceImpl) ListOverdue(ctx context.Context, now time.Time) ([]repository.OverdueIncident, error) {
	severities := []models.Severity{
		models.SeverityCritical,
		models.SeverityHigh,
		models.SeverityMedium,
		models.SeverityLow,
	}
	var out []repository.OverdueIncident
	for _, sev := range severities {
		sla := s.cfg.AckSLAFor(sev)
		cutoff := now.Add(-sla)
		incidents, err := s.repo.ListUnacknowledgedBefore(ctx, sev, cutoff)
		if err != nil {
			return nil, err
		}
		for _, inc := range incidents {
			out = append(out, repository.OverdueIncident{
				Incident: inc,
				Overdue:  now.Sub(inc.CreatedAt) - sla,
			})
		}
	}
	return out, nil
}

// loadScoped fetches an incident and hides foreign-tenant rows behind the
// same error an absent row produces.
func (s *incidentServiceImpl) loadScoped(ctx context.Context, tctx models.TenantContext, id uuid.UUID) (*models.Incident, error) {
	inc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tctx.ActorRole != models.RoleSuperadmin && inc.TenantID != tctx.TenantID {
		metrics.AccessDeniedTotal.Inc()
		return nil, domainErrors.ErrIncidentNotFound
	}
	return inc, nil
}

func (s *incidentServiceImpl) publishIncident(publish func(kafka.IncidentEventData) error, inc *models.Incident) {
	err := publish(kafka.IncidentEventData{
		IncidentID: inc.ID,
		TenantID:   inc.TenantID,
		Type:       inc.Type,
		Severity:   inc.Severity,
		Title:      inc.Title,
	})
	if err != nil {
		s.logger.Error("failed to publish incident event",
			zap.Error(err),
			zap.String("incident_id", inc.ID.String()))
	}
}
