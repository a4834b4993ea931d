// File: backend/services/integrity-service/internal/domain/service/incident_service_test.go
package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/config"
	domainErrors "github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/errors"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/service"
)

type incidentFixture struct {
	repo      *MockIncidentRepository
	audit     *MockAuditLogRepository
	publisher *MockEventPublisher
	svc       service.IncidentService
}

func incidentConfig() config.IntegrityConfig {
	return config.IntegrityConfig{
		AckSLACritical: time.Hour,
		AckSLAHigh:     4 * time.Hour,
		AckSLAMedium:   24 * time.Hour,
		AckSLALow:      72 * time.Hour,
	}
}

func newIncidentFixture() *incidentFixture {
	f := &incidentFixture{
		repo:      new(MockIncidentRepository),
		audit:     new(MockAuditLogRepository),
		publisher: new(MockEventPublisher),
	}
	log := zap.NewNop()
	ledger := service.NewAuditLedgerService(f.audit, log)
	f.svc = service.NewIncidentService(f.repo, ledger, fakeTxManager{}, f.publisher, incidentConfig(), log)
	return f
}

func openRequest(sev models.Severity) models.OpenIncidentRequest {
	return models.OpenIncidentRequest{
		Type:     models.IncidentTypeIntegrity,
		Severity: sev,
		Title:    "Integrity flags: DUPLICATE_SUBMISSION",
		GroupKey: "INTEGRITY_FLAG:DUPLICATE_SUBMISSION",
		Sources: []models.IncidentSource{
			{Kind: models.SourceIntegrityFlag, SourceID: uuid.New()},
		},
	}
}

func TestIncidentOpen_CriticalPublishes(t *testing.T) {
	f := newIncidentFixture()
	tctx := testContext(models.RoleTenantAdmin)

	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("AddSource", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("InsertTimelineEvent", mock.Anything, mock.Anything).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("PublishIncidentOpened", mock.Anything).Return(nil)

	inc, err := f.svc.Open(context.Background(), tctx, openRequest(models.SeverityCritical))
	require.NoError(t, err)
	assert.Equal(t, models.IncidentOpen, inc.Status)
	f.publisher.AssertExpectations(t)
}

func TestIncidentOpen_NonCriticalDoesNotPublish(t *testing.T) {
	f := newIncidentFixture()
	tctx := testContext(models.RoleTenantAdmin)

	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("AddSource", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("InsertTimelineEvent", mock.Anything, mock.Anything).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Open(context.Background(), tctx, openRequest(models.SeverityMedium))
	require.NoError(t, err)
	f.publisher.AssertNotCalled(t, "PublishIncidentOpened", mock.Anything)
}

func TestIncidentOpenOrLink_LinksAndBumpsSeverity(t *testing.T) {
	f := newIncidentFixture()
	tctx := testContext(models.RoleTenantAdmin)
	existing := &models.Incident{
		ID:       uuid.New(),
		TenantID: tctx.TenantID,
		Severity: models.SeverityMedium,
		Status:   models.IncidentOpen,
		GroupKey: "INTEGRITY_FLAG:DUPLICATE_SUBMISSION",
	}

	f.repo.On("FindOpenByGroupKey", mock.Anything, tctx.TenantID, existing.GroupKey).Return(existing, nil)
	f.repo.On("AddSource", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("Update", mock.Anything, mock.MatchedBy(func(inc *models.Incident) bool {
		return inc.Severity == models.SeverityHigh
	})).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	inc, created, err := f.svc.OpenOrLink(context.Background(), tctx, openRequest(models.SeverityHigh))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, inc.ID)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIncidentTransition_ResolvedRequiresRootCause(t *testing.T) {
	f := newIncidentFixture()
	tctx := testContext(models.RoleTenantAdmin)
	inc := &models.Incident{ID: uuid.New(), TenantID: tctx.TenantID, Status: models.IncidentInvestigating}
	f.repo.On("FindByID", mock.Anything, inc.ID).Return(inc, nil)

	_, err := f.svc.Transition(context.Background(), tctx, models.IncidentTransitionRequest{
		IncidentID: inc.ID,
		NewStatus:  models.IncidentResolved,
		Resolution: "resolution without root cause",
	})
	assert.ErrorIs(t, err, domainErrors.ErrIncidentPreconditionFailed)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestIncidentTransition_ClosedOnlyFromResolved(t *testing.T) {
	f := newIncidentFixture()
	tctx := testContext(models.RoleTenantAdmin)
	inc := &models.Incident{ID: uuid.New(), TenantID: tctx.TenantID, Status: models.IncidentOpen}
	f.repo.On("FindByID", mock.Anything, inc.ID).Return(inc, nil)

	_, err := f.svc.Transition(context.Background(), tctx, models.IncidentTransitionRequest{
		IncidentID: inc.ID,
		NewStatus:  models.IncidentClosed,
	})
	assert.ErrorIs(t, err, domainErrors.ErrInvalidStateTransition)
}

func TestIncidentTransition_AcknowledgeStampsActor(t *testing.T) {
	f := newIncidentFixture()
	tctx := testContext(models.RoleTenantAdmin)
	inc := &models.Incident{ID: uuid.New(), TenantID: tctx.TenantID, Status: models.IncidentOpen}

	f.repo.On("FindByID", mock.Anything, inc.ID).Return(inc, nil)
	f.repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("InsertTimelineEvent", mock.Anything, mock.MatchedBy(func(ev *models.IncidentTimelineEvent) bool {
		return ev.FromStatus == models.IncidentOpen && ev.ToStatus == models.IncidentAcknowledged
	})).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.Transition(context.Background(), tctx, models.IncidentTransitionRequest{
		IncidentID: inc.ID,
		NewStatus:  models.IncidentAcknowledged,
	})
	require.NoError(t, err)
	require.NotNil(t, got.AcknowledgedBy)
	assert.Equal(t, tctx.ActorID, *got.AcknowledgedBy)
	assert.NotNil(t, got.AcknowledgedAt)
}

func TestIncidentEscalate_LateralMarker(t *testing.T) {
	f := newIncidentFixture()
	tctx := testContext(models.RoleTenantAdmin)
	inc := &models.Incident{ID: uuid.New(), TenantID: tctx.TenantID, Status: models.IncidentInvestigating}

	f.repo.On("FindByID", mock.Anything, inc.ID).Return(inc, nil)
	f.repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("InsertTimelineEvent", mock.Anything, mock.MatchedBy(func(ev *models.IncidentTimelineEvent) bool {
		// Lateral: the lifecycle status does not move.
		return ev.FromStatus == models.IncidentInvestigating && ev.ToStatus == models.IncidentInvestigating
	})).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("PublishIncidentEscalated", mock.Anything).Return(nil)

	got, err := f.svc.Escalate(context.Background(), tctx, inc.ID, "paging on-call")
	require.NoError(t, err)
	assert.True(t, got.Escalated)
	assert.Equal(t, models.IncidentInvestigating, got.Status)
	f.publisher.AssertExpectations(t)
}

func TestIncidentEscalate_TerminalStatusRefused(t *testing.T) {
	f := newIncidentFixture()
	tctx := testContext(models.RoleTenantAdmin)
	inc := &models.Incident{ID: uuid.New(), TenantID: tctx.TenantID, Status: models.IncidentResolved}
	f.repo.On("FindByID", mock.Anything, inc.ID).Return(inc, nil)

	_, err := f.svc.Escalate(context.Background(), tctx, inc.ID, "")
	assert.ErrorIs(t, err, domainErrors.ErrIncidentPreconditionFailed)
}

func TestListOverdue_ComputesPerSeveritySLA(t *testing.T) {
	f := newIncidentFixture()
	now := time.Now().UTC()

	overdue := &models.Incident{
		ID:        uuid.New(),
		Severity:  models.SeverityCritical,
		Status:    models.IncidentOpen,
		CreatedAt: now.Add(-3 * time.Hour),
	}
	f.repo.On("ListUnacknowledgedBefore", mock.Anything, models.SeverityCritical, now.Add(-time.Hour)).
		Return([]*models.Incident{overdue}, nil)
	for _, sev := range []models.Severity{models.SeverityHigh, models.SeverityMedium, models.SeverityLow} {
		f.repo.On("ListUnacknowledgedBefore", mock.Anything, sev, mock.Anything).
			Return([]*models.Incident{}, nil)
	}

	rows, err := f.svc.ListOverdue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, overdue.ID, rows[0].Incident.ID)
	assert.Equal(t, 2*time.Hour, rows[0].Overdue)
}
