// File: backend/services/integrity-service/internal/domain/service/escalation_service_test.go
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
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/repository"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/service"
)

type escalationFixture struct {
	history   *MockRoleHistoryRepository
	events    *MockEscalationRepository
	queue     *MockRevalidationQueue
	audit     *MockAuditLogRepository
	publisher *MockEventPublisher
	sink      *recordingSink
	svc       service.EscalationService
}

func escalationConfig() config.IntegrityConfig {
	return config.IntegrityConfig{
		PermissionJumpThreshold: 5,
		ElevationMinGain:        2,
		TimingWindow:            time.Hour,
		DisallowedTransitions:   []string{"member->superadmin", "guest->superadmin", "guest->tenant_admin"},
	}
}

func newEscalationFixture() *escalationFixture {
	f := &escalationFixture{
		history:   new(MockRoleHistoryRepository),
		events:    new(MockEscalationRepository),
		queue:     new(MockRevalidationQueue),
		audit:     new(MockAuditLogRepository),
		publisher: new(MockEventPublisher),
		sink:      &recordingSink{},
	}
	log := zap.NewNop()
	ledger := service.NewAuditLedgerService(f.audit, log)
	f.svc = service.NewEscalationService(f.history, f.events, f.queue, ledger, fakeTxManager{},
		f.publisher, f.sink, escalationConfig(), log)
	return f
}

func TestDetect_BenignChangeWritesHistoryOnly(t *testing.T) {
	f := newEscalationFixture()
	tctx := testContext(models.RoleTenantAdmin)

	f.history.On("CountForUserSince", mock.Anything, tctx.TenantID, mock.Anything, mock.Anything).Return(0, nil)
	f.history.On("Create", mock.Anything, mock.MatchedBy(func(h *models.RoleAssignmentHistory) bool {
		return h.Severity == models.SeverityLow && len(h.Signals) == 0
	})).Return(nil)

	// staff -> member sheds permissions; nothing fires.
	result, err := f.svc.Detect(context.Background(), tctx, models.RoleChangeRequest{
		UserID:       uuid.New(),
		PreviousRole: models.RoleStaff,
		NewRole:      models.RoleMember,
	})
	require.NoError(t, err)
	assert.False(t, result.IsEscalation)
	assert.Nil(t, result.Event)
	assert.Empty(t, f.sink.escalations)
	f.events.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.history.AssertExpectations(t)
}

func TestDetect_StaffToManagerIsHighElevation(t *testing.T) {
	f := newEscalationFixture()
	tctx := testContext(models.RoleTenantAdmin)

	f.history.On("CountForUserSince", mock.Anything, tctx.TenantID, mock.Anything, mock.Anything).Return(0, nil)
	f.history.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.events.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.Detect(context.Background(), tctx, models.RoleChangeRequest{
		UserID:       uuid.New(),
		PreviousRole: models.RoleStaff,
		NewRole:      models.RoleManager,
	})
	require.NoError(t, err)
	assert.True(t, result.IsEscalation)
	assert.Equal(t, models.SeverityHigh, result.Severity)
	assert.Contains(t, result.Reasons, models.SignalPrivilegeElevation)
	assert.False(t, result.RequiresRevalidation)
	require.Len(t, f.sink.escalations, 1)
	f.queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestDetect_MemberToSuperadminIsCriticalPolicyViolation(t *testing.T) {
	f := newEscalationFixture()
	tctx := testContext(models.RoleTenantAdmin)
	userID := uuid.New()

	f.history.On("CountForUserSince", mock.Anything, tctx.TenantID, userID, mock.Anything).Return(0, nil)
	f.history.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.events.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.queue.On("Enqueue", mock.Anything, mock.MatchedBy(func(item repository.RevalidationItem) bool {
		return item.UserID == userID && item.Severity == models.SeverityCritical
	})).Return(nil)
	f.publisher.On("PublishEscalationCreated", mock.Anything).Return(nil)

	result, err := f.svc.Detect(context.Background(), tctx, models.RoleChangeRequest{
		UserID:       userID,
		PreviousRole: models.RoleMember,
		NewRole:      models.RoleSuperadmin,
	})
	// The violation is recorded AND refused: full result plus the error.
	assert.ErrorIs(t, err, domainErrors.ErrPolicyViolation)
	require.NotNil(t, result)
	assert.True(t, result.IsEscalation)
	assert.Equal(t, models.SeverityCritical, result.Severity)
	assert.True(t, result.RequiresRevalidation)
	assert.Contains(t, result.Reasons, models.SignalSuperadminJump)
	assert.Contains(t, result.Reasons, models.SignalPolicyViolation)
	assert.Contains(t, result.Reasons, models.SignalPermissionJump)
	f.queue.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestDetect_NoPreviousRoleToSuperadminIsCritical(t *testing.T) {
	f := newEscalationFixture()
	tctx := testContext(models.RoleTenantAdmin)

	f.history.On("CountForUserSince", mock.Anything, tctx.TenantID, mock.Anything, mock.Anything).Return(0, nil)
	f.history.On("Create", mock.Anything, mock.MatchedBy(func(h *models.RoleAssignmentHistory) bool {
		return h.PreviousRole == models.RoleGuest // absent previous role normalizes to guest
	})).Return(nil)
	f.events.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.queue.On("Enqueue", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("PublishEscalationCreated", mock.Anything).Return(nil)

	result, err := f.svc.Detect(context.Background(), tctx, models.RoleChangeRequest{
		UserID:  uuid.New(),
		NewRole: models.RoleSuperadmin,
	})
	assert.ErrorIs(t, err, domainErrors.ErrPolicyViolation)
	require.NotNil(t, result)
	assert.Equal(t, models.SeverityCritical, result.Severity)
	assert.Contains(t, result.Reasons, models.SignalSuperadminJump)
}

func TestDetect_TimingAnomalyOnRapidChanges(t *testing.T) {
	f := newEscalationFixture()
	tctx := testContext(models.RoleTenantAdmin)

	f.history.On("CountForUserSince", mock.Anything, tctx.TenantID, mock.Anything, mock.Anything).Return(2, nil)
	f.history.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.events.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.Detect(context.Background(), tctx, models.RoleChangeRequest{
		UserID:       uuid.New(),
		PreviousRole: models.RoleStaff,
		NewRole:      models.RoleMember,
	})
	require.NoError(t, err)
	assert.True(t, result.IsEscalation)
	assert.Equal(t, models.SeverityHigh, result.Severity)
	assert.Contains(t, result.Reasons, models.SignalTimingAnomaly)
}

func TestUpdateStatus_LifecycleEnforced(t *testing.T) {
	f := newEscalationFixture()
	tctx := testContext(models.RoleTenantAdmin)
	event := &models.EscalationEvent{
		ID:       uuid.New(),
		TenantID: tctx.TenantID,
		Status:   models.EscalationResolvedLegitimate,
	}
	f.events.On("FindByID", mock.Anything, event.ID).Return(event, nil)

	_, err := f.svc.UpdateStatus(context.Background(), tctx, event.ID, models.EscalationInvestigating, "reopening")
	assert.ErrorIs(t, err, domainErrors.ErrInvalidStateTransition)
}

func TestUpdateStatus_ForeignTenantLooksAbsent(t *testing.T) {
	f := newEscalationFixture()
	tctx := testContext(models.RoleTenantAdmin)
	event := &models.EscalationEvent{
		ID:       uuid.New(),
		TenantID: uuid.New(), // different tenant
		Status:   models.EscalationOpen,
	}
	f.events.On("FindByID", mock.Anything, event.ID).Return(event, nil)

	_, err := f.svc.UpdateStatus(context.Background(), tctx, event.ID, models.EscalationInvestigating, "")
	assert.ErrorIs(t, err, domainErrors.ErrEscalationNotFound)
}
