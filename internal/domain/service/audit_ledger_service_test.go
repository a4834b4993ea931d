// File: backend/services/integrity-service/internal/domain/service/audit_ledger_service_test.go
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

	domainErrors "github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/errors"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/repository"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/service"
)

func testContext(role models.RoleID) models.TenantContext {
	return models.TenantContext{
		TenantID:  uuid.New(),
		Platform:  models.PlatformSchool,
		ActorID:   uuid.New(),
		ActorRole: role,
		RequestID: "req-1",
	}
}

func appendRequest(scope models.AuditActionScope) models.AppendAuditEntryRequest {
	return models.AppendAuditEntryRequest{
		Action:       "attendance.submit",
		Scope:        scope,
		ResourceType: "attendance_record",
		ResourceID:   uuid.New().String(),
	}
}

func TestAuditLedgerAppend_SetsIdentityAndChecksum(t *testing.T) {
	repo := new(MockAuditLogRepository)
	svc := service.NewAuditLedgerService(repo, zap.NewNop())
	tctx := testContext(models.RoleStaff)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.AuditLogEntry")).Return(nil)

	entry, err := svc.Append(context.Background(), tctx, appendRequest(models.ScopeUser))
	require.NoError(t, err)
	assert.Equal(t, tctx.TenantID, entry.TenantID)
	assert.Equal(t, tctx.ActorID, entry.ActorID)
	assert.Equal(t, tctx.ActorRole, entry.ActorRole)
	assert.NotEmpty(t, entry.Checksum)

	ok, err := entry.VerifyChecksum()
	require.NoError(t, err)
	assert.True(t, ok)
	repo.AssertExpectations(t)
}

func TestAuditLedgerAppend_ScopeRule(t *testing.T) {
	cases := []struct {
		name    string
		role    models.RoleID
		scope   models.AuditActionScope
		allowed bool
	}{
		{"superadmin global", models.RoleSuperadmin, models.ScopeGlobal, true},
		{"tenant_admin global", models.RoleTenantAdmin, models.ScopeGlobal, false},
		{"tenant_admin tenant", models.RoleTenantAdmin, models.ScopeTenant, true},
		{"manager tenant", models.RoleManager, models.ScopeTenant, false},
		{"member user", models.RoleMember, models.ScopeUser, true},
		{"guest user", models.RoleGuest, models.ScopeUser, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockAuditLogRepository)
			svc := service.NewAuditLedgerService(repo, zap.NewNop())
			if tc.allowed {
				repo.On("Create", mock.Anything, mock.Anything).Return(nil)
			}

			_, err := svc.Append(context.Background(), testContext(tc.role), appendRequest(tc.scope))
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domainErrors.ErrAuditScopeViolation)
				repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestAuditLedgerAppend_InvalidContext(t *testing.T) {
	repo := new(MockAuditLogRepository)
	svc := service.NewAuditLedgerService(repo, zap.NewNop())

	tctx := testContext(models.RoleStaff)
	tctx.TenantID = uuid.Nil

	_, err := svc.Append(context.Background(), tctx, appendRequest(models.ScopeUser))
	assert.ErrorIs(t, err, domainErrors.ErrInvalidTenantContext)
}

func TestAuditLedgerList_PinsTenantForNonSuperadmin(t *testing.T) {
	repo := new(MockAuditLogRepository)
	svc := service.NewAuditLedgerService(repo, zap.NewNop())
	tctx := testContext(models.RoleTenantAdmin)

	foreign := uuid.New()
	repo.On("List", mock.Anything, mock.MatchedBy(func(p repository.ListAuditLogParams) bool {
		return p.TenantID != nil && *p.TenantID == tctx.TenantID
	})).Return([]*models.AuditLogEntry{}, 0, nil)

	_, _, err := svc.List(context.Background(), tctx, repository.ListAuditLogParams{TenantID: &foreign})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestAuditLedgerList_RequiresAuditRead(t *testing.T) {
	repo := new(MockAuditLogRepository)
	svc := service.NewAuditLedgerService(repo, zap.NewNop())

	_, _, err := svc.List(context.Background(), testContext(models.RoleStaff), repository.ListAuditLogParams{})
	assert.ErrorIs(t, err, domainErrors.ErrAccessDenied)
}

func TestAuditLedgerVerifyRange_DetectsTampering(t *testing.T) {
	repo := new(MockAuditLogRepository)
	svc := service.NewAuditLedgerService(repo, zap.NewNop())
	tctx := testContext(models.RoleSuperadmin)

	good := &models.AuditLogEntry{
		ID:           uuid.New(),
		TenantID:     tctx.TenantID,
		ActorID:      tctx.ActorID,
		ActorRole:    models.RoleStaff,
		Action:       "attendance.submit",
		Scope:        models.ScopeUser,
		ResourceType: "attendance_record",
		ResourceID:   uuid.New().String(),
		CreatedAt:    time.Now().UTC(),
	}
	sum, err := good.ComputeChecksum()
	require.NoError(t, err)
	good.Checksum = sum

	tampered := &models.AuditLogEntry{}
	*tampered = *good
	tampered.ID = uuid.New()
	sum, err = tampered.ComputeChecksum()
	require.NoError(t, err)
	tampered.Checksum = sum
	tampered.Action = "attendance.transition" // mutated after hashing

	from, to := time.Now().Add(-time.Hour), time.Now()
	repo.On("ListRange", mock.Anything, from, to).Return([]*models.AuditLogEntry{good, tampered}, nil)

	report, err := svc.VerifyRange(context.Background(), tctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.False(t, report.Ok())
	require.Len(t, report.Mismatched, 1)
	assert.Equal(t, tampered.ID, report.Mismatched[0])
}

func TestAuditLedgerVerifyRange_SuperadminOnly(t *testing.T) {
	repo := new(MockAuditLogRepository)
	svc := service.NewAuditLedgerService(repo, zap.NewNop())

	_, err := svc.VerifyRange(context.Background(), testContext(models.RoleTenantAdmin), time.Now().Add(-time.Hour), time.Now())
	assert.ErrorIs(t, err, domainErrors.ErrAccessDenied)
}
