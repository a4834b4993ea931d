// File: backend/services/integrity-service/internal/domain/service/mocks_test.go
package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/repository"
	kafkaPkg "github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/events/kafka"
)

// fakeTxManager runs the closure directly; service tests assert behavior,
// not transaction plumbing.
type fakeTxManager struct{}

func (fakeTxManager) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type recordingSink struct {
	flags       []*models.IntegrityFlag
	escalations []*models.EscalationEvent
}

func (s *recordingSink) SubmitFlag(f *models.IntegrityFlag)         { s.flags = append(s.flags, f) }
func (s *recordingSink) SubmitEscalation(e *models.EscalationEvent) { s.escalations = append(s.escalations, e) }

type MockAuditLogRepository struct{ mock.Mock }

func (m *MockAuditLogRepository) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
func (m *MockAuditLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.AuditLogEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuditLogEntry), args.Error(1)
}
func (m *MockAuditLogRepository) List(ctx context.Context, params repository.ListAuditLogParams) ([]*models.AuditLogEntry, int, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.AuditLogEntry), args.Int(1), args.Error(2)
}
func (m *MockAuditLogRepository) ListRange(ctx context.Context, from, to time.Time) ([]*models.AuditLogEntry, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLogEntry), args.Error(1)
}

type MockAttendanceRepository struct{ mock.Mock }

func (m *MockAttendanceRepository) Create(ctx context.Context, rec *models.AttendanceRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
func (m *MockAttendanceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.AttendanceRecord, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AttendanceRecord), args.Error(1)
}
func (m *MockAttendanceRepository) GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*models.AttendanceRecord, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AttendanceRecord), args.Error(1)
}
func (m *MockAttendanceRepository) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*models.AttendanceRecord, error) {
	args := m.Called(ctx, tenantID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AttendanceRecord), args.Error(1)
}
func (m *MockAttendanceRepository) FindBySubjectSession(ctx context.Context, tenantID, subjectID uuid.UUID, sessionKey string) (*models.AttendanceRecord, error) {
	args := m.Called(ctx, tenantID, subjectID, sessionKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AttendanceRecord), args.Error(1)
}
func (m *MockAttendanceRepository) UpdateState(ctx context.Context, rec *models.AttendanceRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
func (m *MockAttendanceRepository) InsertTransition(ctx context.Context, t *models.AttendanceStateTransition) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}
func (m *MockAttendanceRepository) ListTransitions(ctx context.Context, recordID uuid.UUID) ([]*models.AttendanceStateTransition, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AttendanceStateTransition), args.Error(1)
}
func (m *MockAttendanceRepository) InsertAttempt(ctx context.Context, a *models.TransitionAttempt) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

type MockIntegrityFlagRepository struct{ mock.Mock }

func (m *MockIntegrityFlagRepository) Create(ctx context.Context, flag *models.IntegrityFlag) error {
	args := m.Called(ctx, flag)
	return args.Error(0)
}
func (m *MockIntegrityFlagRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.IntegrityFlag, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.IntegrityFlag), args.Error(1)
}
func (m *MockIntegrityFlagRepository) UpdateResolution(ctx context.Context, flag *models.IntegrityFlag) error {
	args := m.Called(ctx, flag)
	return args.Error(0)
}
func (m *MockIntegrityFlagRepository) ListByRecord(ctx context.Context, tenantID, recordID uuid.UUID) ([]*models.IntegrityFlag, error) {
	args := m.Called(ctx, tenantID, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.IntegrityFlag), args.Error(1)
}

type MockClockDriftRepository struct{ mock.Mock }

func (m *MockClockDriftRepository) Create(ctx context.Context, event *models.ClockDriftEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
func (m *MockClockDriftRepository) ListByUser(ctx context.Context, tenantID, userID uuid.UUID, from, to time.Time) ([]*models.ClockDriftEvent, error) {
	args := m.Called(ctx, tenantID, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ClockDriftEvent), args.Error(1)
}

type MockRoleHistoryRepository struct{ mock.Mock }

func (m *MockRoleHistoryRepository) Create(ctx context.Context, h *models.RoleAssignmentHistory) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}
func (m *MockRoleHistoryRepository) CountForUserSince(ctx context.Context, tenantID, userID uuid.UUID, since time.Time) (int, error) {
	args := m.Called(ctx, tenantID, userID, since)
	return args.Int(0), args.Error(1)
}
func (m *MockRoleHistoryRepository) ListByUser(ctx context.Context, tenantID, userID uuid.UUID, limit int) ([]*models.RoleAssignmentHistory, error) {
	args := m.Called(ctx, tenantID, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RoleAssignmentHistory), args.Error(1)
}

type MockEscalationRepository struct{ mock.Mock }

func (m *MockEscalationRepository) Create(ctx context.Context, e *models.EscalationEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}
func (m *MockEscalationRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.EscalationEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EscalationEvent), args.Error(1)
}
func (m *MockEscalationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.EscalationStatus, notes []string) error {
	args := m.Called(ctx, id, status, notes)
	return args.Error(0)
}
func (m *MockEscalationRepository) List(ctx context.Context, params repository.ListEscalationParams) ([]*models.EscalationEvent, int, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.EscalationEvent), args.Int(1), args.Error(2)
}

type MockIncidentRepository struct{ mock.Mock }

func (m *MockIncidentRepository) Create(ctx context.Context, inc *models.Incident) error {
	args := m.Called(ctx, inc)
	return args.Error(0)
}
func (m *MockIncidentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Incident), args.Error(1)
}
func (m *MockIncidentRepository) FindOpenByGroupKey(ctx context.Context, tenantID uuid.UUID, groupKey string) (*models.Incident, error) {
	args := m.Called(ctx, tenantID, groupKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Incident), args.Error(1)
}
func (m *MockIncidentRepository) Update(ctx context.Context, inc *models.Incident) error {
	args := m.Called(ctx, inc)
	return args.Error(0)
}
func (m *MockIncidentRepository) AddSource(ctx context.Context, src *models.IncidentSource) error {
	args := m.Called(ctx, src)
	return args.Error(0)
}
func (m *MockIncidentRepository) ListSources(ctx context.Context, incidentID uuid.UUID) ([]*models.IncidentSource, error) {
	args := m.Called(ctx, incidentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.IncidentSource), args.Error(1)
}
func (m *MockIncidentRepository) InsertTimelineEvent(ctx context.Context, ev *models.IncidentTimelineEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}
func (m *MockIncidentRepository) ListTimeline(ctx context.Context, incidentID uuid.UUID) ([]*models.IncidentTimelineEvent, error) {
	args := m.Called(ctx, incidentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.IncidentTimelineEvent), args.Error(1)
}
func (m *MockIncidentRepository) ListUnacknowledgedBefore(ctx context.Context, severity models.Severity, cutoff time.Time) ([]*models.Incident, error) {
	args := m.Called(ctx, severity, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Incident), args.Error(1)
}

type MockRevalidationQueue struct{ mock.Mock }

func (m *MockRevalidationQueue) Enqueue(ctx context.Context, item repository.RevalidationItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}
func (m *MockRevalidationQueue) Dequeue(ctx context.Context) (*repository.RevalidationItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.RevalidationItem), args.Error(1)
}
func (m *MockRevalidationQueue) Len(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) PublishEscalationCreated(data kafkaPkg.EscalationCreatedData) error {
	args := m.Called(data)
	return args.Error(0)
}
func (m *MockEventPublisher) PublishIncidentOpened(data kafkaPkg.IncidentEventData) error {
	args := m.Called(data)
	return args.Error(0)
}
func (m *MockEventPublisher) PublishIncidentEscalated(data kafkaPkg.IncidentEventData) error {
	args := m.Called(data)
	return args.Error(0)
}
