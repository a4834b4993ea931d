// File: backend/services/integrity-service/internal/domain/service/clock_drift_service.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/config"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/repository"
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/utils/metrics"
)

// ClockDriftService classifies client/server clock divergence and records
// every classification in the drift log. Classify is pure; Evaluate persists.
type ClockDriftService interface {
	Classify(clientTime, serverTime time.Time, class models.DeviceClass) models.DriftClassification
	// Evaluate classifies and appends the drift event. The event is written
	// outside any caller transaction so it survives when the surrounding
	// operation aborts.
	Evaluate(ctx context.Context, tctx models.TenantContext, userID uuid.UUID, clientTime, serverTime time.Time, class models.DeviceClass) (*models.ClockDriftEvent, error)
	ListByUser(ctx context.Context, tctx models.TenantContext, userID uuid.UUID, from, to time.Time) ([]*models.ClockDriftEvent, error)
}

type clockDriftServiceImpl struct {
	repo   repository.ClockDriftRepository
	cfg    config.IntegrityConfig
	logger *zap.Logger
}

// NewClockDriftService creates the drift classifier.
func NewClockDriftService(repo repository.ClockDriftRepository, cfg config.IntegrityConfig, logger *zap.Logger) ClockDriftService {
	return &clockDriftServiceImpl{
		repo:   repo,
		cfg:    cfg,
		logger: logger.Named("clock_drift_service"),
	}
}

// Classify computes the signed drift (positive means the client clock runs
// ahead) and maps its magnitude onto the device class's severity bands.
// Classification is symmetric: ahead and behind are judged by magnitude only,
// though the sign is preserved for the event log.
func (s *clockDriftServiceImpl) Classify(clientTime, serverTime time.Time, class models.DeviceClass) models.DriftClassification {
	drift := int64(clientTime.Sub(serverTime) / time.Second)
	abs := drift
	if abs < 0 {
		abs = -abs
	}
	bands := s.cfg.BandsFor(class)
	severity := bands.Classify(abs)
	return models.DriftClassification{
		DriftSeconds: drift,
		Severity:     severity,
		Blocked:      severity == models.DriftBlocked,
	}
}

func (s *clockDriftServiceImpl) Evaluate(ctx context.Context, tctx models.TenantContext, userID uuid.UUID, clientTime, serverTime time.Time, class models.DeviceClass) (*models.ClockDriftEvent, error) {
	if err := tctx.Validate(); err != nil {
		return nil, err
	}
	c := s.Classify(clientTime, serverTime, class)
	event := &models.ClockDriftEvent{
		ID:           uuid.New(),
		TenantID:     tctx.TenantID,
		UserID:       userID,
		DeviceClass:  class,
		ClientTime:   clientTime.UTC(),
		ServerTime:   serverTime.UTC(),
		DriftSeconds: c.DriftSeconds,
		Severity:     c.Severity,
		Blocked:      c.Blocked,
		CreatedAt:    serverTime.UTC(),
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	metrics.DriftClassificationsTotal.WithLabelValues(string(c.Severity)).Inc()
	if c.Blocked {
		s.logger.Warn("submission blocked by clock drift",
			zap.String("tenant_id", tctx.TenantID.String()),
			zap.String("user_id", userID.String()),
			zap.String("device_class", string(class)),
			zap.Int64("drift_seconds", c.DriftSeconds))
	}
	return event, nil
}

func (s *clockDriftServiceImpl) ListByUser(ctx context.Context, tctx models.TenantContext, userID uuid.UUID, from, to time.Time) ([]*models.ClockDriftEvent, error) {
	if err := tctx.Validate(); err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, tctx.TenantID, userID, from, to)
}
