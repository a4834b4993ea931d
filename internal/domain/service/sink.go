// File: backend/services/integrity-service/internal/domain/service/sink.go
package service

import (
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
)

// IncidentSink receives flags and escalation events for aggregation into
// incidents. The intake loop implements it; producers never block on it and
// never fail because of it.
type IncidentSink interface {
	SubmitFlag(flag *models.IntegrityFlag)
	SubmitEscalation(event *models.EscalationEvent)
}

// NoopSink discards everything. Used in tests and in deployments running
// without the aggregator.
type NoopSink struct{}

func (NoopSink) SubmitFlag(*models.IntegrityFlag)         {}
func (NoopSink) SubmitEscalation(*models.EscalationEvent) {}
