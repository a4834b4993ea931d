// File: backend/services/integrity-service/internal/domain/service/publisher.go
package service

import (
	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/events/kafka"
)

// EventPublisher is the outbound notification sink. The kafka producer
// implements it; tests and kafka-disabled deployments use NoopPublisher.
// Publishing always happens after the originating transaction committed,
// so a broker outage can delay notification but never block enforcement.
type EventPublisher interface {
	PublishEscalationCreated(data kafka.EscalationCreatedData) error
	PublishIncidentOpened(data kafka.IncidentEventData) error
	PublishIncidentEscalated(data kafka.IncidentEventData) error
}

// NoopPublisher discards every event. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishEscalationCreated(kafka.EscalationCreatedData) error { return nil }
func (NoopPublisher) PublishIncidentOpened(kafka.IncidentEventData) error        { return nil }
func (NoopPublisher) PublishIncidentEscalated(kafka.IncidentEventData) error     { return nil }
