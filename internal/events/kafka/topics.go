// File: backend/services/integrity-service/internal/events/kafka/topics.go
package kafka

// Event types published by the integrity service, CloudEvents `type` field.
const (
	EventEscalationCreated = "ru.attendance.integrity.escalation.created"
	EventIncidentOpened    = "ru.attendance.integrity.incident.opened"
	EventIncidentEscalated = "ru.attendance.integrity.incident.escalated"
)
