// File: backend/services/integrity-service/internal/domain/models/incident.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// IncidentStatus is the incident lifecycle. ESCALATED is a lateral marker,
// not a status: see Incident.Escalated.
type IncidentStatus string

const (
	IncidentOpen          IncidentStatus = "OPEN"
	IncidentAcknowledged  IncidentStatus = "ACKNOWLEDGED"
	IncidentInvestigating IncidentStatus = "INVESTIGATING"
	IncidentResolved      IncidentStatus = "RESOLVED"
	IncidentClosed        IncidentStatus = "CLOSED"
)

// incidentTransitions lists the forward lifecycle edges. CLOSED is only
// reachable from RESOLVED.
var incidentTransitions = map[IncidentStatus][]IncidentStatus{
	IncidentOpen:          {IncidentAcknowledged, IncidentInvestigating, IncidentResolved},
	IncidentAcknowledged:  {IncidentInvestigating, IncidentResolved},
	IncidentInvestigating: {IncidentResolved},
	IncidentResolved:      {IncidentClosed},
}

// IsValidIncidentTransition reports whether from -> to is a lifecycle edge.
func IsValidIncidentTransition(from, to IncidentStatus) bool {
	for _, next := range incidentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsOpenIncidentStatus reports whether the status still admits the lateral
// ESCALATED marker.
func IsOpenIncidentStatus(s IncidentStatus) bool {
	switch s {
	case IncidentOpen, IncidentAcknowledged, IncidentInvestigating:
		return true
	}
	return false
}

// IncidentType groups incidents by what produced them.
type IncidentType string

const (
	IncidentTypeIntegrity  IncidentType = "INTEGRITY"
	IncidentTypeEscalation IncidentType = "ESCALATION"
)

// IncidentSourceKind tells what a linked source id refers to.
type IncidentSourceKind string

const (
	SourceIntegrityFlag   IncidentSourceKind = "INTEGRITY_FLAG"
	SourceEscalationEvent IncidentSourceKind = "ESCALATION_EVENT"
)

// Incident is a tracked aggregation of related flags/escalations requiring
// human resolution. Tenant id is an attribute, not a partition key:
// superadmin-scope incidents span tenants.
type Incident struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	TenantID       uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	Type           IncidentType   `json:"type" db:"type"`
	Severity       Severity       `json:"severity" db:"severity"`
	Status         IncidentStatus `json:"status" db:"status"`
	Escalated      bool           `json:"escalated" db:"escalated"`
	Title          string         `json:"title" db:"title"`
	GroupKey       string         `json:"group_key" db:"group_key"` // aggregation key: tenant + source kind + flag/signal type
	AcknowledgedBy *uuid.UUID     `json:"acknowledged_by,omitempty" db:"acknowledged_by"`
	AcknowledgedAt *time.Time     `json:"acknowledged_at,omitempty" db:"acknowledged_at"`
	RootCause      *string        `json:"root_cause,omitempty" db:"root_cause"`
	Resolution     *string        `json:"resolution,omitempty" db:"resolution"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// IncidentTimelineEvent is one row of the append-only incident timeline.
type IncidentTimelineEvent struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	IncidentID uuid.UUID      `json:"incident_id" db:"incident_id"`
	FromStatus IncidentStatus `json:"from_status" db:"from_status"`
	ToStatus   IncidentStatus `json:"to_status" db:"to_status"`
	ActorID    uuid.UUID      `json:"actor_id" db:"actor_id"`
	Note       *string        `json:"note,omitempty" db:"note"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// IncidentSource links a flag or escalation event into an incident.
type IncidentSource struct {
	IncidentID uuid.UUID          `json:"incident_id" db:"incident_id"`
	Kind       IncidentSourceKind `json:"kind" db:"kind"`
	SourceID   uuid.UUID          `json:"source_id" db:"source_id"`
	CreatedAt  time.Time          `json:"created_at" db:"created_at"`
}

// IncidentTransitionRequest moves an incident through its lifecycle.
// RootCause and Resolution are mandatory when transitioning to RESOLVED.
type IncidentTransitionRequest struct {
	IncidentID uuid.UUID      `validate:"required"`
	NewStatus  IncidentStatus `validate:"required,oneof=ACKNOWLEDGED INVESTIGATING RESOLVED CLOSED"`
	Note       string         `validate:"max=1024"`
	RootCause  string         `validate:"max=1024"`
	Resolution string         `validate:"max=1024"`
}

// OpenIncidentRequest opens an incident manually or from the intake loop.
type OpenIncidentRequest struct {
	Type     IncidentType `validate:"required,oneof=INTEGRITY ESCALATION"`
	Severity Severity     `validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	Title    string       `validate:"required,max=256"`
	GroupKey string       `validate:"required,max=256"`
	Sources  []IncidentSource
}
