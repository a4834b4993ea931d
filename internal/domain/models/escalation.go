// File: backend/services/integrity-service/internal/domain/models/escalation.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Escalation detection signal identifiers. Reasons accumulate on a result;
// severity is max-wins across the signals that fired.
const (
	SignalPrivilegeElevation = "PRIVILEGE_ELEVATION"
	SignalSuperadminJump     = "SUPERADMIN_JUMP"
	SignalTimingAnomaly      = "TIMING_ANOMALY"
	SignalPolicyViolation    = "POLICY_VIOLATION"
	SignalPermissionJump     = "PERMISSION_JUMP"
)

// RoleAssignmentHistory records every role change evaluated by the detector,
// escalation or not. Append-only.
type RoleAssignmentHistory struct {
	ID           uuid.UUID `json:"id" db:"id"`
	TenantID     uuid.UUID `json:"tenant_id" db:"tenant_id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	PreviousRole RoleID    `json:"previous_role" db:"previous_role"` // RoleGuest when none
	NewRole      RoleID    `json:"new_role" db:"new_role"`
	ChangedBy    uuid.UUID `json:"changed_by" db:"changed_by"`
	Reason       string    `json:"reason" db:"reason"`
	Severity     Severity  `json:"severity" db:"severity"`
	AnomalyScore int       `json:"anomaly_score" db:"anomaly_score"`
	Signals      []string  `json:"signals" db:"signals"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// EscalationStatus is the investigation lifecycle of an escalation event.
// Status and notes are the only mutable fields.
type EscalationStatus string

const (
	EscalationOpen               EscalationStatus = "OPEN"
	EscalationInvestigating      EscalationStatus = "INVESTIGATING"
	EscalationResolvedLegitimate EscalationStatus = "RESOLVED_LEGITIMATE"
	EscalationResolvedReverted   EscalationStatus = "RESOLVED_REVERTED"
)

// EscalationEvent is created for every role change the detector considers
// anomalous.
type EscalationEvent struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	TenantID     uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	UserID       uuid.UUID        `json:"user_id" db:"user_id"`
	PreviousRole RoleID           `json:"previous_role" db:"previous_role"`
	NewRole      RoleID           `json:"new_role" db:"new_role"`
	Severity     Severity         `json:"severity" db:"severity"`
	Signals      []string         `json:"signals" db:"signals"`
	AnomalyScore int              `json:"anomaly_score" db:"anomaly_score"`
	Status       EscalationStatus `json:"status" db:"status"`
	Notes        []string         `json:"notes" db:"notes"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// EscalationResult is what Detect returns to the caller assigning the role.
type EscalationResult struct {
	IsEscalation         bool
	Severity             Severity
	Reasons              []string
	AnomalyScore         int
	RequiresRevalidation bool
	Event                *EscalationEvent // nil when IsEscalation is false
}

// RoleChangeRequest describes a role change to evaluate.
type RoleChangeRequest struct {
	UserID       uuid.UUID `validate:"required"`
	PreviousRole RoleID
	NewRole      RoleID `validate:"required"`
	Reason       string `validate:"max=512"`
}
