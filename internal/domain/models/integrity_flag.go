// File: backend/services/integrity-service/internal/domain/models/integrity_flag.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// FlagType classifies why a record's integrity is in question.
type FlagType string

const (
	FlagDuplicateSubmission   FlagType = "DUPLICATE_SUBMISSION"
	FlagReplayAttack          FlagType = "REPLAY_ATTACK"
	FlagClockDriftViolation   FlagType = "CLOCK_DRIFT_VIOLATION"
	FlagVerificationMismatch  FlagType = "VERIFICATION_MISMATCH"
	FlagManualReviewRequested FlagType = "MANUAL_REVIEW_REQUESTED"
	FlagDataInconsistency     FlagType = "DATA_INCONSISTENCY"
)

// Severity is shared by flags, drift events, escalations and incidents.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank orders severities for max-wins comparisons and queue priorities.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// MaxSeverity returns the higher-ranked of a and b.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// FlagState is the review lifecycle of an integrity flag.
type FlagState string

const (
	FlagStateFlagged     FlagState = "FLAGGED"
	FlagStateUnderReview FlagState = "UNDER_REVIEW"
	FlagStateResolved    FlagState = "RESOLVED"
	FlagStateRevoked     FlagState = "REVOKED"
)

// IntegrityFlag marks an attendance record as suspect. Flags are raised by
// the state machine or the drift classifier and resolved only by a
// tenant-side actor; the raiser never edits the underlying record directly.
type IntegrityFlag struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	TenantID   uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	RecordID   uuid.UUID  `json:"record_id" db:"record_id"`
	Type       FlagType   `json:"type" db:"type"`
	Severity   Severity   `json:"severity" db:"severity"`
	State      FlagState  `json:"state" db:"state"`
	RaisedBy   uuid.UUID  `json:"raised_by" db:"raised_by"`
	Reason     string     `json:"reason" db:"reason"`
	ResolvedBy *uuid.UUID `json:"resolved_by,omitempty" db:"resolved_by"`
	Resolution *string    `json:"resolution,omitempty" db:"resolution"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// ResolveFlagRequest resolves or revokes a flag with a justification.
type ResolveFlagRequest struct {
	FlagID     uuid.UUID `validate:"required"`
	NewState   FlagState `validate:"required,oneof=UNDER_REVIEW RESOLVED REVOKED"`
	Resolution string    `validate:"required,max=1024"`
}
