// File: backend/services/integrity-service/internal/domain/models/attendance.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceState is the trust state of an attendance record.
type AttendanceState string

const (
	StateVerified       AttendanceState = "VERIFIED"
	StateFlagged        AttendanceState = "FLAGGED"
	StateRevoked        AttendanceState = "REVOKED"
	StateManualOverride AttendanceState = "MANUAL_OVERRIDE"
)

// validTransitions is the complete transition table. Any (from, to) pair not
// listed here is rejected. REVOKED -> VERIFIED is the appeal path.
var validTransitions = map[AttendanceState][]AttendanceState{
	StateVerified:       {StateFlagged, StateRevoked, StateManualOverride},
	StateFlagged:        {StateVerified, StateRevoked},
	StateRevoked:        {StateVerified},
	StateManualOverride: {StateVerified},
}

// IsValidTransition reports whether from -> to is listed in the transition
// table. Self-transitions are not.
func IsValidTransition(from, to AttendanceState) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// KnownState reports whether s is one of the four attendance states.
func KnownState(s AttendanceState) bool {
	switch s {
	case StateVerified, StateFlagged, StateRevoked, StateManualOverride:
		return true
	}
	return false
}

// VerificationMethod records how presence was asserted.
type VerificationMethod string

const (
	MethodFace   VerificationMethod = "face"
	MethodManual VerificationMethod = "manual"
	MethodCode   VerificationMethod = "code"
)

// AttendanceRecord is a tenant-owned presence assertion. It is mutated only
// through the state machine and never deleted. Version backs the optimistic
// check that serializes concurrent transitions.
type AttendanceRecord struct {
	ID             uuid.UUID          `json:"id" db:"id"`
	TenantID       uuid.UUID          `json:"tenant_id" db:"tenant_id"`
	SubjectID      uuid.UUID          `json:"subject_id" db:"subject_id"`
	SessionKey     string             `json:"session_key" db:"session_key"`
	State          AttendanceState    `json:"state" db:"state"`
	Method         VerificationMethod `json:"method" db:"method"`
	Confidence     float64            `json:"confidence" db:"confidence"`
	IdempotencyKey *string            `json:"idempotency_key,omitempty" db:"idempotency_key"`
	Version        int64              `json:"version" db:"version"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" db:"updated_at"`
}

// AttendanceStateTransition is one row of the append-only transition history.
type AttendanceStateTransition struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	RecordID  uuid.UUID       `json:"record_id" db:"record_id"`
	FromState AttendanceState `json:"from_state" db:"from_state"`
	ToState   AttendanceState `json:"to_state" db:"to_state"`
	Reason    string          `json:"reason" db:"reason"`
	ActorID   uuid.UUID       `json:"actor_id" db:"actor_id"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// TransitionAttempt records every transition attempt, accepted or rejected.
// It is kept apart from the transition history so forensic queries over abuse
// patterns don't have to reconstruct rejections from their absence.
type TransitionAttempt struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	TenantID     uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	RecordID     uuid.UUID       `json:"record_id" db:"record_id"`
	FromState    AttendanceState `json:"from_state" db:"from_state"`
	ToState      AttendanceState `json:"to_state" db:"to_state"`
	ActorID      uuid.UUID       `json:"actor_id" db:"actor_id"`
	Accepted     bool            `json:"accepted" db:"accepted"`
	RejectReason *string         `json:"reject_reason,omitempty" db:"reject_reason"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// SubmitAttendanceRequest is the submission DTO consumed by the attendance
// service.
type SubmitAttendanceRequest struct {
	SubjectID      uuid.UUID          `validate:"required"`
	SessionKey     string             `validate:"required,max=128"`
	Method         VerificationMethod `validate:"required,oneof=face manual code"`
	Confidence     float64            `validate:"gte=0,lte=1"`
	ClientTime     time.Time          `validate:"required"`
	DeviceClass    DeviceClass        `validate:"required"`
	IdempotencyKey string             `validate:"max=128"`
}

// TransitionRequest asks the state machine to move a record to a new state.
type TransitionRequest struct {
	RecordID uuid.UUID       `validate:"required"`
	NewState AttendanceState `validate:"required"`
	Reason   string          `validate:"required,max=512"`
}
