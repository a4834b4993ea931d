// File: backend/services/integrity-service/internal/domain/errors/errors.go
package errors

import (
	"errors"
)

// Sentinel errors for the integrity core. Every rejection surfaced to a
// caller maps to exactly one of these; internal detail travels separately
// through structured logs.
var (
	// Generic
	ErrInternal = errors.New("internal error")
	ErrNotFound = errors.New("resource not found")

	// Tenant boundary
	ErrAccessDenied         = errors.New("access denied")
	ErrInvalidTenantContext = errors.New("invalid tenant context")

	// Audit ledger
	ErrImmutabilityViolation = errors.New("immutability violation: ledger entries cannot be modified or removed")
	ErrAuditScopeViolation   = errors.New("audit scope not permitted for actor role")

	// Attendance state machine
	ErrInvalidStateTransition = errors.New("invalid attendance state transition")
	ErrDuplicateSubmission    = errors.New("duplicate attendance submission")
	ErrConcurrentModification = errors.New("record was modified concurrently")
	ErrRecordNotFound         = errors.New("attendance record not found")

	// Clock drift
	ErrClockDriftExceeded = errors.New("client clock drift exceeds the allowed ceiling")

	// Escalation / incidents
	ErrPolicyViolation            = errors.New("role transition violates escalation policy")
	ErrIncidentPreconditionFailed = errors.New("incident transition precondition failed")
	ErrEscalationNotFound         = errors.New("escalation event not found")
	ErrIncidentNotFound           = errors.New("incident not found")
	ErrFlagNotFound               = errors.New("integrity flag not found")
)

// IsAccessDenied reports whether err is a tenant-boundary rejection.
// Note that a non-existent target is deliberately indistinguishable from a
// cross-tenant one.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsNotFound reports whether err is any of the internal not-found errors.
// These never cross the tenant boundary unwrapped; see ErrAccessDenied.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrEscalationNotFound) ||
		errors.Is(err, ErrIncidentNotFound) ||
		errors.Is(err, ErrFlagNotFound)
}

// IsIntegrityRejection reports whether err is one of the terminal,
// non-retryable integrity rejections.
func IsIntegrityRejection(err error) bool {
	return errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrDuplicateSubmission) ||
		errors.Is(err, ErrClockDriftExceeded) ||
		errors.Is(err, ErrImmutabilityViolation) ||
		errors.Is(err, ErrAuditScopeViolation) ||
		errors.Is(err, ErrPolicyViolation) ||
		errors.Is(err, ErrIncidentPreconditionFailed)
}

// IsRetryable reports whether the caller may retry the failed call.
// Only storage-transient failures qualify; every integrity rejection is
// terminal. The atomic unit-of-work contract guarantees a failed call left
// no partial effect.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsIntegrityRejection(err) || IsAccessDenied(err) ||
		errors.Is(err, ErrInvalidTenantContext) || IsNotFound(err) {
		return false
	}
	return errors.Is(err, ErrConcurrentModification) || !errors.Is(err, ErrInternal)
}
