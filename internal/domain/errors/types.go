// File: backend/services/integrity-service/internal/domain/errors/types.go
package errors

import (
	stderrors "errors"
	"fmt"
)

// Is re-exports errors.Is so callers holding this package don't need a
// second import of the standard library package under an alias.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// AppError is the caller-visible error envelope: a stable machine code plus
// a short message. The wrapped error stays internal.
type AppError struct {
	Err  error
	Msg  string
	Code string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *AppError) Unwrap() error { return e.Err }

// Stable error kinds exposed to API callers.
const (
	CodeAccessDenied         = "ACCESS_DENIED"
	CodeInvalidTenantContext = "INVALID_TENANT_CONTEXT"
	CodeInvalidTransition    = "INVALID_STATE_TRANSITION"
	CodeImmutability         = "IMMUTABILITY_VIOLATION"
	CodeClockDrift           = "CLOCK_DRIFT_EXCEEDED"
	CodeDuplicate            = "DUPLICATE_SUBMISSION"
	CodePolicyViolation      = "POLICY_VIOLATION"
	CodeIncidentPrecondition = "INCIDENT_PRECONDITION_FAILED"
	CodeValidation           = "VALIDATION_FAILED"
	CodeInternal             = "INTERNAL_ERROR"
)

// CodeFor maps a core error to its stable error kind.
func CodeFor(err error) string {
	switch {
	case IsAccessDenied(err):
		return CodeAccessDenied
	case Is(err, ErrInvalidTenantContext):
		return CodeInvalidTenantContext
	case Is(err, ErrInvalidStateTransition):
		return CodeInvalidTransition
	case Is(err, ErrImmutabilityViolation):
		return CodeImmutability
	case Is(err, ErrClockDriftExceeded):
		return CodeClockDrift
	case Is(err, ErrDuplicateSubmission):
		return CodeDuplicate
	case Is(err, ErrPolicyViolation), Is(err, ErrAuditScopeViolation):
		return CodePolicyViolation
	case Is(err, ErrIncidentPreconditionFailed):
		return CodeIncidentPrecondition
	default:
		return CodeInternal
	}
}
