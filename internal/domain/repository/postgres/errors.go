// File: backend/services/integrity-service/internal/domain/repository/postgres/errors.go
package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	domainErrors "github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/errors"
)

const (
	pgUniqueViolation = "23505"
	pgRaiseException  = "P0001"
)

// appendOnlyMarker is the message prefix raised by the forbid_mutation
// trigger installed by the migrations. The trigger, not this mapping, is the
// enforcement: it fires regardless of which role issued the statement.
const appendOnlyMarker = "append-only"

// mapPgError translates storage-level failures into domain errors.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgRaiseException && strings.Contains(pgErr.Message, appendOnlyMarker) {
			return domainErrors.ErrImmutabilityViolation
		}
		if pgErr.Code == pgUniqueViolation {
			return domainErrors.ErrDuplicateSubmission
		}
	}
	return err
}
