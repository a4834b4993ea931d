// File: backend/services/integrity-service/internal/domain/models/validation.go
package models

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs the shared validator over any request DTO in this
// package.
func ValidateStruct(v interface{}) error {
	return validate.Struct(v)
}
