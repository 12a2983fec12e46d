// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"

	"github.com/diewo77/go-lawfirm/validation"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound              = errors.New("not_found")
	ErrConstraintViolation   = errors.New("constraint_violation")
	ErrValidationFailed      = errors.New("validation_failed")
	ErrInvalidOrExpiredToken = errors.New("invalid_or_expired_token")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrExternalService       = errors.New("external_service_error")
)

// ValidationError carries field-level violations. errors.Is matches ErrValidationFailed.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string { return ErrValidationFailed.Error() }

func (e *ValidationError) Is(target error) bool { return target == ErrValidationFailed }

// Invalid returns nil when v is empty, so callers can write `if err := apperr.Invalid(v); err != nil`.
func Invalid(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}

// Violations extracts field violations from err, if any.
func Violations(err error) (validation.Violations, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Violations, true
	}
	return nil, false
}

// ConstraintError names the field or constraint that was violated, when known.
type ConstraintError struct {
	Field string
	Err   error
}

func (e *ConstraintError) Error() string {
	if e.Field == "" {
		return ErrConstraintViolation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrConstraintViolation, e.Field)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

func (e *ConstraintError) Is(target error) bool { return target == ErrConstraintViolation }

// Conflict builds a ConstraintError for a known field, e.g. a duplicate e-mail.
func Conflict(field string) error {
	return &ConstraintError{Field: field}
}

// ExternalError wraps a failure from a third-party service.
type ExternalError struct {
	Service string
	Err     error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrExternalService, e.Service, e.Err)
}

func (e *ExternalError) Unwrap() error { return e.Err }

func (e *ExternalError) Is(target error) bool { return target == ErrExternalService }

func External(service string, err error) error {
	return &ExternalError{Service: service, Err: err}
}

// FromDB translates store errors into the taxonomy. Unknown errors are returned unchanged.
func FromDB(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return &ConstraintError{Err: err}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503", "23502", "23514":
			return &ConstraintError{Field: pgErr.ConstraintName, Err: err}
		}
	}
	return err
}
