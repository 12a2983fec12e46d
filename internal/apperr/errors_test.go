package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/diewo77/go-lawfirm/validation"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestFromDB(t *testing.T) {
	if FromDB(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	if !errors.Is(FromDB(gorm.ErrRecordNotFound), ErrNotFound) {
		t.Fatalf("record not found should map to ErrNotFound")
	}
	if !errors.Is(FromDB(fmt.Errorf("create: %w", gorm.ErrDuplicatedKey)), ErrConstraintViolation) {
		t.Fatalf("duplicated key should map to ErrConstraintViolation")
	}
	pg := &pgconn.PgError{Code: "23505", ConstraintName: "idx_clients_email"}
	err := FromDB(pg)
	var ce *ConstraintError
	if !errors.As(err, &ce) || ce.Field != "idx_clients_email" {
		t.Fatalf("expected constraint error with name, got %v", err)
	}
	other := errors.New("boom")
	if FromDB(other) != other {
		t.Fatalf("unknown errors must pass through")
	}
}

func TestInvalid(t *testing.T) {
	if Invalid(validation.Violations{}) != nil {
		t.Fatalf("empty violations should yield nil")
	}
	err := Invalid(validation.Violations{"name": "required"})
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
	v, ok := Violations(fmt.Errorf("wrapped: %w", err))
	if !ok || v["name"] != "required" {
		t.Fatalf("violations not recovered: %v", v)
	}
}

func TestExternal(t *testing.T) {
	err := External("gemini", errors.New("quota"))
	if !errors.Is(err, ErrExternalService) {
		t.Fatalf("expected ErrExternalService")
	}
}
