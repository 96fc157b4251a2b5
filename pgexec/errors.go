package pgexec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Sentinel errors for execution failures callers usually branch on.
// Driver errors are wrapped, so errors.As still reaches *pq.Error or
// *pgconn.PgError.
var (
	// ErrNoRows is returned when a statement expected to produce a JSON
	// document produced no rows.
	ErrNoRows = errors.New("pgexec: no rows")

	// ErrUniqueViolation is returned when an insert or update collides with a
	// unique constraint.
	ErrUniqueViolation = errors.New("pgexec: unique violation")

	// ErrForeignKeyViolation is returned when a mutation breaks a foreign key.
	ErrForeignKeyViolation = errors.New("pgexec: foreign key violation")

	// ErrUndefinedRelation is returned when a statement names a table or
	// column that does not exist.
	ErrUndefinedRelation = errors.New("pgexec: undefined relation")

	// ErrInvalidEnumLabel is returned when a bound enum label is not part of
	// the enum type.
	ErrInvalidEnumLabel = errors.New("pgexec: invalid input value")
)

// IsNoRowsErr returns true if err is or wraps ErrNoRows.
func IsNoRowsErr(err error) bool {
	return errors.Is(err, ErrNoRows)
}

// IsUniqueViolationErr returns true if err is or wraps ErrUniqueViolation.
func IsUniqueViolationErr(err error) bool {
	return errors.Is(err, ErrUniqueViolation)
}

// IsForeignKeyViolationErr returns true if err is or wraps ErrForeignKeyViolation.
func IsForeignKeyViolationErr(err error) bool {
	return errors.Is(err, ErrForeignKeyViolation)
}

// IsUndefinedRelationErr returns true if err is or wraps ErrUndefinedRelation.
func IsUndefinedRelationErr(err error) bool {
	return errors.Is(err, ErrUndefinedRelation)
}

// IsInvalidEnumLabelErr returns true if err is or wraps ErrInvalidEnumLabel.
func IsInvalidEnumLabelErr(err error) bool {
	return errors.Is(err, ErrInvalidEnumLabel)
}

// PostgreSQL error codes mapped to sentinel errors.
const (
	pgUniqueViolation     = "23505" // unique_violation
	pgForeignKeyViolation = "23503" // foreign_key_violation
	pgUndefinedTable      = "42P01" // undefined_table
	pgUndefinedColumn     = "42703" // undefined_column
	pgInvalidText         = "22P02" // invalid_text_representation
)

// mapError wraps a driver error with the sentinel matching its SQLSTATE.
func mapError(operation string, err error) error {
	switch SQLState(err) {
	case pgUniqueViolation:
		return fmt.Errorf("%s: %w: %w", operation, ErrUniqueViolation, err)
	case pgForeignKeyViolation:
		return fmt.Errorf("%s: %w: %w", operation, ErrForeignKeyViolation, err)
	case pgUndefinedTable, pgUndefinedColumn:
		return fmt.Errorf("%s: %w: %w", operation, ErrUndefinedRelation, err)
	case pgInvalidText:
		if strings.Contains(err.Error(), "enum") {
			return fmt.Errorf("%s: %w: %w", operation, ErrInvalidEnumLabel, err)
		}
	}
	return fmt.Errorf("%s: %w", operation, err)
}

// SQLState extracts the SQLSTATE code from a PostgreSQL error.
// Works with both supported drivers and anything else exposing the code:
//   - lib/pq: *pq.Error
//   - pgx/pgconn: *pgconn.PgError
//   - other wrappers: SQLState() string or Code() string
//
// Returns empty string if the error doesn't carry a SQLSTATE.
func SQLState(err error) string {
	if err == nil {
		return ""
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	type sqlStateErr interface{ SQLState() string }
	var se sqlStateErr
	if errors.As(err, &se) {
		return se.SQLState()
	}

	type codeErr interface{ Code() string }
	var ce codeErr
	if errors.As(err, &ce) {
		return ce.Code()
	}

	// Fallback: "... (SQLSTATE 42P01)" as printed by pgx
	errStr := err.Error()
	for _, prefix := range []string{"SQLSTATE ", "SQLSTATE: "} {
		if idx := strings.Index(errStr, prefix); idx >= 0 {
			start := idx + len(prefix)
			if start+5 <= len(errStr) {
				return errStr[start : start+5]
			}
		}
	}
	return ""
}
