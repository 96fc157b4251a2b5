package ast

import "errors"

// Sentinel errors for statements that cannot be built. Every error in this
// package is raised while the tree is being constructed; a tree that was
// built without error always renders.
//
// Use the Is*Err helper functions to check for specific errors.
var (
	// ErrInsertMismatch is returned when two inserts are merged (or a multi-row
	// insert is extended) but they target different tables or declare a
	// different column list. Column order matters.
	ErrInsertMismatch = errors.New("sqlast: insert rows do not share table and columns")

	// ErrInsertArity is returned when a row passed to a multi-row insert has a
	// different number of values than the insert has columns, or when the
	// insert declares no columns at all.
	ErrInsertArity = errors.New("sqlast: insert row arity mismatch")

	// ErrEmptyInsert is returned when a multi-row insert is finalized without rows.
	ErrEmptyInsert = errors.New("sqlast: multi-row insert has no rows")

	// ErrEmptyUpdate is returned when an update is finalized without any
	// assignment.
	ErrEmptyUpdate = errors.New("sqlast: update has no assignments")

	// ErrInvalidConflict is returned for an ON CONFLICT DO UPDATE clause
	// without a conflict target or without assignments.
	ErrInvalidConflict = errors.New("sqlast: invalid conflict clause")

	// ErrAliasArity is returned when an alias column list does not match the
	// number of columns projected by the aliased subquery.
	ErrAliasArity = errors.New("sqlast: alias column list does not match projection")

	// ErrUnsupportedValue is returned by ValueOf for host values that have no
	// bind parameter representation.
	ErrUnsupportedValue = errors.New("sqlast: unsupported value type")
)

// IsInsertMismatchErr returns true if err is or wraps ErrInsertMismatch.
func IsInsertMismatchErr(err error) bool {
	return errors.Is(err, ErrInsertMismatch)
}

// IsInsertArityErr returns true if err is or wraps ErrInsertArity.
func IsInsertArityErr(err error) bool {
	return errors.Is(err, ErrInsertArity)
}

// IsEmptyInsertErr returns true if err is or wraps ErrEmptyInsert.
func IsEmptyInsertErr(err error) bool {
	return errors.Is(err, ErrEmptyInsert)
}

// IsEmptyUpdateErr returns true if err is or wraps ErrEmptyUpdate.
func IsEmptyUpdateErr(err error) bool {
	return errors.Is(err, ErrEmptyUpdate)
}

// IsInvalidConflictErr returns true if err is or wraps ErrInvalidConflict.
func IsInvalidConflictErr(err error) bool {
	return errors.Is(err, ErrInvalidConflict)
}

// IsAliasArityErr returns true if err is or wraps ErrAliasArity.
func IsAliasArityErr(err error) bool {
	return errors.Is(err, ErrAliasArity)
}

// IsUnsupportedValueErr returns true if err is or wraps ErrUnsupportedValue.
func IsUnsupportedValueErr(err error) bool {
	return errors.Is(err, ErrUnsupportedValue)
}
