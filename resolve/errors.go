package resolve

import "errors"

// Sentinel errors for requests that cannot be turned into a statement.
//
// Use the Is*Err helper functions to check for specific errors.
var (
	// ErrUnsupportedShape is returned when a request asks for a result shape
	// the statement kind cannot produce, such as a relation inside the
	// returning selection of a mutation.
	ErrUnsupportedShape = errors.New("sqlast: unsupported result shape")

	// ErrInvalidFilter is returned for filters with an unknown operator, a
	// missing column or a value of the wrong shape for the operator.
	ErrInvalidFilter = errors.New("sqlast: invalid filter")

	// ErrInvalidInput is returned when a mutation input value cannot be bound.
	ErrInvalidInput = errors.New("sqlast: invalid input")

	// ErrEmptyInput is returned when a mutation has nothing to write.
	ErrEmptyInput = errors.New("sqlast: empty input")

	// ErrInvalidPagination is returned for contradictory or negative
	// collection arguments.
	ErrInvalidPagination = errors.New("sqlast: invalid pagination")

	// ErrUnknownOperation is returned by Operation.Build for an unknown kind.
	ErrUnknownOperation = errors.New("sqlast: unknown operation")
)

// IsUnsupportedShapeErr returns true if err is or wraps ErrUnsupportedShape.
func IsUnsupportedShapeErr(err error) bool {
	return errors.Is(err, ErrUnsupportedShape)
}

// IsInvalidFilterErr returns true if err is or wraps ErrInvalidFilter.
func IsInvalidFilterErr(err error) bool {
	return errors.Is(err, ErrInvalidFilter)
}

// IsInvalidInputErr returns true if err is or wraps ErrInvalidInput.
func IsInvalidInputErr(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsEmptyInputErr returns true if err is or wraps ErrEmptyInput.
func IsEmptyInputErr(err error) bool {
	return errors.Is(err, ErrEmptyInput)
}

// IsInvalidPaginationErr returns true if err is or wraps ErrInvalidPagination.
func IsInvalidPaginationErr(err error) bool {
	return errors.Is(err, ErrInvalidPagination)
}

// IsUnknownOperationErr returns true if err is or wraps ErrUnknownOperation.
func IsUnknownOperationErr(err error) bool {
	return errors.Is(err, ErrUnknownOperation)
}
