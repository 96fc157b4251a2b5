// Package sqlcheck runs rendered statements through the PostgreSQL parser.
//
// It is used by tests and by `sqlast render --verify` to catch statements
// the server would reject for syntax reasons before they are executed.
package sqlcheck

import (
	"errors"
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ErrInvalidSQL is returned when a statement does not parse.
var ErrInvalidSQL = errors.New("sqlcheck: invalid SQL")

// IsInvalidSQLErr returns true if err is or wraps ErrInvalidSQL.
func IsInvalidSQLErr(err error) bool {
	return errors.Is(err, ErrInvalidSQL)
}

// Verify parses sql and reports whether it is exactly one statement.
func Verify(sql string) error {
	n, err := StatementCount(sql)
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("%w: expected one statement, got %d", ErrInvalidSQL, n)
	}
	return nil
}

// StatementCount parses sql and returns the number of top-level statements.
func StatementCount(sql string) (int, error) {
	result, err := pg_query.Parse(sql)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidSQL, err)
	}
	return len(result.GetStmts()), nil
}

// Fingerprint returns the parser's fingerprint of sql. Statements that
// differ only in constant values or whitespace share a fingerprint.
func Fingerprint(sql string) (string, error) {
	fp, err := pg_query.Fingerprint(sql)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSQL, err)
	}
	return fp, nil
}
