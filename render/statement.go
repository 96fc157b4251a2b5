// Package render turns statement trees into PostgreSQL text plus the
// ordered values bound to its placeholders.
package render

import (
	"github.com/pthm/sqlast/ast"
)

// Statement is a rendered statement. Placeholder $i binds Params[i-1].
type Statement struct {
	SQL    string
	Params []ast.Value
}

// Args returns the parameters as database/sql arguments.
func (s Statement) Args() []any {
	args := make([]any, len(s.Params))
	for i, p := range s.Params {
		args[i] = p.Any()
	}
	return args
}

// String returns the SQL text.
func (s Statement) String() string {
	return s.SQL
}
