package ast

import "slices"

// Query is a complete statement.
//
//sumtype:decl
type Query interface {
	query()
}

func (*Select) query() {}
func (*Insert) query() {}
func (*Update) query() {}
func (*Delete) query() {}

// CommonTableExpression is a WITH-scoped named statement. Mutations staged
// this way can be re-read by the outer select, which is how a RETURNING row
// is reshaped into JSON.
type CommonTableExpression struct {
	Name    string
	Columns []string
	Query   Query
}

// NewCTE names a statement for use in a WITH clause.
func NewCTE(name string, q Query, columns ...string) CommonTableExpression {
	return CommonTableExpression{Name: name, Query: q, Columns: slices.Clone(columns)}
}

// Table returns the CTE as a table source.
func (c CommonTableExpression) Table() Table {
	return NewTable(c.Name)
}

// Assignment is one SET item of an update or ON CONFLICT DO UPDATE.
type Assignment struct {
	Column string
	Value  Expression
}
