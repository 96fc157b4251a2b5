package ast

import (
	"fmt"
	"slices"
)

// Update is a finalized UPDATE statement. It always carries at least one
// assignment; build it with UpdateTable.
type Update struct {
	Table       Table
	Assignments []Assignment
	Filter      ConditionTree
	Returns     []Expression
}

// UpdateBuilder collects the parts of an update.
type UpdateBuilder struct {
	table       Table
	assignments []Assignment
	filter      ConditionTree
	returns     []Expression
}

// UpdateTable starts an update of t.
func UpdateTable(t Table) *UpdateBuilder {
	return &UpdateBuilder{table: t}
}

// Set assigns e to column. Assignments render in the order they are set.
func (u *UpdateBuilder) Set(column string, e Expr) *UpdateBuilder {
	u.assignments = append(u.assignments, Set(column, e))
	return u
}

// Where replaces the filter.
func (u *UpdateBuilder) Where(c Expr) *UpdateBuilder {
	u.filter = Cond(c)
	return u
}

// Returning sets the RETURNING projection.
func (u *UpdateBuilder) Returning(exprs ...Expr) *UpdateBuilder {
	u.returns = toExpressions(exprs)
	return u
}

// ReturningColumns sets RETURNING to plain columns by name.
func (u *UpdateBuilder) ReturningColumns(names ...string) *UpdateBuilder {
	u.returns = columnExprs(names)
	return u
}

// Build finalizes the update. At least one assignment is required.
func (u *UpdateBuilder) Build() (*Update, error) {
	if len(u.assignments) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyUpdate, u.table.Name)
	}
	return &Update{
		Table:       u.table,
		Assignments: slices.Clone(u.assignments),
		Filter:      u.filter,
		Returns:     slices.Clone(u.returns),
	}, nil
}
