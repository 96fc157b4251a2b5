package ast

// Delete is a DELETE statement.
type Delete struct {
	Table   Table
	Filter  ConditionTree
	Returns []Expression
}

// DeleteFrom starts a delete from t.
func DeleteFrom(t Table) *Delete {
	return &Delete{Table: t}
}

// Where replaces the filter.
func (d *Delete) Where(c Expr) *Delete {
	d.Filter = Cond(c)
	return d
}

// Returning sets the RETURNING projection.
func (d *Delete) Returning(exprs ...Expr) *Delete {
	d.Returns = toExpressions(exprs)
	return d
}

// ReturningColumns sets RETURNING to plain columns by name.
func (d *Delete) ReturningColumns(names ...string) *Delete {
	d.Returns = columnExprs(names)
	return d
}
