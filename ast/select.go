package ast

// Select is a SELECT statement under construction. Builder methods mutate
// the receiver and return it for chaining; once handed to a renderer the
// statement must not be changed again.
type Select struct {
	CTEs         []CommonTableExpression
	DistinctRows bool
	Projection   []Expression
	Tables       []Table
	Filter       ConditionTree
	Groupings    []Expression
	HavingFilter ConditionTree
	Orderings    Ordering
	LimitRows    *int64
	OffsetRows   *int64
}

// SelectFrom starts a select reading from t.
func SelectFrom(t Table) *Select {
	return &Select{Tables: []Table{t}}
}

// SelectValues starts a select without a FROM clause.
func SelectValues(exprs ...Expr) *Select {
	return &Select{Projection: toExpressions(exprs)}
}

// From adds another source; several sources render comma separated.
func (s *Select) From(t Table) *Select {
	s.Tables = append(s.Tables, t)
	return s
}

// Column adds a projected column.
func (s *Select) Column(c Column) *Select {
	s.Projection = append(s.Projection, c.ToExpression())
	return s
}

// Value adds a projected expression. An empty projection renders as *.
func (s *Select) Value(e Expr) *Select {
	s.Projection = append(s.Projection, e.ToExpression())
	return s
}

// Distinct turns the select into SELECT DISTINCT.
func (s *Select) Distinct() *Select {
	s.DistinctRows = true
	return s
}

// Where replaces the filter.
func (s *Select) Where(c Expr) *Select {
	s.Filter = Cond(c)
	return s
}

// AndWhere adds c to the filter with AND.
func (s *Select) AndWhere(c Expr) *Select {
	s.Filter = And(s.Filter, c)
	return s
}

// OrWhere adds c to the filter with OR. With no filter yet, c becomes the
// filter.
func (s *Select) OrWhere(c Expr) *Select {
	if IsEmpty(s.Filter) {
		s.Filter = Cond(c)
		return s
	}
	s.Filter = Or(s.Filter, c)
	return s
}

// GroupBy adds grouping expressions.
func (s *Select) GroupBy(exprs ...Expr) *Select {
	s.Groupings = append(s.Groupings, toExpressions(exprs)...)
	return s
}

// Having sets the group filter.
func (s *Select) Having(c Expr) *Select {
	s.HavingFilter = Cond(c)
	return s
}

// OrderBy appends sort keys.
func (s *Select) OrderBy(items ...OrderItem) *Select {
	s.Orderings = append(s.Orderings, items...)
	return s
}

// Limit caps the number of rows. The count is a bound parameter.
func (s *Select) Limit(n int64) *Select {
	s.LimitRows = &n
	return s
}

// Offset skips rows. The count is a bound parameter.
func (s *Select) Offset(n int64) *Select {
	s.OffsetRows = &n
	return s
}

// With stages a common table expression before the select.
func (s *Select) With(cte CommonTableExpression) *Select {
	s.CTEs = append(s.CTEs, cte)
	return s
}

// ToExpression uses s as a subquery expression.
func (s *Select) ToExpression() Expression {
	return Sub(s)
}

// arity reports the number of projected columns, or false when the
// projection contains an asterisk and the arity is not known statically.
func (s *Select) arity() (int, bool) {
	if len(s.Projection) == 0 {
		return 0, false
	}
	for _, p := range s.Projection {
		if _, ok := p.Kind.(Asterisk); ok {
			return 0, false
		}
	}
	return len(s.Projection), true
}
