package ast

// CompareOp is a comparison operator.
type CompareOp uint8

const (
	CmpEquals CompareOp = iota
	CmpNotEquals
	CmpLessThan
	CmpLessThanOrEquals
	CmpGreaterThan
	CmpGreaterThanOrEquals
	CmpIsNotDistinctFrom
	CmpIn
	CmpNotIn
	CmpLike
	CmpNotLike
	CmpIsNull
	CmpIsNotNull
	CmpBetween
	CmpNotBetween
	CmpContains
	CmpContainedBy
	CmpNotContains
	CmpOverlaps
	CmpJSONTypeEquals
	CmpJSONTypeNotEquals
	CmpEqualsAny
	CmpNotEqualsAll
	CmpRaw
)

// JSONType is a value of jsonb_typeof.
type JSONType string

const (
	JSONArray   JSONType = "array"
	JSONObject  JSONType = "object"
	JSONString  JSONType = "string"
	JSONNumber  JSONType = "number"
	JSONBoolean JSONType = "boolean"
	JSONNull    JSONType = "null"
)

// Compare is a boolean comparison between two expressions. Upper is only
// set for BETWEEN, Operator only for raw comparisons.
type Compare struct {
	Op       CompareOp
	Left     Expression
	Right    Expression
	Upper    Expression
	Operator string
}

// ToExpression implements Expr.
func (c Compare) ToExpression() Expression {
	return Expression{Kind: c}
}

// Comparable is the comparison capability. Column, Expression, Function and
// Row implement it, so any of them can appear on the left of a comparison.
type Comparable interface {
	Expr
	Equals(Expr) Compare
	NotEquals(Expr) Compare
	LessThan(Expr) Compare
	LessThanOrEquals(Expr) Compare
	GreaterThan(Expr) Compare
	GreaterThanOrEquals(Expr) Compare
	IsNotDistinctFrom(Expr) Compare
	In(Expr) Compare
	NotIn(Expr) Compare
	Like(Expr) Compare
	NotLike(Expr) Compare
	IsNull() Compare
	IsNotNull() Compare
	Between(lo, hi Expr) Compare
	NotBetween(lo, hi Expr) Compare
	Contains(Expr) Compare
	ContainedBy(Expr) Compare
	NotContains(Expr) Compare
	Overlaps(Expr) Compare
	JSONTypeEquals(JSONType) Compare
	JSONTypeNotEquals(JSONType) Compare
	EqualsAny(Expr) Compare
	NotEqualsAll(Expr) Compare
	CompareRaw(op string, right Expr) Compare
}

var (
	_ Comparable = Expression{}
	_ Comparable = Column{}
	_ Comparable = Function{}
	_ Comparable = Row{}
)

func cmp(op CompareOp, l Expression, r Expr) Compare {
	c := Compare{Op: op, Left: l}
	if r != nil {
		c.Right = r.ToExpression()
	}
	return c
}

// Equals compares with =. Comparing with a NULL value renders IS NULL.
func (e Expression) Equals(r Expr) Compare { return cmp(CmpEquals, e, r) }

// NotEquals compares with <>. Comparing with a NULL value renders IS NOT NULL.
func (e Expression) NotEquals(r Expr) Compare { return cmp(CmpNotEquals, e, r) }

// LessThan compares with <.
func (e Expression) LessThan(r Expr) Compare { return cmp(CmpLessThan, e, r) }

// LessThanOrEquals compares with <=.
func (e Expression) LessThanOrEquals(r Expr) Compare { return cmp(CmpLessThanOrEquals, e, r) }

// GreaterThan compares with >.
func (e Expression) GreaterThan(r Expr) Compare { return cmp(CmpGreaterThan, e, r) }

// GreaterThanOrEquals compares with >=.
func (e Expression) GreaterThanOrEquals(r Expr) Compare { return cmp(CmpGreaterThanOrEquals, e, r) }

// IsNotDistinctFrom is null-safe equality.
func (e Expression) IsNotDistinctFrom(r Expr) Compare { return cmp(CmpIsNotDistinctFrom, e, r) }

// In tests set membership. The right side may be a Row, a subquery or an
// array value; an empty row is always false.
func (e Expression) In(r Expr) Compare { return cmp(CmpIn, e, r) }

// NotIn negates In; an empty row is always true.
func (e Expression) NotIn(r Expr) Compare { return cmp(CmpNotIn, e, r) }

// Like matches a pattern. A bare column on the left is cast to text.
func (e Expression) Like(r Expr) Compare { return cmp(CmpLike, e, r) }

// NotLike negates Like.
func (e Expression) NotLike(r Expr) Compare { return cmp(CmpNotLike, e, r) }

// IsNull tests e IS NULL.
func (e Expression) IsNull() Compare { return cmp(CmpIsNull, e, nil) }

// IsNotNull tests e IS NOT NULL.
func (e Expression) IsNotNull() Compare { return cmp(CmpIsNotNull, e, nil) }

// Between tests lo <= e <= hi.
func (e Expression) Between(lo, hi Expr) Compare {
	c := cmp(CmpBetween, e, lo)
	c.Upper = hi.ToExpression()
	return c
}

// NotBetween negates Between.
func (e Expression) NotBetween(lo, hi Expr) Compare {
	c := cmp(CmpNotBetween, e, lo)
	c.Upper = hi.ToExpression()
	return c
}

// Contains is the @> containment operator for arrays and jsonb.
func (e Expression) Contains(r Expr) Compare { return cmp(CmpContains, e, r) }

// ContainedBy is the <@ operator.
func (e Expression) ContainedBy(r Expr) Compare { return cmp(CmpContainedBy, e, r) }

// NotContains negates Contains.
func (e Expression) NotContains(r Expr) Compare { return cmp(CmpNotContains, e, r) }

// Overlaps is the && operator.
func (e Expression) Overlaps(r Expr) Compare { return cmp(CmpOverlaps, e, r) }

// JSONTypeEquals compares jsonb_typeof(e) with t. The type name is bound.
func (e Expression) JSONTypeEquals(t JSONType) Compare {
	return cmp(CmpJSONTypeEquals, e, Val(string(t)))
}

// JSONTypeNotEquals negates JSONTypeEquals.
func (e Expression) JSONTypeNotEquals(t JSONType) Compare {
	return cmp(CmpJSONTypeNotEquals, e, Val(string(t)))
}

// EqualsAny renders e = ANY(r) for an array r.
func (e Expression) EqualsAny(r Expr) Compare { return cmp(CmpEqualsAny, e, r) }

// NotEqualsAll renders e <> ALL(r) for an array r.
func (e Expression) NotEqualsAll(r Expr) Compare { return cmp(CmpNotEqualsAll, e, r) }

// CompareRaw compares with an operator spelled by construction code.
func (e Expression) CompareRaw(op string, r Expr) Compare {
	c := cmp(CmpRaw, e, r)
	c.Operator = op
	return c
}

// Column comparisons.

// Equals is Expression.Equals with c on the left.
func (c Column) Equals(r Expr) Compare { return c.ToExpression().Equals(r) }

// NotEquals is Expression.NotEquals with c on the left.
func (c Column) NotEquals(r Expr) Compare { return c.ToExpression().NotEquals(r) }

// LessThan is Expression.LessThan with c on the left.
func (c Column) LessThan(r Expr) Compare { return c.ToExpression().LessThan(r) }

// LessThanOrEquals is Expression.LessThanOrEquals with c on the left.
func (c Column) LessThanOrEquals(r Expr) Compare { return c.ToExpression().LessThanOrEquals(r) }

// GreaterThan is Expression.GreaterThan with c on the left.
func (c Column) GreaterThan(r Expr) Compare { return c.ToExpression().GreaterThan(r) }

// GreaterThanOrEquals is Expression.GreaterThanOrEquals with c on the left.
func (c Column) GreaterThanOrEquals(r Expr) Compare { return c.ToExpression().GreaterThanOrEquals(r) }

// IsNotDistinctFrom is Expression.IsNotDistinctFrom with c on the left.
func (c Column) IsNotDistinctFrom(r Expr) Compare { return c.ToExpression().IsNotDistinctFrom(r) }

// In is Expression.In with c on the left.
func (c Column) In(r Expr) Compare { return c.ToExpression().In(r) }

// NotIn is Expression.NotIn with c on the left.
func (c Column) NotIn(r Expr) Compare { return c.ToExpression().NotIn(r) }

// Like is Expression.Like with c on the left.
func (c Column) Like(r Expr) Compare { return c.ToExpression().Like(r) }

// NotLike is Expression.NotLike with c on the left.
func (c Column) NotLike(r Expr) Compare { return c.ToExpression().NotLike(r) }

// IsNull is Expression.IsNull with c on the left.
func (c Column) IsNull() Compare { return c.ToExpression().IsNull() }

// IsNotNull is Expression.IsNotNull with c on the left.
func (c Column) IsNotNull() Compare { return c.ToExpression().IsNotNull() }

// Between is Expression.Between with c on the left.
func (c Column) Between(lo, hi Expr) Compare { return c.ToExpression().Between(lo, hi) }

// NotBetween is Expression.NotBetween with c on the left.
func (c Column) NotBetween(lo, hi Expr) Compare { return c.ToExpression().NotBetween(lo, hi) }

// Contains is Expression.Contains with c on the left.
func (c Column) Contains(r Expr) Compare { return c.ToExpression().Contains(r) }

// ContainedBy is Expression.ContainedBy with c on the left.
func (c Column) ContainedBy(r Expr) Compare { return c.ToExpression().ContainedBy(r) }

// NotContains is Expression.NotContains with c on the left.
func (c Column) NotContains(r Expr) Compare { return c.ToExpression().NotContains(r) }

// Overlaps is Expression.Overlaps with c on the left.
func (c Column) Overlaps(r Expr) Compare { return c.ToExpression().Overlaps(r) }

// JSONTypeEquals is Expression.JSONTypeEquals with c on the left.
func (c Column) JSONTypeEquals(t JSONType) Compare { return c.ToExpression().JSONTypeEquals(t) }

// JSONTypeNotEquals is Expression.JSONTypeNotEquals with c on the left.
func (c Column) JSONTypeNotEquals(t JSONType) Compare {
	return c.ToExpression().JSONTypeNotEquals(t)
}

// EqualsAny is Expression.EqualsAny with c on the left.
func (c Column) EqualsAny(r Expr) Compare { return c.ToExpression().EqualsAny(r) }

// NotEqualsAll is Expression.NotEqualsAll with c on the left.
func (c Column) NotEqualsAll(r Expr) Compare { return c.ToExpression().NotEqualsAll(r) }

// CompareRaw is Expression.CompareRaw with c on the left.
func (c Column) CompareRaw(op string, r Expr) Compare { return c.ToExpression().CompareRaw(op, r) }

// Function comparisons.

// Equals is Expression.Equals with f on the left.
func (f Function) Equals(r Expr) Compare { return f.ToExpression().Equals(r) }

// NotEquals is Expression.NotEquals with f on the left.
func (f Function) NotEquals(r Expr) Compare { return f.ToExpression().NotEquals(r) }

// LessThan is Expression.LessThan with f on the left.
func (f Function) LessThan(r Expr) Compare { return f.ToExpression().LessThan(r) }

// LessThanOrEquals is Expression.LessThanOrEquals with f on the left.
func (f Function) LessThanOrEquals(r Expr) Compare { return f.ToExpression().LessThanOrEquals(r) }

// GreaterThan is Expression.GreaterThan with f on the left.
func (f Function) GreaterThan(r Expr) Compare { return f.ToExpression().GreaterThan(r) }

// GreaterThanOrEquals is Expression.GreaterThanOrEquals with f on the left.
func (f Function) GreaterThanOrEquals(r Expr) Compare { return f.ToExpression().GreaterThanOrEquals(r) }

// IsNotDistinctFrom is Expression.IsNotDistinctFrom with f on the left.
func (f Function) IsNotDistinctFrom(r Expr) Compare { return f.ToExpression().IsNotDistinctFrom(r) }

// In is Expression.In with f on the left.
func (f Function) In(r Expr) Compare { return f.ToExpression().In(r) }

// NotIn is Expression.NotIn with f on the left.
func (f Function) NotIn(r Expr) Compare { return f.ToExpression().NotIn(r) }

// Like is Expression.Like with f on the left.
func (f Function) Like(r Expr) Compare { return f.ToExpression().Like(r) }

// NotLike is Expression.NotLike with f on the left.
func (f Function) NotLike(r Expr) Compare { return f.ToExpression().NotLike(r) }

// IsNull is Expression.IsNull with f on the left.
func (f Function) IsNull() Compare { return f.ToExpression().IsNull() }

// IsNotNull is Expression.IsNotNull with f on the left.
func (f Function) IsNotNull() Compare { return f.ToExpression().IsNotNull() }

// Between is Expression.Between with f on the left.
func (f Function) Between(lo, hi Expr) Compare { return f.ToExpression().Between(lo, hi) }

// NotBetween is Expression.NotBetween with f on the left.
func (f Function) NotBetween(lo, hi Expr) Compare { return f.ToExpression().NotBetween(lo, hi) }

// Contains is Expression.Contains with f on the left.
func (f Function) Contains(r Expr) Compare { return f.ToExpression().Contains(r) }

// ContainedBy is Expression.ContainedBy with f on the left.
func (f Function) ContainedBy(r Expr) Compare { return f.ToExpression().ContainedBy(r) }

// NotContains is Expression.NotContains with f on the left.
func (f Function) NotContains(r Expr) Compare { return f.ToExpression().NotContains(r) }

// Overlaps is Expression.Overlaps with f on the left.
func (f Function) Overlaps(r Expr) Compare { return f.ToExpression().Overlaps(r) }

// JSONTypeEquals is Expression.JSONTypeEquals with f on the left.
func (f Function) JSONTypeEquals(t JSONType) Compare { return f.ToExpression().JSONTypeEquals(t) }

// JSONTypeNotEquals is Expression.JSONTypeNotEquals with f on the left.
func (f Function) JSONTypeNotEquals(t JSONType) Compare {
	return f.ToExpression().JSONTypeNotEquals(t)
}

// EqualsAny is Expression.EqualsAny with f on the left.
func (f Function) EqualsAny(r Expr) Compare { return f.ToExpression().EqualsAny(r) }

// NotEqualsAll is Expression.NotEqualsAll with f on the left.
func (f Function) NotEqualsAll(r Expr) Compare { return f.ToExpression().NotEqualsAll(r) }

// CompareRaw is Expression.CompareRaw with f on the left.
func (f Function) CompareRaw(op string, r Expr) Compare { return f.ToExpression().CompareRaw(op, r) }

// Row comparisons.

// Equals is Expression.Equals with w on the left.
func (w Row) Equals(r Expr) Compare { return w.ToExpression().Equals(r) }

// NotEquals is Expression.NotEquals with w on the left.
func (w Row) NotEquals(r Expr) Compare { return w.ToExpression().NotEquals(r) }

// LessThan is Expression.LessThan with w on the left.
func (w Row) LessThan(r Expr) Compare { return w.ToExpression().LessThan(r) }

// LessThanOrEquals is Expression.LessThanOrEquals with w on the left.
func (w Row) LessThanOrEquals(r Expr) Compare { return w.ToExpression().LessThanOrEquals(r) }

// GreaterThan is Expression.GreaterThan with w on the left.
func (w Row) GreaterThan(r Expr) Compare { return w.ToExpression().GreaterThan(r) }

// GreaterThanOrEquals is Expression.GreaterThanOrEquals with w on the left.
func (w Row) GreaterThanOrEquals(r Expr) Compare { return w.ToExpression().GreaterThanOrEquals(r) }

// IsNotDistinctFrom is Expression.IsNotDistinctFrom with w on the left.
func (w Row) IsNotDistinctFrom(r Expr) Compare { return w.ToExpression().IsNotDistinctFrom(r) }

// In is Expression.In with w on the left.
func (w Row) In(r Expr) Compare { return w.ToExpression().In(r) }

// NotIn is Expression.NotIn with w on the left.
func (w Row) NotIn(r Expr) Compare { return w.ToExpression().NotIn(r) }

// Like is Expression.Like with w on the left.
func (w Row) Like(r Expr) Compare { return w.ToExpression().Like(r) }

// NotLike is Expression.NotLike with w on the left.
func (w Row) NotLike(r Expr) Compare { return w.ToExpression().NotLike(r) }

// IsNull is Expression.IsNull with w on the left.
func (w Row) IsNull() Compare { return w.ToExpression().IsNull() }

// IsNotNull is Expression.IsNotNull with w on the left.
func (w Row) IsNotNull() Compare { return w.ToExpression().IsNotNull() }

// Between is Expression.Between with w on the left.
func (w Row) Between(lo, hi Expr) Compare { return w.ToExpression().Between(lo, hi) }

// NotBetween is Expression.NotBetween with w on the left.
func (w Row) NotBetween(lo, hi Expr) Compare { return w.ToExpression().NotBetween(lo, hi) }

// Contains is Expression.Contains with w on the left.
func (w Row) Contains(r Expr) Compare { return w.ToExpression().Contains(r) }

// ContainedBy is Expression.ContainedBy with w on the left.
func (w Row) ContainedBy(r Expr) Compare { return w.ToExpression().ContainedBy(r) }

// NotContains is Expression.NotContains with w on the left.
func (w Row) NotContains(r Expr) Compare { return w.ToExpression().NotContains(r) }

// Overlaps is Expression.Overlaps with w on the left.
func (w Row) Overlaps(r Expr) Compare { return w.ToExpression().Overlaps(r) }

// JSONTypeEquals is Expression.JSONTypeEquals with w on the left.
func (w Row) JSONTypeEquals(t JSONType) Compare { return w.ToExpression().JSONTypeEquals(t) }

// JSONTypeNotEquals is Expression.JSONTypeNotEquals with w on the left.
func (w Row) JSONTypeNotEquals(t JSONType) Compare {
	return w.ToExpression().JSONTypeNotEquals(t)
}

// EqualsAny is Expression.EqualsAny with w on the left.
func (w Row) EqualsAny(r Expr) Compare { return w.ToExpression().EqualsAny(r) }

// NotEqualsAll is Expression.NotEqualsAll with w on the left.
func (w Row) NotEqualsAll(r Expr) Compare { return w.ToExpression().NotEqualsAll(r) }

// CompareRaw is Expression.CompareRaw with w on the left.
func (w Row) CompareRaw(op string, r Expr) Compare { return w.ToExpression().CompareRaw(op, r) }
