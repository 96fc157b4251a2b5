package ast

// Expr is anything that can stand in an expression position: values,
// columns, functions, rows, comparisons, condition trees and subqueries.
type Expr interface {
	ToExpression() Expression
}

// Expression is a node of the statement tree with an optional output alias.
// The alias is only rendered where SQL allows one (projections and
// RETURNING lists); everywhere else it is ignored.
type Expression struct {
	Kind  ExpressionKind
	Alias string
}

// ExpressionKind is the closed set of expression node types.
//
//sumtype:decl
type ExpressionKind interface {
	expressionKind()
}

// ToExpression returns e unchanged.
func (e Expression) ToExpression() Expression { return e }

// As returns a copy of e carrying the output alias.
func (e Expression) As(alias string) Expression {
	e.Alias = alias
	return e
}

// IsColumn reports whether e is a bare column reference.
func (e Expression) IsColumn() bool {
	_, ok := e.Kind.(Column)
	return ok
}

// As wraps any expression with an output alias.
func As(e Expr, alias string) Expression {
	return e.ToExpression().As(alias)
}

// Param is a bound value. It renders as the next positional placeholder.
type Param struct {
	Value Value
}

// Raw is SQL text emitted verbatim. It must only carry fragments fixed in
// construction code, never request data.
type Raw struct {
	SQL string
}

// TableRef uses a table (by alias, or by qualified name) as an expression,
// as in ROW_TO_JSON("t").
type TableRef struct {
	Table Table
}

// Subquery is a nested SELECT used as a scalar or set expression.
type Subquery struct {
	Select *Select
}

// Asterisk selects every column, optionally of one table.
type Asterisk struct {
	Table *Table
}

// Default is the DEFAULT keyword in an insert row or assignment.
type Default struct{}

// Values is a VALUES list of rows.
type Values struct {
	Rows []Row
}

func (Param) expressionKind()    {}
func (Raw) expressionKind()      {}
func (TableRef) expressionKind() {}
func (Subquery) expressionKind() {}
func (Asterisk) expressionKind() {}
func (Default) expressionKind()  {}
func (Values) expressionKind()   {}
func (Column) expressionKind()   {}
func (Row) expressionKind()      {}
func (Function) expressionKind() {}
func (Op) expressionKind()       {}
func (Compare) expressionKind()  {}
func (Case) expressionKind()     {}

// RawSQL returns an expression emitting sql verbatim.
func RawSQL(sql string) Expression {
	return Expression{Kind: Raw{SQL: sql}}
}

// Star returns the bare asterisk.
func Star() Expression {
	return Expression{Kind: Asterisk{}}
}

// TableStar returns "t".*.
func TableStar(t Table) Expression {
	return Expression{Kind: Asterisk{Table: &t}}
}

// DefaultValue returns the DEFAULT keyword.
func DefaultValue() Expression {
	return Expression{Kind: Default{}}
}

// Sub wraps a select as a subquery expression.
func Sub(s *Select) Expression {
	return Expression{Kind: Subquery{Select: s}}
}

// ValuesOf builds a VALUES list.
func ValuesOf(rows ...Row) Expression {
	return Expression{Kind: Values{Rows: rows}}
}

// ToExpression implements Expr.
func (v Values) ToExpression() Expression {
	return Expression{Kind: v}
}

// Row is a parenthesised tuple of expressions.
type Row struct {
	Values []Expression
}

// RowOf builds a row from expressions in order.
func RowOf(exprs ...Expr) Row {
	return Row{Values: toExpressions(exprs)}
}

// Len returns the number of items in the row.
func (r Row) Len() int { return len(r.Values) }

// ToExpression implements Expr.
func (r Row) ToExpression() Expression {
	return Expression{Kind: r}
}

// Operator is an infix operator producing a value.
type Operator uint8

const (
	OpAdd Operator = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpConcat
	OpDeletePath
)

// Symbol returns the SQL spelling of the operator.
func (o Operator) Symbol() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	case OpConcat:
		return "||"
	case OpDeletePath:
		return "#-"
	}
	return "?"
}

// Op applies an infix operator. It always renders parenthesised.
type Op struct {
	Operator Operator
	Left     Expression
	Right    Expression
}

// ToExpression implements Expr.
func (o Op) ToExpression() Expression {
	return Expression{Kind: o}
}

func op(o Operator, l, r Expr) Expression {
	return Expression{Kind: Op{Operator: o, Left: l.ToExpression(), Right: r.ToExpression()}}
}

// Add returns (l + r).
func Add(l, r Expr) Expression { return op(OpAdd, l, r) }

// Subtract returns (l - r). On jsonb it removes a key.
func Subtract(l, r Expr) Expression { return op(OpSubtract, l, r) }

// Multiply returns (l * r).
func Multiply(l, r Expr) Expression { return op(OpMultiply, l, r) }

// Divide returns (l / r).
func Divide(l, r Expr) Expression { return op(OpDivide, l, r) }

// Append returns (l || r), concatenating strings, arrays or jsonb.
func Append(l, r Expr) Expression { return op(OpConcat, l, r) }

// DeletePath returns (l #- r), removing a jsonb path.
func DeletePath(l, r Expr) Expression { return op(OpDeletePath, l, r) }

// When is one branch of a CASE expression.
type When struct {
	Cond ConditionTree
	Then Expression
}

// Case is CASE WHEN ... THEN ... [ELSE ...] END.
type Case struct {
	Whens []When
	Else  *Expression
}

// CaseWhen starts a CASE expression with its first branch.
func CaseWhen(cond, then Expr) Case {
	return Case{}.When(cond, then)
}

// When appends a branch.
func (c Case) When(cond, then Expr) Case {
	whens := make([]When, len(c.Whens), len(c.Whens)+1)
	copy(whens, c.Whens)
	c.Whens = append(whens, When{Cond: Cond(cond), Then: then.ToExpression()})
	return c
}

// Otherwise sets the ELSE branch.
func (c Case) Otherwise(e Expr) Case {
	ex := e.ToExpression()
	c.Else = &ex
	return c
}

// ToExpression implements Expr.
func (c Case) ToExpression() Expression {
	return Expression{Kind: c}
}

func toExpressions(in []Expr) []Expression {
	out := make([]Expression, len(in))
	for i, e := range in {
		out[i] = e.ToExpression()
	}
	return out
}
