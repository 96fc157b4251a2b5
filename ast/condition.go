package ast

import "iter"

// ConditionTree is a boolean tree over comparisons.
//
// NoCondition is the identity of AND and means "no filter": a statement
// whose condition is NoCondition renders without a WHERE clause.
//
//sumtype:decl
type ConditionTree interface {
	ExpressionKind
	Expr
	conditionTree()
}

// NoCondition is always true.
type NoCondition struct{}

// NegativeCondition is always false.
type NegativeCondition struct{}

// Single wraps one boolean expression.
type Single struct {
	Expr Expression
}

// Conjunction is a parenthesised AND over two or more operands.
type Conjunction struct {
	Conds []Expression
}

// Disjunction is a parenthesised OR over two or more operands.
type Disjunction struct {
	Conds []Expression
}

// Negation is NOT applied to one operand.
type Negation struct {
	Cond Expression
}

// Exists tests whether a subquery returns rows.
type Exists struct {
	Select *Select
}

func (NoCondition) conditionTree()       {}
func (NegativeCondition) conditionTree() {}
func (Single) conditionTree()            {}
func (Conjunction) conditionTree()       {}
func (Disjunction) conditionTree()       {}
func (Negation) conditionTree()          {}
func (Exists) conditionTree()            {}

func (NoCondition) expressionKind()       {}
func (NegativeCondition) expressionKind() {}
func (Single) expressionKind()            {}
func (Conjunction) expressionKind()       {}
func (Disjunction) expressionKind()       {}
func (Negation) expressionKind()          {}
func (Exists) expressionKind()            {}

func (c NoCondition) ToExpression() Expression       { return Expression{Kind: c} }
func (c NegativeCondition) ToExpression() Expression { return Expression{Kind: c} }
func (c Single) ToExpression() Expression            { return Expression{Kind: c} }
func (c Conjunction) ToExpression() Expression       { return Expression{Kind: c} }
func (c Disjunction) ToExpression() Expression       { return Expression{Kind: c} }
func (c Negation) ToExpression() Expression          { return Expression{Kind: c} }
func (c Exists) ToExpression() Expression            { return Expression{Kind: c} }

// Cond turns any boolean expression into a condition tree. A nil Expr is
// NoCondition.
func Cond(e Expr) ConditionTree {
	if e == nil {
		return NoCondition{}
	}
	if t, ok := e.(ConditionTree); ok {
		return t
	}
	ex := e.ToExpression()
	if t, ok := ex.Kind.(ConditionTree); ok {
		return t
	}
	return Single{Expr: ex}
}

// IsEmpty reports whether t filters nothing.
func IsEmpty(t ConditionTree) bool {
	if t == nil {
		return true
	}
	_, ok := t.(NoCondition)
	return ok
}

// And combines conditions with AND, in order. NoCondition operands are
// dropped and a NegativeCondition operand makes the whole tree false. Nested
// conjunctions are flattened; a single remaining operand is returned as is.
func And(conds ...Expr) ConditionTree {
	var out []Expression
	for _, c := range conds {
		switch t := Cond(c).(type) {
		case NoCondition:
		case NegativeCondition:
			return NegativeCondition{}
		case Conjunction:
			out = append(out, t.Conds...)
		case Single:
			out = append(out, t.Expr)
		default:
			out = append(out, t.ToExpression())
		}
	}
	switch len(out) {
	case 0:
		return NoCondition{}
	case 1:
		return Cond(out[0])
	}
	return Conjunction{Conds: out}
}

// Or combines conditions with OR, in order. NegativeCondition operands are
// dropped and a NoCondition operand makes the whole tree unconditional.
// Combining nothing yields NoCondition.
func Or(conds ...Expr) ConditionTree {
	var out []Expression
	for _, c := range conds {
		switch t := Cond(c).(type) {
		case NoCondition:
			return NoCondition{}
		case NegativeCondition:
		case Disjunction:
			out = append(out, t.Conds...)
		case Single:
			out = append(out, t.Expr)
		default:
			out = append(out, t.ToExpression())
		}
	}
	switch len(out) {
	case 0:
		if len(conds) > 0 {
			return NegativeCondition{}
		}
		return NoCondition{}
	case 1:
		return Cond(out[0])
	}
	return Disjunction{Conds: out}
}

// Not negates a condition.
func Not(e Expr) ConditionTree {
	switch t := Cond(e).(type) {
	case NoCondition:
		return NegativeCondition{}
	case NegativeCondition:
		return NoCondition{}
	case Negation:
		return Cond(t.Cond)
	case Single:
		return Negation{Cond: t.Expr}
	default:
		return Negation{Cond: t.ToExpression()}
	}
}

// ExistsIn tests whether s returns any row.
func ExistsIn(s *Select) ConditionTree {
	return Exists{Select: s}
}

// FoldAnd combines every condition yielded by seq with AND. Folding an
// empty sequence yields NoCondition.
func FoldAnd[E Expr](seq iter.Seq[E]) ConditionTree {
	var tree ConditionTree = NoCondition{}
	for c := range seq {
		tree = And(tree, c)
	}
	return tree
}

// FoldOr combines every condition yielded by seq with OR. Folding an empty
// sequence yields NoCondition.
func FoldOr[E Expr](seq iter.Seq[E]) ConditionTree {
	var conds []Expr
	for c := range seq {
		conds = append(conds, c)
	}
	return Or(conds...)
}
