package ast

import "slices"

// Order is a sort direction. The zero value leaves the direction to the
// database default (ascending, nulls last).
type Order uint8

const (
	OrderDefault Order = iota
	Asc
	Desc
	AscNullsFirst
	AscNullsLast
	DescNullsFirst
	DescNullsLast
)

// Keyword returns the SQL spelling of the direction, empty for the default.
func (o Order) Keyword() string {
	switch o {
	case Asc:
		return "ASC"
	case Desc:
		return "DESC"
	case AscNullsFirst:
		return "ASC NULLS FIRST"
	case AscNullsLast:
		return "ASC NULLS LAST"
	case DescNullsFirst:
		return "DESC NULLS FIRST"
	case DescNullsLast:
		return "DESC NULLS LAST"
	}
	return ""
}

// Reverse returns the opposite direction, including null placement.
func (o Order) Reverse() Order {
	switch o {
	case Asc:
		return Desc
	case Desc:
		return Asc
	case AscNullsFirst:
		return DescNullsLast
	case AscNullsLast:
		return DescNullsFirst
	case DescNullsFirst:
		return AscNullsLast
	case DescNullsLast:
		return AscNullsFirst
	}
	return Desc
}

// OrderItem is one sort key.
type OrderItem struct {
	Expr  Expression
	Order Order
}

// OrderBy builds a sort key.
func OrderBy(e Expr, o Order) OrderItem {
	return OrderItem{Expr: e.ToExpression(), Order: o}
}

// Ordering is an ORDER BY list.
type Ordering []OrderItem

// Reverse returns a copy of o with every direction reversed.
func (o Ordering) Reverse() Ordering {
	out := slices.Clone(o)
	for i := range out {
		out[i].Order = out[i].Order.Reverse()
	}
	return out
}

// Over is a window definition.
type Over struct {
	PartitionBy []Expression
	OrderBy     Ordering
}

// Window builds a window ordered by order and partitioned by partition.
func Window(order Ordering, partition ...Expr) Over {
	return Over{PartitionBy: toExpressions(partition), OrderBy: order}
}

// IsEmpty reports whether the window has neither partitions nor ordering.
func (o Over) IsEmpty() bool {
	return len(o.PartitionBy) == 0 && len(o.OrderBy) == 0
}
