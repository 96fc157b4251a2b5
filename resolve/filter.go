package resolve

import (
	"fmt"

	"github.com/pthm/sqlast/ast"
)

// FilterOp is a column comparison operator as written in requests.
type FilterOp string

const (
	FilterEq        FilterOp = "eq"
	FilterNe        FilterOp = "ne"
	FilterLt        FilterOp = "lt"
	FilterLte       FilterOp = "lte"
	FilterGt        FilterOp = "gt"
	FilterGte       FilterOp = "gte"
	FilterIn        FilterOp = "in"
	FilterNin       FilterOp = "nin"
	FilterLike      FilterOp = "like"
	FilterNotLike   FilterOp = "notLike"
	FilterIsNull    FilterOp = "isNull"
	FilterContains  FilterOp = "contains"
	FilterContained FilterOp = "contained"
	FilterOverlaps  FilterOp = "overlaps"
)

// Filter is a boolean filter over the columns of one table. A node may
// carry a comparison and any of the combinators; everything set on one node
// is combined with AND. The zero Filter matches every row.
type Filter struct {
	Column string   `json:"column,omitempty"`
	Op     FilterOp `json:"op,omitempty"`
	Value  any      `json:"value,omitempty"`

	// Enum binds the value as a label of a database enum type.
	Enum *ast.EnumType `json:"enum,omitempty"`

	And []Filter `json:"and,omitempty"`
	Or  []Filter `json:"or,omitempty"`
	Not *Filter  `json:"not,omitempty"`
}

// columnRef builds a column reference in the scope a filter is applied to.
type columnRef func(name string) ast.Column

func qualified(alias string) columnRef {
	return func(name string) ast.Column { return ast.TableCol(alias, name) }
}

func unqualified(name string) ast.Column { return ast.Col(name) }

// condition converts f into a condition tree. A nil filter is no condition.
func (f *Filter) condition(col columnRef) (ast.ConditionTree, error) {
	if f == nil {
		return ast.NoCondition{}, nil
	}

	var conds []ast.Expr
	if f.Column != "" || f.Op != "" {
		c, err := f.compare(col)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}

	if len(f.And) > 0 {
		and, err := combine(f.And, col, ast.And)
		if err != nil {
			return nil, err
		}
		conds = append(conds, and)
	}
	if len(f.Or) > 0 {
		or, err := combine(f.Or, col, ast.Or)
		if err != nil {
			return nil, err
		}
		conds = append(conds, or)
	}
	if f.Not != nil {
		c, err := f.Not.condition(col)
		if err != nil {
			return nil, err
		}
		conds = append(conds, ast.Not(c))
	}

	return ast.And(conds...), nil
}

func combine(filters []Filter, col columnRef, op func(...ast.Expr) ast.ConditionTree) (ast.ConditionTree, error) {
	conds := make([]ast.Expr, 0, len(filters))
	for i := range filters {
		c, err := filters[i].condition(col)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return op(conds...), nil
}

func (f *Filter) compare(col columnRef) (ast.Compare, error) {
	if f.Column == "" {
		return ast.Compare{}, fmt.Errorf("%w: operator %q without a column", ErrInvalidFilter, f.Op)
	}
	c := col(f.Column)

	if f.Op == FilterIsNull {
		isNull := true
		if f.Value != nil {
			b, ok := f.Value.(bool)
			if !ok {
				return ast.Compare{}, fmt.Errorf("%w: isNull on %q takes a boolean", ErrInvalidFilter, f.Column)
			}
			isNull = b
		}
		if isNull {
			return c.IsNull(), nil
		}
		return c.IsNotNull(), nil
	}

	v, err := f.value()
	if err != nil {
		return ast.Compare{}, err
	}

	switch f.Op {
	case FilterEq:
		return c.Equals(v), nil
	case FilterNe:
		return c.NotEquals(v), nil
	case FilterLt:
		return c.LessThan(v), nil
	case FilterLte:
		return c.LessThanOrEquals(v), nil
	case FilterGt:
		return c.GreaterThan(v), nil
	case FilterGte:
		return c.GreaterThanOrEquals(v), nil
	case FilterIn, FilterNin:
		if v.Kind() != ast.KindArray {
			return ast.Compare{}, fmt.Errorf("%w: %s on %q takes a list", ErrInvalidFilter, f.Op, f.Column)
		}
		if f.Op == FilterIn {
			return c.In(v), nil
		}
		return c.NotIn(v), nil
	case FilterLike:
		return c.Like(v), nil
	case FilterNotLike:
		return c.NotLike(v), nil
	case FilterContains:
		return c.Contains(v), nil
	case FilterContained:
		return c.ContainedBy(v), nil
	case FilterOverlaps:
		return c.Overlaps(v), nil
	}
	return ast.Compare{}, fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, f.Op)
}

// value binds the filter value, as enum labels when an enum type is given.
func (f *Filter) value() (ast.Value, error) {
	if f.Enum == nil {
		v, err := ast.ValueOf(f.Value)
		if err != nil {
			return ast.Value{}, fmt.Errorf("%w: %q: %w", ErrInvalidFilter, f.Column, err)
		}
		return v, nil
	}

	v, err := enumValue(*f.Enum, f.Value)
	if err != nil {
		return ast.Value{}, fmt.Errorf("%w: %q: %w", ErrInvalidFilter, f.Column, err)
	}
	return v, nil
}

// enumValue binds a label, or a list of labels, of typ.
func enumValue(typ ast.EnumType, v any) (ast.Value, error) {
	switch x := v.(type) {
	case nil:
		return ast.Null(), nil
	case string:
		return ast.Enum(typ, x), nil
	case []string:
		return ast.EnumArray(typ, x...), nil
	case []any:
		labels := make([]string, len(x))
		for i, item := range x {
			s, ok := item.(string)
			if !ok {
				return ast.Value{}, fmt.Errorf("enum label %d is %T", i, item)
			}
			labels[i] = s
		}
		return ast.EnumArray(typ, labels...), nil
	}
	return ast.Value{}, fmt.Errorf("enum label is %T", v)
}
