package resolve

import (
	"fmt"

	"github.com/pthm/sqlast/ast"
)

// FindOne selects at most one row of t as a JSON object:
//
//	SELECT json_build_object(...) AS "root" FROM "t" AS "t" WHERE ... LIMIT $n
//
// Nested relations become correlated subqueries inside the object. The
// filter is required; a lookup without one would pick an arbitrary row.
func FindOne(t Table, filter *Filter, sel Selection) (*ast.Select, error) {
	alias := t.Name

	cond, err := filter.condition(qualified(alias))
	if err != nil {
		return nil, err
	}
	if ast.IsEmpty(cond) {
		return nil, fmt.Errorf("%w: findOne on %q needs a filter", ErrInvalidFilter, t.Name)
	}

	obj, err := object(alias, sel)
	if err != nil {
		return nil, err
	}

	return ast.SelectFrom(t.source(alias)).
		Value(obj.As(rootColumn)).
		Where(cond).
		Limit(1), nil
}

// FindMany selects the rows of t as one JSON array in "root". An empty
// result is the empty array, never NULL.
//
// Rows are numbered with ROW_NUMBER over the requested ordering and
// aggregated in that order. With Last the inner ordering is reversed so
// LIMIT keeps the tail, and the aggregate runs backwards to restore it.
func FindMany(t Table, filter *Filter, args CollectionArgs, sel Selection) (*ast.Select, error) {
	alias := t.Name

	cond, err := filter.condition(qualified(alias))
	if err != nil {
		return nil, err
	}

	agg, from, err := collection(t, alias, cond, args, sel)
	if err != nil {
		return nil, err
	}

	return ast.SelectFrom(from).Value(agg.As(rootColumn)), nil
}

// object builds the JSON object of one row of the table aliased alias.
func object(alias string, sel Selection) (ast.Function, error) {
	fields := make([]ast.JSONField, 0, len(sel.Fields))
	for _, f := range sel.Fields {
		if err := f.validate(); err != nil {
			return ast.Function{}, err
		}

		if f.Relation == nil {
			fields = append(fields, ast.Field(f.Name, f.value(ast.TableCol(alias, f.column()))))
			continue
		}

		sub, err := relation(alias, f.Name, f.Relation)
		if err != nil {
			return ast.Function{}, fmt.Errorf("%s: %w", f.Name, err)
		}
		fields = append(fields, ast.Field(f.Name, sub))
	}
	return ast.JSONBuildObject(fields...), nil
}

// relation builds the correlated subquery of a nested field. The related
// table gets an alias derived from the parent's so self relations do not
// shadow the parent.
func relation(parent, name string, r *Relation) (*ast.Select, error) {
	if len(r.On) == 0 {
		return nil, fmt.Errorf("%w: relation to %q has no join columns", ErrUnsupportedShape, r.Table.Name)
	}
	alias := parent + "_" + name

	filter, err := r.Filter.condition(qualified(alias))
	if err != nil {
		return nil, err
	}
	conds := []ast.Expr{filter}
	for _, on := range r.On {
		conds = append(conds, ast.TableCol(alias, on.Related).Equals(ast.TableCol(parent, on.Parent)))
	}
	cond := ast.And(conds...)

	if r.Unique {
		obj, err := object(alias, r.Selection)
		if err != nil {
			return nil, err
		}
		return ast.SelectFrom(r.Table.source(alias)).
			Value(obj).
			Where(cond).
			Limit(1), nil
	}

	agg, from, err := collection(r.Table, alias, cond, r.Args, r.Selection)
	if err != nil {
		return nil, err
	}
	return ast.SelectFrom(from).Value(agg), nil
}

// collection returns the aggregate over the page of rows of t matching cond,
// and the derived table it reads from.
func collection(t Table, alias string, cond ast.ConditionTree, args CollectionArgs, sel Selection) (ast.Function, ast.Table, error) {
	if err := args.validate(); err != nil {
		return ast.Function{}, ast.Table{}, err
	}

	obj, err := object(alias, sel)
	if err != nil {
		return ast.Function{}, ast.Table{}, err
	}

	order := args.ordering(alias)
	aggOrder := ast.Asc
	if args.Last != nil {
		order = order.Reverse()
		aggOrder = ast.Desc
	}

	page := ast.SelectFrom(t.source(alias)).
		Value(obj.As(rootColumn)).
		Value(ast.RowNumber(ast.Window(order)).As(rowColumn)).
		Where(cond).
		OrderBy(order...)

	switch {
	case args.First != nil:
		page.Limit(*args.First)
	case args.Last != nil:
		page.Limit(*args.Last)
	}
	if args.Offset != nil {
		page.Offset(*args.Offset)
	}

	agg := ast.Coalesce(
		ast.JSONAgg(ast.TableCol(alias, rootColumn), ast.Ordering{ast.OrderBy(ast.TableCol(alias, rowColumn), aggOrder)}),
		ast.Cast(ast.Val("[]"), ast.CastJSON),
	)
	return agg, ast.FromSelect(page, alias), nil
}
