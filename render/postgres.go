package render

import (
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/pthm/sqlast/ast"
)

// Postgres renders q in a single depth-first pass. Every value becomes the
// next placeholder, so the k-th placeholder in the text is always the k-th
// parameter. Rendering the same tree twice gives the same statement.
func Postgres(q ast.Query) Statement {
	var r renderer
	r.query(q)
	return Statement{SQL: r.b.String(), Params: r.params}
}

type renderer struct {
	b      strings.Builder
	params []ast.Value
}

func (r *renderer) write(s string) {
	r.b.WriteString(s)
}

// ident writes a double-quoted identifier with embedded quotes doubled.
func (r *renderer) ident(name string) {
	r.b.WriteString(pq.QuoteIdentifier(name))
}

// identList writes ("a","b").
func (r *renderer) identList(names []string) {
	r.write("(")
	for i, n := range names {
		if i > 0 {
			r.write(",")
		}
		r.ident(n)
	}
	r.write(")")
}

func (r *renderer) param(v ast.Value) {
	r.params = append(r.params, v)
	r.write("$")
	r.write(strconv.Itoa(len(r.params)))

	if typ, ok := v.Enum(); ok {
		r.write("::")
		if typ.Schema != "" {
			r.ident(typ.Schema)
			r.write(".")
		}
		r.ident(typ.Name)
		if v.Kind() == ast.KindArray {
			r.write("[]")
		}
	}
}

func (r *renderer) query(q ast.Query) {
	switch q := q.(type) {
	case *ast.Select:
		r.selectStmt(q)
	case *ast.Insert:
		r.insert(q)
	case *ast.Update:
		r.update(q)
	case *ast.Delete:
		r.delete(q)
	}
}

func (r *renderer) selectStmt(s *ast.Select) {
	if len(s.CTEs) > 0 {
		r.write("WITH ")
		for i, cte := range s.CTEs {
			if i > 0 {
				r.write(", ")
			}
			r.ident(cte.Name)
			if len(cte.Columns) > 0 {
				r.identList(cte.Columns)
			}
			r.write(" AS (")
			r.query(cte.Query)
			r.write(")")
		}
		r.write(" ")
	}

	r.write("SELECT ")
	if s.DistinctRows {
		r.write("DISTINCT ")
	}
	if len(s.Projection) == 0 {
		r.write("*")
	} else {
		r.projection(s.Projection)
	}

	if len(s.Tables) > 0 {
		r.write(" FROM ")
		for i, t := range s.Tables {
			if i > 0 {
				r.write(", ")
			}
			r.tableSource(t)
		}
	}

	r.where(s.Filter)

	if len(s.Groupings) > 0 {
		r.write(" GROUP BY ")
		r.exprList(s.Groupings, ", ")
	}
	if !ast.IsEmpty(s.HavingFilter) {
		r.write(" HAVING ")
		r.condition(s.HavingFilter)
	}
	if len(s.Orderings) > 0 {
		r.write(" ORDER BY ")
		r.ordering(s.Orderings)
	}
	if s.LimitRows != nil {
		r.write(" LIMIT ")
		r.param(ast.Val(*s.LimitRows))
	}
	if s.OffsetRows != nil {
		r.write(" OFFSET ")
		r.param(ast.Val(*s.OffsetRows))
	}
}

func (r *renderer) insert(i *ast.Insert) {
	r.write("INSERT INTO ")
	r.target(i.Table)

	switch {
	case i.Source != nil:
		if len(i.Columns) > 0 {
			r.write(" ")
			r.identList(i.Columns)
		}
		r.write(" ")
		r.selectStmt(i.Source)
	case len(i.Columns) == 0:
		r.write(" DEFAULT VALUES")
	default:
		r.write(" ")
		r.identList(i.Columns)
		r.write(" VALUES ")
		r.rows(i.Rows)
	}

	if c := i.Conflict; c != nil {
		r.write(" ON CONFLICT")
		if len(c.Target) > 0 {
			r.write(" ")
			r.identList(c.Target)
		}
		switch c.Action {
		case ast.ConflictDoNothing:
			r.write(" DO NOTHING")
		case ast.ConflictDoUpdate:
			r.write(" DO UPDATE SET ")
			r.assignments(c.Set)
			r.where(c.Filter)
		}
	}

	r.returning(i.Returns)
}

func (r *renderer) update(u *ast.Update) {
	r.write("UPDATE ")
	r.target(u.Table)
	r.write(" SET ")
	r.assignments(u.Assignments)
	r.where(u.Filter)
	r.returning(u.Returns)
}

func (r *renderer) delete(d *ast.Delete) {
	r.write("DELETE FROM ")
	r.target(d.Table)
	r.where(d.Filter)
	r.returning(d.Returns)
}

// where writes nothing at all for an empty condition.
func (r *renderer) where(t ast.ConditionTree) {
	if ast.IsEmpty(t) {
		return
	}
	r.write(" WHERE ")
	r.condition(t)
}

func (r *renderer) returning(exprs []ast.Expression) {
	if len(exprs) == 0 {
		return
	}
	r.write(" RETURNING ")
	r.projection(exprs)
}

func (r *renderer) assignments(set []ast.Assignment) {
	for i, a := range set {
		if i > 0 {
			r.write(", ")
		}
		r.ident(a.Column)
		r.write(" = ")
		r.expr(a.Value)
	}
}

func (r *renderer) projection(exprs []ast.Expression) {
	for i, e := range exprs {
		if i > 0 {
			r.write(", ")
		}
		r.expr(e)
		if e.Alias != "" {
			r.write(" AS ")
			r.ident(e.Alias)
		}
	}
}

func (r *renderer) exprList(exprs []ast.Expression, sep string) {
	for i, e := range exprs {
		if i > 0 {
			r.write(sep)
		}
		r.expr(e)
	}
}

func (r *renderer) rows(rows []ast.Row) {
	for i, row := range rows {
		if i > 0 {
			r.write(",")
		}
		r.write("(")
		r.exprList(row.Values, ",")
		r.write(")")
	}
}

// target is the table of a mutation: a relation, optionally aliased.
func (r *renderer) target(t ast.Table) {
	r.qualifiedName(t)
	if t.Alias != nil {
		r.write(" AS ")
		r.ident(t.Alias.Name)
	}
}

func (r *renderer) tableSource(t ast.Table) {
	switch {
	case t.Subquery != nil:
		r.write("(")
		r.selectStmt(t.Subquery)
		r.write(")")
	case t.Function != nil:
		r.function(t.Function.Kind)
	default:
		r.qualifiedName(t)
	}
	if t.Alias != nil {
		r.write(" AS ")
		r.ident(t.Alias.Name)
		if len(t.Alias.Columns) > 0 {
			r.identList(t.Alias.Columns)
		}
	}
}

func (r *renderer) qualifiedName(t ast.Table) {
	if t.Schema != "" {
		r.ident(t.Schema)
		r.write(".")
	}
	r.ident(t.Name)
}

// tableRef names t from inside an expression: by alias when it has one.
func (r *renderer) tableRef(t ast.Table) {
	if t.Alias != nil {
		r.ident(t.Alias.Name)
		return
	}
	r.qualifiedName(t)
}

func (r *renderer) column(c ast.Column) {
	if c.Table != nil {
		r.tableRef(*c.Table)
		r.write(".")
	}
	r.ident(c.Name)
}

func (r *renderer) expr(e ast.Expression) {
	switch k := e.Kind.(type) {
	case nil:
		r.write("NULL")
	case ast.Param:
		r.param(k.Value)
	case ast.Raw:
		r.write(k.SQL)
	case ast.Column:
		r.column(k)
	case ast.TableRef:
		r.tableRef(k.Table)
	case ast.Row:
		r.write("(")
		r.exprList(k.Values, ", ")
		r.write(")")
	case ast.Values:
		r.write("VALUES ")
		r.rows(k.Rows)
	case ast.Subquery:
		r.write("(")
		r.selectStmt(k.Select)
		r.write(")")
	case ast.Function:
		r.function(k.Kind)
	case ast.Asterisk:
		if k.Table != nil {
			r.tableRef(*k.Table)
			r.write(".")
		}
		r.write("*")
	case ast.Op:
		r.write("(")
		r.expr(k.Left)
		r.write(" ")
		r.write(k.Operator.Symbol())
		r.write(" ")
		r.expr(k.Right)
		r.write(")")
	case ast.Compare:
		r.compare(k)
	case ast.Case:
		r.caseExpr(k)
	case ast.Default:
		r.write("DEFAULT")
	case ast.NoCondition, ast.NegativeCondition, ast.Single, ast.Conjunction,
		ast.Disjunction, ast.Negation, ast.Exists:
		r.condition(k.(ast.ConditionTree))
	}
}

func (r *renderer) caseExpr(c ast.Case) {
	r.write("CASE")
	for _, w := range c.Whens {
		r.write(" WHEN ")
		r.condition(w.Cond)
		r.write(" THEN ")
		r.expr(w.Then)
	}
	if c.Else != nil {
		r.write(" ELSE ")
		r.expr(*c.Else)
	}
	r.write(" END")
}

// condition writes a tree in expression position. AND and OR are always
// parenthesised, so the grouping chosen at construction is preserved.
func (r *renderer) condition(t ast.ConditionTree) {
	switch t := t.(type) {
	case nil, ast.NoCondition:
		r.write("1=1")
	case ast.NegativeCondition:
		r.write("1=0")
	case ast.Single:
		r.expr(t.Expr)
	case ast.Conjunction:
		r.write("(")
		r.exprList(t.Conds, " AND ")
		r.write(")")
	case ast.Disjunction:
		r.write("(")
		r.exprList(t.Conds, " OR ")
		r.write(")")
	case ast.Negation:
		r.write("(NOT ")
		r.expr(t.Cond)
		r.write(")")
	case ast.Exists:
		r.write("EXISTS (")
		r.selectStmt(t.Select)
		r.write(")")
	}
}

func (r *renderer) binary(c ast.Compare, op string) {
	r.expr(c.Left)
	r.write(op)
	r.expr(c.Right)
}

func isNullParam(e ast.Expression) bool {
	p, ok := e.Kind.(ast.Param)
	return ok && p.Value.IsNull()
}

func (r *renderer) compare(c ast.Compare) {
	switch c.Op {
	case ast.CmpEquals:
		if isNullParam(c.Right) {
			r.expr(c.Left)
			r.write(" IS NULL")
			return
		}
		r.binary(c, " = ")
	case ast.CmpNotEquals:
		if isNullParam(c.Right) {
			r.expr(c.Left)
			r.write(" IS NOT NULL")
			return
		}
		r.binary(c, " <> ")
	case ast.CmpLessThan:
		r.binary(c, " < ")
	case ast.CmpLessThanOrEquals:
		r.binary(c, " <= ")
	case ast.CmpGreaterThan:
		r.binary(c, " > ")
	case ast.CmpGreaterThanOrEquals:
		r.binary(c, " >= ")
	case ast.CmpIsNotDistinctFrom:
		r.binary(c, " IS NOT DISTINCT FROM ")
	case ast.CmpIn:
		r.in(c, false)
	case ast.CmpNotIn:
		r.in(c, true)
	case ast.CmpLike:
		r.like(c, " LIKE ")
	case ast.CmpNotLike:
		r.like(c, " NOT LIKE ")
	case ast.CmpIsNull:
		r.expr(c.Left)
		r.write(" IS NULL")
	case ast.CmpIsNotNull:
		r.expr(c.Left)
		r.write(" IS NOT NULL")
	case ast.CmpBetween:
		r.binary(c, " BETWEEN ")
		r.write(" AND ")
		r.expr(c.Upper)
	case ast.CmpNotBetween:
		r.binary(c, " NOT BETWEEN ")
		r.write(" AND ")
		r.expr(c.Upper)
	case ast.CmpContains:
		r.binary(c, " @> ")
	case ast.CmpContainedBy:
		r.binary(c, " <@ ")
	case ast.CmpNotContains:
		r.write("NOT (")
		r.binary(c, " @> ")
		r.write(")")
	case ast.CmpOverlaps:
		r.binary(c, " && ")
	case ast.CmpJSONTypeEquals, ast.CmpJSONTypeNotEquals:
		r.write("JSONB_TYPEOF(")
		r.expr(c.Left)
		if c.Op == ast.CmpJSONTypeEquals {
			r.write(") = ")
		} else {
			r.write(") <> ")
		}
		r.expr(c.Right)
	case ast.CmpEqualsAny:
		r.expr(c.Left)
		r.write(" = ANY(")
		r.expr(c.Right)
		r.write(")")
	case ast.CmpNotEqualsAll:
		r.expr(c.Left)
		r.write(" <> ALL(")
		r.expr(c.Right)
		r.write(")")
	case ast.CmpRaw:
		r.binary(c, " "+c.Operator+" ")
	}
}

// in renders set membership. Empty sets never reach the database as IN (),
// an array value uses ANY/ALL, and a scalar value degrades to equality.
func (r *renderer) in(c ast.Compare, negate bool) {
	empty := "1=0"
	if negate {
		empty = "1=1"
	}

	switch k := c.Right.Kind.(type) {
	case ast.Row:
		if len(k.Values) == 0 {
			r.write(empty)
			return
		}
	case ast.Values:
		if len(k.Rows) == 0 {
			r.write(empty)
			return
		}
		r.expr(c.Left)
		if negate {
			r.write(" NOT IN (")
		} else {
			r.write(" IN (")
		}
		r.expr(c.Right)
		r.write(")")
		return
	case ast.Param:
		if k.Value.Kind() == ast.KindArray {
			r.expr(c.Left)
			if negate {
				r.write(" <> ALL(")
			} else {
				r.write(" = ANY(")
			}
			r.param(k.Value)
			r.write(")")
			return
		}
		op := ast.CmpEquals
		if negate {
			op = ast.CmpNotEquals
		}
		r.compare(ast.Compare{Op: op, Left: c.Left, Right: c.Right})
		return
	}

	if negate {
		r.binary(c, " NOT IN ")
	} else {
		r.binary(c, " IN ")
	}
}

func (r *renderer) like(c ast.Compare, op string) {
	r.expr(c.Left)
	if c.Left.IsColumn() {
		r.write("::text")
	}
	r.write(op)
	r.expr(c.Right)
}

func (r *renderer) ordering(o ast.Ordering) {
	for i, item := range o {
		if i > 0 {
			r.write(", ")
		}
		r.expr(item.Expr)
		if kw := item.Order.Keyword(); kw != "" {
			r.write(" ")
			r.write(kw)
		}
	}
}

func (r *renderer) over(o ast.Over) {
	r.write("OVER (")
	if len(o.PartitionBy) > 0 {
		r.write("PARTITION BY ")
		r.exprList(o.PartitionBy, ", ")
		if len(o.OrderBy) > 0 {
			r.write(" ")
		}
	}
	if len(o.OrderBy) > 0 {
		r.write("ORDER BY ")
		r.ordering(o.OrderBy)
	}
	r.write(")")
}

func (r *renderer) call(name string, args ...ast.Expression) {
	r.write(name)
	r.write("(")
	r.exprList(args, ", ")
	r.write(")")
}

func (r *renderer) jsonPath(path []string) {
	r.write("ARRAY[")
	for i, p := range path {
		if i > 0 {
			r.write(", ")
		}
		r.param(ast.Val(p))
	}
	r.write("]::text[]")
}

// function dispatches over every function kind. Type names, encode formats
// and charsets are closed sets fixed by construction code and are written as
// text; everything else is an expression.
func (r *renderer) function(k ast.FunctionKind) {
	switch f := k.(type) {
	case ast.CountFunc:
		if len(f.Exprs) == 0 {
			r.write("COUNT(*)")
			return
		}
		r.call("COUNT", f.Exprs...)
	case ast.AvgFunc:
		r.call("AVG", f.Expr)
	case ast.SumFunc:
		r.call("SUM", f.Expr)
	case ast.MinFunc:
		r.call("MIN", f.Expr)
	case ast.MaxFunc:
		r.call("MAX", f.Expr)
	case ast.AggregateToStringFunc:
		r.write("ARRAY_TO_STRING(ARRAY_AGG(")
		r.expr(f.Expr)
		r.write("), ',')")
	case ast.CastFunc:
		r.write("CAST(")
		r.expr(f.Expr)
		r.write(" AS ")
		r.write(string(f.Type))
		r.write(")")
	case ast.CoalesceFunc:
		r.call("COALESCE", f.Exprs...)
	case ast.ConcatFunc:
		r.write("(")
		r.exprList(f.Exprs, " || ")
		r.write(")")
	case ast.LowerFunc:
		r.call("LOWER", f.Expr)
	case ast.UpperFunc:
		r.call("UPPER", f.Expr)
	case ast.ReplaceFunc:
		r.call("REPLACE", f.Expr, f.Pattern, f.Replacement)
	case ast.EncodeFunc:
		r.write("encode(")
		r.expr(f.Expr)
		r.write(", '" + f.Format.Name() + "')")
	case ast.DecodeFunc:
		r.write("decode(")
		r.expr(f.Expr)
		r.write(", '" + f.Format.Name() + "')")
	case ast.ConvertToFunc:
		r.write("convert_to(")
		r.expr(f.Expr)
		r.write(", '" + f.Charset.Name() + "')")
	case ast.ConvertFromFunc:
		r.write("convert_from(")
		r.expr(f.Expr)
		r.write(", '" + f.Charset.Name() + "')")
	case ast.JSONBuildObjectFunc:
		r.write("json_build_object(")
		for i, field := range f.Fields {
			if i > 0 {
				r.write(", ")
			}
			r.param(ast.Val(field.Key))
			r.write("::text, ")
			r.expr(field.Value)
		}
		r.write(")")
	case ast.JSONBuildArrayFunc:
		r.call("json_build_array", f.Exprs...)
	case ast.JSONExtractFunc:
		r.write("(")
		r.expr(f.Expr)
		r.write("#>")
		r.jsonPath(f.Path)
		r.write(")::jsonb")
	case ast.JSONExtractTextFunc:
		r.write("(")
		r.expr(f.Expr)
		r.write("#>>")
		r.jsonPath(f.Path)
		r.write(")")
	case ast.JSONArrayElemFunc:
		r.write("(")
		r.expr(f.Expr)
		r.write("->")
		r.param(ast.Val(f.Index))
		r.write("::integer)")
	case ast.JSONUnquoteFunc:
		r.write("(")
		r.expr(f.Expr)
		r.write("#>>ARRAY[]::text[])")
	case ast.RowToJSONFunc:
		r.write("ROW_TO_JSON(")
		r.tableRef(f.Table)
		if f.Pretty {
			r.write(", true")
		}
		r.write(")")
	case ast.ToJSONBFunc:
		r.write("to_jsonb(")
		r.tableRef(f.Table)
		r.write(".*)")
	case ast.JSONBPopulateRecordFunc:
		r.write("jsonb_populate_record(NULL::")
		r.qualifiedName(f.Table)
		r.write(", ")
		r.expr(f.Expr)
		r.write(")")
	case ast.JSONAggFunc:
		if f.Binary {
			r.write("jsonb_agg(")
		} else {
			r.write("json_agg(")
		}
		if f.Distinct {
			r.write("DISTINCT ")
		}
		r.expr(f.Expr)
		if len(f.OrderBy) > 0 {
			r.write(" ORDER BY ")
			r.ordering(f.OrderBy)
		}
		r.write(")")
	case ast.UnnestFunc:
		r.call("unnest", f.Exprs...)
		if f.WithOrdinality {
			r.write(" WITH ORDINALITY")
		}
	case ast.ArrayPositionFunc:
		r.call("array_position", f.Array, f.Elem)
	case ast.RowNumberFunc:
		r.write("ROW_NUMBER() ")
		r.over(f.Over)
	}
}
