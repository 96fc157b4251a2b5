package resolve

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pthm/sqlast/ast"
)

// Names of the staged steps of a connection query.
const (
	decodedCursor = "DecodedCursor"
	cursorValues  = "CursorValues"
	filteredRows  = "Filtered"
	pageNodes     = "Nodes"

	cursorColumn = "cursor"
	nodeColumn   = "node"
)

// Connection selects a collection as a page of edges, each with an opaque
// cursor and a node, plus page info:
//
//	{"edges": [{"cursor": "...", "node": {...}}], "pageInfo": {"hasNextPage": true, ...}}
type Connection struct {
	// Key lists columns that make the ordering total, normally the primary
	// key. They are appended to orderBy, ascending, unless already ordered
	// by.
	Key []string `json:"key,omitempty"`

	Edges    *Edges    `json:"edges,omitempty"`
	PageInfo *PageInfo `json:"pageInfo,omitempty"`
}

// Edges selects the parts of each edge.
type Edges struct {
	Cursor bool       `json:"cursor,omitempty"`
	Node   *Selection `json:"node,omitempty"`
}

// PageInfo selects the keys of the page info object.
type PageInfo struct {
	HasNextPage     bool `json:"hasNextPage,omitempty"`
	HasPreviousPage bool `json:"hasPreviousPage,omitempty"`
	StartCursor     bool `json:"startCursor,omitempty"`
	EndCursor       bool `json:"endCursor,omitempty"`
}

// orderColumn is one column of a connection ordering.
type orderColumn struct {
	name string
	desc bool
}

func (c Connection) ordering(args CollectionArgs) []orderColumn {
	var out []orderColumn
	seen := make(map[string]bool)
	for _, o := range args.OrderBy {
		if !seen[o.Column] {
			seen[o.Column] = true
			out = append(out, orderColumn{name: o.Column, desc: o.Direction == DirectionDesc})
		}
	}
	for _, k := range c.Key {
		if !seen[k] {
			seen[k] = true
			out = append(out, orderColumn{name: k})
		}
	}
	return out
}

func (c Connection) validate(args CollectionArgs) error {
	if err := args.validateCommon(); err != nil {
		return err
	}
	if args.Before != nil && args.After != nil {
		return fmt.Errorf("%w: before and after are mutually exclusive", ErrInvalidPagination)
	}
	for _, k := range c.Key {
		if k == "" {
			return fmt.Errorf("%w: empty key column", ErrInvalidPagination)
		}
	}
	if len(c.ordering(args)) == 0 {
		return fmt.Errorf("%w: a connection needs orderBy or key", ErrInvalidPagination)
	}
	if c.Edges == nil && c.PageInfo == nil {
		return fmt.Errorf("%w: connection selects neither edges nor pageInfo", ErrUnsupportedShape)
	}
	return nil
}

// EncodeCursor builds the cursor of a row from its ordering values, keyed by
// column. It is the Go side of the cursor column of a connection and is
// mostly useful in tests and clients that page from a known row.
func EncodeCursor(values map[string]any) (string, error) {
	doc, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPagination, err)
	}
	return base64.StdEncoding.EncodeToString(doc), nil
}

// checkCursor verifies that cursor is base64 encoded JSON carrying a value
// for every ordering column. Postgres wraps base64 output in lines, so line
// breaks are ignored.
func checkCursor(cursor string, order []orderColumn) error {
	raw, err := base64.StdEncoding.DecodeString(strings.NewReplacer("\n", "", "\r", "").Replace(cursor))
	if err != nil {
		return fmt.Errorf("%w: cursor is not base64: %w", ErrInvalidPagination, err)
	}
	var values map[string]json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("%w: cursor is not a JSON object: %w", ErrInvalidPagination, err)
	}
	for _, o := range order {
		if _, ok := values[o.name]; !ok {
			return fmt.Errorf("%w: cursor has no value for %q", ErrInvalidPagination, o.name)
		}
	}
	return nil
}

// beyond holds for rows strictly past cur when walking v in the given
// direction. NULL sorts last ascending and first descending, as Postgres
// does by default.
func beyond(v, cur ast.Column, ascending bool) ast.ConditionTree {
	if ascending {
		return ast.Or(v.GreaterThan(cur), ast.And(v.IsNull(), cur.IsNotNull()))
	}
	return ast.Or(v.LessThan(cur), ast.And(v.IsNotNull(), cur.IsNull()))
}

// cursorCondition selects the rows after (or before) the cursor row in the
// requested order, comparing column by column:
//
//	(a beyond) OR (a same AND b beyond) OR ...
func cursorCondition(alias string, order []orderColumn, after bool) ast.ConditionTree {
	branches := make([]ast.Expr, 0, len(order))
	for i, o := range order {
		conds := make([]ast.Expr, 0, i+1)
		for _, prev := range order[:i] {
			conds = append(conds, ast.TableCol(alias, prev.name).IsNotDistinctFrom(ast.TableCol(cursorValues, prev.name)))
		}
		ascending := !o.desc
		if !after {
			ascending = !ascending
		}
		conds = append(conds, beyond(ast.TableCol(alias, o.name), ast.TableCol(cursorValues, o.name), ascending))
		branches = append(branches, ast.And(conds...))
	}
	return ast.Or(branches...)
}

// cursorOf encodes the ordering values of the current row:
//
//	encode(convert_to(CAST(json_build_object(...) AS text), 'UTF8'), 'base64')
func cursorOf(alias string, order []orderColumn) ast.Function {
	fields := make([]ast.JSONField, len(order))
	for i, o := range order {
		fields[i] = ast.Field(o.name, ast.TableCol(alias, o.name))
	}
	text := ast.Cast(ast.JSONBuildObject(fields...), ast.CastText)
	return ast.Encode(ast.ConvertTo(text, ast.CharsetUTF8), ast.EncodeBase64)
}

// FindConnection selects a page of t as a connection object in "root". The
// page is staged in common table expressions:
//
//	DecodedCursor  the before or after cursor as jsonb
//	CursorValues   the cursor read as a row of t
//	Filtered       matching rows past the cursor, one more than requested
//	Nodes          the requested rows
//
// With Last the rows are scanned backwards from the end (or from the before
// cursor) and edges are returned in the requested order. The extra row of
// Filtered tells whether another page follows in the direction of the scan.
func FindConnection(t Table, filter *Filter, args CollectionArgs, conn Connection) (*ast.Select, error) {
	if err := conn.validate(args); err != nil {
		return nil, err
	}

	alias := t.Name
	order := conn.ordering(args)

	cond, err := filter.condition(qualified(alias))
	if err != nil {
		return nil, err
	}

	var ctes []ast.CommonTableExpression
	cursor, after := args.After, true
	if args.Before != nil {
		cursor, after = args.Before, false
	}
	from := ast.SelectFrom(t.source(alias))

	if cursor != nil {
		if err := checkCursor(*cursor, order); err != nil {
			return nil, err
		}
		decoded := ast.NewCTE(decodedCursor, ast.SelectValues(
			ast.Cast(ast.ConvertFrom(ast.Decode(ast.Val(*cursor), ast.EncodeBase64), ast.CharsetUTF8), ast.CastJSONB).
				As(cursorColumn),
		))
		values := ast.NewCTE(cursorValues, ast.SelectFrom(decoded.Table()).
			From(ast.FromFunction(
				ast.JSONBPopulateRecord(t.relation(), ast.TableCol(decodedCursor, cursorColumn)),
				"cursor_row",
			)).
			Value(ast.TableStar(ast.NewTable("cursor_row"))))
		ctes = append(ctes, decoded, values)

		from.From(values.Table())
		cond = ast.And(cond, cursorCondition(alias, order, after))
	}

	backward := args.Last != nil
	inner := make(ast.Ordering, len(order))
	for i, o := range order {
		dir := ast.Asc
		if o.desc != backward {
			dir = ast.Desc
		}
		inner[i] = ast.OrderBy(ast.TableCol(alias, o.name), dir)
	}

	var limit *int64
	switch {
	case args.First != nil:
		limit = args.First
	case args.Last != nil:
		limit = args.Last
	}

	if conn.Edges != nil && conn.Edges.Node != nil {
		node, err := object(alias, *conn.Edges.Node)
		if err != nil {
			return nil, err
		}
		from.Value(node.As(nodeColumn))
	}
	from.Value(cursorOf(alias, order).As(cursorColumn)).
		Value(ast.RowNumber(ast.Window(inner)).As(rowColumn)).
		Where(cond).
		OrderBy(inner...)
	if limit != nil {
		from.Limit(*limit + 1)
	}
	if args.Offset != nil {
		from.Offset(*args.Offset)
	}
	filtered := ast.NewCTE(filteredRows, from)

	nodes := ast.SelectFrom(filtered.Table()).
		Value(ast.TableStar(filtered.Table())).
		OrderBy(ast.OrderBy(ast.TableCol(filteredRows, rowColumn), ast.Asc))
	if limit != nil {
		nodes.Limit(*limit)
	}
	ctes = append(ctes, filtered, ast.NewCTE(pageNodes, nodes))

	// Edges come out in the requested order, which is the scan order
	// reversed when scanning backwards.
	first, last := ast.Asc, ast.Desc
	if backward {
		first, last = ast.Desc, ast.Asc
	}

	var fields []ast.JSONField
	if conn.Edges != nil {
		fields = append(fields, ast.Field("edges", edgesOf(*conn.Edges, first)))
	}
	if conn.PageInfo != nil {
		fields = append(fields, ast.Field("pageInfo", pageInfoOf(*conn.PageInfo, limit, backward, first, last)))
	}

	q := ast.SelectValues(ast.JSONBuildObject(fields...).As(rootColumn))
	for _, cte := range ctes {
		q.With(cte)
	}
	return q, nil
}

func nodesCol(name string) ast.Column { return ast.TableCol(pageNodes, name) }

// edgesOf aggregates the staged nodes into the edges array.
func edgesOf(e Edges, order ast.Order) *ast.Select {
	var fields []ast.JSONField
	if e.Cursor {
		fields = append(fields, ast.Field(cursorColumn, nodesCol(cursorColumn)))
	}
	if e.Node != nil {
		fields = append(fields, ast.Field(nodeColumn, nodesCol(nodeColumn)))
	}
	agg := ast.Coalesce(
		ast.JSONAgg(ast.JSONBuildObject(fields...), ast.Ordering{ast.OrderBy(nodesCol(rowColumn), order)}),
		ast.Cast(ast.Val("[]"), ast.CastJSON),
	)
	return ast.SelectFrom(ast.NewTable(pageNodes)).Value(agg)
}

// pageInfoOf builds the page info object. Only the direction of the scan is
// known to have more rows; the other direction reports false.
func pageInfoOf(p PageInfo, limit *int64, backward bool, first, last ast.Order) ast.Function {
	more := func(scan bool) ast.Expr {
		if limit == nil || scan != backward {
			return ast.Cast(ast.Val(false), ast.CastBoolean)
		}
		count := ast.SelectFrom(ast.NewTable(filteredRows)).Value(ast.CountAll())
		return ast.Sub(count).GreaterThan(ast.Val(*limit))
	}
	edgeCursor := func(o ast.Order) *ast.Select {
		return ast.SelectFrom(ast.NewTable(pageNodes)).
			Column(nodesCol(cursorColumn)).
			OrderBy(ast.OrderBy(nodesCol(rowColumn), o)).
			Limit(1)
	}

	var fields []ast.JSONField
	if p.HasNextPage {
		fields = append(fields, ast.Field("hasNextPage", more(false)))
	}
	if p.HasPreviousPage {
		fields = append(fields, ast.Field("hasPreviousPage", more(true)))
	}
	if p.StartCursor {
		fields = append(fields, ast.Field("startCursor", edgeCursor(first)))
	}
	if p.EndCursor {
		fields = append(fields, ast.Field("endCursor", edgeCursor(last)))
	}
	return ast.JSONBuildObject(fields...)
}
