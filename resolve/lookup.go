package resolve

import (
	"fmt"

	"github.com/pthm/sqlast/ast"
)

const (
	lookupInput = "input_order"
	lookupRows  = "final_data"
)

// LookupKey is one key column of a batch lookup. Values holds one value per
// requested row; every key of a lookup has the same number of values, and
// row i of a composite lookup is made of value i of each key.
type LookupKey struct {
	Column string `json:"column"`
	Values []any  `json:"values"`

	// Type is the column type the values are sent as, such as uuid. It
	// defaults to the type of the values themselves.
	Type string `json:"type,omitempty"`

	// Enum binds the values as labels of a database enum type.
	Enum *ast.EnumType `json:"enum,omitempty"`
}

// lookupTypes maps the accepted key types to the array cast of the values.
var lookupTypes = map[string]ast.CastType{
	"text":        ast.CastTextArray,
	"integer":     ast.CastIntegerArray,
	"bigint":      ast.CastBigintArray,
	"numeric":     ast.CastNumericArray,
	"boolean":     ast.CastBooleanArray,
	"bytea":       ast.CastByteaArray,
	"uuid":        ast.CastUUIDArray,
	"timestamptz": ast.CastTimestamptzArray,
	"jsonb":       ast.CastJSONBArray,
}

var elemCasts = map[ast.ValueKind]ast.CastType{
	ast.KindText:      ast.CastTextArray,
	ast.KindInt:       ast.CastBigintArray,
	ast.KindFloat:     ast.CastNumericArray,
	ast.KindBool:      ast.CastBooleanArray,
	ast.KindBytes:     ast.CastByteaArray,
	ast.KindUUID:      ast.CastUUIDArray,
	ast.KindTimestamp: ast.CastTimestamptzArray,
	ast.KindJSON:      ast.CastJSONBArray,
}

// array binds the values of k as one typed array.
func (k LookupKey) array() (ast.Expr, error) {
	if k.Enum != nil {
		v, err := enumValue(*k.Enum, k.Values)
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %w", ErrInvalidInput, k.Column, err)
		}
		return v, nil
	}

	v, err := ast.ValueOf(k.Values)
	if err != nil {
		return nil, fmt.Errorf("%w: key %q: %w", ErrInvalidInput, k.Column, err)
	}

	cast, ok := elemCasts[v.ElemKind()]
	if k.Type != "" {
		cast, ok = lookupTypes[k.Type]
		if !ok {
			return nil, fmt.Errorf("%w: key %q has unsupported type %q", ErrInvalidInput, k.Column, k.Type)
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: key %q values of kind %s", ErrInvalidInput, k.Column, v.ElemKind())
	}
	return ast.Cast(v, cast), nil
}

// Lookup selects one object of t per requested key, as one JSON array in
// "root" that follows the request order. A key matching no row yields null
// at its position, and a lookup of no keys is the empty array.
//
//	SELECT COALESCE(json_agg("final_data"."root" ORDER BY "final_data"."ord"), CAST($n AS json)) AS "root"
//	FROM (SELECT (SELECT json_build_object(...) FROM "t" AS "t" WHERE "t"."id" = "input_order"."id" LIMIT $k) AS "root",
//	             "input_order"."ord"
//	      FROM unnest(CAST($1 AS bigint[])) WITH ORDINALITY AS "input_order"("id","ord")) AS "final_data"
func Lookup(t Table, keys []LookupKey, sel Selection) (*ast.Select, error) {
	if len(keys) == 0 || len(keys[0].Values) == 0 {
		for _, k := range keys {
			if len(k.Values) != 0 {
				return nil, fmt.Errorf("%w: lookup keys of %q have different lengths", ErrInvalidInput, t.Name)
			}
		}
		return ast.SelectValues(ast.Cast(ast.Val("[]"), ast.CastJSON).As(rootColumn)), nil
	}

	alias := t.Name
	var (
		arrays  []ast.Expr
		columns []string
		match   []ast.Expr
	)
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		switch {
		case k.Column == "":
			return nil, fmt.Errorf("%w: lookup key without a column", ErrInvalidInput)
		case seen[k.Column]:
			return nil, fmt.Errorf("%w: lookup key %q given twice", ErrInvalidInput, k.Column)
		case len(k.Values) != len(keys[0].Values):
			return nil, fmt.Errorf("%w: lookup keys of %q have different lengths", ErrInvalidInput, t.Name)
		}
		seen[k.Column] = true

		arr, err := k.array()
		if err != nil {
			return nil, err
		}
		arrays = append(arrays, arr)
		columns = append(columns, k.Column)
		match = append(match, ast.TableCol(alias, k.Column).Equals(ast.TableCol(lookupInput, k.Column)))
	}

	obj, err := object(alias, sel)
	if err != nil {
		return nil, err
	}

	row := ast.SelectFrom(t.source(alias)).
		Value(obj).
		Where(ast.And(match...)).
		Limit(1)

	input := ast.FromFunction(ast.UnnestZip(true, arrays[0], arrays[1:]...),
		lookupInput, append(columns, ordColumn)...)

	rows := ast.SelectFrom(input).
		Value(ast.As(row, rootColumn)).
		Column(ast.TableCol(lookupInput, ordColumn))

	order := ast.Ordering{ast.OrderBy(ast.TableCol(lookupRows, ordColumn), ast.Asc)}
	agg := ast.Coalesce(
		ast.JSONAgg(ast.TableCol(lookupRows, rootColumn), order),
		ast.Cast(ast.Val("[]"), ast.CastJSON),
	)

	return ast.SelectFrom(ast.FromSelect(rows, lookupRows)).Value(agg.As(rootColumn)), nil
}
