package ast

import "slices"

// Function is a call to one of the supported SQL functions, with an optional
// output alias.
type Function struct {
	Kind  FunctionKind
	Alias string
}

// FunctionKind is the closed set of supported functions. Each variant owns
// its arguments.
//
//sumtype:decl
type FunctionKind interface {
	returnsJSON() bool
}

// ReturnsJSON reports whether the function already produces a JSON value, so
// callers can embed it in a JSON document without wrapping it again.
func (f Function) ReturnsJSON() bool { return f.Kind.returnsJSON() }

// As returns a copy of f with an output alias.
func (f Function) As(alias string) Function {
	f.Alias = alias
	return f
}

// ToExpression implements Expr. The alias moves to the expression.
func (f Function) ToExpression() Expression {
	alias := f.Alias
	f.Alias = ""
	return Expression{Kind: f, Alias: alias}
}

func fn(k FunctionKind) Function { return Function{Kind: k} }

func prepend(first Expr, rest []Expr) []Expression {
	return append([]Expression{first.ToExpression()}, toExpressions(rest)...)
}

// CastType is a target type of CAST. It is written into the SQL text, so it
// must come from construction code.
type CastType string

const (
	CastText        CastType = "text"
	CastInteger     CastType = "integer"
	CastBigint      CastType = "bigint"
	CastNumeric     CastType = "numeric"
	CastBoolean     CastType = "boolean"
	CastJSON        CastType = "json"
	CastJSONB       CastType = "jsonb"
	CastBytea       CastType = "bytea"
	CastUUID        CastType = "uuid"
	CastTimestamptz CastType = "timestamptz"
	CastTextArray   CastType = "text[]"

	CastIntegerArray     CastType = "integer[]"
	CastBigintArray      CastType = "bigint[]"
	CastNumericArray     CastType = "numeric[]"
	CastBooleanArray     CastType = "boolean[]"
	CastByteaArray       CastType = "bytea[]"
	CastUUIDArray        CastType = "uuid[]"
	CastTimestamptzArray CastType = "timestamptz[]"
	CastJSONBArray       CastType = "jsonb[]"
)

// EncodeFormat is the textual format of encode and decode.
type EncodeFormat uint8

const (
	EncodeBase64 EncodeFormat = iota
	EncodeEscape
	EncodeHex
)

// Name returns the format name as Postgres spells it.
func (f EncodeFormat) Name() string {
	switch f {
	case EncodeEscape:
		return "escape"
	case EncodeHex:
		return "hex"
	}
	return "base64"
}

// Charset is a source encoding for convert_from.
type Charset uint8

const (
	CharsetUTF8 Charset = iota
	CharsetLatin1
	CharsetSQLASCII
)

// Name returns the encoding name as Postgres spells it.
func (c Charset) Name() string {
	switch c {
	case CharsetLatin1:
		return "LATIN1"
	case CharsetSQLASCII:
		return "SQL_ASCII"
	}
	return "UTF8"
}

// Aggregates.

// CountFunc is COUNT(*) when Exprs is empty, else COUNT(exprs).
type CountFunc struct{ Exprs []Expression }

// AvgFunc, SumFunc, MinFunc and MaxFunc are the numeric aggregates of the
// same name over one expression.
type (
	AvgFunc struct{ Expr Expression }
	SumFunc struct{ Expr Expression }
	MinFunc struct{ Expr Expression }
	MaxFunc struct{ Expr Expression }
)

// AggregateToStringFunc joins every value of a group with commas.
type AggregateToStringFunc struct{ Expr Expression }

// Scalars.

// CastFunc is CAST(expr AS type).
type CastFunc struct {
	Expr Expression
	Type CastType
}

// CoalesceFunc returns its first non-null argument.
type CoalesceFunc struct{ Exprs []Expression }

// ConcatFunc joins strings with the || operator.
type ConcatFunc struct{ Exprs []Expression }

// LowerFunc and UpperFunc change the case of a string.
type (
	LowerFunc struct{ Expr Expression }
	UpperFunc struct{ Expr Expression }
)

// ReplaceFunc is REPLACE(expr, pattern, replacement). Both the pattern and
// the replacement are expressions, normally bound values.
type ReplaceFunc struct {
	Expr        Expression
	Pattern     Expression
	Replacement Expression
}

// EncodeFunc renders bytea as text in Format.
type EncodeFunc struct {
	Expr   Expression
	Format EncodeFormat
}

// DecodeFunc parses text written in Format back into bytea.
type DecodeFunc struct {
	Expr   Expression
	Format EncodeFormat
}

// ConvertFromFunc reads bytea as text in Charset.
type ConvertFromFunc struct {
	Expr    Expression
	Charset Charset
}

// ConvertToFunc writes text as bytea in Charset.
type ConvertToFunc struct {
	Expr    Expression
	Charset Charset
}

// JSON.

// JSONField is one key of json_build_object.
type JSONField struct {
	Key   string
	Value Expression
}

// JSONBuildObjectFunc is json_build_object. Keys are bound as text.
type JSONBuildObjectFunc struct{ Fields []JSONField }

// JSONBuildArrayFunc is json_build_array.
type JSONBuildArrayFunc struct{ Exprs []Expression }

// JSONExtractFunc is expr #> path, producing jsonb.
type JSONExtractFunc struct {
	Expr Expression
	Path []string
}

// JSONExtractTextFunc is expr #>> path, producing text.
type JSONExtractTextFunc struct {
	Expr Expression
	Path []string
}

// JSONArrayElemFunc is expr -> index. Negative indexes count from the end.
type JSONArrayElemFunc struct {
	Expr  Expression
	Index int64
}

// JSONUnquoteFunc extracts a JSON scalar as text.
type JSONUnquoteFunc struct{ Expr Expression }

// RowToJSONFunc is ROW_TO_JSON of a whole table row.
type RowToJSONFunc struct {
	Table  Table
	Pretty bool
}

// ToJSONBFunc is to_jsonb("t".*).
type ToJSONBFunc struct{ Table Table }

// JSONBPopulateRecordFunc is jsonb_populate_record(NULL::table, expr): the
// keys of the jsonb object expr read as a row of Table, each value parsed
// with the type of its column.
type JSONBPopulateRecordFunc struct {
	Table Table
	Expr  Expression
}

// JSONAggFunc aggregates values into a JSON array. Binary selects jsonb_agg.
type JSONAggFunc struct {
	Expr     Expression
	Distinct bool
	Binary   bool
	OrderBy  Ordering
}

// Arrays and windows.

// UnnestFunc is unnest over one or more arrays. Several arrays are zipped
// into columns of one row set.
type UnnestFunc struct {
	Exprs          []Expression
	WithOrdinality bool
}

// ArrayPositionFunc is array_position(array, elem).
type ArrayPositionFunc struct {
	Array Expression
	Elem  Expression
}

// RowNumberFunc is ROW_NUMBER() over a window.
type RowNumberFunc struct{ Over Over }

func (CountFunc) returnsJSON() bool               { return false }
func (AvgFunc) returnsJSON() bool                 { return false }
func (SumFunc) returnsJSON() bool                 { return false }
func (MinFunc) returnsJSON() bool                 { return false }
func (MaxFunc) returnsJSON() bool                 { return false }
func (AggregateToStringFunc) returnsJSON() bool   { return false }
func (CastFunc) returnsJSON() bool                { return false }
func (CoalesceFunc) returnsJSON() bool            { return false }
func (ConcatFunc) returnsJSON() bool              { return false }
func (LowerFunc) returnsJSON() bool               { return false }
func (UpperFunc) returnsJSON() bool               { return false }
func (ReplaceFunc) returnsJSON() bool             { return false }
func (EncodeFunc) returnsJSON() bool              { return false }
func (DecodeFunc) returnsJSON() bool              { return false }
func (ConvertToFunc) returnsJSON() bool           { return false }
func (ConvertFromFunc) returnsJSON() bool         { return false }
func (JSONBuildObjectFunc) returnsJSON() bool     { return true }
func (JSONBuildArrayFunc) returnsJSON() bool      { return true }
func (JSONExtractFunc) returnsJSON() bool         { return true }
func (JSONExtractTextFunc) returnsJSON() bool     { return false }
func (JSONArrayElemFunc) returnsJSON() bool       { return true }
func (JSONUnquoteFunc) returnsJSON() bool         { return false }
func (RowToJSONFunc) returnsJSON() bool           { return true }
func (ToJSONBFunc) returnsJSON() bool             { return true }
func (JSONAggFunc) returnsJSON() bool             { return true }
func (JSONBPopulateRecordFunc) returnsJSON() bool { return false }
func (UnnestFunc) returnsJSON() bool              { return false }
func (ArrayPositionFunc) returnsJSON() bool       { return false }
func (RowNumberFunc) returnsJSON() bool           { return false }

// CountAll returns COUNT(*).
func CountAll() Function { return fn(CountFunc{}) }

// Count returns COUNT(exprs).
func Count(exprs ...Expr) Function { return fn(CountFunc{Exprs: toExpressions(exprs)}) }

// Avg returns AVG(e).
func Avg(e Expr) Function { return fn(AvgFunc{Expr: e.ToExpression()}) }

// Sum returns SUM(e).
func Sum(e Expr) Function { return fn(SumFunc{Expr: e.ToExpression()}) }

// Min returns MIN(e).
func Min(e Expr) Function { return fn(MinFunc{Expr: e.ToExpression()}) }

// Max returns MAX(e).
func Max(e Expr) Function { return fn(MaxFunc{Expr: e.ToExpression()}) }

// AggregateToString returns ARRAY_TO_STRING(ARRAY_AGG(e), ',').
func AggregateToString(e Expr) Function {
	return fn(AggregateToStringFunc{Expr: e.ToExpression()})
}

// Cast returns CAST(e AS typ).
func Cast(e Expr, typ CastType) Function {
	return fn(CastFunc{Expr: e.ToExpression(), Type: typ})
}

// Coalesce returns COALESCE(first, rest...). At least one argument is
// required.
func Coalesce(first Expr, rest ...Expr) Function {
	return fn(CoalesceFunc{Exprs: prepend(first, rest)})
}

// Concat joins first and rest with ||. At least one argument is required.
func Concat(first Expr, rest ...Expr) Function {
	return fn(ConcatFunc{Exprs: prepend(first, rest)})
}

// Lower returns LOWER(e).
func Lower(e Expr) Function { return fn(LowerFunc{Expr: e.ToExpression()}) }

// Upper returns UPPER(e).
func Upper(e Expr) Function { return fn(UpperFunc{Expr: e.ToExpression()}) }

// Replace returns REPLACE(e, pattern, replacement).
func Replace(e, pattern, replacement Expr) Function {
	return fn(ReplaceFunc{
		Expr:        e.ToExpression(),
		Pattern:     pattern.ToExpression(),
		Replacement: replacement.ToExpression(),
	})
}

// Encode returns encode(e, format), turning bytea into text.
func Encode(e Expr, f EncodeFormat) Function {
	return fn(EncodeFunc{Expr: e.ToExpression(), Format: f})
}

// Decode returns decode(e, format), turning text into bytea.
func Decode(e Expr, f EncodeFormat) Function {
	return fn(DecodeFunc{Expr: e.ToExpression(), Format: f})
}

// ConvertFrom returns convert_from(e, charset), reading bytea as text.
func ConvertFrom(e Expr, c Charset) Function {
	return fn(ConvertFromFunc{Expr: e.ToExpression(), Charset: c})
}

// ConvertTo returns convert_to(e, charset), writing text as bytea.
func ConvertTo(e Expr, c Charset) Function {
	return fn(ConvertToFunc{Expr: e.ToExpression(), Charset: c})
}

// Field builds one key of a JSON object.
func Field(key string, value Expr) JSONField {
	return JSONField{Key: key, Value: value.ToExpression()}
}

// JSONBuildObject returns json_build_object over fields in order.
func JSONBuildObject(fields ...JSONField) Function {
	return fn(JSONBuildObjectFunc{Fields: slices.Clone(fields)})
}

// JSONBuildArray returns json_build_array(exprs...).
func JSONBuildArray(exprs ...Expr) Function {
	return fn(JSONBuildArrayFunc{Exprs: toExpressions(exprs)})
}

// JSONExtract returns the jsonb at path inside e.
func JSONExtract(e Expr, path ...string) Function {
	return fn(JSONExtractFunc{Expr: e.ToExpression(), Path: slices.Clone(path)})
}

// JSONExtractText returns the value at path inside e as text.
func JSONExtractText(e Expr, path ...string) Function {
	return fn(JSONExtractTextFunc{Expr: e.ToExpression(), Path: slices.Clone(path)})
}

// JSONArrayElem returns the element of the JSON array e at index. Negative
// indexes count from the end.
func JSONArrayElem(e Expr, index int64) Function {
	return fn(JSONArrayElemFunc{Expr: e.ToExpression(), Index: index})
}

// JSONFirstElem returns the first element of the JSON array e.
func JSONFirstElem(e Expr) Function { return JSONArrayElem(e, 0) }

// JSONLastElem returns the last element of the JSON array e.
func JSONLastElem(e Expr) Function { return JSONArrayElem(e, -1) }

// JSONUnquote returns the JSON scalar e as text.
func JSONUnquote(e Expr) Function { return fn(JSONUnquoteFunc{Expr: e.ToExpression()}) }

// RowToJSON returns ROW_TO_JSON(t).
func RowToJSON(t Table, pretty bool) Function {
	return fn(RowToJSONFunc{Table: t, Pretty: pretty})
}

// ToJSONB returns to_jsonb(t.*).
func ToJSONB(t Table) Function { return fn(ToJSONBFunc{Table: t}) }

// JSONBPopulateRecord reads the jsonb object e as a row of t. Use it as a
// table source with FromFunction.
func JSONBPopulateRecord(t Table, e Expr) Function {
	return fn(JSONBPopulateRecordFunc{Table: t, Expr: e.ToExpression()})
}

// JSONAgg returns json_agg(e ORDER BY ...).
func JSONAgg(e Expr, order Ordering) Function {
	return fn(JSONAggFunc{Expr: e.ToExpression(), OrderBy: order})
}

// JSONBAgg returns jsonb_agg([DISTINCT] e ORDER BY ...).
func JSONBAgg(e Expr, order Ordering, distinct bool) Function {
	return fn(JSONAggFunc{Expr: e.ToExpression(), OrderBy: order, Distinct: distinct, Binary: true})
}

// Unnest expands the array e into rows. WITH ORDINALITY adds a trailing
// bigint column numbering the elements from 1.
func Unnest(e Expr, withOrdinality bool) Function {
	return fn(UnnestFunc{Exprs: []Expression{e.ToExpression()}, WithOrdinality: withOrdinality})
}

// UnnestZip expands several arrays side by side: row i holds element i of
// every array, padded with NULL where an array is shorter.
func UnnestZip(withOrdinality bool, first Expr, rest ...Expr) Function {
	return fn(UnnestFunc{Exprs: prepend(first, rest), WithOrdinality: withOrdinality})
}

// ArrayPosition returns the 1-based index of elem in array, or NULL.
func ArrayPosition(array, elem Expr) Function {
	return fn(ArrayPositionFunc{Array: array.ToExpression(), Elem: elem.ToExpression()})
}

// RowNumber returns ROW_NUMBER() OVER (...).
func RowNumber(over Over) Function { return fn(RowNumberFunc{Over: over}) }
