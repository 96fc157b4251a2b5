// Package resolve turns resolved GraphQL operations into statement trees.
//
// Names arrive already mapped to database identifiers: the caller owns the
// schema catalog and this package never checks that a table or column
// exists. Every read returns its rows as JSON documents in a single column
// named "root", so the result of any operation can be scanned the same way.
package resolve

import (
	"fmt"

	"github.com/pthm/sqlast/ast"
)

const (
	rootColumn = "root"
	rowColumn  = "__row"
	ordColumn  = "ord"
)

// Table is a relation by its database name.
type Table struct {
	Schema string `json:"schema,omitempty"`
	Name   string `json:"name"`
}

// source returns the table aliased for use in FROM.
func (t Table) source(alias string) ast.Table {
	return ast.SchemaTable(t.Schema, t.Name).As(alias)
}

func (t Table) relation() ast.Table {
	return ast.SchemaTable(t.Schema, t.Name)
}

// stagingName names the CTE that stages a mutation before its rows are
// shaped into JSON, e.g. public_users_update.
func (t Table) stagingName(verb string) string {
	if t.Schema == "" {
		return t.Name + "_" + verb
	}
	return t.Schema + "_" + t.Name + "_" + verb
}

// Selection is the ordered list of fields of one JSON object.
type Selection struct {
	Fields []Field `json:"fields"`
}

// Field is one key of a selected object. It reads either a column of the
// current table or a nested relation.
type Field struct {
	// Name is the key in the JSON object.
	Name string `json:"name"`

	// Column defaults to Name.
	Column string `json:"column,omitempty"`

	// Binary columns are returned base64 encoded.
	Binary bool `json:"binary,omitempty"`

	// Enum renames the labels of an enum column.
	Enum *EnumField `json:"enum,omitempty"`

	Relation *Relation `json:"relation,omitempty"`
}

// EnumField renames the labels of an enum column, or of every element of an
// enum array, as they are read. Labels without a variant are returned as
// stored.
type EnumField struct {
	Variants []EnumVariant `json:"variants,omitempty"`
	Array    bool          `json:"array,omitempty"`
}

// EnumVariant maps a database label to the name it is returned as.
type EnumVariant struct {
	Label string `json:"label"`
	Name  string `json:"name"`
}

// rename maps the label v to its variant name:
//
//	CASE WHEN CAST(v AS text) = $label THEN $name ... ELSE CAST(v AS text) END
func (e *EnumField) rename(v ast.Expr) ast.Expr {
	text := ast.Cast(v, ast.CastText)
	if len(e.Variants) == 0 {
		return text
	}
	var c ast.Case
	for _, variant := range e.Variants {
		c = c.When(text.Equals(ast.Val(variant.Label)), ast.Val(variant.Name))
	}
	return c.Otherwise(text)
}

// unnest renames every element of the array col, keeping element order:
//
//	(SELECT json_agg(CASE ... END ORDER BY "a"."ord") FROM unnest(col) WITH ORDINALITY AS "a"("a","ord"))
//
// A NULL or empty array reads as NULL.
func (e *EnumField) unnest(col ast.Column, alias string) *ast.Select {
	src := ast.FromFunction(ast.Unnest(col, true), alias, alias, ordColumn)
	order := ast.Ordering{ast.OrderBy(ast.TableCol(alias, ordColumn), ast.Asc)}
	return ast.SelectFrom(src).
		Value(ast.JSONAgg(e.rename(ast.TableCol(alias, alias)), order))
}

func (f Field) validate() error {
	switch {
	case f.Name == "":
		return fmt.Errorf("%w: field without a name", ErrUnsupportedShape)
	case f.Relation != nil && (f.Binary || f.Enum != nil):
		return fmt.Errorf("%w: relation %q cannot be binary or an enum", ErrUnsupportedShape, f.Name)
	case f.Binary && f.Enum != nil:
		return fmt.Errorf("%w: field %q is both binary and an enum", ErrUnsupportedShape, f.Name)
	}
	if f.Enum != nil {
		for _, v := range f.Enum.Variants {
			if v.Label == "" || v.Name == "" {
				return fmt.Errorf("%w: enum field %q has a variant without a label or name", ErrUnsupportedShape, f.Name)
			}
		}
	}
	return nil
}

func (f Field) column() string {
	if f.Column != "" {
		return f.Column
	}
	return f.Name
}

// value reads the field from col, encoding binary data as text and renaming
// enum labels.
func (f Field) value(col ast.Column) ast.Expr {
	switch {
	case f.Binary:
		return ast.Encode(col, ast.EncodeBase64)
	case f.Enum != nil && f.Enum.Array:
		return f.Enum.unnest(col, "unnest_"+f.column())
	case f.Enum != nil:
		return f.Enum.rename(col)
	}
	return col
}

// hasRelation reports whether any field of s is a relation.
func (s Selection) hasRelation() bool {
	for _, f := range s.Fields {
		if f.Relation != nil {
			return true
		}
	}
	return false
}

// columns returns the distinct database columns read by s, in order.
func (s Selection) columns() []string {
	seen := make(map[string]bool, len(s.Fields))
	var out []string
	for _, f := range s.Fields {
		c := f.column()
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Relation is a nested selection of rows of another table, correlated to
// the parent row by column equality.
type Relation struct {
	Table Table `json:"table"`

	// Unique relations (many-to-one, one-to-one) nest a single object or
	// null; the others nest an array.
	Unique bool `json:"unique,omitempty"`

	On        []JoinOn       `json:"on"`
	Filter    *Filter        `json:"filter,omitempty"`
	Args      CollectionArgs `json:"args,omitzero"`
	Selection Selection      `json:"selection"`
}

// JoinOn pairs a parent column with a column of the related table.
type JoinOn struct {
	Parent  string `json:"parent"`
	Related string `json:"related"`
}

// Direction is an ordering direction as written in requests.
type Direction string

const (
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

// OrderBy orders a collection by one column.
type OrderBy struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction,omitempty"`
}

// CollectionArgs limit and order the rows of a collection. First and Last
// are mutually exclusive; Last requires an ordering. Before and After are
// cursors and only apply to connections.
type CollectionArgs struct {
	First   *int64    `json:"first,omitempty"`
	Last    *int64    `json:"last,omitempty"`
	Offset  *int64    `json:"offset,omitempty"`
	OrderBy []OrderBy `json:"orderBy,omitempty"`
	Before  *string   `json:"before,omitempty"`
	After   *string   `json:"after,omitempty"`
}

// validate checks the arguments of a plain list.
func (a CollectionArgs) validate() error {
	if a.Before != nil || a.After != nil {
		return fmt.Errorf("%w: before and after need a connection", ErrInvalidPagination)
	}
	if a.Last != nil && len(a.OrderBy) == 0 {
		return fmt.Errorf("%w: last requires orderBy", ErrInvalidPagination)
	}
	return a.validateCommon()
}

func (a CollectionArgs) validateCommon() error {
	switch {
	case a.First != nil && a.Last != nil:
		return fmt.Errorf("%w: first and last are mutually exclusive", ErrInvalidPagination)
	case a.First != nil && *a.First < 0, a.Last != nil && *a.Last < 0, a.Offset != nil && *a.Offset < 0:
		return fmt.Errorf("%w: negative limit or offset", ErrInvalidPagination)
	}
	for _, o := range a.OrderBy {
		if o.Column == "" {
			return fmt.Errorf("%w: orderBy without a column", ErrInvalidPagination)
		}
		if o.Direction != "" && o.Direction != DirectionAsc && o.Direction != DirectionDesc {
			return fmt.Errorf("%w: unknown direction %q", ErrInvalidPagination, o.Direction)
		}
	}
	return nil
}

// ordering returns the requested ordering with columns qualified by alias.
func (a CollectionArgs) ordering(alias string) ast.Ordering {
	out := make(ast.Ordering, 0, len(a.OrderBy))
	for _, o := range a.OrderBy {
		dir := ast.Asc
		if o.Direction == DirectionDesc {
			dir = ast.Desc
		}
		out = append(out, ast.OrderBy(ast.TableCol(alias, o.Column), dir))
	}
	return out
}

// Returning describes what a mutation gives back. With neither field set the
// statement returns nothing.
type Returning struct {
	// Selection shapes every affected row into a JSON object in "root".
	Selection *Selection `json:"selection,omitempty"`

	// Columns returns plain columns.
	Columns []string `json:"columns,omitempty"`
}

func (r Returning) validate() error {
	if r.Selection != nil && len(r.Columns) > 0 {
		return fmt.Errorf("%w: returning both a selection and columns", ErrUnsupportedShape)
	}
	if r.Selection != nil && r.Selection.hasRelation() {
		return fmt.Errorf("%w: relations in the returning selection of a mutation", ErrUnsupportedShape)
	}
	if r.Selection != nil {
		for _, f := range r.Selection.Fields {
			if err := f.validate(); err != nil {
				return err
			}
		}
	}
	return nil
}
