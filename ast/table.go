package ast

import (
	"fmt"
	"slices"
)

// Alias names a table source, optionally renaming its columns.
type Alias struct {
	Name    string
	Columns []string
}

// Table is a FROM source: a relation, a subquery or a set-returning
// function, optionally schema qualified and aliased.
type Table struct {
	Schema   string
	Name     string
	Subquery *Select
	Function *Function
	Alias    *Alias
}

// NewTable references a relation by name.
func NewTable(name string) Table {
	return Table{Name: name}
}

// SchemaTable references a schema-qualified relation.
func SchemaTable(schema, name string) Table {
	return Table{Schema: schema, Name: name}
}

// FromSelect uses a select as a table source. Postgres requires such a
// source to be aliased.
func FromSelect(s *Select, alias string) Table {
	return Table{Subquery: s, Alias: &Alias{Name: alias}}
}

// FromFunction uses a set-returning function, such as unnest, as a table
// source.
func FromFunction(f Function, alias string, columns ...string) Table {
	f.Alias = ""
	return Table{Function: &f, Alias: &Alias{Name: alias, Columns: slices.Clone(columns)}}
}

// As returns a copy of t aliased by name.
func (t Table) As(alias string) Table {
	t.Alias = &Alias{Name: alias}
	return t
}

// AliasColumns returns a copy of t aliased by name with an explicit column
// list. For a subquery source the list must match the projection arity.
func (t Table) AliasColumns(alias string, columns ...string) (Table, error) {
	if t.Subquery != nil {
		if n, ok := t.Subquery.arity(); ok && n != len(columns) {
			return Table{}, fmt.Errorf("%w: %q has %d columns, projection has %d",
				ErrAliasArity, alias, len(columns), n)
		}
	}
	t.Alias = &Alias{Name: alias, Columns: slices.Clone(columns)}
	return t, nil
}

// Reference returns the name other expressions use for t: the alias when
// present, else the relation name.
func (t Table) Reference() string {
	if t.Alias != nil {
		return t.Alias.Name
	}
	return t.Name
}

// Col returns a column qualified by t.
func (t Table) Col(name string) Column {
	return Column{Name: name, Table: &t}
}

// ToExpression implements Expr.
func (t Table) ToExpression() Expression {
	return Expression{Kind: TableRef{Table: t}}
}

func sameTable(a, b Table) bool {
	if a.Schema != b.Schema || a.Name != b.Name || a.Subquery != b.Subquery || a.Function != b.Function {
		return false
	}
	if (a.Alias == nil) != (b.Alias == nil) {
		return false
	}
	return a.Alias == nil || (a.Alias.Name == b.Alias.Name && slices.Equal(a.Alias.Columns, b.Alias.Columns))
}

// Column references a column by name, optionally qualified by a table and
// carrying an output alias.
type Column struct {
	Name  string
	Table *Table
	Alias string
}

// Col references an unqualified column.
func Col(name string) Column {
	return Column{Name: name}
}

// TableCol references table.name, where table is a relation name or alias.
func TableCol(table, name string) Column {
	t := NewTable(table)
	return Column{Name: name, Table: &t}
}

// Of returns a copy of c qualified by t.
func (c Column) Of(t Table) Column {
	c.Table = &t
	return c
}

// As returns a copy of c with an output alias.
func (c Column) As(alias string) Column {
	c.Alias = alias
	return c
}

// ToExpression implements Expr. The alias moves to the expression.
func (c Column) ToExpression() Expression {
	alias := c.Alias
	c.Alias = ""
	return Expression{Kind: c, Alias: alias}
}

// Excluded references a column of the row proposed for insertion inside
// ON CONFLICT DO UPDATE.
func Excluded(name string) Column {
	return TableCol("excluded", name)
}
