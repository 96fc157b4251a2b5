package resolve

import (
	"fmt"

	"github.com/pthm/sqlast/ast"
)

// ColumnValue is one column of an inserted row.
type ColumnValue struct {
	Column string `json:"column"`
	Value  any    `json:"value,omitempty"`

	// Enum binds the value as a label of a database enum type.
	Enum *ast.EnumType `json:"enum,omitempty"`

	// Default writes the column default instead of Value.
	Default bool `json:"default,omitempty"`
}

func (c ColumnValue) expr() (ast.Expr, error) {
	if c.Default {
		return ast.DefaultValue(), nil
	}
	return bind(c.Column, c.Value, c.Enum)
}

func bind(column string, v any, enum *ast.EnumType) (ast.Value, error) {
	var (
		val ast.Value
		err error
	)
	if enum != nil {
		val, err = enumValue(*enum, v)
	} else {
		val, err = ast.ValueOf(v)
	}
	if err != nil {
		return ast.Value{}, fmt.Errorf("%w: column %q: %w", ErrInvalidInput, column, err)
	}
	return val, nil
}

// UpdateKind is an update operation as written in requests.
type UpdateKind string

const (
	UpdateSet          UpdateKind = "set"
	UpdateIncrement    UpdateKind = "increment"
	UpdateDecrement    UpdateKind = "decrement"
	UpdateMultiply     UpdateKind = "multiply"
	UpdateDivide       UpdateKind = "divide"
	UpdateAppend       UpdateKind = "append"
	UpdatePrepend      UpdateKind = "prepend"
	UpdateDeleteKey    UpdateKind = "deleteKey"
	UpdateDeleteAtPath UpdateKind = "deleteAtPath"
)

// UpdateOp assigns one column. Op defaults to set.
type UpdateOp struct {
	Column string        `json:"column"`
	Op     UpdateKind    `json:"op,omitempty"`
	Value  any           `json:"value,omitempty"`
	Enum   *ast.EnumType `json:"enum,omitempty"`
}

func (u UpdateOp) expr() (ast.Expr, error) {
	v, err := bind(u.Column, u.Value, u.Enum)
	if err != nil {
		return nil, err
	}
	col := ast.Col(u.Column)

	switch u.Op {
	case "", UpdateSet:
		return v, nil
	case UpdateIncrement:
		return ast.Add(col, v), nil
	case UpdateDecrement:
		return ast.Subtract(col, v), nil
	case UpdateMultiply:
		return ast.Multiply(col, v), nil
	case UpdateDivide:
		return ast.Divide(col, v), nil
	case UpdateAppend:
		return ast.Append(col, v), nil
	case UpdatePrepend:
		return ast.Append(v, col), nil
	case UpdateDeleteKey:
		if v.Kind() != ast.KindText {
			return nil, fmt.Errorf("%w: deleteKey on %q takes a key", ErrInvalidInput, u.Column)
		}
		// jsonb - text removes a top-level key.
		return ast.Subtract(col, v), nil
	case UpdateDeleteAtPath:
		if v.Kind() != ast.KindArray || v.ElemKind() != ast.KindText {
			return nil, fmt.Errorf("%w: deleteAtPath on %q takes a list of keys", ErrInvalidInput, u.Column)
		}
		return ast.DeletePath(col, v), nil
	}
	return nil, fmt.Errorf("%w: unknown update operation %q", ErrInvalidInput, u.Op)
}

// CreateOne inserts one row. A row without columns inserts DEFAULT VALUES.
func CreateOne(t Table, row []ColumnValue, ret Returning) (ast.Query, error) {
	return CreateMany(t, [][]ColumnValue{row}, ret)
}

// CreateMany inserts rows with one statement. Rows may name different
// columns: the statement uses every column named by any row, in order of
// first appearance, and rows that omit a column write its default. Several
// rows that all consist of defaults have no single-statement form and are
// rejected.
func CreateMany(t Table, rows [][]ColumnValue, ret Returning) (ast.Query, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows to insert into %q", ErrEmptyInput, t.Name)
	}
	if err := ret.validate(); err != nil {
		return nil, err
	}

	var columns []string
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, c := range row {
			if !seen[c.Column] {
				seen[c.Column] = true
				columns = append(columns, c.Column)
			}
		}
	}
	if len(columns) == 0 && len(rows) > 1 {
		return nil, fmt.Errorf("%w: createMany into %q needs at least one column value when inserting %d rows",
			ErrInvalidInput, t.Name, len(rows))
	}

	var (
		single *ast.SingleRowInsert
		multi  *ast.MultiRowInsert
	)
	for i, row := range rows {
		ins, err := insertRow(t, columns, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		switch {
		case single == nil:
			single = ins
		case multi == nil:
			if multi, err = single.Merge(ins); err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
		default:
			if err := multi.Extend(ins); err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
		}
	}

	insert := single.Build()
	if multi != nil {
		var err error
		if insert, err = multi.Build(); err != nil {
			return nil, err
		}
	}

	if ret.Selection != nil {
		insert.ReturningColumns(ret.Selection.columns()...)
		return staged(t, "insert", insert, *ret.Selection), nil
	}
	return insert.ReturningColumns(ret.Columns...), nil
}

func insertRow(t Table, columns []string, row []ColumnValue) (*ast.SingleRowInsert, error) {
	values := make(map[string]ColumnValue, len(row))
	for _, c := range row {
		if c.Column == "" {
			return nil, fmt.Errorf("%w: value without a column", ErrInvalidInput)
		}
		values[c.Column] = c
	}

	ins := ast.InsertInto(t.relation())
	for _, name := range columns {
		c, ok := values[name]
		if !ok {
			c = ColumnValue{Column: name, Default: true}
		}
		e, err := c.expr()
		if err != nil {
			return nil, err
		}
		ins.Value(name, e)
	}
	return ins, nil
}

// UpdateOne updates the row matching a unique filter.
func UpdateOne(t Table, filter *Filter, set []UpdateOp, ret Returning) (ast.Query, error) {
	if err := requireFilter("updateOne", t, filter); err != nil {
		return nil, err
	}
	return UpdateMany(t, filter, set, ret)
}

// UpdateMany updates every row matching filter.
func UpdateMany(t Table, filter *Filter, set []UpdateOp, ret Returning) (ast.Query, error) {
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: nothing to update in %q", ErrEmptyInput, t.Name)
	}
	if err := ret.validate(); err != nil {
		return nil, err
	}

	cond, err := filter.condition(unqualified)
	if err != nil {
		return nil, err
	}

	builder := ast.UpdateTable(t.relation()).Where(cond)
	for _, op := range set {
		e, err := op.expr()
		if err != nil {
			return nil, err
		}
		builder.Set(op.Column, e)
	}

	if ret.Selection != nil {
		builder.ReturningColumns(ret.Selection.columns()...)
	} else {
		builder.ReturningColumns(ret.Columns...)
	}
	update, err := builder.Build()
	if err != nil {
		return nil, err
	}

	if ret.Selection != nil {
		return staged(t, "update", update, *ret.Selection), nil
	}
	return update, nil
}

// DeleteOne deletes the row matching a unique filter.
func DeleteOne(t Table, filter *Filter, ret Returning) (ast.Query, error) {
	if err := requireFilter("deleteOne", t, filter); err != nil {
		return nil, err
	}
	return DeleteMany(t, filter, ret)
}

// DeleteMany deletes every row matching filter. A JSON selection is built
// directly in RETURNING since deleted rows carry no relations to nest.
func DeleteMany(t Table, filter *Filter, ret Returning) (ast.Query, error) {
	if err := ret.validate(); err != nil {
		return nil, err
	}

	cond, err := filter.condition(unqualified)
	if err != nil {
		return nil, err
	}

	del := ast.DeleteFrom(t.relation()).Where(cond)
	if ret.Selection != nil {
		return del.Returning(flatObject(ast.Col, *ret.Selection).As(rootColumn)), nil
	}
	return del.ReturningColumns(ret.Columns...), nil
}

// staged wraps a mutation in a CTE and shapes its returned rows into JSON:
//
//	WITH "s_t_verb" AS (... RETURNING cols) SELECT json_build_object(...) AS "root" FROM "s_t_verb"
func staged(t Table, verb string, q ast.Query, sel Selection) *ast.Select {
	cte := ast.NewCTE(t.stagingName(verb), q)
	col := func(name string) ast.Column { return ast.TableCol(cte.Name, name) }

	return ast.SelectFrom(cte.Table()).
		With(cte).
		Value(flatObject(col, sel).As(rootColumn))
}

// flatObject builds an object from columns only.
func flatObject(col func(string) ast.Column, sel Selection) ast.Function {
	fields := make([]ast.JSONField, 0, len(sel.Fields))
	for _, f := range sel.Fields {
		fields = append(fields, ast.Field(f.Name, f.value(col(f.column()))))
	}
	return ast.JSONBuildObject(fields...)
}

func requireFilter(op string, t Table, filter *Filter) error {
	cond, err := filter.condition(unqualified)
	if err != nil {
		return err
	}
	if ast.IsEmpty(cond) {
		return fmt.Errorf("%w: %s on %q needs a filter", ErrInvalidFilter, op, t.Name)
	}
	return nil
}
