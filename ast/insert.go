package ast

import (
	"fmt"
	"slices"
)

// Insert is a finalized INSERT statement. Exactly one of Rows and Source is
// used; an insert with no columns and one empty row renders DEFAULT VALUES.
type Insert struct {
	Table    Table
	Columns  []string
	Rows     []Row
	Source   *Select
	Conflict *OnConflict
	Returns  []Expression
}

// ConflictAction selects what ON CONFLICT does.
type ConflictAction uint8

const (
	ConflictDoNothing ConflictAction = iota
	ConflictDoUpdate
)

// OnConflict is the ON CONFLICT clause of an insert.
type OnConflict struct {
	Target []string
	Action ConflictAction
	Set    []Assignment
	Filter ConditionTree
}

// DoNothing ignores rows that conflict on target (or on any constraint when
// target is empty).
func DoNothing(target ...string) OnConflict {
	return OnConflict{Target: slices.Clone(target), Action: ConflictDoNothing}
}

// DoUpdate updates the conflicting row. Use Excluded to refer to the row
// proposed for insertion. Postgres requires a conflict target for DO UPDATE,
// and at least one assignment is needed to form a SET list.
func DoUpdate(target []string, set ...Assignment) (OnConflict, error) {
	if len(target) == 0 {
		return OnConflict{}, fmt.Errorf("%w: DO UPDATE needs a conflict target", ErrInvalidConflict)
	}
	if len(set) == 0 {
		return OnConflict{}, fmt.Errorf("%w: DO UPDATE on %v has nothing to set", ErrInvalidConflict, target)
	}
	return OnConflict{Target: slices.Clone(target), Action: ConflictDoUpdate, Set: slices.Clone(set)}, nil
}

// Set builds one assignment.
func Set(column string, value Expr) Assignment {
	return Assignment{Column: column, Value: value.ToExpression()}
}

// OnConflict sets the conflict clause.
func (i *Insert) OnConflict(c OnConflict) *Insert {
	i.Conflict = &c
	return i
}

// Returning sets the RETURNING projection.
func (i *Insert) Returning(exprs ...Expr) *Insert {
	i.Returns = toExpressions(exprs)
	return i
}

// ReturningColumns sets RETURNING to plain columns by name.
func (i *Insert) ReturningColumns(names ...string) *Insert {
	i.Returns = columnExprs(names)
	return i
}

// InsertFromQuery inserts the rows produced by s.
func InsertFromQuery(t Table, columns []string, s *Select) *Insert {
	return &Insert{Table: t, Columns: slices.Clone(columns), Source: s}
}

// SingleRowInsert collects column/value pairs of one row in the order they
// are given.
type SingleRowInsert struct {
	table   Table
	columns []string
	values  []Expression
}

// InsertInto starts a single-row insert into t.
func InsertInto(t Table) *SingleRowInsert {
	return &SingleRowInsert{table: t}
}

// Value adds a column and its value.
func (s *SingleRowInsert) Value(column string, e Expr) *SingleRowInsert {
	s.columns = append(s.columns, column)
	s.values = append(s.values, e.ToExpression())
	return s
}

// Columns returns the column names in insertion order.
func (s *SingleRowInsert) Columns() []string { return slices.Clone(s.columns) }

// Build finalizes the insert.
func (s *SingleRowInsert) Build() *Insert {
	return &Insert{
		Table:   s.table,
		Columns: slices.Clone(s.columns),
		Rows:    []Row{{Values: slices.Clone(s.values)}},
	}
}

// Merge combines s and other into a two-row insert. Both must target the
// same table and declare the same columns in the same order.
func (s *SingleRowInsert) Merge(other *SingleRowInsert) (*MultiRowInsert, error) {
	if err := s.check(other); err != nil {
		return nil, err
	}
	return &MultiRowInsert{
		table:   s.table,
		columns: slices.Clone(s.columns),
		rows: []Row{
			{Values: slices.Clone(s.values)},
			{Values: slices.Clone(other.values)},
		},
	}, nil
}

func (s *SingleRowInsert) check(other *SingleRowInsert) error {
	if !sameTable(s.table, other.table) {
		return fmt.Errorf("%w: table %q and %q", ErrInsertMismatch, s.table.Name, other.table.Name)
	}
	if len(s.columns) == 0 {
		return fmt.Errorf("%w: rows without columns cannot share a VALUES list", ErrInsertMismatch)
	}
	if !slices.Equal(s.columns, other.columns) {
		return fmt.Errorf("%w: columns %v and %v", ErrInsertMismatch, s.columns, other.columns)
	}
	return nil
}

// MultiRowInsert is an insert of several rows sharing one column list.
type MultiRowInsert struct {
	table   Table
	columns []string
	rows    []Row
}

// MultiInsertInto starts a multi-row insert with a fixed column list. The
// list must not be empty: several rows of defaults have no VALUES form.
func MultiInsertInto(t Table, columns ...string) *MultiRowInsert {
	return &MultiRowInsert{table: t, columns: slices.Clone(columns)}
}

// Values appends a row. It must have one value per column.
func (m *MultiRowInsert) Values(values ...Expr) error {
	if len(m.columns) == 0 {
		return fmt.Errorf("%w: multi-row insert into %q has no columns", ErrInsertArity, m.table.Name)
	}
	if len(values) != len(m.columns) {
		return fmt.Errorf("%w: %d values for %d columns", ErrInsertArity, len(values), len(m.columns))
	}
	m.rows = append(m.rows, RowOf(values...))
	return nil
}

// Extend appends the row of s, which must match the established table and
// column list.
func (m *MultiRowInsert) Extend(s *SingleRowInsert) error {
	head := &SingleRowInsert{table: m.table, columns: m.columns}
	if err := head.check(s); err != nil {
		return err
	}
	m.rows = append(m.rows, Row{Values: slices.Clone(s.values)})
	return nil
}

// Len returns the number of rows collected so far.
func (m *MultiRowInsert) Len() int { return len(m.rows) }

// Build finalizes the insert. At least one row is required.
func (m *MultiRowInsert) Build() (*Insert, error) {
	if len(m.columns) == 0 {
		return nil, fmt.Errorf("%w: multi-row insert into %q has no columns", ErrInsertArity, m.table.Name)
	}
	if len(m.rows) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyInsert, m.table.Name)
	}
	return &Insert{
		Table:   m.table,
		Columns: slices.Clone(m.columns),
		Rows:    slices.Clone(m.rows),
	}, nil
}

func columnExprs(names []string) []Expression {
	out := make([]Expression, len(names))
	for i, n := range names {
		out[i] = Col(n).ToExpression()
	}
	return out
}
