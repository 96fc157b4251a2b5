package resolve

import (
	"encoding/json"
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/pthm/sqlast/ast"
)

// Kind names an operation.
type Kind string

const (
	KindFindOne    Kind = "findOne"
	KindFindMany   Kind = "findMany"
	KindLookup     Kind = "lookup"
	KindConnection Kind = "findConnection"
	KindCreateOne  Kind = "createOne"
	KindCreateMany Kind = "createMany"
	KindUpdateOne  Kind = "updateOne"
	KindUpdateMany Kind = "updateMany"
	KindDeleteOne  Kind = "deleteOne"
	KindDeleteMany Kind = "deleteMany"
)

// Kinds lists every operation kind.
var Kinds = []Kind{
	KindFindOne, KindFindMany, KindLookup, KindConnection,
	KindCreateOne, KindCreateMany,
	KindUpdateOne, KindUpdateMany,
	KindDeleteOne, KindDeleteMany,
}

// Operation is a serializable description of one operation. It is what the
// CLI reads from YAML or JSON documents.
//
//	kind: updateOne
//	table: {schema: public, name: users}
//	filter: {column: id, op: eq, value: 1}
//	set:
//	  - {column: name, value: bob}
//	returning:
//	  selection:
//	    fields: [{name: id}, {name: name}]
type Operation struct {
	Kind       Kind            `json:"kind"`
	Table      Table           `json:"table"`
	Filter     *Filter         `json:"filter,omitempty"`
	Args       CollectionArgs  `json:"args,omitzero"`
	Selection  Selection       `json:"selection,omitzero"`
	Keys       []LookupKey     `json:"keys,omitempty"`
	Connection Connection      `json:"connection,omitzero"`
	Rows       [][]ColumnValue `json:"rows,omitempty"`
	Set        []UpdateOp      `json:"set,omitempty"`
	Returning  Returning       `json:"returning,omitzero"`
}

// ParseOperation decodes a YAML or JSON document. Numbers are kept exact so
// integers bind as integers.
func ParseOperation(data []byte) (Operation, error) {
	var op Operation
	err := yaml.Unmarshal(data, &op, func(d *json.Decoder) *json.Decoder {
		d.UseNumber()
		return d
	})
	if err != nil {
		return Operation{}, fmt.Errorf("parsing operation: %w", err)
	}
	return op, nil
}

// Build dispatches to the builder of the operation kind.
func (o Operation) Build() (ast.Query, error) {
	if o.Table.Name == "" {
		return nil, fmt.Errorf("%w: %s without a table", ErrUnsupportedShape, o.Kind)
	}

	switch o.Kind {
	case KindFindOne:
		return query(FindOne(o.Table, o.Filter, o.Selection))
	case KindFindMany:
		return query(FindMany(o.Table, o.Filter, o.Args, o.Selection))
	case KindLookup:
		return query(Lookup(o.Table, o.Keys, o.Selection))
	case KindConnection:
		return query(FindConnection(o.Table, o.Filter, o.Args, o.Connection))
	case KindCreateOne:
		if len(o.Rows) != 1 {
			return nil, fmt.Errorf("%w: createOne takes exactly one row, got %d", ErrInvalidInput, len(o.Rows))
		}
		return CreateOne(o.Table, o.Rows[0], o.Returning)
	case KindCreateMany:
		return CreateMany(o.Table, o.Rows, o.Returning)
	case KindUpdateOne:
		return UpdateOne(o.Table, o.Filter, o.Set, o.Returning)
	case KindUpdateMany:
		return UpdateMany(o.Table, o.Filter, o.Set, o.Returning)
	case KindDeleteOne:
		return DeleteOne(o.Table, o.Filter, o.Returning)
	case KindDeleteMany:
		return DeleteMany(o.Table, o.Filter, o.Returning)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, o.Kind)
}

// query keeps a failed select from becoming a non-nil Query.
func query(s *ast.Select, err error) (ast.Query, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ReturnsJSON reports whether the statement built from o yields JSON
// documents in a "root" column.
func (o Operation) ReturnsJSON() bool {
	switch o.Kind {
	case KindFindOne, KindFindMany, KindLookup, KindConnection:
		return true
	}
	return o.Returning.Selection != nil
}
