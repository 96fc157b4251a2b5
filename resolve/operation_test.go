package resolve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/sqlast/resolve"
)

func TestParseOperation_YAML(t *testing.T) {
	doc := `
kind: updateOne
table: {schema: public, name: users}
filter: {column: id, op: eq, value: 1}
set:
  - {column: name, value: bob}
returning:
  selection:
    fields: [{name: id}, {name: name}]
`
	op, err := resolve.ParseOperation([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, resolve.KindUpdateOne, op.Kind)
	assert.True(t, op.ReturnsJSON())

	q, err := op.Build()
	require.NoError(t, err)

	stmt := renderQuery(t, q)
	assert.Equal(t, `WITH "public_users_update" AS (`+
		`UPDATE "public"."users" SET "name" = $1 WHERE "id" = $2 RETURNING "id", "name") `+
		`SELECT json_build_object($3::text, "public_users_update"."id", $4::text, "public_users_update"."name") AS "root" `+
		`FROM "public_users_update"`, stmt.SQL)
	assert.Equal(t, []any{"bob", int64(1), "id", "name"}, stmt.Args(), "integers stay integers")
}

func TestParseOperation_JSON(t *testing.T) {
	doc := `{
		"kind": "findMany",
		"table": {"name": "posts"},
		"filter": {"column": "score", "op": "gt", "value": 1.5},
		"args": {"first": 3, "orderBy": [{"column": "id", "direction": "desc"}]},
		"selection": {"fields": [{"name": "id"}]}
	}`
	op, err := resolve.ParseOperation([]byte(doc))
	require.NoError(t, err)
	require.NotNil(t, op.Args.First)
	assert.Equal(t, int64(3), *op.Args.First)

	q, err := op.Build()
	require.NoError(t, err)

	stmt := renderQuery(t, q)
	assert.Equal(t, []any{"[]", "id", 1.5, int64(3)}, stmt.Args())
}

func TestParseOperation_Invalid(t *testing.T) {
	_, err := resolve.ParseOperation([]byte("kind: [unclosed"))
	assert.Error(t, err)
}

func TestOperation_Build(t *testing.T) {
	sel := fields("id")
	tests := []struct {
		name string
		op   resolve.Operation
		sql  string
	}{
		{
			name: "find one",
			op:   resolve.Operation{Kind: resolve.KindFindOne, Table: posts, Filter: eq("id", 1), Selection: sel},
			sql:  `SELECT json_build_object($1::text, "posts"."id") AS "root" FROM "posts" AS "posts" WHERE "posts"."id" = $2 LIMIT $3`,
		},
		{
			name: "lookup without keys",
			op:   resolve.Operation{Kind: resolve.KindLookup, Table: posts, Selection: sel},
			sql:  `SELECT CAST($1 AS json) AS "root"`,
		},
		{
			name: "create one",
			op: resolve.Operation{Kind: resolve.KindCreateOne, Table: posts,
				Rows: [][]resolve.ColumnValue{{{Column: "title", Value: "a"}}}},
			sql: `INSERT INTO "posts" ("title") VALUES ($1)`,
		},
		{
			name: "create many",
			op: resolve.Operation{Kind: resolve.KindCreateMany, Table: posts,
				Rows: [][]resolve.ColumnValue{{{Column: "title", Value: "a"}}, {{Column: "title", Value: "b"}}}},
			sql: `INSERT INTO "posts" ("title") VALUES ($1),($2)`,
		},
		{
			name: "update many",
			op: resolve.Operation{Kind: resolve.KindUpdateMany, Table: posts,
				Set: []resolve.UpdateOp{{Column: "views", Op: resolve.UpdateMultiply, Value: 2}}},
			sql: `UPDATE "posts" SET "views" = ("views" * $1)`,
		},
		{
			name: "delete one",
			op:   resolve.Operation{Kind: resolve.KindDeleteOne, Table: posts, Filter: eq("id", 1)},
			sql:  `DELETE FROM "posts" WHERE "id" = $1`,
		},
		{
			name: "delete many",
			op:   resolve.Operation{Kind: resolve.KindDeleteMany, Table: posts},
			sql:  `DELETE FROM "posts"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := tt.op.Build()
			require.NoError(t, err)
			assert.Equal(t, tt.sql, renderQuery(t, q).SQL)
		})
	}
}

func TestParseOperation_Connection(t *testing.T) {
	doc := `
kind: findConnection
table: {name: posts}
args: {first: 2, orderBy: [{column: title}]}
connection:
  key: [id]
  edges: {cursor: true, node: {fields: [{name: id}]}}
  pageInfo: {hasNextPage: true}
`
	op, err := resolve.ParseOperation([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, op.Connection.Key)
	require.NotNil(t, op.Connection.Edges)
	assert.True(t, op.Connection.Edges.Cursor)

	q, err := op.Build()
	require.NoError(t, err)
	assert.Contains(t, renderQuery(t, q).SQL, `WITH "Filtered" AS (`)
}

func TestParseOperation_Lookup(t *testing.T) {
	doc := `
kind: lookup
table: {name: posts}
keys: [{column: id, values: [3, 1]}]
selection: {fields: [{name: id}]}
`
	op, err := resolve.ParseOperation([]byte(doc))
	require.NoError(t, err)

	q, err := op.Build()
	require.NoError(t, err)
	stmt := renderQuery(t, q)
	assert.Contains(t, stmt.SQL, `unnest(CAST($4 AS bigint[])) WITH ORDINALITY AS "input_order"("id","ord")`)
	assert.Equal(t, []int64{3, 1}, stmt.Args()[3])
}

func TestOperation_BuildErrors(t *testing.T) {
	_, err := resolve.Operation{Kind: "upsert", Table: posts}.Build()
	assert.True(t, resolve.IsUnknownOperationErr(err))

	_, err = resolve.Operation{Kind: resolve.KindFindMany}.Build()
	assert.True(t, resolve.IsUnsupportedShapeErr(err))

	_, err = resolve.Operation{Kind: resolve.KindCreateOne, Table: posts}.Build()
	assert.True(t, resolve.IsInvalidInputErr(err))

	q, err := resolve.Operation{Kind: resolve.KindFindOne, Table: posts}.Build()
	assert.True(t, resolve.IsInvalidFilterErr(err))
	assert.Nil(t, q)
}

func TestOperation_ReturnsJSON(t *testing.T) {
	for _, k := range resolve.Kinds {
		op := resolve.Operation{Kind: k}
		want := k == resolve.KindFindOne || k == resolve.KindFindMany ||
			k == resolve.KindLookup || k == resolve.KindConnection
		assert.Equal(t, want, op.ReturnsJSON(), k)
	}
}
