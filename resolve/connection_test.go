package resolve_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/sqlast/resolve"
)

func cursorFor(t *testing.T, values map[string]any) *string {
	t.Helper()
	c, err := resolve.EncodeCursor(values)
	require.NoError(t, err)
	return &c
}

func edgesWithNode(names ...string) *resolve.Edges {
	return &resolve.Edges{Cursor: true, Node: ptr(fields(names...))}
}

func TestFindConnection_Forward(t *testing.T) {
	after := cursorFor(t, map[string]any{"name": "bob", "id": 4})
	args := resolve.CollectionArgs{
		First:   ptr(int64(2)),
		After:   after,
		OrderBy: []resolve.OrderBy{{Column: "name"}},
	}
	conn := resolve.Connection{
		Key:      []string{"id"},
		Edges:    edgesWithNode("id"),
		PageInfo: &resolve.PageInfo{HasNextPage: true, EndCursor: true},
	}

	q, err := resolve.FindConnection(users, nil, args, conn)
	require.NoError(t, err)

	stmt := renderQuery(t, q)
	assert.Equal(t,
		`WITH "DecodedCursor" AS (SELECT CAST(convert_from(decode($1, 'base64'), 'UTF8') AS jsonb) AS "cursor"), `+
			`"CursorValues" AS (SELECT "cursor_row".* FROM "DecodedCursor", `+
			`jsonb_populate_record(NULL::"public"."users", "DecodedCursor"."cursor") AS "cursor_row"), `+
			`"Filtered" AS (SELECT json_build_object($2::text, "users"."id") AS "node", `+
			`encode(convert_to(CAST(json_build_object($3::text, "users"."name", $4::text, "users"."id") AS text), 'UTF8'), 'base64') AS "cursor", `+
			`ROW_NUMBER() OVER (ORDER BY "users"."name" ASC, "users"."id" ASC) AS "__row" `+
			`FROM "public"."users" AS "users", "CursorValues" `+
			`WHERE ("users"."name" > "CursorValues"."name" `+
			`OR ("users"."name" IS NULL AND "CursorValues"."name" IS NOT NULL) `+
			`OR ("users"."name" IS NOT DISTINCT FROM "CursorValues"."name" `+
			`AND ("users"."id" > "CursorValues"."id" OR ("users"."id" IS NULL AND "CursorValues"."id" IS NOT NULL)))) `+
			`ORDER BY "users"."name" ASC, "users"."id" ASC LIMIT $5), `+
			`"Nodes" AS (SELECT "Filtered".* FROM "Filtered" ORDER BY "Filtered"."__row" ASC LIMIT $6) `+
			`SELECT json_build_object(`+
			`$7::text, (SELECT COALESCE(json_agg(json_build_object($8::text, "Nodes"."cursor", $9::text, "Nodes"."node") `+
			`ORDER BY "Nodes"."__row" ASC), CAST($10 AS json)) FROM "Nodes"), `+
			`$11::text, json_build_object($12::text, (SELECT COUNT(*) FROM "Filtered") > $13, `+
			`$14::text, (SELECT "Nodes"."cursor" FROM "Nodes" ORDER BY "Nodes"."__row" DESC LIMIT $15))) AS "root"`,
		stmt.SQL)
	assert.Equal(t, []any{
		*after, "id", "name", "id", int64(3), int64(2),
		"edges", "cursor", "node", "[]",
		"pageInfo", "hasNextPage", int64(2), "endCursor", int64(1),
	}, stmt.Args())
}

func TestFindConnection_Backward(t *testing.T) {
	args := resolve.CollectionArgs{
		Last:    ptr(int64(3)),
		Before:  cursorFor(t, map[string]any{"name": "m", "id": 9}),
		OrderBy: []resolve.OrderBy{{Column: "name", Direction: resolve.DirectionDesc}},
	}
	conn := resolve.Connection{
		Key:   []string{"id"},
		Edges: edgesWithNode("id"),
		PageInfo: &resolve.PageInfo{
			HasNextPage: true, HasPreviousPage: true, StartCursor: true,
		},
	}

	q, err := resolve.FindConnection(users, eq("active", true), args, conn)
	require.NoError(t, err)

	stmt := renderQuery(t, q)
	// Rows before the cursor in name DESC, id ASC order.
	assert.Contains(t, stmt.SQL, `WHERE ("users"."active" = $5 AND (`+
		`"users"."name" > "CursorValues"."name" OR ("users"."name" IS NULL AND "CursorValues"."name" IS NOT NULL) `+
		`OR ("users"."name" IS NOT DISTINCT FROM "CursorValues"."name" `+
		`AND ("users"."id" < "CursorValues"."id" OR ("users"."id" IS NOT NULL AND "CursorValues"."id" IS NULL)))))`)
	// The scan runs in reverse and the edges restore the requested order.
	assert.Contains(t, stmt.SQL, `ORDER BY "users"."name" ASC, "users"."id" DESC LIMIT $6`)
	assert.Contains(t, stmt.SQL, `ORDER BY "Nodes"."__row" DESC), CAST($11 AS json))`)
	// Only the scan direction can report more rows.
	assert.Contains(t, stmt.SQL, `json_build_object($13::text, CAST($14 AS boolean), `+
		`$15::text, (SELECT COUNT(*) FROM "Filtered") > $16, `+
		`$17::text, (SELECT "Nodes"."cursor" FROM "Nodes" ORDER BY "Nodes"."__row" DESC LIMIT $18))`)
	assert.Equal(t, false, stmt.Args()[13])
	assert.Equal(t, int64(3), stmt.Args()[15])
}

func TestFindConnection_NoLimit(t *testing.T) {
	conn := resolve.Connection{
		Key:      []string{"id"},
		PageInfo: &resolve.PageInfo{HasNextPage: true, HasPreviousPage: true},
	}

	q, err := resolve.FindConnection(users, nil, resolve.CollectionArgs{}, conn)
	require.NoError(t, err)

	stmt := renderQuery(t, q)
	assert.NotContains(t, stmt.SQL, "DecodedCursor")
	assert.NotContains(t, stmt.SQL, "LIMIT")
	assert.NotContains(t, stmt.SQL, `"edges"`)
	assert.Contains(t, stmt.SQL, `json_build_object($3::text, CAST($4 AS boolean), $5::text, CAST($6 AS boolean))`)
	assert.Equal(t, []any{"id", "pageInfo", "hasNextPage", false, "hasPreviousPage", false}, stmt.Args())
}

func TestFindConnection_Invalid(t *testing.T) {
	key := []string{"id"}
	edges := edgesWithNode("id")
	bad := "not base64!"
	notJSON := base64.StdEncoding.EncodeToString([]byte("[1]"))

	tests := []struct {
		name  string
		args  resolve.CollectionArgs
		conn  resolve.Connection
		check func(error) bool
	}{
		{"before and after", resolve.CollectionArgs{
			Before: cursorFor(t, map[string]any{"id": 1}), After: cursorFor(t, map[string]any{"id": 2}),
		}, resolve.Connection{Key: key, Edges: edges}, resolve.IsInvalidPaginationErr},
		{"no ordering", resolve.CollectionArgs{First: ptr(int64(1))},
			resolve.Connection{Edges: edges}, resolve.IsInvalidPaginationErr},
		{"first and last", resolve.CollectionArgs{First: ptr(int64(1)), Last: ptr(int64(1))},
			resolve.Connection{Key: key, Edges: edges}, resolve.IsInvalidPaginationErr},
		{"cursor not base64", resolve.CollectionArgs{After: &bad},
			resolve.Connection{Key: key, Edges: edges}, resolve.IsInvalidPaginationErr},
		{"cursor not an object", resolve.CollectionArgs{After: &notJSON},
			resolve.Connection{Key: key, Edges: edges}, resolve.IsInvalidPaginationErr},
		{"cursor missing a column", resolve.CollectionArgs{
			After:   cursorFor(t, map[string]any{"id": 1}),
			OrderBy: []resolve.OrderBy{{Column: "name"}},
		}, resolve.Connection{Key: key, Edges: edges}, resolve.IsInvalidPaginationErr},
		{"empty selection", resolve.CollectionArgs{}, resolve.Connection{Key: key}, resolve.IsUnsupportedShapeErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := resolve.FindConnection(users, nil, tt.args, tt.conn)
			require.Error(t, err)
			assert.True(t, tt.check(err), "%v", err)
			assert.Nil(t, q)
		})
	}
}

func TestEncodeCursor(t *testing.T) {
	c, err := resolve.EncodeCursor(map[string]any{"id": 7, "name": "ann"})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"name":"ann"}`, string(raw))
}
