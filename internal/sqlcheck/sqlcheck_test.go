package sqlcheck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/sqlast/ast"
	"github.com/pthm/sqlast/internal/sqlcheck"
	"github.com/pthm/sqlast/render"
)

func TestVerify(t *testing.T) {
	tests := []struct {
		name  string
		sql   string
		valid bool
	}{
		{"select", `SELECT "a" FROM "t" WHERE "b" = $1`, true},
		{"cte", `WITH "x" AS (DELETE FROM "t" RETURNING "id") SELECT "id" FROM "x"`, true},
		{"two statements", `SELECT 1; SELECT 2`, false},
		{"empty", ``, false},
		{"syntax", `SELECT FROM WHERE`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sqlcheck.Verify(tt.sql)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, sqlcheck.IsInvalidSQLErr(err))
		})
	}
}

func TestStatementCount(t *testing.T) {
	n, err := sqlcheck.StatementCount(`SELECT 1; SELECT 2; SELECT 3`)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestFingerprint_IgnoresValues(t *testing.T) {
	a, err := sqlcheck.Fingerprint(`SELECT "a" FROM "t" WHERE "b" = 1`)
	require.NoError(t, err)
	b, err := sqlcheck.Fingerprint(`SELECT   "a"  FROM "t" WHERE "b" = 2`)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

// Every shape the renderer produces must be accepted by the Postgres parser.
func TestRenderedStatementsParse(t *testing.T) {
	users := ast.SchemaTable("public", "users")
	mood := ast.EnumType{Schema: "public", Name: "mood"}

	update, err := ast.UpdateTable(users).
		Set("name", ast.Val("bob")).
		Set("visits", ast.Add(ast.Col("visits"), ast.Val(1))).
		Where(ast.Col("id").Equals(ast.Val(1))).
		ReturningColumns("id", "name").
		Build()
	require.NoError(t, err)
	cte := ast.NewCTE("public_users_update", update)

	merged, err := ast.InsertInto(users).Value("name", ast.Val("a")).Value("mood", ast.Enum(mood, "ok")).
		Merge(ast.InsertInto(users).Value("name", ast.Val("b")).Value("mood", ast.Enum(mood, "sad")))
	require.NoError(t, err)
	multi, err := merged.Build()
	require.NoError(t, err)
	upsert, err := ast.DoUpdate([]string{"name"}, ast.Set("mood", ast.Excluded("mood")))
	require.NoError(t, err)

	sub := ast.SelectFrom(ast.NewTable("posts")).
		Value(ast.Coalesce(
			ast.JSONAgg(ast.RowToJSON(ast.NewTable("posts"), false), nil),
			ast.Cast(ast.Val("[]"), ast.CastJSON),
		)).
		Where(ast.TableCol("posts", "author_id").Equals(ast.TableCol("u", "id")))

	queries := map[string]ast.Query{
		"delete": ast.DeleteFrom(users).Where(ast.Col("bar").Equals(ast.Val(false))),
		"update json": ast.SelectFrom(cte.Table()).With(cte).Value(ast.JSONBuildObject(
			ast.Field("id", ast.TableCol(cte.Name, "id")),
		).As("root")),
		"multi insert":   multi.OnConflict(upsert),
		"default values": ast.InsertInto(users).Build().ReturningColumns("id"),
		"nested select": ast.SelectFrom(users.As("u")).
			Column(ast.TableCol("u", "id")).
			Value(ast.As(sub, "posts")).
			Where(ast.Or(
				ast.TableCol("u", "tags").Overlaps(ast.Array("a")),
				ast.Not(ast.TableCol("u", "doc").JSONTypeEquals(ast.JSONObject)),
				ast.TableCol("u", "id").In(ast.Array(1, 2)),
			)).
			OrderBy(ast.OrderBy(ast.TableCol("u", "id"), ast.DescNullsLast)).
			Limit(5).Offset(10),
		"window": ast.SelectFrom(users).Value(ast.RowNumber(ast.Window(
			ast.Ordering{ast.OrderBy(ast.Col("id"), ast.Asc)}, ast.Col("org"),
		)).As("__row")),
	}

	for name, q := range queries {
		t.Run(name, func(t *testing.T) {
			stmt := render.Postgres(q)
			assert.NoError(t, sqlcheck.Verify(stmt.SQL), stmt.SQL)
		})
	}
}
