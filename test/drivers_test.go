//go:build integration

package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/sqlast/ast"
	"github.com/pthm/sqlast/pgexec"
	"github.com/pthm/sqlast/render"
	"github.com/pthm/sqlast/resolve"
	"github.com/pthm/sqlast/test/testutil"
)

var drivers = []string{"pgx", "postgres"}

// TestDrivers_Parameters runs statements binding every parameter kind
// through both supported drivers.
func TestDrivers_Parameters(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			db := testutil.Open(t, driver)
			ctx := context.Background()
			ex := pgexec.New(db)

			ins := ast.InsertInto(ast.NewTable("users")).
				Value("name", ast.Val("ann")).
				Value("mood", ast.Enum(ast.EnumType{Schema: "public", Name: "mood"}, "happy")).
				Value("tags", ast.Array("x", "y")).
				Value("meta", ast.JSON([]byte(`{"a":1}`))).
				Value("avatar", ast.Val([]byte{0xde, 0xad})).
				Build().
				ReturningColumns("id")
			rows, err := ex.QueryRows(ctx, render.Postgres(ins))
			require.NoError(t, err)
			require.Len(t, rows, 1)

			sel := resolve.Selection{Fields: []resolve.Field{
				{Name: "name"},
				{Name: "avatar", Binary: true},
				{Name: "tags"},
				{Name: "meta"},
			}}
			q, err := resolve.FindOne(usersTable, &resolve.Filter{
				Column: "mood", Op: resolve.FilterIn, Value: []any{"happy"}, Enum: moodType,
			}, sel)
			require.NoError(t, err)

			doc, err := ex.QueryJSON(ctx, render.Postgres(q))
			require.NoError(t, err)
			assert.JSONEq(t, `{"name":"ann","avatar":"3q0=","tags":["x","y"],"meta":{"a":1}}`, string(doc))
		})
	}
}

func TestDrivers_ErrorMapping(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			db := testutil.Open(t, driver)
			ctx := context.Background()
			ex := pgexec.New(db)

			insert := func(email string) render.Statement {
				return render.Postgres(ast.InsertInto(ast.NewTable("users")).
					Value("name", ast.Val("ann")).
					Value("email", ast.Val(email)).
					Build())
			}
			_, err := ex.Exec(ctx, insert("ann@example.com"))
			require.NoError(t, err)

			_, err = ex.Exec(ctx, insert("ann@example.com"))
			assert.True(t, pgexec.IsUniqueViolationErr(err), "%v", err)
			assert.Equal(t, "23505", pgexec.SQLState(err))

			_, err = ex.Exec(ctx, render.Postgres(ast.InsertInto(ast.NewTable("posts")).
				Value("author_id", ast.Val(int64(999))).
				Value("title", ast.Val("orphan")).
				Build()))
			assert.True(t, pgexec.IsForeignKeyViolationErr(err), "%v", err)

			upd, err := ast.UpdateTable(ast.NewTable("users")).
				Set("mood", ast.Enum(ast.EnumType{Name: "mood"}, "meh")).
				Build()
			require.NoError(t, err)
			_, err = ex.Exec(ctx, render.Postgres(upd))
			assert.True(t, pgexec.IsInvalidEnumLabelErr(err), "%v", err)

			_, err = ex.QueryJSON(ctx, render.Postgres(ast.SelectFrom(ast.NewTable("missing")).
				Value(ast.Col("doc").As("root"))))
			assert.True(t, pgexec.IsUndefinedRelationErr(err), "%v", err)

			q, err := resolve.FindOne(usersTable, &resolve.Filter{Column: "id", Op: resolve.FilterEq, Value: -1}, fields("id"))
			require.NoError(t, err)
			_, err = ex.QueryJSON(ctx, render.Postgres(q))
			assert.True(t, pgexec.IsNoRowsErr(err), "%v", err)
		})
	}
}

func BenchmarkFindMany(b *testing.B) {
	db := testutil.DB(b)
	ctx := context.Background()
	require.NoError(b, testutil.NewFixtures(ctx, db).CopyUsers(1000))
	ex := pgexec.New(db)

	op := resolve.Operation{
		Kind:      resolve.KindFindMany,
		Table:     usersTable,
		Args:      resolve.CollectionArgs{First: ptr(int64(50)), OrderBy: []resolve.OrderBy{{Column: "name"}}},
		Selection: fields("id", "name", "tags"),
	}

	b.ResetTimer()
	for b.Loop() {
		if _, err := ex.Run(ctx, op); err != nil {
			b.Fatal(err)
		}
	}
}
