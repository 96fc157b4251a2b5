package pgexec_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pthm/sqlast/ast"
	"github.com/pthm/sqlast/pgexec"
	"github.com/pthm/sqlast/render"
	"github.com/pthm/sqlast/resolve"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.ExpectClose()
		require.NoError(t, db.Close())
	})
	return db, mock
}

func TestQueryJSON(t *testing.T) {
	db, mock := newMock(t)

	stmt := render.Postgres(ast.SelectFrom(ast.NewTable("users")).
		Value(ast.JSONBuildObject(ast.Field("id", ast.Col("id"))).As("root")).
		Where(ast.Col("id").Equals(ast.Val(7))))

	mock.ExpectQuery(stmt.SQL).
		WithArgs("id", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"root"}).AddRow([]byte(`{"id":7}`)))

	doc, err := pgexec.New(db).QueryJSON(context.Background(), stmt)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7}`, string(doc))
}

func TestQueryJSON_NoRows(t *testing.T) {
	db, mock := newMock(t)

	stmt := render.Postgres(ast.SelectFrom(ast.NewTable("users")).Value(ast.Col("doc").As("root")))
	mock.ExpectQuery(stmt.SQL).WillReturnRows(sqlmock.NewRows([]string{"root"}))

	_, err := pgexec.New(db).QueryJSON(context.Background(), stmt)
	assert.True(t, pgexec.IsNoRowsErr(err))
}

func TestQueryJSONRows_NullDocument(t *testing.T) {
	db, mock := newMock(t)

	stmt := render.Postgres(ast.SelectFrom(ast.NewTable("users")).Value(ast.Col("doc").As("root")))
	mock.ExpectQuery(stmt.SQL).WillReturnRows(
		sqlmock.NewRows([]string{"root"}).AddRow([]byte(`{"a":1}`)).AddRow(nil))

	docs, err := pgexec.New(db).QueryJSONRows(context.Background(), stmt)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.JSONEq(t, `{"a":1}`, string(docs[0]))
	assert.Equal(t, "null", string(docs[1]))
}

func TestQueryRows(t *testing.T) {
	db, mock := newMock(t)

	del := ast.DeleteFrom(ast.NewTable("users")).
		Where(ast.Col("tags").Overlaps(ast.Array("a", "b"))).
		ReturningColumns("id", "name")
	stmt := render.Postgres(del)

	mock.ExpectQuery(stmt.SQL).
		WithArgs(`{"a","b"}`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), []byte("ann")).
			AddRow(int64(2), "bob"))

	rows, err := pgexec.New(db).QueryRows(context.Background(), stmt)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"id": int64(1), "name": "ann"},
		{"id": int64(2), "name": "bob"},
	}, rows)
}

func TestExec(t *testing.T) {
	db, mock := newMock(t)

	upd, err := ast.UpdateTable(ast.NewTable("posts")).
		Set("views", ast.Add(ast.Col("views"), ast.Val(1))).
		Where(ast.Col("id").In(ast.Array[int64](1, 2, 3))).
		Build()
	require.NoError(t, err)
	stmt := render.Postgres(upd)

	mock.ExpectExec(stmt.SQL).
		WithArgs(int64(1), "{1,2,3}").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := pgexec.New(db).Exec(context.Background(), stmt)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestExec_MapsDriverErrors(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"pq unique", &pq.Error{Code: "23505", Message: "duplicate key"}, pgexec.IsUniqueViolationErr},
		{"pgx foreign key", &pgconn.PgError{Code: "23503", Message: "violates foreign key"}, pgexec.IsForeignKeyViolationErr},
		{"pgx undefined table", &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}, pgexec.IsUndefinedRelationErr},
		{"pq undefined column", &pq.Error{Code: "42703", Message: "column does not exist"}, pgexec.IsUndefinedRelationErr},
		{"enum label", &pq.Error{Code: "22P02", Message: `invalid input value for enum mood: "meh"`}, pgexec.IsInvalidEnumLabelErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			stmt := render.Postgres(ast.DeleteFrom(ast.NewTable("users")))
			mock.ExpectExec(stmt.SQL).WillReturnError(tt.err)

			_, err := pgexec.New(db).Exec(context.Background(), stmt)
			require.Error(t, err)
			assert.True(t, tt.check(err))
			assert.True(t, errors.Is(err, tt.err), "driver error stays reachable")
		})
	}
}

func TestSQLState(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"pq", &pq.Error{Code: "23505"}, "23505"},
		{"pgconn", &pgconn.PgError{Code: "42P01"}, "42P01"},
		{"wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), "23503"},
		{"message", errors.New(`ERROR: relation "x" does not exist (SQLSTATE 42P01)`), "42P01"},
		{"plain", errors.New("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pgexec.SQLState(tt.err))
		})
	}
}

func TestQueryAll(t *testing.T) {
	db, mock := newMock(t)
	mock.MatchExpectationsInOrder(false)

	var stmts []render.Statement
	for i := range 5 {
		stmt := render.Postgres(ast.SelectFrom(ast.NewTable(fmt.Sprintf("t%d", i))).Value(ast.Col("doc").As("root")))
		mock.ExpectQuery(stmt.SQL).
			WillReturnRows(sqlmock.NewRows([]string{"root"}).AddRow(fmt.Appendf(nil, "%d", i)))
		stmts = append(stmts, stmt)
	}

	docs, err := pgexec.New(db, pgexec.WithMaxConcurrency(2)).QueryAll(context.Background(), stmts...)
	require.NoError(t, err)
	require.Len(t, docs, 5)
	for i, doc := range docs {
		assert.Equal(t, fmt.Sprint(i), string(doc))
	}
}

func TestQueryAll_Failure(t *testing.T) {
	db, mock := newMock(t)

	stmt := render.Postgres(ast.SelectFrom(ast.NewTable("missing")).Value(ast.Col("doc").As("root")))
	mock.ExpectQuery(stmt.SQL).WillReturnError(&pgconn.PgError{Code: "42P01"})

	_, err := pgexec.New(db, pgexec.WithMaxConcurrency(0)).QueryAll(context.Background(), stmt)
	require.Error(t, err)
	assert.True(t, pgexec.IsUndefinedRelationErr(err))
	assert.Contains(t, err.Error(), "statement 0")
}

func TestRun(t *testing.T) {
	users := resolve.Table{Schema: "public", Name: "users"}
	filter := &resolve.Filter{Column: "id", Op: resolve.FilterEq, Value: 1}

	t.Run("selection", func(t *testing.T) {
		db, mock := newMock(t)
		op := resolve.Operation{
			Kind:      resolve.KindFindOne,
			Table:     users,
			Filter:    filter,
			Selection: resolve.Selection{Fields: []resolve.Field{{Name: "id"}}},
		}
		mock.ExpectQuery(`SELECT json_build_object($1::text, "users"."id") AS "root" `+
			`FROM "public"."users" AS "users" WHERE "users"."id" = $2 LIMIT $3`).
			WithArgs("id", int64(1), int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"root"}).AddRow([]byte(`{"id":1}`)))

		res, err := pgexec.New(db).Run(context.Background(), op)
		require.NoError(t, err)
		require.Len(t, res.Documents, 1)
		assert.JSONEq(t, `{"id":1}`, string(res.Documents[0]))
	})

	t.Run("returning columns", func(t *testing.T) {
		db, mock := newMock(t)
		op := resolve.Operation{
			Kind:      resolve.KindDeleteOne,
			Table:     users,
			Filter:    filter,
			Returning: resolve.Returning{Columns: []string{"id"}},
		}
		mock.ExpectQuery(`DELETE FROM "public"."users" WHERE "id" = $1 RETURNING "id"`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

		res, err := pgexec.New(db).Run(context.Background(), op)
		require.NoError(t, err)
		assert.Equal(t, []map[string]any{{"id": int64(1)}}, res.Rows)
	})

	t.Run("rows affected", func(t *testing.T) {
		db, mock := newMock(t)
		op := resolve.Operation{Kind: resolve.KindDeleteMany, Table: users}
		mock.ExpectExec(`DELETE FROM "public"."users"`).WillReturnResult(sqlmock.NewResult(0, 4))

		res, err := pgexec.New(db).Run(context.Background(), op)
		require.NoError(t, err)
		assert.Equal(t, int64(4), res.RowsAffected)
	})

	t.Run("build error", func(t *testing.T) {
		db, _ := newMock(t)
		_, err := pgexec.New(db).Run(context.Background(), resolve.Operation{Kind: "upsert", Table: users})
		assert.True(t, resolve.IsUnknownOperationErr(err))
	})
}
