package pgexec_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/sqlast/ast"
	"github.com/pthm/sqlast/pgexec"
	"github.com/pthm/sqlast/render"
)

func userByID(id int64) render.Statement {
	return render.Postgres(ast.SelectFrom(ast.NewTable("users")).
		Value(ast.Col("doc").As("root")).
		Where(ast.Col("id").Equals(ast.Val(id))))
}

func TestCache_GetSet(t *testing.T) {
	c := pgexec.NewCache()

	_, ok := c.Get(userByID(1))
	assert.False(t, ok)

	c.Set(userByID(1), json.RawMessage(`{"id":1}`))
	doc, ok := c.Get(userByID(1))
	require.True(t, ok)
	assert.JSONEq(t, `{"id":1}`, string(doc))

	// Same SQL, different parameter
	_, ok = c.Get(userByID(2))
	assert.False(t, ok)
	assert.Equal(t, 1, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestCache_BytesDoNotCollide(t *testing.T) {
	c := pgexec.NewCache()
	stmt := func(b []byte) render.Statement {
		return render.Postgres(ast.SelectFrom(ast.NewTable("users")).
			Value(ast.Col("doc").As("root")).
			Where(ast.Col("avatar").Equals(ast.Val(b))))
	}

	c.Set(stmt([]byte{1, 2}), json.RawMessage(`1`))
	_, ok := c.Get(stmt([]byte{2, 1}))
	assert.False(t, ok)
}

func TestCache_TTL(t *testing.T) {
	c := pgexec.NewCache(pgexec.WithTTL(time.Millisecond))
	c.Set(userByID(1), json.RawMessage(`{}`))

	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(userByID(1))
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size(), "expired entries are evicted on read")
}

func TestQueryJSON_Cached(t *testing.T) {
	db, mock := newMock(t)

	stmt := userByID(3)
	mock.ExpectQuery(stmt.SQL).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"root"}).AddRow([]byte(`{"id":3}`)))

	cache := pgexec.NewCache()
	ex := pgexec.New(db, pgexec.WithCache(cache))

	for range 3 {
		doc, err := ex.QueryJSON(context.Background(), stmt)
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":3}`, string(doc))
	}
	assert.Equal(t, 1, cache.Size())
}

func TestQueryJSON_NoRowsNotCached(t *testing.T) {
	db, mock := newMock(t)

	stmt := userByID(4)
	mock.ExpectQuery(stmt.SQL).WithArgs(int64(4)).WillReturnRows(sqlmock.NewRows([]string{"root"}))
	mock.ExpectQuery(stmt.SQL).WithArgs(int64(4)).WillReturnRows(sqlmock.NewRows([]string{"root"}))

	ex := pgexec.New(db, pgexec.WithCache(pgexec.NewCache()))
	for range 2 {
		_, err := ex.QueryJSON(context.Background(), stmt)
		assert.True(t, pgexec.IsNoRowsErr(err))
	}
}
