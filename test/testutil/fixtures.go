package testutil

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pthm/sqlast/ast"
	"github.com/pthm/sqlast/pgexec"
	"github.com/pthm/sqlast/render"
)

// Fixtures creates test rows. Small sets go through sqlast itself; large
// user sets are loaded with COPY FROM.
type Fixtures struct {
	db  *sql.DB
	ex  *pgexec.Executor
	ctx context.Context
}

// NewFixtures creates a Fixtures instance over db.
func NewFixtures(ctx context.Context, db *sql.DB) *Fixtures {
	return &Fixtures{db: db, ex: pgexec.New(db), ctx: ctx}
}

// User describes a user row. Zero fields fall back to column defaults.
type User struct {
	OrgID int64
	Name  string
	Email string
	Mood  string
	Tags  []string

	PastMoods []string
}

// CreateOrg inserts an organization and returns its id.
func (f *Fixtures) CreateOrg(name string) (int64, error) {
	ins := ast.InsertInto(ast.NewTable("orgs")).
		Value("name", ast.Val(name)).
		Build().
		ReturningColumns("id")
	return f.returningID(ins)
}

// CreateUsers inserts users with one multi-row statement and returns their
// ids in input order.
func (f *Fixtures) CreateUsers(users ...User) ([]int64, error) {
	if len(users) == 0 {
		return nil, nil
	}

	var multi *ast.MultiRowInsert
	first := userRow(users[0])
	for _, u := range users[1:] {
		var err error
		if multi == nil {
			multi, err = first.Merge(userRow(u))
		} else {
			err = multi.Extend(userRow(u))
		}
		if err != nil {
			return nil, fmt.Errorf("merge users: %w", err)
		}
	}

	ins := first.Build()
	if multi != nil {
		var err error
		if ins, err = multi.Build(); err != nil {
			return nil, err
		}
	}

	rows, err := f.ex.QueryRows(f.ctx, render.Postgres(ins.ReturningColumns("id")))
	if err != nil {
		return nil, fmt.Errorf("insert users: %w", err)
	}
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r["id"].(int64)
	}
	return ids, nil
}

func userRow(u User) *ast.SingleRowInsert {
	ins := ast.InsertInto(ast.NewTable("users"))
	if u.OrgID != 0 {
		ins.Value("org_id", ast.Val(u.OrgID))
	} else {
		ins.Value("org_id", ast.Null())
	}
	ins.Value("name", ast.Val(u.Name))
	if u.Email != "" {
		ins.Value("email", ast.Val(u.Email))
	} else {
		ins.Value("email", ast.Null())
	}
	if u.Mood != "" {
		ins.Value("mood", ast.Enum(ast.EnumType{Name: "mood"}, u.Mood))
	} else {
		ins.Value("mood", ast.DefaultValue())
	}
	ins.Value("tags", ast.Array(u.Tags...))
	if len(u.PastMoods) > 0 {
		// Bound as text[]; the driver has no codec for mood[].
		ins.Value("past_moods", ast.Cast(ast.Cast(ast.Array(u.PastMoods...), ast.CastTextArray), ast.CastType("mood[]")))
	} else {
		ins.Value("past_moods", ast.DefaultValue())
	}
	return ins
}

// CreatePost inserts a post and returns its id.
func (f *Fixtures) CreatePost(authorID int64, title string, published bool, score float64) (int64, error) {
	ins := ast.InsertInto(ast.NewTable("posts")).
		Value("author_id", ast.Val(authorID)).
		Value("title", ast.Val(title)).
		Value("published", ast.Val(published)).
		Value("score", ast.Val(score)).
		Build().
		ReturningColumns("id")
	return f.returningID(ins)
}

// SetMeta replaces a user's meta document.
func (f *Fixtures) SetMeta(userID int64, meta map[string]any) error {
	doc, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	upd, err := ast.UpdateTable(ast.NewTable("users")).
		Set("meta", ast.JSON(doc)).
		Where(ast.Col("id").Equals(ast.Val(userID))).
		Build()
	if err != nil {
		return err
	}
	_, err = f.ex.Exec(f.ctx, render.Postgres(upd))
	return err
}

func (f *Fixtures) returningID(q ast.Query) (int64, error) {
	rows, err := f.ex.QueryRows(f.ctx, render.Postgres(q))
	if err != nil {
		return 0, err
	}
	if len(rows) != 1 {
		return 0, fmt.Errorf("expected one row, got %d", len(rows))
	}
	return rows[0]["id"].(int64), nil
}

// CopyUsers bulk loads n users named user_0..user_n-1 using COPY FROM.
// Requires a connection opened with the pgx driver.
func (f *Fixtures) CopyUsers(n int) error {
	conn, err := f.db.Conn(f.ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return conn.Raw(func(driverConn any) error {
		c, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("not a pgx connection (got %T)", driverConn)
		}

		rows := make([][]any, n)
		for i := range rows {
			rows[i] = []any{fmt.Sprintf("user_%d", i)}
		}
		_, err := c.Conn().CopyFrom(f.ctx, pgx.Identifier{"users"}, []string{"name"}, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("COPY FROM: %w", err)
		}
		return nil
	})
}

// Count returns the number of rows in table.
func (f *Fixtures) Count(table string) (int64, error) {
	q := ast.SelectFrom(ast.NewTable(table)).Value(ast.CountAll().As("n"))
	rows, err := f.ex.QueryRows(f.ctx, render.Postgres(q))
	if err != nil {
		return 0, err
	}
	return rows[0]["n"].(int64), nil
}
