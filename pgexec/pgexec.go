// Package pgexec runs rendered statements through database/sql.
//
// It works with any driver registered under database/sql. Both lib/pq and
// pgx's stdlib adapter are supported; array parameters are converted with
// pq.Array so either driver receives a value it can encode.
//
// # Basic Usage
//
//	ex := pgexec.New(db, pgexec.WithLogger(logger))
//	doc, err := ex.QueryJSON(ctx, render.Postgres(q))
//
// # Caching
//
// Read-heavy callers can attach a Cache so identical statements with
// identical parameters are answered without a round trip:
//
//	ex := pgexec.New(db, pgexec.WithCache(pgexec.NewCache(pgexec.WithTTL(time.Minute))))
//
// # Transaction Support
//
// The Executor works with *sql.DB, *sql.Tx, or *sql.Conn, so statements see
// uncommitted changes made earlier in the same transaction:
//
//	tx, _ := db.BeginTx(ctx, nil)
//	ex := pgexec.New(tx)
//	_, err := ex.Exec(ctx, stmt)
package pgexec

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/pthm/sqlast/render"
	"github.com/pthm/sqlast/resolve"
)

// Querier is the minimal interface for reading statement results.
// Implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Execer extends Querier with ExecContext for statements without results.
// Implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Execer interface {
	Querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DefaultMaxConcurrency bounds QueryAll when no limit is configured.
const DefaultMaxConcurrency = 4

// Executor runs rendered statements against a database handle.
// It is safe for concurrent use when the underlying handle is.
type Executor struct {
	db             Execer
	logger         *slog.Logger
	maxConcurrency int
	cache          Cache
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger for statement tracing. Statements are logged
// at debug level with their SQL and parameter count; parameter values are
// never logged.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

// WithMaxConcurrency bounds how many statements QueryAll runs at once.
// Values below one are treated as one.
func WithMaxConcurrency(n int) Option {
	return func(e *Executor) {
		e.maxConcurrency = max(n, 1)
	}
}

// WithCache serves repeated QueryJSON statements from c. Only use a cache
// with executors that run reads, or with a TTL short enough that stale
// documents are acceptable.
func WithCache(c Cache) Option {
	return func(e *Executor) {
		e.cache = c
	}
}

// New creates an Executor over db.
func New(db Execer, opts ...Option) *Executor {
	e := &Executor{
		db:             db,
		logger:         slog.New(slog.DiscardHandler),
		maxConcurrency: DefaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// QueryJSON runs a statement producing one JSON document in its first
// column and returns that document. A NULL document is returned as JSON
// null. Returns ErrNoRows if the statement produced no rows.
func (e *Executor) QueryJSON(ctx context.Context, stmt render.Statement) (json.RawMessage, error) {
	if e.cache != nil {
		if doc, ok := e.cache.Get(stmt); ok {
			e.logger.DebugContext(ctx, "query json cached", "sql", stmt.SQL)
			return doc, nil
		}
	}

	docs, err := e.QueryJSONRows(ctx, stmt)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNoRows
	}
	if e.cache != nil {
		e.cache.Set(stmt, docs[0])
	}
	return docs[0], nil
}

// QueryJSONRows runs a statement producing one JSON document per row, as
// mutations returning a selection do, and returns every document in row
// order.
func (e *Executor) QueryJSONRows(ctx context.Context, stmt render.Statement) ([]json.RawMessage, error) {
	defer e.trace(ctx, "query json", stmt)()

	rows, err := e.db.QueryContext(ctx, stmt.SQL, args(stmt)...)
	if err != nil {
		return nil, mapError("query json", err)
	}
	defer func() { _ = rows.Close() }()

	docs := []json.RawMessage{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if raw == nil {
			raw = []byte("null")
		}
		docs = append(docs, json.RawMessage(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("query json", err)
	}
	return docs, nil
}

// QueryRows runs a statement and returns each row keyed by column name.
// Byte values are returned as strings, matching how PostgreSQL prints
// text-format results.
func (e *Executor) QueryRows(ctx context.Context, stmt render.Statement) ([]map[string]any, error) {
	defer e.trace(ctx, "query rows", stmt)()

	rows, err := e.db.QueryContext(ctx, stmt.SQL, args(stmt)...)
	if err != nil {
		return nil, mapError("query rows", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	out := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(bytes.Clone(b))
				continue
			}
			row[c] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("query rows", err)
	}
	return out, nil
}

// Exec runs a statement without reading results and returns the number of
// affected rows.
func (e *Executor) Exec(ctx context.Context, stmt render.Statement) (int64, error) {
	defer e.trace(ctx, "exec", stmt)()

	res, err := e.db.ExecContext(ctx, stmt.SQL, args(stmt)...)
	if err != nil {
		return 0, mapError("exec", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// QueryAll runs independent JSON statements concurrently, bounded by the
// configured concurrency, and returns their documents in argument order.
// The first failure cancels the statements still running.
func (e *Executor) QueryAll(ctx context.Context, stmts ...render.Statement) ([]json.RawMessage, error) {
	docs := make([]json.RawMessage, len(stmts))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.maxConcurrency)
	for i, stmt := range stmts {
		eg.Go(func() error {
			doc, err := e.QueryJSON(ctx, stmt)
			if err != nil {
				return fmt.Errorf("statement %d: %w", i, err)
			}
			docs[i] = doc
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Result is the outcome of running an operation.
type Result struct {
	// Statement is the statement that ran.
	Statement render.Statement

	// Documents holds one JSON document per returned row for operations
	// returning a selection.
	Documents []json.RawMessage

	// Rows holds returned columns for operations returning plain columns.
	Rows []map[string]any

	// RowsAffected is set for mutations without a returning clause.
	RowsAffected int64
}

// Run builds, renders and executes an operation, reading results in the
// shape the operation produces.
func (e *Executor) Run(ctx context.Context, op resolve.Operation) (*Result, error) {
	q, err := op.Build()
	if err != nil {
		return nil, err
	}
	res := &Result{Statement: render.Postgres(q)}

	switch {
	case op.ReturnsJSON():
		res.Documents, err = e.QueryJSONRows(ctx, res.Statement)
	case len(op.Returning.Columns) > 0:
		res.Rows, err = e.QueryRows(ctx, res.Statement)
	default:
		res.RowsAffected, err = e.Exec(ctx, res.Statement)
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", op.Kind, op.Table.Name, err)
	}
	return res, nil
}

// trace logs the statement and returns a func logging its duration.
func (e *Executor) trace(ctx context.Context, operation string, stmt render.Statement) func() {
	if !e.logger.Enabled(ctx, slog.LevelDebug) {
		return func() {}
	}
	start := time.Now()
	e.logger.DebugContext(ctx, operation, "sql", stmt.SQL, "params", len(stmt.Params))
	return func() {
		e.logger.DebugContext(ctx, operation+" done", "duration", time.Since(start))
	}
}

// args converts statement parameters for the driver. Slices go through
// pq.Array, which both lib/pq and pgx accept as array literals.
func args(stmt render.Statement) []any {
	out := stmt.Args()
	for i, a := range out {
		switch a.(type) {
		case []bool, []float64, []int64, []string, [][]byte:
			out[i] = pq.Array(a)
		}
	}
	return out
}
