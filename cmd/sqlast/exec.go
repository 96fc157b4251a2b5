package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/lib/pq"              // registers the "postgres" driver
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/pthm/sqlast/internal/cli"
	"github.com/pthm/sqlast/pgexec"
	"github.com/pthm/sqlast/render"
	"github.com/pthm/sqlast/resolve"
)

var (
	execFiles    []string
	execRollback bool
	execFormat   string
)

var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "Run operation documents against PostgreSQL",
	Long: `Run operation documents against PostgreSQL and print their results.

When every operation is a read they run concurrently, bounded by
database.max_concurrency. Otherwise they run in order inside one
transaction, which --rollback discards after printing the results.`,
	Example: `  # Run a query
  sqlast exec -f find_users.yaml

  # Try a mutation without keeping its effects
  sqlast exec -f create_user.yaml --rollback`,
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := loadDocuments(fs, cmd.InOrStdin(), execFiles)
		if err != nil {
			return cli.OperationError("loading operations", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Exec.Timeout)
		defer cancel()

		db, err := openDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		results, err := runDocuments(ctx, db, docs, cfg.Database.MaxConcurrency, execRollback)
		if err != nil {
			return cli.GeneralError("executing operations", err)
		}

		format := resolveString(execFormat, cfg.Render.Format)
		return writeResults(cmd.OutOrStdout(), format, results)
	},
}

func init() {
	registerDocumentFlags(execCmd.Flags(), &execFiles, &execFormat, "output format: json or yaml (default from config, text prints json)")
	execCmd.Flags().BoolVar(&execRollback, "rollback", false, "roll back mutations after running them")
}

func openDB(ctx context.Context, cfg *cli.Config) (*sql.DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, cli.ConfigError("database configuration", err)
	}

	db, err := sql.Open(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, cli.DBConnectError("opening database", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxConcurrency)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, cli.DBConnectError("connecting to database", err)
	}
	logger.Debug("connected", "driver", cfg.Database.Driver)
	return db, nil
}

// result is the printable outcome of one operation.
type result struct {
	Source       string            `json:"source"`
	Documents    []json.RawMessage `json:"documents,omitempty"`
	Rows         []map[string]any  `json:"rows,omitempty"`
	RowsAffected *int64            `json:"rowsAffected,omitempty"`
}

// runDocuments runs reads concurrently when there are only reads, and
// everything else in order in a single transaction.
func runDocuments(ctx context.Context, db *sql.DB, docs []document, concurrency int, rollback bool) ([]result, error) {
	opts := []pgexec.Option{
		pgexec.WithLogger(logger),
		pgexec.WithMaxConcurrency(concurrency),
	}

	if onlyReads(docs) {
		stmts := make([]render.Statement, len(docs))
		for i, doc := range docs {
			q, err := doc.Operation.Build()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", doc.Source, err)
			}
			stmts[i] = render.Postgres(q)
		}

		out, err := pgexec.New(db, opts...).QueryAll(ctx, stmts...)
		if err != nil {
			return nil, err
		}
		results := make([]result, len(docs))
		for i, doc := range docs {
			results[i] = result{Source: doc.Source, Documents: out[i : i+1]}
		}
		return results, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ex := pgexec.New(tx, opts...)
	results := make([]result, 0, len(docs))
	for _, doc := range docs {
		res, err := ex.Run(ctx, doc.Operation)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", doc.Source, err)
		}
		r := result{Source: doc.Source, Documents: res.Documents, Rows: res.Rows}
		if res.Documents == nil && res.Rows == nil {
			r.RowsAffected = &res.RowsAffected
		}
		results = append(results, r)
	}

	if rollback {
		logger.Info("rolling back", "operations", len(docs))
		return results, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}
	return results, nil
}

func onlyReads(docs []document) bool {
	for _, doc := range docs {
		switch doc.Operation.Kind {
		case resolve.KindFindOne, resolve.KindFindMany, resolve.KindLookup, resolve.KindConnection:
		default:
			return false
		}
	}
	return true
}

func writeResults(w io.Writer, format string, results []result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	if format == "yaml" {
		if data, err = yaml.JSONToYAML(data); err != nil {
			return err
		}
	} else {
		data = append(data, '\n')
	}
	_, err = w.Write(data)
	return err
}
