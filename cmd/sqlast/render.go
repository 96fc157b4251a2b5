package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/pthm/sqlast/internal/cli"
	"github.com/pthm/sqlast/internal/sqlcheck"
	"github.com/pthm/sqlast/render"
)

var (
	renderFiles  []string
	renderVerify bool
	renderFormat string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render operation documents into SQL",
	Long: `Render operation documents into parameterized PostgreSQL.

Each document describes one operation. With --verify, every statement is
parsed with the PostgreSQL parser and annotated with its fingerprint.`,
	Example: `  # Render an operation
  sqlast render -f find_users.yaml

  # Render from stdin as JSON
  cat op.json | sqlast render --format json

  # Verify rendered SQL with the PostgreSQL parser
  sqlast render -f a.yaml -f b.yaml --verify`,
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := loadDocuments(fs, cmd.InOrStdin(), renderFiles)
		if err != nil {
			return cli.OperationError("loading operations", err)
		}

		format := resolveString(renderFormat, cfg.Render.Format, "text")
		verify := resolveBool(renderVerify, cfg.Render.Verify)

		out := make([]renderedStatement, 0, len(docs))
		for _, doc := range docs {
			q, err := doc.Operation.Build()
			if err != nil {
				return cli.OperationError(fmt.Sprintf("building %s", doc.Source), err)
			}
			stmt := render.Postgres(q)
			logger.Debug("rendered", "source", doc.Source, "params", len(stmt.Params))

			rs := newRenderedStatement(doc.Source, stmt)
			if verify {
				if err := sqlcheck.Verify(stmt.SQL); err != nil {
					return cli.InvalidSQLError(fmt.Sprintf("verifying %s", doc.Source), err)
				}
				if rs.Fingerprint, err = sqlcheck.Fingerprint(stmt.SQL); err != nil {
					return cli.InvalidSQLError(fmt.Sprintf("fingerprinting %s", doc.Source), err)
				}
			}
			out = append(out, rs)
		}

		return writeStatements(cmd.OutOrStdout(), format, out)
	},
}

func init() {
	registerDocumentFlags(renderCmd.Flags(), &renderFiles, &renderFormat, "output format: text, json or yaml (default from config)")
	renderCmd.Flags().BoolVar(&renderVerify, "verify", false, "parse rendered SQL with the PostgreSQL parser")
}

// renderedStatement is the printable form of a rendered statement.
type renderedStatement struct {
	Source      string  `json:"source"`
	SQL         string  `json:"sql"`
	Params      []param `json:"params"`
	Fingerprint string  `json:"fingerprint,omitempty"`
}

type param struct {
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

func newRenderedStatement(source string, stmt render.Statement) renderedStatement {
	rs := renderedStatement{Source: source, SQL: stmt.SQL, Params: make([]param, len(stmt.Params))}
	for i, p := range stmt.Params {
		rs.Params[i] = param{Kind: p.Kind().String(), Value: p.Any()}
	}
	return rs
}

func writeStatements(w io.Writer, format string, stmts []renderedStatement) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stmts)
	case "yaml":
		data, err := yaml.Marshal(stmts)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "text":
		for i, s := range stmts {
			if i > 0 {
				_, _ = fmt.Fprintln(w)
			}
			_, _ = fmt.Fprintf(w, "-- %s\n", s.Source)
			if s.Fingerprint != "" {
				_, _ = fmt.Fprintf(w, "-- fingerprint: %s\n", s.Fingerprint)
			}
			_, _ = fmt.Fprintf(w, "%s;\n", s.SQL)
			for j, p := range s.Params {
				_, _ = fmt.Fprintf(w, "-- $%d = %v (%s)\n", j+1, p.Value, p.Kind)
			}
		}
		return nil
	}
	return cli.ConfigError("writing output", fmt.Errorf("unknown format %q", format))
}
