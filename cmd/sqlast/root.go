package main

import (
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pthm/sqlast/internal/cli"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *cli.Config
	configPath string
	logger     = slog.New(slog.DiscardHandler)

	// Filesystem operation documents are read from
	fs = afero.NewOsFs()

	// Persistent flags
	cfgFile string
	verbose int
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "sqlast",
	Short: "PostgreSQL statements from GraphQL-shaped operations",
	Long: `sqlast - PostgreSQL statements from GraphQL-shaped operations

sqlast lowers operation documents into typed statement trees and renders
them as parameterized PostgreSQL, with nested selections aggregated into a
single JSON document.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for help/completion/version commands
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, configPath, err = cli.LoadConfig(cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}

		level, err := cfg.LogLevel()
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}
		logger = newLogger(cmd, level)
		logger.Debug("configuration loaded", "path", configPath)
		return nil
	},
	SilenceUsage:  true, // Don't show usage on errors
	SilenceErrors: true, // We handle errors ourselves
}

// Command group IDs
const (
	groupStatements = "statements"
	groupUtility    = "utility"
)

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: auto-discover sqlast.yaml)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase verbosity (can be repeated)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")

	// Define command groups
	rootCmd.AddGroup(
		&cobra.Group{ID: groupStatements, Title: "Statements:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	renderCmd.GroupID = groupStatements
	execCmd.GroupID = groupStatements
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(execCmd)

	configCmd.GroupID = groupUtility
	versionCmd.GroupID = groupUtility
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(cli.ExitCode(os.Stderr, err))
	}
}

// newLogger builds the stderr logger. Each -v lowers the configured level
// by one step; --quiet wins and keeps only errors.
func newLogger(cmd *cobra.Command, level slog.Level) *slog.Logger {
	switch {
	case quiet:
		level = slog.LevelError
	case verbose > 0:
		level -= slog.Level(4 * verbose)
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// registerDocumentFlags adds the flags shared by commands that read
// operation documents.
func registerDocumentFlags(flags *pflag.FlagSet, files *[]string, format *string, usage string) {
	flags.StringArrayVarP(files, "file", "f", nil, "operation document (repeatable, - for stdin)")
	flags.StringVar(format, "format", "", usage)
}

// resolveString returns the first non-empty string from the provided values.
// Used to implement precedence: flag > config > default.
func resolveString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveBool returns true if any of the provided values is true.
// Used for boolean flags where any true value should win.
func resolveBool(values ...bool) bool {
	for _, v := range values {
		if v {
			return true
		}
	}
	return false
}
