// Package cliutil holds the flags and setup shared by the pgcomposite commands.
package cliutil

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/stokaro/pgcomposite/config"
	"github.com/stokaro/pgcomposite/dbschema"
	"github.com/stokaro/pgcomposite/registry"
)

// Common flags
const (
	ConfigFlag      = "config"
	DatabaseURLFlag = "db-url"
	SchemaFlag      = "schema"
	LogLevelFlag    = "log-level"
)

// CommonFlags returns a fresh set of the flags every command accepts, merged
// with extra.
func CommonFlags(extra map[string]cobraflags.Flag) map[string]cobraflags.Flag {
	flags := map[string]cobraflags.Flag{
		ConfigFlag: &cobraflags.StringFlag{
			Name:  ConfigFlag,
			Value: "",
			Usage: "Path to a YAML, JSON or TOML config file",
		},
		DatabaseURLFlag: &cobraflags.StringFlag{
			Name:  DatabaseURLFlag,
			Value: "",
			Usage: "Database URL (overrides database_url and PGCOMPOSITE_DATABASE_URL)",
		},
		SchemaFlag: &cobraflags.StringFlag{
			Name:  SchemaFlag,
			Value: "",
			Usage: "Database schema holding the composite types (default public)",
		},
		LogLevelFlag: &cobraflags.StringFlag{
			Name:  LogLevelFlag,
			Value: "",
			Usage: "Log level: debug, info, warn or error",
		},
	}
	maps.Copy(flags, extra)
	return flags
}

// LoadOptions loads the config file named by --config and applies the flags
// that were set explicitly on cmd.
func LoadOptions(cmd *cobra.Command) (*config.Options, error) {
	path, _ := cmd.Flags().GetString(ConfigFlag)
	opts, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	overrides := map[string]*string{
		DatabaseURLFlag: &opts.DatabaseURL,
		SchemaFlag:      &opts.Schema,
		LogLevelFlag:    &opts.LogLevel,
	}
	for name, target := range overrides {
		if !cmd.Flags().Changed(name) {
			continue
		}
		value, err := cmd.Flags().GetString(name)
		if err != nil {
			return nil, err
		}
		*target = value
	}
	return opts, nil
}

// NewLogger returns a text logger writing to stderr at the configured level.
func NewLogger(opts *config.Options) (*slog.Logger, error) {
	level, err := opts.SlogLevel()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

// Connect opens the configured database. The declared types are added to the
// default registry first, so they are loaded by the first connection.
func Connect(ctx context.Context, opts *config.Options, logger *slog.Logger) (*dbschema.DatabaseConnection, error) {
	if opts.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL is required (use --%s, database_url or PGCOMPOSITE_DATABASE_URL)", DatabaseURLFlag)
	}

	descs, err := opts.Descriptors()
	if err != nil {
		return nil, err
	}
	reg := registry.Default()
	reg.SetLogger(logger)
	reg.Declare(descs...)

	conn, err := dbschema.ConnectToDatabase(ctx, opts.DatabaseURL,
		dbschema.WithSchema(opts.Schema),
		dbschema.WithRegistry(reg),
		dbschema.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	conn.Writer().SetDryRun(opts.DryRun)
	return conn, nil
}
