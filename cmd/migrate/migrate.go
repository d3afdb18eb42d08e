// Package migrate implements the commands applying and reverting migration files.
package migrate

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/go-extras/cobraflags"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/stokaro/pgcomposite/cmd/internal/cliutil"
	"github.com/stokaro/pgcomposite/dbschema"
	"github.com/stokaro/pgcomposite/migration/migrator"
)

const (
	migrationsDirFlag = "migrations-dir"
	dryRunFlag        = "dry-run"
	jsonFlag          = "json"
)

// NewMigrateCommand returns the migrate command with its up, down, to and
// status subcommands
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or revert migrations",
		Long: `Apply or revert the migrations found in the migrations directory.

Available subcommands:
  up      - Apply all pending migrations
  down    - Revert the latest applied migration
  to      - Migrate up or down to a specific version
  status  - Show the current version and pending migrations

Examples:
  pgcomposite migrate up --db-url postgres://localhost/app
  pgcomposite migrate to 20250101120000 --config pgcomposite.yaml
  pgcomposite migrate status --json`,
	}

	cmd.AddCommand(newSubcommand("up", "Apply all pending migrations", cobra.NoArgs,
		func(ctx context.Context, m *migrator.Migrator, _ *cobra.Command, _ []string) error {
			return m.MigrateUp(ctx)
		}))
	cmd.AddCommand(newSubcommand("down", "Revert the latest applied migration", cobra.NoArgs,
		func(ctx context.Context, m *migrator.Migrator, _ *cobra.Command, _ []string) error {
			return m.MigrateDown(ctx)
		}))
	cmd.AddCommand(newSubcommand("to <version>", "Migrate up or down to a specific version", cobra.ExactArgs(1),
		func(ctx context.Context, m *migrator.Migrator, _ *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return m.MigrateTo(ctx, version)
		}))
	cmd.AddCommand(newSubcommand("status", "Show the current version and pending migrations", cobra.NoArgs, statusCommand))
	return cmd
}

type migrateFunc func(ctx context.Context, m *migrator.Migrator, cmd *cobra.Command, args []string) error

func newSubcommand(use, short string, args cobra.PositionalArgs, run migrateFunc) *cobra.Command {
	sub := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *migrator.Migrator) error {
				return run(ctx, m, cmd, args)
			})
		},
	}

	cobraflags.RegisterMap(sub, cliutil.CommonFlags(map[string]cobraflags.Flag{
		migrationsDirFlag: &cobraflags.StringFlag{
			Name:  migrationsDirFlag,
			Value: "",
			Usage: "Directory containing the migration files (default ./migrations)",
		},
	}))
	sub.Flags().Bool(dryRunFlag, false, "Log the statements instead of executing them")
	if use == "status" {
		sub.Flags().Bool(jsonFlag, false, "Print the status as JSON")
	}
	return sub
}

func withMigrator(cmd *cobra.Command, fn func(ctx context.Context, m *migrator.Migrator) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts, err := cliutil.LoadOptions(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed(migrationsDirFlag) {
		opts.MigrationsDir, _ = cmd.Flags().GetString(migrationsDirFlag)
	}
	if cmd.Flags().Changed(dryRunFlag) {
		opts.DryRun, _ = cmd.Flags().GetBool(dryRunFlag)
	}

	logger, err := cliutil.NewLogger(opts)
	if err != nil {
		return err
	}

	if _, err := os.Stat(opts.MigrationsDir); err != nil {
		return fmt.Errorf("migrations directory %s: %w", opts.MigrationsDir, err)
	}

	conn, err := cliutil.Connect(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer func(conn *dbschema.DatabaseConnection) {
		if err := conn.Close(); err != nil {
			logger.Warn("Failed to close database connection", "error", err)
		}
	}(conn)

	m, err := migrator.NewFSMigrator(conn, os.DirFS(opts.MigrationsDir))
	if err != nil {
		return fmt.Errorf("error loading migrations: %w", err)
	}
	return fn(ctx, m.WithLogger(logger))
}

func statusCommand(ctx context.Context, m *migrator.Migrator, cmd *cobra.Command, _ []string) error {
	if err := m.Initialize(ctx); err != nil {
		return err
	}
	status, err := m.GetMigrationStatus(ctx)
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool(jsonFlag)
	return printStatus(cmd, status, asJSON)
}

func printStatus(cmd *cobra.Command, status *migrator.MigrationStatus, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode status: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	fmt.Fprintf(out, "Current version: %d\n", status.CurrentVersion)
	fmt.Fprintf(out, "Total migrations: %d\n", status.TotalMigrations)
	if !status.HasPendingChanges {
		fmt.Fprintln(out, "No pending migrations")
		return nil
	}
	fmt.Fprintf(out, "Pending migrations (%d):\n", len(status.PendingMigrations))
	for _, v := range status.PendingMigrations {
		fmt.Fprintf(out, "  %d\n", v)
	}
	return nil
}
