// Package generate implements the command writing migration files for the
// declared composite types.
package generate

import (
	"context"
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/stokaro/pgcomposite/cmd/internal/cliutil"
	"github.com/stokaro/pgcomposite/migration/generator"
)

// Migration generation flags
const (
	nameFlag      = "name"
	outputDirFlag = "output-dir"
)

// NewGenerateCommand returns the generate command
func NewGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate migration files creating the declared composite types",
		Long: `Generate up and down migration files creating the composite types declared in
the config file, dependencies first.

The DDL is written into the files, so the migration keeps creating the same
types after the declarations change. When a database URL is given, types that
already exist in the database are skipped.

Examples:
  pgcomposite generate --config pgcomposite.yaml --name add_shapes
  pgcomposite generate --config pgcomposite.yaml --name add_shapes --db-url postgres://localhost/app`,
		Args: cobra.NoArgs,
		RunE: migrationCommand,
	}

	cobraflags.RegisterMap(cmd, cliutil.CommonFlags(map[string]cobraflags.Flag{
		nameFlag: &cobraflags.StringFlag{
			Name:  nameFlag,
			Value: "",
			Usage: "Name for the migration (required)",
		},
		outputDirFlag: &cobraflags.StringFlag{
			Name:  outputDirFlag,
			Value: "",
			Usage: "Directory where migration files will be saved (default migrations_dir)",
		},
	}))
	return cmd
}

func migrationCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts, err := cliutil.LoadOptions(cmd)
	if err != nil {
		return err
	}
	migrationName, _ := cmd.Flags().GetString(nameFlag)
	if migrationName == "" {
		return fmt.Errorf("migration name is required (use --name flag)")
	}
	outputDir := opts.MigrationsDir
	if cmd.Flags().Changed(outputDirFlag) {
		outputDir, _ = cmd.Flags().GetString(outputDirFlag)
	}

	descs, err := opts.Descriptors()
	if err != nil {
		return err
	}
	if len(descs) == 0 {
		return fmt.Errorf("no composite types declared")
	}

	genOpts := generator.GenerateMigrationOptions{
		Descriptors:   descs,
		MigrationName: migrationName,
		OutputDir:     outputDir,
	}
	if opts.DatabaseURL != "" {
		logger, err := cliutil.NewLogger(opts)
		if err != nil {
			return err
		}
		conn, err := cliutil.Connect(ctx, opts, logger)
		if err != nil {
			return err
		}
		defer conn.Close()
		genOpts.DBConn = conn
	}

	files, err := generator.GenerateMigration(ctx, genOpts)
	if err != nil {
		return fmt.Errorf("error generating migration files: %w", err)
	}

	out := cmd.OutOrStdout()
	if files == nil {
		fmt.Fprintln(out, "All declared composite types already exist, no migration generated")
		return nil
	}
	fmt.Fprintf(out, "Generated migration files:\n")
	fmt.Fprintf(out, "  UP:   %s\n", files.UpFile)
	fmt.Fprintf(out, "  DOWN: %s\n", files.DownFile)
	fmt.Fprintf(out, "  Version: %d\n", files.Version)
	return nil
}
