// Package inspect implements the command generating Go declarations for the
// composite types found in a database.
package inspect

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/stokaro/pgcomposite/cmd/internal/cliutil"
	"github.com/stokaro/pgcomposite/config"
	"github.com/stokaro/pgcomposite/core/convert/dbschematogo"
	"github.com/stokaro/pgcomposite/dbschema/types"
)

const (
	packageFlag = "package"
	outputFlag  = "output"
)

// NewInspectCommand returns the inspect command
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Generate Go declarations for the composite types of a database",
		Long: `Read the composite types of a database schema and print Go source declaring
a composite.Descriptor for each of them.

Types listed in ignored_types are skipped.

Examples:
  pgcomposite inspect --db-url postgres://localhost/app
  pgcomposite inspect --db-url postgres://localhost/app --package models --output models/types.go`,
		Args: cobra.NoArgs,
		RunE: inspectCommand,
	}

	cobraflags.RegisterMap(cmd, cliutil.CommonFlags(map[string]cobraflags.Flag{
		packageFlag: &cobraflags.StringFlag{
			Name:  packageFlag,
			Value: "models",
			Usage: "Package name of the generated source",
		},
		outputFlag: &cobraflags.StringFlag{
			Name:  outputFlag,
			Value: "",
			Usage: "File to write the generated source to (default stdout)",
		},
	}))
	return cmd
}

func inspectCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts, err := cliutil.LoadOptions(cmd)
	if err != nil {
		return err
	}
	logger, err := cliutil.NewLogger(opts)
	if err != nil {
		return err
	}

	conn, err := cliutil.Connect(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	schema, err := conn.Reader().ReadSchema(ctx)
	if err != nil {
		return fmt.Errorf("error reading database schema: %w", err)
	}
	schema = filterSchema(schema, opts)
	logger.Debug("Read composite types", "schema", opts.Schema, "count", len(schema.CompositeTypes))

	descs, err := dbschematogo.ConvertDBSchemaToDescriptors(schema)
	if err != nil {
		return fmt.Errorf("error converting composite types: %w", err)
	}

	pkg, _ := cmd.Flags().GetString(packageFlag)
	src, err := dbschematogo.GenerateGoSource(pkg, descs)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString(outputFlag)
	if output == "" {
		_, err = cmd.OutOrStdout().Write(src)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(output, src, 0644); err != nil { //nolint:gosec // 0644 is fine
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d composite types to %s\n", len(descs), output)
	return nil
}

func filterSchema(schema *types.DBSchema, opts *config.Options) *types.DBSchema {
	out := &types.DBSchema{}
	for _, t := range schema.CompositeTypes {
		if opts.IsTypeIgnored(t.Name) {
			continue
		}
		out.CompositeTypes = append(out.CompositeTypes, t)
	}
	return out
}
