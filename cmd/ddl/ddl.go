// Package ddl implements the command printing the DDL of declared composite types.
package ddl

import (
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/stokaro/pgcomposite/cmd/internal/cliutil"
	"github.com/stokaro/pgcomposite/core/renderer"
)

const dropFlag = "drop"

// NewDDLCommand returns the ddl command
func NewDDLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Print CREATE TYPE statements for the declared composite types",
		Long: `Print the DDL of the composite types declared in the config file.

Types are printed in dependency order, so the output can be fed to psql as is.
With --drop, DROP TYPE statements are printed instead, dependents first.

Examples:
  pgcomposite ddl --config pgcomposite.yaml
  pgcomposite ddl --config pgcomposite.yaml --drop`,
		Args: cobra.NoArgs,
		RunE: ddlCommand,
	}

	cobraflags.RegisterMap(cmd, map[string]cobraflags.Flag{
		cliutil.ConfigFlag: &cobraflags.StringFlag{
			Name:  cliutil.ConfigFlag,
			Value: "",
			Usage: "Path to the config file declaring the types",
		},
	})
	cmd.Flags().Bool(dropFlag, false, "Print DROP TYPE statements instead")
	return cmd
}

func ddlCommand(cmd *cobra.Command, _ []string) error {
	opts, err := cliutil.LoadOptions(cmd)
	if err != nil {
		return err
	}
	descs, err := opts.Descriptors()
	if err != nil {
		return err
	}
	if len(descs) == 0 {
		return fmt.Errorf("no composite types declared")
	}

	drop, _ := cmd.Flags().GetBool(dropFlag)
	render := renderer.CreateScript
	if drop {
		render = renderer.DropScript
	}

	script, err := render(descs...)
	if err != nil {
		return fmt.Errorf("error rendering DDL: %w", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), script)
	return err
}
