// Command pgcomposite manages PostgreSQL composite types: it prints their DDL,
// generates and applies migrations, and generates Go declarations from a
// database.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/stokaro/pgcomposite/cmd/ddl"
	"github.com/stokaro/pgcomposite/cmd/generate"
	"github.com/stokaro/pgcomposite/cmd/inspect"
	"github.com/stokaro/pgcomposite/cmd/migrate"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "pgcomposite",
		Short:         "Manage PostgreSQL composite types",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(ddl.NewDDLCommand())
	root.AddCommand(generate.NewGenerateCommand())
	root.AddCommand(inspect.NewInspectCommand())
	root.AddCommand(migrate.NewMigrateCommand())
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
