// Command importer loads product files into the configured database.
package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/productimport/internal/core"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "importer",
		Short: "Import products from delimited files",
		Long: `Import products from delimited files into the configured database.

Each row is converted, validated and written on its own; failing rows are
reported with their line number and never stop the run.

Examples:
  importer import products.csv
  importer import products.csv --test
  importer import - --csvDelimiter ';' < products.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newImportCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			pterm.Fprintln(cmd.OutOrStdout(), "importer "+version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func printError(err error) {
	if core.IsUserFacing(err) {
		pterm.Error.Println(core.FormatUserError(err))
		pterm.Println(pterm.Gray(err.Error()))
	} else {
		pterm.Error.Println(err.Error())
	}
	if hint := errors.FlattenHints(err); hint != "" {
		pterm.Info.Println(hint)
	}
}
