package main

import (
	"context"
	"io"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/JonMunkholm/productimport/internal/config"
	"github.com/JonMunkholm/productimport/internal/core"
	_ "github.com/JonMunkholm/productimport/internal/core/targets" // Register all targets
	"github.com/JonMunkholm/productimport/internal/logging"
	"github.com/JonMunkholm/productimport/internal/report"
	"github.com/JonMunkholm/productimport/internal/sink"
)

// defaultHeaders name the product columns in file order.
var defaultHeaders = []string{"code", "name", "description", "stock", "cost", "discontinued"}

// optionFlags are flags whose values become run options under the same key.
var optionFlags = map[string]string{
	"csvDelimiter":     core.OptionDelimiter,
	"csvEnclosure":     core.OptionEnclosure,
	"csvEscape":        core.OptionEscape,
	"csvHeaders":       core.OptionHeaders,
	"csvNoHeaders":     core.OptionNoHeaders,
	"csvSkipEmptyRows": core.OptionSkipEmptyRows,
	"csvSanitizeUTF8":  core.OptionSanitizeUTF8,
	"test":             core.OptionTestMode,
	"groups":           core.OptionGroups,
}

type importFlags struct {
	format  string
	target  string
	profile string
}

func newImportCmd() *cobra.Command {
	var f importFlags

	cmd := &cobra.Command{
		Use:   "import <source>",
		Short: "Import a file, or stdin when source is -",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.format, "format", "f", "", "Source format (default IMPORT_DEFAULT_FORMAT)")
	fl.StringVar(&f.target, "target", "", "Import target (default IMPORT_DEFAULT_TARGET)")
	fl.StringVar(&f.profile, "profile", "", "YAML file with format, target and options")

	fl.BoolP("test", "t", false, "Run without writing to the database")
	fl.StringSliceP("groups", "g", nil, "Validation groups (default IMPORT_GROUPS)")
	fl.StringSlice("csvHeaders", defaultHeaders, "Column names of the file")
	fl.String("csvDelimiter", ",", "Field delimiter")
	fl.String("csvEnclosure", `"`, "Field enclosure")
	fl.String("csvEscape", `\`, "Escape character inside enclosures")
	fl.Bool("csvNoHeaders", false, "The file has no header row")
	fl.Bool("csvSkipEmptyRows", false, "Skip rows whose fields are all blank")
	fl.Bool("csvSanitizeUTF8", false, "Replace invalid UTF-8 bytes with '?'")

	return cmd
}

// explicitOptions collects the option flags set on the command line.
func explicitOptions(fs *pflag.FlagSet) (map[string]any, error) {
	out := map[string]any{}
	var err error
	fs.Visit(func(fl *pflag.Flag) {
		key, ok := optionFlags[fl.Name]
		if !ok || err != nil {
			return
		}
		switch fl.Value.Type() {
		case "bool":
			var b bool
			b, err = strconv.ParseBool(fl.Value.String())
			out[key] = b
		case "stringSlice":
			var l []string
			l, err = fs.GetStringSlice(fl.Name)
			out[key] = l
		default:
			out[key] = fl.Value.String()
		}
	})
	return out, err
}

// buildOptions layers flag defaults, then the profile, then explicit flags.
func buildOptions(fs *pflag.FlagSet, profile *config.Profile, groups []string) (core.Options, error) {
	explicit, err := explicitOptions(fs)
	if err != nil {
		return nil, errors.Wrap(err, "read flags")
	}

	opts := core.Options{
		core.OptionHeaders: defaultHeaders,
		core.OptionGroups:  groups,
	}
	for k, v := range profile.Merge(explicit) {
		opts[k] = v
	}
	return opts, nil
}

func runImport(cmd *cobra.Command, source string, f importFlags) error {
	_ = godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	profile := &config.Profile{}
	if f.profile != "" {
		if profile, err = config.LoadProfile(f.profile); err != nil {
			return err
		}
	}
	opts, err := buildOptions(cmd.Flags(), profile, cfg.Import.Groups)
	if err != nil {
		return err
	}

	format := firstNonEmpty(f.format, profile.Format, cfg.Import.DefaultFormat)
	target := firstNonEmpty(f.target, profile.Target, cfg.Import.DefaultTarget)

	loc, err := cfg.Import.Location()
	if err != nil {
		return errors.Wrap(err, "load time zone")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Import.Timeout)
	defer cancel()

	db, err := sink.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	importer := core.NewImporter(core.DefaultReaderLocator(), db.NewWriter,
		core.WithLocation(loc),
		core.WithDefaultGroups(cfg.Import.Groups...),
	)

	var src any = source
	if source == "-" {
		src = io.NopCloser(cmd.InOrStdin())
	}

	out := cmd.OutOrStdout()
	var spinner *pterm.SpinnerPrinter
	if out == os.Stdout {
		spinner, _ = pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Importing...")
	}
	result, err := importer.Import(ctx, src, format, target, nil, opts)
	if spinner != nil {
		_ = spinner.Stop()
	}

	if result != nil {
		report.Print(out, result)
	}
	return err
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
