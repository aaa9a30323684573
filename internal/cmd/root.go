package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/blocky/internal/config"
	"github.com/stateful/blocky/internal/log"
)

const configName = "blocky"

var (
	fChdir      string
	fConfigFile string
	fLogEnabled bool
	fLogVerbose bool
	fLogPath    string
)

// conf is the configuration of the running command. It is set before any
// subcommand runs.
var conf = config.Default()

func Root() *cobra.Command {
	cmd := cobra.Command{
		Use:   "blocky",
		Short: "Convert block editor content to Markdown and Trac wiki markup",
		Long: `blocky renders block trees, as stored by the block editor, into Markdown or
Trac wiki markup, and rebuilds block trees from Markdown.

Settings are read from blocky.yaml or blocky.toml in the working directory
and in every directory leading to the input file.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if fChdir != "" && fChdir != "." {
				if err := os.Chdir(fChdir); err != nil {
					return errors.Wrapf(err, "failed to change directory to %q", fChdir)
				}
			}

			cfg, err := loadConfig(args)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("log") {
				cfg.Log.Enabled = fLogEnabled
			}
			if flags.Changed("log-verbose") {
				cfg.Log.Verbose = fLogVerbose
				cfg.Log.Enabled = cfg.Log.Enabled || fLogVerbose
			}
			if flags.Changed("log-path") {
				cfg.Log.Path = fLogPath
				cfg.Log.Enabled = true
			}

			if err := log.Set(cfg.Log.Enabled, cfg.Log.Verbose, cfg.Log.Path); err != nil {
				return errors.Wrap(err, "failed to set up logger")
			}
			log.Get().Debug("loaded configuration", zap.Any("config", cfg))

			conf = cfg
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			log.Flush()
		},
	}

	setDefaultFlags(&cmd)

	pflags := cmd.PersistentFlags()

	pflags.StringVar(&fChdir, "chdir", ".", "Switch to a different working directory before executing the command.")
	pflags.StringVar(&fConfigFile, "config", "", "Path to a configuration file. Disables the lookup of blocky.yaml and blocky.toml.")
	pflags.BoolVar(&fLogEnabled, "log", false, "Enable logging.")
	pflags.BoolVar(&fLogVerbose, "log-verbose", false, "Enable debug logging.")
	pflags.StringVar(&fLogPath, "log-path", "", "Write JSON logs to the given file instead of stderr.")

	cmd.AddCommand(exportCmd())
	cmd.AddCommand(importCmd())
	cmd.AddCommand(fmtCmd())
	cmd.AddCommand(batchCmd())
	cmd.AddCommand(treeCmd())
	cmd.AddCommand(versionCmd())

	return &cmd
}

func setDefaultFlags(cmd *cobra.Command) {
	usage := "Help for "
	if n := cmd.Name(); n != "" {
		usage += n
	} else {
		usage += "this command"
	}
	cmd.Flags().BoolP("help", "h", false, usage)
}

// loadConfig reads an explicit --config file or looks up the configuration
// chain leading to the first argument.
func loadConfig(args []string) (*config.Config, error) {
	if fConfigFile != "" {
		cfg, err := config.ParseFile(fConfigFile)
		return cfg, errors.Wrapf(err, "failed to load config %q", fConfigFile)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	loader := config.NewLoader(configName, os.DirFS(cwd))
	cfg, err := loader.Load(configHint(cwd, args))
	return cfg, errors.Wrap(err, "failed to load config")
}

// configHint returns the first argument relative to cwd if it names an
// existing path inside it.
func configHint(cwd string, args []string) string {
	if len(args) == 0 || args[0] == "-" {
		return ""
	}

	name := args[0]
	if filepath.IsAbs(name) {
		rel, err := filepath.Rel(cwd, name)
		if err != nil {
			return ""
		}
		name = rel
	}
	name = filepath.Clean(name)
	if name == ".." || strings.HasPrefix(name, ".."+string(filepath.Separator)) {
		return ""
	}
	if _, err := os.Stat(filepath.Join(cwd, name)); err != nil {
		return ""
	}
	return filepath.ToSlash(name)
}
