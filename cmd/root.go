package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lex00/shaderswap-go/config"
	"github.com/lex00/shaderswap-go/internal/logging"
	"github.com/lex00/shaderswap-go/report"
	"github.com/lex00/shaderswap-go/swap"
	"github.com/lex00/shaderswap-go/version"
)

// app holds the state shared by every command of one execution.
type app struct {
	newRunner RunnerFactory

	project    string
	configPath string
	format     string
	logLevel   string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
	runner swap.Runner
}

// NewRootCommand creates the shaderswap root command with all subcommands.
func NewRootCommand(newRunner RunnerFactory) *cobra.Command {
	a := &app{newRunner: newRunner, cfg: &config.Config{}}

	cmd := &cobra.Command{
		Use:   "shaderswap",
		Short: "Replace one shader with another on Unity materials",
		Long: `shaderswap rewrites the shader of every material that uses a source shader,
across the selected assets, the loaded scenes or the whole project.

Settings are read from shaderswap.yaml in the project directory or any of
its parents. Flags override config values.`,
		Version:           version.Version(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.project, "project", "p", ".", "Unity project directory")
	flags.StringVar(&a.configPath, "config", "", "Config file (default: "+config.Filename+" found from the project upward)")
	flags.StringVarP(&a.format, "format", "f", "text", "Output format ("+strings.Join(report.Formats, ", ")+")")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&a.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newReplaceCommand(a),
		newListCommand(a),
		newShadersCommand(a),
		newInitCommand(a),
		newServeCommand(a),
	)
	return cmd
}

// setup loads the config, configures logging and creates the runner.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	cfg, cfgPath, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	if !flags.Changed("project") {
		if dir := cfg.ProjectDir(cfgPath); dir != "" {
			a.project = dir
		}
	}
	if !flags.Changed("format") && cfg.Format != "" {
		a.format = cfg.Format
	}
	if !report.ValidFormat(a.format) {
		return fmt.Errorf("unsupported format %q (supported: %s)", a.format, strings.Join(report.Formats, ", "))
	}

	levelName := a.logLevel
	if !flags.Changed("log-level") && cfg.LogLevel != "" {
		levelName = cfg.LogLevel
	}
	if a.verbose {
		levelName = "debug"
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	a.logger = logging.Setup(cmd.ErrOrStderr(), level)
	if cfgPath != "" {
		a.logger.Debug("loaded config", "path", cfgPath)
	}

	a.runner = a.newRunner(a.logger)
	return nil
}

func (a *app) loadConfig() (*config.Config, string, error) {
	if a.configPath != "" {
		cfg, err := config.LoadFile(a.configPath)
		if err != nil {
			return nil, "", err
		}
		return cfg, a.configPath, nil
	}
	return config.LoadFrom(a.project)
}

// options returns the config values as operation options.
func (a *app) options() swap.Options {
	return swap.Options{
		Project:   a.project,
		Scope:     a.cfg.Scope,
		Source:    a.cfg.Source,
		Target:    a.cfg.Target,
		Selection: a.cfg.Selection,
		Scenes:    a.cfg.Scenes,
		Exclude:   a.cfg.Exclude,
		DryRun:    a.cfg.DryRun,
		Workers:   a.cfg.Workers,
	}
}

// output prints r in the selected format. A failed report is an error.
func (a *app) output(cmd *cobra.Command, r *report.Report) error {
	out, err := report.Format(r, a.format)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprint(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if !r.Success {
		return fmt.Errorf("%s failed with %d error(s)", r.Action, len(r.Errors))
	}
	return nil
}
