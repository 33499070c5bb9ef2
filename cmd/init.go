package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lex00/shaderswap-go/config"
	"github.com/lex00/shaderswap-go/report"
	"github.com/lex00/shaderswap-go/unity"
)

func newInitCommand(a *app) *cobra.Command {
	var sf scopeFlags
	var source, target string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a " + config.Filename + " into the project",
		Long: `Init saves the effective settings (config values overlaid with the flags
given here) to ` + config.Filename + ` in the project directory, so later
commands can run without repeating them.`,
		Example: `  shaderswap init -p ~/Game --source Standard --target "Universal Render Pipeline/Lit"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := unity.Open(a.project); err != nil {
				return fmt.Errorf("init failed: %w", err)
			}
			path := filepath.Join(a.project, config.Filename)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("init failed: %s already exists (use --force to overwrite)", path)
			}

			opts := a.options()
			sf.apply(cmd, &opts)
			if cmd.Flags().Changed("source") {
				opts.Source = source
			}
			if cmd.Flags().Changed("target") {
				opts.Target = target
			}

			cfg := &config.Config{
				Scope:     opts.Scope,
				Source:    opts.Source,
				Target:    opts.Target,
				Selection: opts.Selection,
				Scenes:    opts.Scenes,
				Exclude:   opts.Exclude,
				LogLevel:  a.cfg.LogLevel,
				DryRun:    opts.DryRun,
				Workers:   opts.Workers,
			}
			if a.format != "text" {
				cfg.Format = a.format
			}
			if err := config.SaveTo(cfg, path); err != nil {
				return fmt.Errorf("init failed: %w", err)
			}
			a.logger.Debug("wrote config", "path", path)

			r := report.New(report.ActionInit, "wrote "+path)
			r.Written = []string{path}
			return a.output(cmd, r)
		},
	}

	sf.register(cmd)
	cmd.Flags().StringVar(&source, "source", "", "Default shader to replace")
	cmd.Flags().StringVar(&target, "target", "", "Default replacement shader")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}
