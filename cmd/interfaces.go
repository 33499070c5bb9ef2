// Package cmd provides the shaderswap command tree.
//
// Every command shares the persistent flags, a shaderswap.yaml found from
// the project directory upward, and a single swap.Runner created once
// logging is configured.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lex00/shaderswap-go/swap"
)

// RunnerFactory creates the runner commands call into. It is invoked once
// per execution with the configured logger.
type RunnerFactory func(logger *slog.Logger) swap.Runner

// DefaultRunner runs operations against the project on disk.
func DefaultRunner(logger *slog.Logger) swap.Runner {
	return swap.NewService(logger)
}

// scopeFlags are the flags choosing which materials a command sees.
type scopeFlags struct {
	scope     string
	selection []string
	scenes    []string
}

func (f *scopeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.scope, "scope", "project", "Where to look for materials (selection, scene, project)")
	cmd.Flags().StringSliceVar(&f.selection, "select", nil, "Selected .mat, .prefab or .unity paths for the selection scope")
	cmd.Flags().StringSliceVar(&f.scenes, "scene", nil, "Scenes treated as loaded (default: enabled build scenes)")
}

// apply overlays the flags the user set on opts. The scope flag default
// applies only when the config names no scope.
func (f *scopeFlags) apply(cmd *cobra.Command, opts *swap.Options) {
	flags := cmd.Flags()
	if flags.Changed("scope") || opts.Scope == "" {
		opts.Scope = f.scope
	}
	if flags.Changed("select") {
		opts.Selection = f.selection
	}
	if flags.Changed("scene") {
		opts.Scenes = f.scenes
	}
}
