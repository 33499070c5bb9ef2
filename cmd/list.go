package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCommand(a *app) *cobra.Command {
	var sf scopeFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the materials in scope with their current shader",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.options()
			sf.apply(cmd, &opts)

			r, err := a.runner.List(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("list failed: %w", err)
			}
			return a.output(cmd, r)
		},
	}

	sf.register(cmd)
	return cmd
}

func newShadersCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shaders",
		Short: "List the shaders materials can reference",
		Long: `Shaders lists the built-in shaders and every .shader and .shadergraph asset
under Assets, Packages and Library/PackageCache, with the reference written
into m_Shader. Package cache shaders (for example HDRP/Lit) can be named as
targets; materials in the package cache are never rewritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.runner.Shaders(cmd.Context(), a.options())
			if err != nil {
				return fmt.Errorf("shaders failed: %w", err)
			}
			return a.output(cmd, r)
		},
	}
}
