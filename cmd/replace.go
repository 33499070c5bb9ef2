package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReplaceCommand(a *app) *cobra.Command {
	var sf scopeFlags
	var source, target string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "replace",
		Short: "Replace the source shader with the target on every material in scope",
		Long: `Replace rewrites m_Shader on every material in scope whose shader is the
source shader. Shaders are given by name ("Standard", "Custom/Toon"), GUID,
guid:fileID or a {fileID, guid, type} reference. An empty target clears the
shader.

Every material is gathered before any file is written.`,
		Example: `  shaderswap replace --source Standard --target "Universal Render Pipeline/Lit"
  shaderswap replace --scope selection --select Assets/Props/Crate.prefab --source Standard --target Custom/Toon
  shaderswap replace --scope scene --scene Assets/Scenes/Main.unity --source Standard --target Custom/Toon --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.options()
			sf.apply(cmd, &opts)
			if cmd.Flags().Changed("source") {
				opts.Source = source
			}
			if cmd.Flags().Changed("target") {
				opts.Target = target
			}
			if cmd.Flags().Changed("dry-run") {
				opts.DryRun = dryRun
			}

			r, err := a.runner.Replace(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("replace failed: %w", err)
			}
			return a.output(cmd, r)
		},
	}

	sf.register(cmd)
	cmd.Flags().StringVar(&source, "source", "", "Shader to replace")
	cmd.Flags().StringVar(&target, "target", "", "Replacement shader")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report matches without writing files")

	return cmd
}
