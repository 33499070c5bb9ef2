package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/lex00/shaderswap-go/mcp"
	"github.com/lex00/shaderswap-go/version"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the shaderswap tools over MCP on stdio",
		Long: `Serve runs a Model Context Protocol server on stdin and stdout. Tool
arguments override the project, config and flag defaults of this command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			server := mcp.NewServer(mcp.Config{
				Name:    "shaderswap",
				Version: version.Version(),
				Logger:  a.logger,
			})
			mcp.RegisterTools(server, a.runner, a.options())
			server.SetIO(cmd.InOrStdin(), cmd.OutOrStdout())

			a.logger.Info("serving MCP on stdio", "project", a.project)
			if err := server.Start(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}
