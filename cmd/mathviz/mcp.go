package main

import (
	"github.com/spf13/cobra"

	"mathviz/internal/mcp"
)

func (a *app) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the mathviz tools over MCP on stdio",
		Long: `Start an MCP server on stdin/stdout exposing the pipeline, the mirror,
the renderer, the notes vault and the archive as tools. Logs go to stderr
or, with DEBUG set, to mathviz.log.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			srv := mcp.NewServer(cfg, a.logger)
			defer func() {
				if err := srv.Stop(); err != nil {
					a.logger.Warn("Failed to stop MCP server", "error", err)
				}
			}()
			return srv.Start()
		},
	}
}
