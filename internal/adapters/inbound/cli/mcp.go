package cli

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	mcpadapter "github.com/go-vendor-tools/go-vendor-tools/internal/adapters/inbound/mcp"
)

func newMCPCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  "Commands for running the go-vendor-license MCP (Model Context Protocol) server.",
	}
	cmd.AddCommand(newMCPServeCmd(g))
	return cmd
}

func newMCPServeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio)",
		Long:  "Start the go-vendor-license MCP server using stdio transport. This lets coding assistants run license reports and simplify or compare SPDX expressions for the tree given by --directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}
			s := mcpadapter.NewServer(mcpadapter.Options{
				Directory:      e.directory,
				ConfigPath:     g.configPath,
				Detector:       g.detector,
				DetectorConfig: splitKV(g.detectorConfig),
				Version:        version,
				Logger:         e.logger,
			})
			return server.ServeStdio(s)
		},
	}
}
