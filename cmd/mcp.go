// mcp.go implements "studio mcp": the Model Context Protocol server for
// coding agents, speaking stdio and proxying the internal HTTP endpoint.

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/blueprintlab/studio/internal/mcptool"
)

func newMCPCmd() *cobra.Command {
	var backend string
	c := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP tool server",
		Long: `Start an MCP (Model Context Protocol) server over stdio.

Exposes get_application_context(node_id), which returns the assembled design
context for a node by calling a running studio server's internal API.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return mcptool.Serve(backend)
		},
	}
	c.Flags().StringVar(&backend, "backend", "http://127.0.0.1:8000", "Base URL of the studio server")
	return c
}
