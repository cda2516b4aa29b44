package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mnemon/mnemon/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI tool integration.

This is typically spawned by the host agent. The server communicates
over stdio using JSON-RPC and exposes the mnemon_remember,
mnemon_recall, and mnemon_status tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closer, err := openService()
		if err != nil {
			return err
		}
		defer closer()

		return mcp.NewServer(svc, os.Stdin, os.Stdout).Run()
	},
}
