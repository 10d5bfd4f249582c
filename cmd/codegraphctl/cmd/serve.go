package cmd

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/codegraph-dev/codegraph/internal/mcptools"
)

var serveCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Serve the code graph over MCP on stdio",
	RunE: func(c *cobra.Command, args []string) error {
		srv := mcptools.NewServer(CodeGraph())
		if err := srv.MCPServer().Run(context.Background(), &mcp.StdioTransport{}); err != nil {
			return fmt.Errorf("serve-mcp: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
