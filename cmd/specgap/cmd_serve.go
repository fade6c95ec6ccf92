package main

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/specgap/internal/decisions"
	"github.com/HendryAvila/specgap/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server (stdio transport)",
	Long: `Serve the gap analysis tools, the review prompt and the configuration
resources over MCP on stdin/stdout. Logs go to stderr.

Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "specgap": {
        "command": "specgap",
        "args": ["serve"]
      }
    }
  }`,
	Args: argsValidator(cobra.NoArgs),
	RunE: runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	s, cleanup, err := server.New(server.Options{
		ConfigDir: rootFlags.configDir,
		Decisions: decisions.Config{DataDir: rootFlags.dataDir},
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	return mcpserver.ServeStdio(s)
}
