package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/repotrawl/repotrawl/internal/adapters/driven/catalog/sqlite"
	"github.com/repotrawl/repotrawl/internal/adapters/driving/mcp"
	"github.com/repotrawl/repotrawl/internal/logger"
)

var mcpHTTP string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server",
	Long: `Start the Model Context Protocol server exposing repository counting,
partition planning and exhaustive search as tools.

By default the server communicates over stdio using JSON-RPC, suitable
for MCP clients that spawn the process themselves. Use --http to serve
the streamable HTTP transport instead.

Examples:
  # Stdio mode (default)
  repotrawl mcp

  # HTTP mode
  repotrawl mcp --http :8080

Client configuration (stdio):
  {
    "mcpServers": {
      "repotrawl": {
        "command": "/path/to/repotrawl",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTP, "http", "", "listen address for the HTTP transport (empty = stdio)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	ports := &mcp.Ports{Search: searchService}

	// The catalog is optional: without it the run resources report
	// empty rather than failing the server.
	if store, err := sqlite.NewStore(cfg.Harvest.Catalog); err == nil {
		defer store.Close()
		ports.Catalog = store
	} else {
		logger.Warn("catalog unavailable: %v", err)
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if mcpHTTP != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on %s\n", mcpHTTP)
		return server.RunHTTP(cmd.Context(), mcpHTTP)
	}

	return server.Run(cmd.Context())
}
