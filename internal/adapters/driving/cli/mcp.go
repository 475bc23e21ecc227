package cli

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/mcp"
)

var (
	mcpPort     int
	mcpHost     string
	mcpReadOnly bool
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the query engine to MCP clients",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Serve ask, route and search_index (plus ingest_text and remove_document
unless --read-only) with history, stats and document resources.

Without --port the server speaks JSON-RPC over stdio:

  {"mcpServers": {"sercha-rag": {"command": "sercha-rag", "args": ["mcp", "serve"]}}}

With --port it serves the streamable HTTP transport on host:port, and
GET /healthz reports status, version and index statistics.

Maintenance tasks run in the background while the server is up.`,
	Example: `  sercha-rag mcp serve
  sercha-rag mcp serve --port 8080 --read-only`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 serves stdio)")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "localhost", "HTTP bind address")
	mcpServeCmd.Flags().BoolVar(&mcpReadOnly, "read-only", false, "omit tools that modify the knowledge base")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}
	if mcpPort < 0 || mcpPort > 65535 {
		return fmt.Errorf("invalid port %d", mcpPort)
	}

	opts := []mcp.Option{mcp.WithVersion(version)}
	if mcpReadOnly {
		opts = append(opts, mcp.WithReadOnly())
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Query:   queryService,
		Router:  routerService,
		Ingest:  ingestService,
		History: historyService,
	}, opts...)
	if err != nil {
		return err
	}

	stop := startScheduler(cmd.Context(), cmd.ErrOrStderr())
	defer stop()

	if mcpPort == 0 {
		return server.Run(cmd.Context())
	}

	addr := net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort))
	cmd.Printf("MCP server listening on http://%s (health: /healthz)\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
