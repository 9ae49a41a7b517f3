package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The server exposes two tools, search and process_document, and the
sercha://documents resources. By default it communicates over stdio using
JSON-RPC. Use --port to serve over HTTP instead.

Examples:
  # Stdio mode (default)
  sercha-ingest mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  sercha-ingest mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	if searchService == nil || pipelineService == nil {
		return errors.New("services not configured")
	}

	var opts []mcp.ServerOption
	addr := ""
	if port > 0 {
		addr = fmt.Sprintf(":%d", port)
		opts = append(opts, mcp.WithHTTPAddr(addr))
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Search:   searchService,
		Pipeline: pipelineService,
		Document: documentService,
	}, opts...)
	if err != nil {
		return err
	}

	if server.Transport() == "http" {
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
	}
	return server.Serve(cmd.Context())
}
