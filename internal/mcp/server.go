package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/ebook-search-mcp/internal/config"
)

// Server wraps the MCP server with its dependencies.
type Server struct {
	server *mcp.Server
}

// Config holds server dependencies.
type Config struct {
	Catalog   Catalog
	Retriever Retriever
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    config.ServerName,
		Version: config.ServerVersion,
	}
	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_library_books",
		Description: "Search for books in the Komga library. Returns up to 10 books with their IDs for use with the other tools.",
	}, makeSearchBooksHandler(cfg.Catalog))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_book_overview",
		Description: "Get detailed metadata and the first pages of a specific book.",
	}, makeOverviewHandler(cfg.Catalog))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_book_pages",
		Description: "Read specific pages from a book (max 15 pages per request). EPUBs return chapters as text, text PDFs return extracted text, scanned books return page images.",
	}, makeReadPagesHandler(cfg.Retriever))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_within_book",
		Description: "Search for specific content within a book. Returns matching chapters or pages with surrounding context.",
	}, makeSearchWithinHandler(cfg.Retriever))

	return &Server{server: server}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
