// Package mcp exposes the ebook library as Model Context Protocol tools.
package mcp

import (
	"github.com/bull/ebook-search-mcp/internal/catalog"
	"github.com/bull/ebook-search-mcp/internal/komga"
)

// SearchBooksInput defines the input parameters for the search_library_books tool.
type SearchBooksInput struct {
	Query         string `json:"query" jsonschema:"search query for books"`
	LibraryFilter string `json:"library_filter,omitempty" jsonschema:"optional library name filter"`
}

// SearchBooksOutput contains matching books.
type SearchBooksOutput struct {
	Books []catalog.BookResult `json:"books"`
	Count int                  `json:"count"`
	// Message explains an empty result.
	Message string `json:"message,omitempty"`
}

// BookOverviewInput defines the input parameters for the get_book_overview tool.
type BookOverviewInput struct {
	BookID string `json:"book_id" jsonschema:"book ID from search results"`
}

// BookOverviewOutput is a book's metadata with its first pages.
type BookOverviewOutput struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	Series     string             `json:"series"`
	MediaType  string             `json:"mediaType,omitempty"`
	Metadata   komga.BookMetadata `json:"metadata"`
	TotalPages int                `json:"totalPages"`
	PageInfo   []PageInfo         `json:"pageInfo"`
}

// PageInfo describes one page of a book.
type PageInfo struct {
	Number    int    `json:"number"`
	FileName  string `json:"fileName"`
	MediaType string `json:"mediaType"`
}

// ReadPagesInput defines the input parameters for the read_book_pages tool.
type ReadPagesInput struct {
	BookID    string `json:"book_id" jsonschema:"book ID"`
	StartPage int    `json:"start_page" jsonschema:"starting page or chapter number (1-based)"`
	EndPage   int    `json:"end_page" jsonschema:"ending page or chapter number (inclusive, max 15 pages from start)"`
}

// SearchWithinInput defines the input parameters for the search_within_book tool.
type SearchWithinInput struct {
	BookID     string `json:"book_id" jsonschema:"book ID"`
	SearchTerm string `json:"search_term" jsonschema:"term to search for within the book"`
}
