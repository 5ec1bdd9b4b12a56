package retrieval

import (
	"context"

	"github.com/bull/ebook-search-mcp/internal/cache"
	"github.com/bull/ebook-search-mcp/internal/extract"
	"github.com/bull/ebook-search-mcp/internal/komga"
	"github.com/bull/ebook-search-mcp/internal/storage"
)

// BookSource is the remote library.
type BookSource interface {
	GetBook(ctx context.Context, bookID string) (*komga.Book, error)
	GetBookPage(ctx context.Context, bookID string, page int) ([]byte, error)
}

// TextExtractor returns the whole text of a page-based book.
type TextExtractor interface {
	ExtractAllText(ctx context.Context, bookID string) (extract.Result, error)
}

// ChapterExtractor returns the chapters of an EPUB book.
type ChapterExtractor interface {
	ExtractChapters(ctx context.Context, bookID string) ([]storage.Unit, error)
}

// ImageCompressor prepares page images for clients.
type ImageCompressor interface {
	Compress(data []byte) ([]byte, error)
}

// Loader serves cached units and their index.
type Loader interface {
	GetOrCreate(ctx context.Context, id string, produce cache.Producer, displayName string) (*cache.Entry, error)
}

// ContentKind tags a piece of read content.
type ContentKind string

const (
	KindChapter   ContentKind = "epub"
	KindPageText  ContentKind = "pdf-text"
	KindPageImage ContentKind = "pdf-image"
)

// Content is one item returned by ReadPages.
type Content struct {
	Kind       ContentKind
	Number     int
	Title      string
	Text       string
	Image      []byte
	MIMEType   string
	Searchable bool
	// PageCount is the number of simulated pages joined into Text.
	PageCount int
}

// SearchResult is one matching unit.
type SearchResult struct {
	ChapterNumber int      `json:"chapterNumber"`
	ChapterTitle  string   `json:"chapterTitle"`
	Context       string   `json:"context"`
	Highlights    []string `json:"highlights"`
	Score         float64  `json:"score"`
}

// SearchResponse lists matches found on the text path.
type SearchResponse struct {
	SearchTerm   string         `json:"searchTerm"`
	TotalResults int            `json:"totalResults"`
	Results      []SearchResult `json:"results"`
}

// SearchGuidance replaces a search for books that only have page images.
type SearchGuidance struct {
	BookTitle  string `json:"bookTitle"`
	SearchTerm string `json:"searchTerm"`
	Message    string `json:"message"`
}

// SearchOutcome holds exactly one of Results or Guidance.
type SearchOutcome struct {
	Results  *SearchResponse
	Guidance *SearchGuidance
}
