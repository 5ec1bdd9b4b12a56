// Package catalog finds books in the Komga library and summarises them.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bull/ebook-search-mcp/internal/komga"
)

const (
	// MaxResults caps the books returned by a search.
	MaxResults = 10
	// OverviewPages is the number of leading pages listed in an overview.
	OverviewPages = 5
)

// ErrEmptyQuery is returned when a search has no query text.
var ErrEmptyQuery = errors.New("query is required")

// Library is the part of the Komga client the catalog needs.
type Library interface {
	ListLibraries(ctx context.Context) ([]komga.Library, error)
	SearchBooks(ctx context.Context, search komga.BookSearch) ([]komga.Book, error)
	GetBook(ctx context.Context, bookID string) (*komga.Book, error)
	GetBookPages(ctx context.Context, bookID string) ([]komga.Page, error)
}

// BookResult is a book as listed in search results.
type BookResult struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Series       string   `json:"series"`
	Authors      []string `json:"authors"`
	Year         string   `json:"year,omitempty"`
	Pages        int      `json:"pages,omitempty"`
	MediaType    string   `json:"mediaType,omitempty"`
	MediaProfile string   `json:"mediaProfile,omitempty"`
	Format       string   `json:"format,omitempty"`
	Size         string   `json:"size,omitempty"`
	SizeBytes    int64    `json:"sizeBytes,omitempty"`
}

// Overview is a book's metadata with its first pages.
type Overview struct {
	Book       *komga.Book
	TotalPages int
	Pages      []komga.Page
}

// Service implements book search and overview.
type Service struct {
	library        Library
	defaultLibrary string
	logger         *slog.Logger
}

// NewService creates a Service. defaultLibrary restricts searches to libraries
// whose name contains it when the caller gives no filter.
func NewService(library Library, defaultLibrary string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{library: library, defaultLibrary: defaultLibrary, logger: logger}
}

// SearchBooks runs a full-text search and returns at most MaxResults books.
// Remote failures are logged and produce an empty result.
func (s *Service) SearchBooks(ctx context.Context, query, libraryFilter string) ([]BookResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	filter := libraryFilter
	if filter == "" {
		filter = s.defaultLibrary
	}

	libs, err := s.library.ListLibraries(ctx)
	if err != nil {
		s.logger.Error("Book search failed", "query", query, "error", err)
		return []BookResult{}, nil
	}

	search := komga.BookSearch{FullTextSearch: query}
	for _, lib := range libs {
		if strings.Contains(strings.ToLower(lib.Name), strings.ToLower(filter)) {
			search.LibraryID = append(search.LibraryID, lib.ID)
		}
	}

	books, err := s.library.SearchBooks(ctx, search)
	if err != nil {
		s.logger.Error("Book search failed", "query", query, "error", err)
		return []BookResult{}, nil
	}
	s.logger.Info("Found books", "query", query, "libraries", len(search.LibraryID), "count", len(books))

	results := make([]BookResult, 0, min(len(books), MaxResults))
	for _, b := range books[:min(len(books), MaxResults)] {
		results = append(results, toResult(b))
	}
	return results, nil
}

// Overview fetches a book and its page list concurrently.
func (s *Service) Overview(ctx context.Context, bookID string) (*Overview, error) {
	var (
		book  *komga.Book
		pages []komga.Page
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		book, err = s.library.GetBook(gctx, bookID)
		return err
	})
	g.Go(func() error {
		var err error
		pages, err = s.library.GetBookPages(gctx, bookID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to get book overview", "book_id", bookID, "error", err)
		return nil, fmt.Errorf("could not retrieve book overview: %w", err)
	}

	total := len(pages)
	if total == 0 {
		total = book.Media.PagesCount
	}
	return &Overview{
		Book:       book,
		TotalPages: total,
		Pages:      pages[:min(len(pages), OverviewPages)],
	}, nil
}

func toResult(b komga.Book) BookResult {
	authors := make([]string, 0, len(b.Metadata.Authors))
	for _, a := range b.Metadata.Authors {
		authors = append(authors, a.Name)
	}

	return BookResult{
		ID:           b.ID,
		Title:        b.Name,
		Series:       b.SeriesTitle,
		Authors:      authors,
		Year:         releaseYear(b.Metadata.ReleaseDate),
		Pages:        b.Media.PagesCount,
		MediaType:    b.Media.MediaType,
		MediaProfile: b.Media.MediaProfile,
		Format:       strings.TrimPrefix(strings.ToLower(path.Ext(b.URL)), "."),
		Size:         b.Size,
		SizeBytes:    b.SizeBytes,
	}
}

func releaseYear(date string) string {
	if len(date) < 4 {
		return date
	}
	return date[:4]
}
