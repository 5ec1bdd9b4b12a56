// Package extract turns downloaded book files into text: whole-document text
// for PDFs, chapters for EPUBs, and simulated fixed-size pages.
package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bull/ebook-search-mcp/internal/storage"
)

// FileSource downloads the original file of a book.
type FileSource interface {
	GetBookFile(ctx context.Context, bookID string) ([]byte, error)
}

// Extractor downloads book files and extracts their text.
type Extractor struct {
	files  FileSource
	logger *slog.Logger
}

// NewExtractor creates an Extractor. A nil logger uses slog.Default().
func NewExtractor(files FileSource, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{files: files, logger: logger}
}

// ExtractAllText downloads a PDF book and returns its full text and page count.
func (e *Extractor) ExtractAllText(ctx context.Context, bookID string) (Result, error) {
	data, err := e.files.GetBookFile(ctx, bookID)
	if err != nil {
		return Result{}, fmt.Errorf("download book %s: %w", bookID, err)
	}

	res, err := PDFText(data)
	if err != nil {
		return Result{}, fmt.Errorf("book %s: %w", bookID, err)
	}
	e.logger.Debug("Extracted PDF text", "book_id", bookID, "pages", res.TotalPages, "chars", len(res.Text))
	return res, nil
}

// ExtractChapters downloads an EPUB book and returns its chapters.
func (e *Extractor) ExtractChapters(ctx context.Context, bookID string) ([]storage.Unit, error) {
	data, err := e.files.GetBookFile(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("download book %s: %w", bookID, err)
	}

	chapters, err := EPUBChapters(data, e.logger)
	if err != nil {
		return nil, fmt.Errorf("book %s: %w", bookID, err)
	}
	e.logger.Debug("Extracted EPUB chapters", "book_id", bookID, "chapters", len(chapters))
	return chapters, nil
}
