// Package indexer pre-loads books into the chapter and page caches so that the
// first read or search after a restart is served from disk.
package indexer

import (
	"context"
	"log/slog"
	"time"

	"github.com/bull/ebook-search-mcp/internal/retrieval"
)

// IndexResult contains statistics about a warm-up run.
type IndexResult struct {
	TotalBooks     int
	CachedBooks    int
	ImageOnlyBooks int
	TotalUnits     int
	FailedBooks    []FailedBook
	Books          []retrieval.WarmResult
	Duration       time.Duration
}

// FailedBook is a book that could not be warmed.
type FailedBook struct {
	BookID string
	Reason string
}

// Warmer routes a book and loads its units.
type Warmer interface {
	Warm(ctx context.Context, bookID string) (retrieval.WarmResult, error)
}

// Flusher waits for background cache writes.
type Flusher interface {
	Flush()
}

// Pipeline warms books one at a time.
type Pipeline struct {
	warmer Warmer
	caches []Flusher
	logger *slog.Logger
}

// NewPipeline creates a pipeline. caches are flushed once every book has been
// processed so that the disk tier is complete when WarmAll returns.
func NewPipeline(warmer Warmer, logger *slog.Logger, caches ...Flusher) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{warmer: warmer, caches: caches, logger: logger}
}

// WarmAll warms every book. Failures are recorded and do not stop the run.
func (p *Pipeline) WarmAll(ctx context.Context, bookIDs []string) *IndexResult {
	start := time.Now()
	result := &IndexResult{TotalBooks: len(bookIDs)}
	p.logger.Info("Starting warm-up", "books", len(bookIDs))

	for _, id := range bookIDs {
		if err := ctx.Err(); err != nil {
			result.FailedBooks = append(result.FailedBooks, FailedBook{BookID: id, Reason: err.Error()})
			continue
		}

		res, err := p.warmer.Warm(ctx, id)
		if err != nil {
			p.logger.Warn("Failed to warm book", "book_id", id, "error", err)
			result.FailedBooks = append(result.FailedBooks, FailedBook{BookID: id, Reason: err.Error()})
			continue
		}

		result.Books = append(result.Books, res)
		if res.Units > 0 {
			result.CachedBooks++
			result.TotalUnits += res.Units
		} else {
			result.ImageOnlyBooks++
		}
		p.logger.Info("Warmed book", "book_id", id, "path", res.Path, "units", res.Units)
	}

	for _, c := range p.caches {
		c.Flush()
	}

	result.Duration = time.Since(start)
	p.logger.Info("Warm-up complete",
		"cached", result.CachedBooks,
		"image_only", result.ImageOnlyBooks,
		"failed", len(result.FailedBooks),
		"units", result.TotalUnits,
		"duration", result.Duration,
	)
	return result
}
