package retrieval

import (
	"context"
	"fmt"

	"github.com/bull/ebook-search-mcp/internal/cache"
	"github.com/bull/ebook-search-mcp/internal/extract"
	"github.com/bull/ebook-search-mcp/internal/komga"
	"github.com/bull/ebook-search-mcp/internal/quality"
	"github.com/bull/ebook-search-mcp/internal/storage"
)

// Quality returns the text quality of a page-based book, detecting it on
// first use. Extraction failures yield the image-only fallback verdict, which
// is cached like any other. Only a cancelled context is returned as an error.
func (r *Router) Quality(ctx context.Context, bookID string) (quality.Assessment, error) {
	if a, ok := r.cachedQuality(bookID); ok {
		return a, nil
	}

	var a quality.Assessment
	res, err := r.text.ExtractAllText(ctx, bookID)
	switch {
	case err == nil:
		a = quality.Assess(res.Text, res.TotalPages, r.now())
	case ctx.Err() != nil:
		return quality.Assessment{}, fmt.Errorf("detect quality of %s: %w", bookID, ctx.Err())
	default:
		r.logger.Warn("Text extraction failed during detection", "book_id", bookID, "error", err)
		a = quality.Fallback(r.now())
	}

	r.logger.Info("Detected text quality",
		"book_id", bookID,
		"tier", a.Tier,
		"confidence", a.Confidence,
		"text_density", a.TextDensity,
	)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.detections[bookID]; ok {
		return existing, nil
	}
	r.detections[bookID] = a
	return a, nil
}

func (r *Router) cachedQuality(bookID string) (quality.Assessment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.detections[bookID]
	return a, ok
}

// route picks the path for a book. EPUBs always use chapters. If detection
// fails outright the image path is used.
func (r *Router) route(ctx context.Context, book *komga.Book) path {
	if book.IsEPUB() {
		return pathChapters
	}

	a, err := r.Quality(ctx, book.ID)
	if err != nil {
		r.logger.Warn("Quality detection failed, using page images", "book_id", book.ID, "error", err)
		return pathImages
	}
	if a.Tier.TextCapable() {
		return pathText
	}
	return pathImages
}

// load returns the cached units and index for the chapter or text path.
func (r *Router) load(ctx context.Context, book *komga.Book, p path) (*cache.Entry, error) {
	id := book.ID
	if p == pathChapters {
		return r.chapterCache.GetOrCreate(ctx, id, func(ctx context.Context) ([]storage.Unit, error) {
			return r.chapters.ExtractChapters(ctx, id)
		}, displayName(book))
	}

	return r.pageCache.GetOrCreate(ctx, id, func(ctx context.Context) ([]storage.Unit, error) {
		res, err := r.text.ExtractAllText(ctx, id)
		if err != nil {
			return nil, err
		}
		return extract.Paginate(res.Text, extract.WordsPerPage), nil
	}, displayName(book))
}
