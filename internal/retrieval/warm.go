package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/bull/ebook-search-mcp/internal/quality"
)

// WarmResult describes what Warm loaded for one book.
type WarmResult struct {
	BookID string
	Title  string
	Path   string
	// Tier is empty for EPUBs, which are never classified.
	Tier  quality.Tier
	Units int
}

// Warm routes a book and loads its units into the cache tiers, as the first
// read or search would. Books on the image path have nothing to cache.
func (r *Router) Warm(ctx context.Context, bookID string) (WarmResult, error) {
	if strings.TrimSpace(bookID) == "" {
		return WarmResult{}, fmt.Errorf("%w: book id is required", ErrInvalidRequest)
	}

	book, err := r.books.GetBook(ctx, bookID)
	if err != nil {
		return WarmResult{}, err
	}

	p := r.route(ctx, book)
	res := WarmResult{BookID: book.ID, Title: displayName(book), Path: p.String()}
	if a, ok := r.cachedQuality(book.ID); ok {
		res.Tier = a.Tier
	}
	if p == pathImages {
		return res, nil
	}

	entry, err := r.load(ctx, book, p)
	if err != nil {
		return res, err
	}
	res.Units = len(entry.Units)
	return res, nil
}
