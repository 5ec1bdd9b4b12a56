package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/bull/ebook-search-mcp/internal/imaging"
	"github.com/bull/ebook-search-mcp/internal/komga"
)

// ReadRequest selects an inclusive range of 1-based pages or chapters.
type ReadRequest struct {
	BookID    string
	StartPage int
	EndPage   int
}

func (req ReadRequest) validate() error {
	switch {
	case strings.TrimSpace(req.BookID) == "":
		return fmt.Errorf("%w: book id is required", ErrInvalidRequest)
	case req.StartPage < 1:
		return fmt.Errorf("%w: start page must be a positive number", ErrInvalidRequest)
	case req.EndPage < req.StartPage:
		return fmt.Errorf("%w: end page must be greater than or equal to start page", ErrInvalidRequest)
	}
	return nil
}

// clamp limits the range to the first MaxPagesPerRequest units.
func (req ReadRequest) clamp() ReadRequest {
	if last := req.StartPage + MaxPagesPerRequest - 1; req.EndPage > last {
		req.EndPage = last
	}
	return req
}

// ReadPages returns chapters for EPUBs, joined text pages for text-capable
// books, and compressed page images otherwise. Units outside the book are
// silently omitted and image pages that fail to load are skipped. Ranges
// longer than MaxPagesPerRequest are cut to their first units.
func (r *Router) ReadPages(ctx context.Context, req ReadRequest) ([]Content, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	req = req.clamp()

	book, err := r.books.GetBook(ctx, req.BookID)
	if err != nil {
		return nil, err
	}

	p := r.route(ctx, book)
	r.logger.Debug("Reading pages", "book_id", book.ID, "path", p, "start", req.StartPage, "end", req.EndPage)

	switch p {
	case pathChapters:
		return r.readChapters(ctx, book, req)
	case pathText:
		return r.readText(ctx, book, req)
	default:
		return r.readImages(ctx, book, req), nil
	}
}

func (r *Router) readChapters(ctx context.Context, book *komga.Book, req ReadRequest) ([]Content, error) {
	entry, err := r.load(ctx, book, pathChapters)
	if err != nil {
		return nil, err
	}

	var out []Content
	for n := req.StartPage; n <= req.EndPage; n++ {
		u, ok := entry.Unit(n)
		if !ok {
			continue
		}
		out = append(out, Content{
			Kind:       KindChapter,
			Number:     n,
			Title:      u.Title,
			Text:       truncate(u.Content, MaxChapterChars),
			Searchable: true,
		})
	}
	return out, nil
}

func (r *Router) readText(ctx context.Context, book *komga.Book, req ReadRequest) ([]Content, error) {
	entry, err := r.load(ctx, book, pathText)
	if err != nil {
		return nil, err
	}

	var pages []string
	for n := req.StartPage; n <= req.EndPage; n++ {
		u, ok := entry.Unit(n)
		if !ok {
			break
		}
		pages = append(pages, u.Content)
	}
	if len(pages) == 0 {
		return nil, nil
	}

	return []Content{{
		Kind:       KindPageText,
		Number:     req.StartPage,
		Text:       strings.Join(pages, "\n\n"),
		Searchable: true,
		PageCount:  len(pages),
	}}, nil
}

func (r *Router) readImages(ctx context.Context, book *komga.Book, req ReadRequest) []Content {
	var out []Content
	for n := req.StartPage; n <= req.EndPage; n++ {
		raw, err := r.books.GetBookPage(ctx, book.ID, n)
		if err != nil {
			r.logger.Warn("Failed to fetch page", "book_id", book.ID, "page", n, "error", err)
			continue
		}
		img, err := r.images.Compress(raw)
		if err != nil {
			r.logger.Warn("Failed to compress page", "book_id", book.ID, "page", n, "error", err)
			continue
		}
		out = append(out, Content{
			Kind:     KindPageImage,
			Number:   n,
			Image:    img,
			MIMEType: imaging.MIMEType,
		})
	}
	return out
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
