package retrieval

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// SearchWithin searches a book's text. Books on the image path get guidance
// instead of results.
func (r *Router) SearchWithin(ctx context.Context, bookID, term string) (*SearchOutcome, error) {
	if strings.TrimSpace(bookID) == "" {
		return nil, fmt.Errorf("%w: book id is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("%w: search term cannot be empty", ErrInvalidRequest)
	}

	book, err := r.books.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	p := r.route(ctx, book)
	if p == pathImages {
		return &SearchOutcome{Guidance: &SearchGuidance{
			BookTitle:  book.Name,
			SearchTerm: term,
			Message:    fmt.Sprintf("To search for %q in this PDF book, use read_book_pages to examine specific sections", term),
		}}, nil
	}

	entry, err := r.load(ctx, book, p)
	if err != nil {
		return nil, err
	}

	ids, err := entry.Index.Search(term)
	if err != nil {
		return nil, fmt.Errorf("search book %s: %w", book.ID, err)
	}
	slices.Sort(ids)

	match := regexp.MustCompile("(?i)" + regexp.QuoteMeta(strings.TrimSpace(term)))
	resp := &SearchResponse{SearchTerm: term, Results: []SearchResult{}}
	for _, id := range ids {
		u, ok := entry.Unit(id)
		if !ok {
			continue
		}
		snippet, ok := contextWindow(u.Content, match, ContextRadius)
		if !ok {
			continue
		}
		resp.Results = append(resp.Results, SearchResult{
			ChapterNumber: u.Number,
			ChapterTitle:  u.Title,
			Context:       snippet,
			Highlights:    []string{term},
			Score:         1.0,
		})
	}
	resp.TotalResults = len(resp.Results)

	r.logger.Debug("Searched book", "book_id", book.ID, "term", term, "hits", len(ids), "results", resp.TotalResults)
	return &SearchOutcome{Results: resp}, nil
}

// contextWindow returns the text around the first match, extended by radius
// characters on each side and trimmed. It reports false when nothing matches.
func contextWindow(text string, match *regexp.Regexp, radius int) (string, bool) {
	loc := match.FindStringIndex(text)
	if loc == nil {
		return "", false
	}

	start, end := loc[0], loc[1]
	for i := 0; i < radius && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	for i := 0; i < radius && end < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return strings.TrimSpace(text[start:end]), true
}
