package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/ebook-search-mcp/internal/catalog"
	"github.com/bull/ebook-search-mcp/internal/retrieval"
)

// Catalog finds and describes books.
type Catalog interface {
	SearchBooks(ctx context.Context, query, libraryFilter string) ([]catalog.BookResult, error)
	Overview(ctx context.Context, bookID string) (*catalog.Overview, error)
}

// Retriever reads and searches book content.
type Retriever interface {
	ReadPages(ctx context.Context, req retrieval.ReadRequest) ([]retrieval.Content, error)
	SearchWithin(ctx context.Context, bookID, term string) (*retrieval.SearchOutcome, error)
}

// makeSearchBooksHandler creates the search_library_books tool handler.
func makeSearchBooksHandler(books Catalog) func(
	context.Context, *mcp.CallToolRequest, SearchBooksInput,
) (*mcp.CallToolResult, SearchBooksOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchBooksInput) (
		*mcp.CallToolResult, SearchBooksOutput, error,
	) {
		results, err := books.SearchBooks(ctx, input.Query, input.LibraryFilter)
		if err != nil {
			return nil, SearchBooksOutput{}, err
		}

		out := SearchBooksOutput{Books: results, Count: len(results)}
		if len(results) == 0 {
			out.Message = "No matching books found. Try broader search terms or another library filter."
		}
		return nil, out, nil
	}
}

// makeOverviewHandler creates the get_book_overview tool handler.
func makeOverviewHandler(books Catalog) func(
	context.Context, *mcp.CallToolRequest, BookOverviewInput,
) (*mcp.CallToolResult, BookOverviewOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input BookOverviewInput) (
		*mcp.CallToolResult, BookOverviewOutput, error,
	) {
		if input.BookID == "" {
			return nil, BookOverviewOutput{}, fmt.Errorf("%w: book id is required", retrieval.ErrInvalidRequest)
		}

		ov, err := books.Overview(ctx, input.BookID)
		if err != nil {
			return nil, BookOverviewOutput{}, err
		}

		pages := make([]PageInfo, len(ov.Pages))
		for i, p := range ov.Pages {
			pages[i] = PageInfo{Number: p.Number, FileName: p.FileName, MediaType: p.MediaType}
		}
		return nil, BookOverviewOutput{
			ID:         ov.Book.ID,
			Title:      ov.Book.Name,
			Series:     ov.Book.SeriesTitle,
			MediaType:  ov.Book.Media.MediaType,
			Metadata:   ov.Book.Metadata,
			TotalPages: ov.TotalPages,
			PageInfo:   pages,
		}, nil
	}
}

// makeReadPagesHandler creates the read_book_pages tool handler.
// Chapters and text pages become text content, page images become image content.
func makeReadPagesHandler(reader Retriever) func(
	context.Context, *mcp.CallToolRequest, ReadPagesInput,
) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ReadPagesInput) (
		*mcp.CallToolResult, any, error,
	) {
		items, err := reader.ReadPages(ctx, retrieval.ReadRequest{
			BookID:    input.BookID,
			StartPage: input.StartPage,
			EndPage:   input.EndPage,
		})
		if err != nil {
			return nil, nil, err
		}

		if len(items) == 0 {
			return textResult(fmt.Sprintf("No content found for pages %d-%d.", input.StartPage, input.EndPage)), nil, nil
		}

		res := &mcp.CallToolResult{}
		for _, item := range items {
			res.Content = append(res.Content, renderContent(item))
		}
		return res, nil, nil
	}
}

func renderContent(item retrieval.Content) mcp.Content {
	switch item.Kind {
	case retrieval.KindPageImage:
		return &mcp.ImageContent{Data: item.Image, MIMEType: item.MIMEType}
	case retrieval.KindPageText:
		last := item.Number + item.PageCount - 1
		return &mcp.TextContent{Text: fmt.Sprintf("=== Pages %d-%d ===\n\n%s", item.Number, last, item.Text)}
	default:
		return &mcp.TextContent{Text: fmt.Sprintf("=== %s ===\n\n%s", item.Title, item.Text)}
	}
}

// makeSearchWithinHandler creates the search_within_book tool handler.
// The result is either the matches or guidance for image-only books.
func makeSearchWithinHandler(reader Retriever) func(
	context.Context, *mcp.CallToolRequest, SearchWithinInput,
) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchWithinInput) (
		*mcp.CallToolResult, any, error,
	) {
		outcome, err := reader.SearchWithin(ctx, input.BookID, input.SearchTerm)
		if err != nil {
			return nil, nil, err
		}

		var body any = outcome.Results
		if outcome.Guidance != nil {
			body = outcome.Guidance
		}
		data, err := json.MarshalIndent(body, "", "  ")
		if err != nil {
			return nil, nil, fmt.Errorf("encode search result: %w", err)
		}
		return textResult(string(data)), nil, nil
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}
