package komga

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ListLibraries returns every library visible to the user.
func (c *Client) ListLibraries(ctx context.Context) ([]Library, error) {
	var libs []Library
	if err := c.getJSON(ctx, "/api/v1/libraries", &libs); err != nil {
		return nil, fmt.Errorf("list libraries: %w", err)
	}
	return libs, nil
}

// SearchBooks runs a book list query and returns the first page of results.
func (c *Client) SearchBooks(ctx context.Context, search BookSearch) ([]Book, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/v1/books/list", search, "application/json")
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}

	var page bookPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("decode book list: %w", err)
	}
	return page.Content, nil
}

// GetBook returns the metadata of a book.
func (c *Client) GetBook(ctx context.Context, bookID string) (*Book, error) {
	var book Book
	if err := c.getJSON(ctx, bookPath(bookID), &book); err != nil {
		return nil, fmt.Errorf("get book %s: %w", bookID, err)
	}
	return &book, nil
}

// GetBookPages returns the page list of a book.
func (c *Client) GetBookPages(ctx context.Context, bookID string) ([]Page, error) {
	var pages []Page
	if err := c.getJSON(ctx, bookPath(bookID)+"/pages", &pages); err != nil {
		return nil, fmt.Errorf("get pages of book %s: %w", bookID, err)
	}
	return pages, nil
}

// GetBookFile downloads the original file of a book.
func (c *Client) GetBookFile(ctx context.Context, bookID string) ([]byte, error) {
	data, err := c.do(ctx, http.MethodGet, bookPath(bookID)+"/file", nil, "*/*")
	if err != nil {
		return nil, fmt.Errorf("download book %s: %w", bookID, err)
	}
	return data, nil
}

// GetBookPage downloads the rendered image of a 1-based page.
func (c *Client) GetBookPage(ctx context.Context, bookID string, page int) ([]byte, error) {
	path := fmt.Sprintf("%s/pages/%d", bookPath(bookID), page)
	data, err := c.do(ctx, http.MethodGet, path, nil, "image/*")
	if err != nil {
		return nil, fmt.Errorf("get page %d of book %s: %w", page, bookID, err)
	}
	return data, nil
}

// Health checks that Komga is reachable and accepts the credentials.
// It makes a single attempt without retries.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.attempt(ctx, http.MethodGet, "/api/v1/libraries", nil, "application/json")
	return err
}

func bookPath(bookID string) string {
	return "/api/v1/books/" + url.PathEscape(strings.TrimSpace(bookID))
}
