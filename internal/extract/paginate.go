package extract

import (
	"fmt"
	"strings"

	"github.com/bull/ebook-search-mcp/internal/storage"
)

// WordsPerPage is the size of a simulated page.
const WordsPerPage = 500

// Paginate splits text into simulated pages of wordsPerPage words, numbered
// from 1. The last page holds the remainder.
func Paginate(text string, wordsPerPage int) []storage.Unit {
	if wordsPerPage <= 0 {
		wordsPerPage = WordsPerPage
	}

	words := strings.Fields(text)
	pages := make([]storage.Unit, 0, (len(words)+wordsPerPage-1)/wordsPerPage)
	for start := 0; start < len(words); start += wordsPerPage {
		end := min(start+wordsPerPage, len(words))
		n := len(pages) + 1
		pages = append(pages, storage.Unit{
			Number:     n,
			Title:      fmt.Sprintf("Page %d", n),
			Content:    strings.Join(words[start:end], " "),
			Searchable: true,
		})
	}
	return pages
}
