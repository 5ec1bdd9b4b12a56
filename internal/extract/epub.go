package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/bull/ebook-search-mcp/internal/storage"
)

// EPUBChapters returns one unit per XHTML content document, ordered by archive
// path. Entries that cannot be read are logged and skipped.
func EPUBChapters(data []byte, logger *slog.Logger) ([]storage.Unit, error) {
	if logger == nil {
		logger = slog.Default()
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open epub: %v", ErrExtraction, err)
	}

	var files []*zip.File
	for _, f := range zr.File {
		if isChapterFile(f.Name) {
			files = append(files, f)
		}
	}
	slices.SortFunc(files, func(a, b *zip.File) int {
		return strings.Compare(a.Name, b.Name)
	})

	chapters := make([]storage.Unit, 0, len(files))
	for _, f := range files {
		text, err := chapterText(f)
		if err != nil {
			logger.Warn("Failed to extract chapter", "file", f.Name, "error", err)
			continue
		}

		n := len(chapters) + 1
		chapters = append(chapters, storage.Unit{
			Number:     n,
			Title:      fmt.Sprintf("Chapter %d", n),
			Content:    text,
			Filename:   f.Name,
			Searchable: true,
		})
	}
	return chapters, nil
}

func isChapterFile(name string) bool {
	if !strings.HasSuffix(name, ".xhtml") && !strings.HasSuffix(name, ".html") {
		return false
	}
	if strings.HasSuffix(name, "nav.xhtml") || strings.HasSuffix(name, "toc.xhtml") {
		return false
	}
	return !strings.Contains(name, "META-INF/")
}

func chapterText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return HTMLText(raw)
}

// HTMLText strips markup from an (X)HTML document and collapses whitespace.
func HTMLText(raw []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	doc.Find("script, style").Remove()

	var b strings.Builder
	writeText(&b, doc.Find("body"))
	return strings.Join(strings.Fields(b.String()), " "), nil
}

var inlineElements = map[string]bool{
	"a": true, "abbr": true, "b": true, "cite": true, "code": true, "em": true,
	"i": true, "small": true, "span": true, "strong": true, "sub": true, "sup": true, "u": true,
}

// writeText appends the text of s, separating block-level elements with a space.
func writeText(b *strings.Builder, s *goquery.Selection) {
	s.Contents().Each(func(_ int, n *goquery.Selection) {
		name := goquery.NodeName(n)
		switch {
		case name == "#text":
			b.WriteString(n.Text())
		case inlineElements[name]:
			writeText(b, n)
		default:
			b.WriteByte(' ')
			writeText(b, n)
			b.WriteByte(' ')
		}
	})
}
