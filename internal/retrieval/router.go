// Package retrieval decides, per book, whether reads and searches use
// extracted text or rendered page images, and serves both paths.
package retrieval

import (
	"log/slog"
	"sync"
	"time"

	"github.com/bull/ebook-search-mcp/internal/komga"
	"github.com/bull/ebook-search-mcp/internal/quality"
)

const (
	// MaxPagesPerRequest caps the units returned by one read.
	MaxPagesPerRequest = 15
	// MaxChapterChars truncates chapter text returned by reads.
	MaxChapterChars = 10000
	// ContextRadius is the number of characters kept on each side of a match.
	ContextRadius = 100

	unknownTitle = "Unknown Book"
)

type path int

const (
	pathChapters path = iota
	pathText
	pathImages
)

func (p path) String() string {
	switch p {
	case pathChapters:
		return "chapters"
	case pathText:
		return "text"
	default:
		return "images"
	}
}

// Config holds Router dependencies.
type Config struct {
	Books    BookSource
	Text     TextExtractor
	Chapters ChapterExtractor
	Images   ImageCompressor
	// ChapterCache serves EPUB chapters, PageCache serves simulated text pages.
	ChapterCache Loader
	PageCache    Loader
	Logger       *slog.Logger
	Now          func() time.Time
}

// Router routes reads and searches. Quality verdicts are cached for the
// lifetime of the Router and never re-detected.
type Router struct {
	books        BookSource
	text         TextExtractor
	chapters     ChapterExtractor
	images       ImageCompressor
	chapterCache Loader
	pageCache    Loader
	logger       *slog.Logger
	now          func() time.Time

	mu         sync.Mutex
	detections map[string]quality.Assessment
}

// NewRouter creates a Router.
func NewRouter(cfg Config) *Router {
	r := &Router{
		books:        cfg.Books,
		text:         cfg.Text,
		chapters:     cfg.Chapters,
		images:       cfg.Images,
		chapterCache: cfg.ChapterCache,
		pageCache:    cfg.PageCache,
		logger:       cfg.Logger,
		now:          cfg.Now,
		detections:   make(map[string]quality.Assessment),
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

func displayName(book *komga.Book) string {
	if book.Name == "" {
		return unknownTitle
	}
	return book.Name
}
