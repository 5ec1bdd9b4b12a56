package retrieval

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/ebook-search-mcp/internal/cache"
	"github.com/bull/ebook-search-mcp/internal/extract"
	"github.com/bull/ebook-search-mcp/internal/komga"
	"github.com/bull/ebook-search-mcp/internal/quality"
	"github.com/bull/ebook-search-mcp/internal/storage"
)

type fakeBooks struct {
	books      map[string]*komga.Book
	pageErrors map[int]error
}

func (f *fakeBooks) GetBook(ctx context.Context, bookID string) (*komga.Book, error) {
	b, ok := f.books[bookID]
	if !ok {
		return nil, fmt.Errorf("get book %s: %w", bookID, komga.ErrNotFound)
	}
	return b, nil
}

func (f *fakeBooks) GetBookPage(ctx context.Context, bookID string, page int) ([]byte, error) {
	if err := f.pageErrors[page]; err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("%s-page-%d", bookID, page)), nil
}

type fakeText struct {
	results map[string]extract.Result
	err     error
	calls   atomic.Int32
}

func (f *fakeText) ExtractAllText(ctx context.Context, bookID string) (extract.Result, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return extract.Result{}, err
	}
	if f.err != nil {
		return extract.Result{}, f.err
	}
	return f.results[bookID], nil
}

type fakeChapters struct {
	units []storage.Unit
	err   error
	calls atomic.Int32
}

func (f *fakeChapters) ExtractChapters(ctx context.Context, bookID string) ([]storage.Unit, error) {
	f.calls.Add(1)
	return f.units, f.err
}

type fakeCompressor struct{}

func (fakeCompressor) Compress(data []byte) ([]byte, error) {
	return append([]byte("jpeg:"), data...), nil
}

const sentence = "The quick brown fox jumps over the lazy dog "

// goodText is 1080 filler words followed by a distinctive phrase on the
// third simulated page.
var goodText = strings.Repeat(sentence, 120) + "Zanzibar harbour at dawn"

type fixture struct {
	books    *fakeBooks
	text     *fakeText
	chapters *fakeChapters
	router   *Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		books: &fakeBooks{books: map[string]*komga.Book{
			"epub": {ID: "epub", Name: "Pandora's Hope", Media: komga.Media{MediaType: komga.MediaTypeEPUB}},
			"text": {ID: "text", Name: "Readable PDF", Media: komga.Media{MediaType: "application/pdf"}},
			"scan": {ID: "scan", Name: "Scanned PDF", Media: komga.Media{MediaType: "application/pdf"}},
		}},
		text: &fakeText{results: map[string]extract.Result{
			"text": {Text: goodText, TotalPages: 3},
			"scan": {Text: "", TotalPages: 10},
		}},
		chapters: &fakeChapters{units: []storage.Unit{
			{Number: 1, Title: "Chapter 1", Content: "Science in action begins here."},
			{Number: 2, Title: "Chapter 2", Content: strings.Repeat("word ", 2400)},
			{Number: 3, Title: "Chapter 3", Content: "Circulating reference and the Boa Vista soil."},
		}},
	}

	chapterCache := cache.NewOrchestrator(cache.Config{Name: "chapters"})
	pageCache := cache.NewOrchestrator(cache.Config{Name: "pages"})
	t.Cleanup(func() {
		chapterCache.Close()
		pageCache.Close()
	})

	f.router = NewRouter(Config{
		Books:        f.books,
		Text:         f.text,
		Chapters:     f.chapters,
		Images:       fakeCompressor{},
		ChapterCache: chapterCache,
		PageCache:    pageCache,
		Now:          func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) },
	})
	return f
}

func TestReadPages_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  ReadRequest
	}{
		{"missing book id", ReadRequest{BookID: " ", StartPage: 1, EndPage: 1}},
		{"start below one", ReadRequest{BookID: "epub", StartPage: 0, EndPage: 1}},
		{"end before start", ReadRequest{BookID: "epub", StartPage: 3, EndPage: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.router.ReadPages(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}

	_, err := f.router.ReadPages(context.Background(), ReadRequest{BookID: "epub", StartPage: 1, EndPage: 15})
	assert.NoError(t, err, "fifteen pages is allowed")
}

func TestReadPages_LongRangesAreClamped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	images, err := f.router.ReadPages(ctx, ReadRequest{BookID: "scan", StartPage: 4, EndPage: 40})
	require.NoError(t, err)
	require.Len(t, images, MaxPagesPerRequest)
	assert.Equal(t, 4, images[0].Number)
	assert.Equal(t, 18, images[len(images)-1].Number)

	chapters, err := f.router.ReadPages(ctx, ReadRequest{BookID: "epub", StartPage: 1, EndPage: 20})
	require.NoError(t, err)
	assert.Len(t, chapters, 3, "all chapters of the book")

	text, err := f.router.ReadPages(ctx, ReadRequest{BookID: "text", StartPage: 1, EndPage: 20})
	require.NoError(t, err)
	require.Len(t, text, 1)
	assert.Equal(t, 3, text[0].PageCount, "all simulated pages of the book")
}

func TestReadRequestClamp(t *testing.T) {
	tests := []struct {
		start, end int
		wantEnd    int
	}{
		{1, 1, 1},
		{1, 15, 15},
		{1, 16, 15},
		{10, 100, 24},
	}
	for _, tt := range tests {
		got := ReadRequest{BookID: "b", StartPage: tt.start, EndPage: tt.end}.clamp()
		assert.Equal(t, tt.start, got.StartPage)
		assert.Equal(t, tt.wantEnd, got.EndPage, "range %d-%d", tt.start, tt.end)
	}
}

func TestReadPages_EPUBChapters(t *testing.T) {
	f := newFixture(t)

	got, err := f.router.ReadPages(context.Background(), ReadRequest{BookID: "epub", StartPage: 2, EndPage: 5})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, KindChapter, got[0].Kind)
	assert.Equal(t, 2, got[0].Number)
	assert.Equal(t, "Chapter 2", got[0].Title)
	assert.Len(t, got[0].Text, MaxChapterChars)
	assert.True(t, got[0].Searchable)
	assert.Equal(t, 3, got[1].Number)

	_, err = f.router.ReadPages(context.Background(), ReadRequest{BookID: "epub", StartPage: 1, EndPage: 1})
	require.NoError(t, err)

	assert.Equal(t, int32(1), f.chapters.calls.Load())
	assert.Zero(t, f.text.calls.Load(), "EPUBs skip quality detection")
}

func TestReadPages_EPUBProducerFailure(t *testing.T) {
	f := newFixture(t)
	f.chapters.err = fmt.Errorf("book epub: %w", extract.ErrExtraction)

	_, err := f.router.ReadPages(context.Background(), ReadRequest{BookID: "epub", StartPage: 1, EndPage: 1})
	assert.ErrorIs(t, err, extract.ErrExtraction)
}

func TestReadPages_UnknownBook(t *testing.T) {
	f := newFixture(t)

	_, err := f.router.ReadPages(context.Background(), ReadRequest{BookID: "missing", StartPage: 1, EndPage: 1})
	assert.ErrorIs(t, err, komga.ErrNotFound)
}

func TestReadPages_TextPath(t *testing.T) {
	f := newFixture(t)

	got, err := f.router.ReadPages(context.Background(), ReadRequest{BookID: "text", StartPage: 2, EndPage: 4})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, KindPageText, got[0].Kind)
	assert.Equal(t, 2, got[0].PageCount)
	assert.True(t, got[0].Searchable)
	parts := strings.Split(got[0].Text, "\n\n")
	require.Len(t, parts, 2)
	assert.Len(t, strings.Fields(parts[0]), extract.WordsPerPage)
	assert.True(t, strings.HasSuffix(parts[1], "Zanzibar harbour at dawn"))

	// Detection and extraction for the page cache each ran once.
	assert.Equal(t, int32(2), f.text.calls.Load())

	_, err = f.router.ReadPages(context.Background(), ReadRequest{BookID: "text", StartPage: 1, EndPage: 1})
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.text.calls.Load())
}

func TestReadPages_TextPathBeyondEnd(t *testing.T) {
	f := newFixture(t)

	got, err := f.router.ReadPages(context.Background(), ReadRequest{BookID: "text", StartPage: 10, EndPage: 12})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadPages_ImagePathSkipsFailedPages(t *testing.T) {
	f := newFixture(t)
	f.books.pageErrors = map[int]error{2: errors.New("timeout")}

	got, err := f.router.ReadPages(context.Background(), ReadRequest{BookID: "scan", StartPage: 1, EndPage: 3})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, KindPageImage, got[0].Kind)
	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, []byte("jpeg:scan-page-1"), got[0].Image)
	assert.Equal(t, "image/jpeg", got[0].MIMEType)
	assert.False(t, got[0].Searchable)
	assert.Equal(t, 3, got[1].Number)
}

func TestQuality_CachesVerdicts(t *testing.T) {
	f := newFixture(t)

	a, err := f.router.Quality(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, quality.GoodText, a.Tier)

	a, err = f.router.Quality(context.Background(), "scan")
	require.NoError(t, err)
	assert.Equal(t, quality.ImageOnly, a.Tier)

	_, err = f.router.Quality(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.text.calls.Load())
}

func TestQuality_ExtractionFailureFallsBackAndIsCached(t *testing.T) {
	f := newFixture(t)
	f.text.err = fmt.Errorf("book text: %w", extract.ErrExtraction)

	a, err := f.router.Quality(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, quality.ImageOnly, a.Tier)
	assert.Zero(t, a.Confidence)

	f.text.err = nil
	a, err = f.router.Quality(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, quality.ImageOnly, a.Tier, "verdicts are never re-detected")
	assert.Equal(t, int32(1), f.text.calls.Load())
}

func TestRoute_DetectionErrorUsesImages(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.router.Quality(ctx, "text")
	require.Error(t, err)

	got, err := f.router.ReadPages(ctx, ReadRequest{BookID: "text", StartPage: 1, EndPage: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, KindPageImage, got[0].Kind)

	// Cancelled detections are not cached.
	a, err := f.router.Quality(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, quality.GoodText, a.Tier)
}

func TestSearchWithin_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.router.SearchWithin(context.Background(), "", "fox")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.router.SearchWithin(context.Background(), "epub", "  ")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSearchWithin_TextPath(t *testing.T) {
	f := newFixture(t)

	out, err := f.router.SearchWithin(context.Background(), "text", "zanzibar")
	require.NoError(t, err)
	require.Nil(t, out.Guidance)
	require.NotNil(t, out.Results)

	assert.Equal(t, "zanzibar", out.Results.SearchTerm)
	require.Equal(t, 1, out.Results.TotalResults)
	res := out.Results.Results[0]
	assert.Equal(t, 3, res.ChapterNumber)
	assert.Equal(t, "Page 3", res.ChapterTitle)
	assert.True(t, strings.HasSuffix(res.Context, "Zanzibar harbour at dawn"))
	assert.Equal(t, []string{"zanzibar"}, res.Highlights)
	assert.Equal(t, 1.0, res.Score)
}

func TestSearchWithin_CommonWords(t *testing.T) {
	f := newFixture(t)

	out, err := f.router.SearchWithin(context.Background(), "text", "the")
	require.NoError(t, err)
	require.NotNil(t, out.Results)
	assert.Equal(t, 3, out.Results.TotalResults, "every simulated page contains the word")
	for _, res := range out.Results.Results {
		assert.Contains(t, strings.ToLower(res.Context), "the")
	}

	out, err = f.router.SearchWithin(context.Background(), "epub", "in")
	require.NoError(t, err)
	require.Equal(t, 1, out.Results.TotalResults)
	assert.Equal(t, 1, out.Results.Results[0].ChapterNumber)
	assert.Equal(t, "Science in action begins here.", out.Results.Results[0].Context)
}

func TestSearchWithin_EPUB(t *testing.T) {
	f := newFixture(t)

	out, err := f.router.SearchWithin(context.Background(), "epub", "boa vista")
	require.NoError(t, err)
	require.NotNil(t, out.Results)
	require.Len(t, out.Results.Results, 1)
	assert.Equal(t, "Chapter 3", out.Results.Results[0].ChapterTitle)
	assert.Equal(t, "Circulating reference and the Boa Vista soil.", out.Results.Results[0].Context)

	out, err = f.router.SearchWithin(context.Background(), "epub", "nowhere")
	require.NoError(t, err)
	assert.Zero(t, out.Results.TotalResults)
	assert.NotNil(t, out.Results.Results)
}

func TestSearchWithin_ImagePathReturnsGuidance(t *testing.T) {
	f := newFixture(t)

	out, err := f.router.SearchWithin(context.Background(), "scan", "fox")
	require.NoError(t, err)
	require.Nil(t, out.Results)
	require.NotNil(t, out.Guidance)

	assert.Equal(t, "Scanned PDF", out.Guidance.BookTitle)
	assert.Equal(t, "fox", out.Guidance.SearchTerm)
	assert.Equal(t, `To search for "fox" in this PDF book, use read_book_pages to examine specific sections`, out.Guidance.Message)
}

func TestContextWindow(t *testing.T) {
	long := strings.Repeat("a", 150) + "NEEDLE" + strings.Repeat("b", 150)

	tests := []struct {
		name   string
		text   string
		term   string
		want   string
		wantOK bool
	}{
		{"case insensitive", "Find the Needle here", "needle", "Find the Needle here", true},
		{"window is clipped", long, "needle", strings.Repeat("a", 100) + "NEEDLE" + strings.Repeat("b", 100), true},
		{"first occurrence wins", "x needle y NEEDLE z", "NEEDLE", "x needle y NEEDLE z", true},
		{"multibyte text", "été " + strings.Repeat("é", 120) + " cœur", "CŒUR", strings.Repeat("é", 99) + " cœur", true},
		{"regexp characters are literal", "cost is $5.00 (net)", "$5.00 (net)", "cost is $5.00 (net)", true},
		{"no match", "nothing to see", "needle", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := regexp.MustCompile("(?i)" + regexp.QuoteMeta(tt.term))
			got, ok := contextWindow(tt.text, match, ContextRadius)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abcdef", 3))
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "éé", truncate("ééé", 2))
	assert.Equal(t, "", truncate("abc", 0))
}

func TestWarm(t *testing.T) {
	f := newFixture(t)

	res, err := f.router.Warm(context.Background(), "epub")
	require.NoError(t, err)
	assert.Equal(t, WarmResult{BookID: "epub", Title: "Pandora's Hope", Path: "chapters", Units: 3}, res)

	res, err = f.router.Warm(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "text", res.Path)
	assert.Equal(t, quality.GoodText, res.Tier)
	assert.Equal(t, 3, res.Units)

	res, err = f.router.Warm(context.Background(), "scan")
	require.NoError(t, err)
	assert.Equal(t, "images", res.Path)
	assert.Equal(t, quality.ImageOnly, res.Tier)
	assert.Zero(t, res.Units)

	_, err = f.router.Warm(context.Background(), "missing")
	assert.ErrorIs(t, err, komga.ErrNotFound)

	// Warmed books are served from memory afterwards.
	_, err = f.router.ReadPages(context.Background(), ReadRequest{BookID: "epub", StartPage: 1, EndPage: 1})
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.chapters.calls.Load())
}
