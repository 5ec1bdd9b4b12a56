package komga

// MediaTypeEPUB is the media type Komga reports for EPUB books.
const MediaTypeEPUB = "application/epub+zip"

// Library is a Komga library.
type Library struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Book is the subset of Komga's book DTO used here.
type Book struct {
	ID          string       `json:"id"`
	SeriesID    string       `json:"seriesId"`
	SeriesTitle string       `json:"seriesTitle"`
	LibraryID   string       `json:"libraryId"`
	Name        string       `json:"name"`
	URL         string       `json:"url"`
	Number      float64      `json:"number"`
	Size        string       `json:"size"`
	SizeBytes   int64        `json:"sizeBytes"`
	Media       Media        `json:"media"`
	Metadata    BookMetadata `json:"metadata"`
}

// IsEPUB reports whether the book is an EPUB.
func (b *Book) IsEPUB() bool {
	return b.Media.MediaType == MediaTypeEPUB
}

// Media describes the analysed file of a book.
type Media struct {
	Status       string `json:"status"`
	MediaType    string `json:"mediaType"`
	MediaProfile string `json:"mediaProfile"`
	PagesCount   int    `json:"pagesCount"`
}

// BookMetadata is the editable metadata of a book.
type BookMetadata struct {
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Number      string   `json:"number"`
	ReleaseDate string   `json:"releaseDate"`
	ISBN        string   `json:"isbn"`
	Authors     []Author `json:"authors"`
	Tags        []string `json:"tags"`
}

// Author is a credited contributor.
type Author struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Page is one entry of a book's page list.
type Page struct {
	Number    int    `json:"number"`
	FileName  string `json:"fileName"`
	MediaType string `json:"mediaType"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	SizeBytes int64  `json:"sizeBytes,omitempty"`
}

// BookSearch is the body of a book list query.
type BookSearch struct {
	FullTextSearch string   `json:"fullTextSearch,omitempty"`
	LibraryID      []string `json:"libraryId,omitempty"`
}

type bookPage struct {
	Content []Book `json:"content"`
}
