package storage

import "time"

// Unit is one addressable piece of extracted text: a chapter or a simulated page.
// Numbers are 1-based and contiguous within a document.
type Unit struct {
	Number     int    `json:"number"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Filename   string `json:"filename,omitempty"`
	Searchable bool   `json:"searchable,omitempty"`
}

// RebuildEntry is one unit id/text pair of the index-rebuild blob.
type RebuildEntry struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
}

// Record is everything persisted for one document.
// RebuildData duplicates Units; indexes are always rebuilt from Units.
type Record struct {
	DocumentID  string
	Units       []Unit
	RebuildData []RebuildEntry
	ProcessedAt time.Time
	FileSize    int64
	Metadata    RecordMetadata
}

// RecordMetadata is the part of a record kept in the small metadata blob.
type RecordMetadata struct {
	DisplayName   string
	UnitCount     int
	ContentLength int
}

// NewRecord builds a Record for units processed at the given time.
func NewRecord(documentID, displayName string, units []Unit, processedAt time.Time) *Record {
	contentLength := 0
	rebuild := make([]RebuildEntry, len(units))
	for i, u := range units {
		contentLength += len(u.Content)
		rebuild[i] = RebuildEntry{ID: u.Number, Content: u.Content}
	}

	return &Record{
		DocumentID:  documentID,
		Units:       units,
		RebuildData: rebuild,
		ProcessedAt: processedAt,
		FileSize:    int64(contentLength),
		Metadata: RecordMetadata{
			DisplayName:   displayName,
			UnitCount:     len(units),
			ContentLength: contentLength,
		},
	}
}

// metadataFile is the on-disk shape of the metadata blob.
type metadataFile struct {
	BookID        string `json:"bookId"`
	ProcessedAt   string `json:"processedAt"` // RFC 3339, UTC
	FileSize      int64  `json:"fileSize"`
	ChapterCount  int    `json:"chapterCount"`
	ContentLength int    `json:"contentLength"`
	BookName      string `json:"bookName"`
}

// Stats summarises the records held by a DiskStore.
type Stats struct {
	Entries     int
	TotalSize   int64
	OldestEntry *time.Time
	Directory   string
}

// Unit kinds, also used as the key of the index-rebuild blob.
const (
	KindChapters = "chapters"
	KindPages    = "pages"
)

// RetentionPeriod is how long a record stays valid after processing.
const RetentionPeriod = 24 * time.Hour
