package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFiles struct {
	data map[string][]byte
	err  error
}

func (f *fakeFiles) GetBookFile(ctx context.Context, bookID string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data[bookID], nil
}

func TestPDFText_Malformed(t *testing.T) {
	for _, input := range [][]byte{nil, []byte("%PDF-1.4 truncated"), []byte("plain text")} {
		_, err := PDFText(input)
		assert.ErrorIs(t, err, ErrExtraction)
	}
}

func TestExtractor_ExtractChapters(t *testing.T) {
	files := &fakeFiles{data: map[string][]byte{
		"b1": buildEPUB(t, map[string]string{"text/c1.html": "<p>Hello</p>"}),
	}}
	e := NewExtractor(files, nil)

	chapters, err := e.ExtractChapters(context.Background(), "b1")
	require.NoError(t, err)
	require.Len(t, chapters, 1)
	assert.Equal(t, "Hello", chapters[0].Content)
}

func TestExtractor_DownloadFailure(t *testing.T) {
	boom := errors.New("connection refused")
	e := NewExtractor(&fakeFiles{err: boom}, nil)

	_, err := e.ExtractAllText(context.Background(), "b1")
	assert.ErrorIs(t, err, boom)

	_, err = e.ExtractChapters(context.Background(), "b1")
	assert.ErrorIs(t, err, boom)
}

func TestExtractor_ExtractAllTextMalformed(t *testing.T) {
	e := NewExtractor(&fakeFiles{data: map[string][]byte{"b1": []byte("not a pdf")}}, nil)

	_, err := e.ExtractAllText(context.Background(), "b1")
	assert.ErrorIs(t, err, ErrExtraction)
}
