package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Result is the text of a whole document.
type Result struct {
	Text       string
	TotalPages int
}

// PDFText extracts the plain text of every page of a PDF.
func PDFText(data []byte) (res Result, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("%w: malformed pdf: %v", ErrExtraction, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("%w: open pdf: %v", ErrExtraction, err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return Result{}, fmt.Errorf("%w: read pdf text: %v", ErrExtraction, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return Result{}, fmt.Errorf("%w: read pdf text: %v", ErrExtraction, err)
	}

	return Result{Text: buf.String(), TotalPages: r.NumPage()}, nil
}
