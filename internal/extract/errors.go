package extract

import "errors"

// ErrExtraction is returned when a document cannot be parsed at all.
var ErrExtraction = errors.New("extraction failed")
