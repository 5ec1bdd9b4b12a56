package storage

import "errors"

var (
	ErrRecordNotFound    = errors.New("cache record not found")
	ErrInvalidDocumentID = errors.New("invalid document id")
)
