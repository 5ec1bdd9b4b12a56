package retrieval

import "errors"

// ErrInvalidRequest is returned for malformed read or search arguments.
var ErrInvalidRequest = errors.New("invalid request")
