// Package apperr defines sentinel errors shared across packages.
package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedFormat = errors.New("unsupported bookmark format")
	ErrMalformedDocument = errors.New("malformed bookmark document")
	ErrSamePath          = errors.New("input and output refer to the same file")
)
