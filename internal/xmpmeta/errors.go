package xmpmeta

import "errors"

var (
	// ErrInvalidDocument means the file is not a parseable PDF container.
	ErrInvalidDocument = errors.New("invalid pdf document")
	// ErrDocumentWrite means the document could not be rewritten. Never
	// retried here; retry policy belongs to the caller.
	ErrDocumentWrite = errors.New("document write failed")
)
