package profile

import "errors"

var (
	ErrNotFound     = errors.New("session not found")
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidEdit means a submitted edit is not valid structured data.
	// The working record and any committed payload are left untouched.
	ErrInvalidEdit = errors.New("edit is not a valid profile record")

	// ErrSessionSaved means the session already committed; a fresh open is
	// required to inspect or change the document again.
	ErrSessionSaved = errors.New("session already saved")

	// ErrRecordPresent means extraction was requested although a decoded
	// payload already provides the working record.
	ErrRecordPresent = errors.New("profile record already present")

	// ErrNoRecord means commit was requested with no working record.
	ErrNoRecord = errors.New("no working record to commit")

	// ErrExtractionService wraps failures of the external extraction
	// service. Never retried here.
	ErrExtractionService = errors.New("extraction service failed")
)

// Error codes used in HTTP responses.
const (
	CodeValidation    = "validation_error"
	CodeNotFound      = "not_found"
	CodeInvalidEdit   = "invalid_edit"
	CodeSessionSaved  = "session_saved"
	CodeConflict      = "conflict"
	CodeExtraction    = "extraction_error"
	CodeDocumentWrite = "document_write_error"
	CodeUnavailable   = "service_unavailable"
	CodeInternal      = "internal_error"
)
