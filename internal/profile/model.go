package profile

import (
	"time"

	"iris-backend/internal/codec"
)

// Session states. A session moves Opened -> Saved exactly once; there is no
// way back, a fresh open is required to re-inspect the document.
const (
	StateOpened = "opened"
	StateSaved  = "saved"
)

// Payload states observed when the document is opened.
const (
	PayloadAbsent  = "absent"  // no resume:* metadata; extraction needed
	PayloadDecoded = "decoded" // payload decoded into the working record
	PayloadOpaque  = "opaque"  // payload present but format unrecognized
	PayloadCorrupt = "corrupt" // payload present but failed to decode
)

// Session is one edit session over one document. The working record lives
// here in memory; the document on disk is the only durable store.
type Session struct {
	ID           string
	FileName     string
	StorageKey   string
	WorkPath     string
	PageCount    int
	PayloadState string
	PayloadError string
	Record       codec.Record
	State        string
	CreatedAt    time.Time
	SavedAt      time.Time
}
