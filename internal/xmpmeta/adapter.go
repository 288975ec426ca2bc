// Package xmpmeta reads and writes the resume:* property group in a PDF's
// XMP metadata stream.
//
// The field contract, preserved bit-exact for interchange with any XMP-aware
// reader: resume:version = "1", resume:format = "json+zlib+base64",
// resume:payload = the encoded payload. A reader must check resume:format
// before decoding; an unrecognized value means the payload is opaque.
//
// Writes never disturb existing document content. The update is appended as a
// PDF incremental revision, staged in a temporary file next to the target and
// committed with a rename, so a concurrent reader sees either the old file or
// the new one, never a partial write.
package xmpmeta

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// Version is the current schema version written to resume:version.
	Version = "1"
)

// Fields is the namespaced metadata triple stored in one atomic update.
type Fields struct {
	Version string
	Format  string
	Payload string
}

// Adapter is the metadata store adapter. The zero value is ready to use.
type Adapter struct{}

// Read looks up the resume:* fields in the document at path. A document with
// no metadata stream, no resume namespace, or an empty payload value reports
// (zero, false, nil): absence is the normal way callers learn that extraction
// is still needed, not an error.
func (Adapter) Read(path string) (Fields, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fields{}, false, fmt.Errorf("read document: %w", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return Fields{}, false, fmt.Errorf("%w: missing PDF header", ErrInvalidDocument)
	}

	packet, ok := metadataPacket(data)
	if !ok {
		return Fields{}, false, nil
	}
	f := parsePacket(packet)
	if strings.TrimSpace(f.Payload) == "" {
		return Fields{}, false, nil
	}
	return f, true, nil
}

// Write installs the field triple as a single metadata-stream update and
// rewrites the file at path. All three fields land together or not at all.
// Failures surface as ErrDocumentWrite and are never retried here.
func (Adapter) Write(path string, f Fields) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDocumentWrite, err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return fmt.Errorf("%w: not a PDF document", ErrDocumentWrite)
	}

	existing, _ := metadataPacket(data)
	packet := buildPacket(existing, f)

	updated, err := appendMetadataUpdate(data, packet)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDocumentWrite, err)
	}

	return commitFile(path, updated)
}

// metadataPacket walks trailer -> catalog -> /Metadata and returns the raw
// XMP packet bytes.
func metadataPacket(data []byte) ([]byte, bool) {
	rootNum, rootGen, ok := lastRef(reRootRef, data)
	if !ok {
		return nil, false
	}
	catalog, ok := findObject(data, rootNum, rootGen)
	if !ok {
		return nil, false
	}
	metaNum, metaGen, ok := lastRef(reMetadataRef, catalog)
	if !ok {
		return nil, false
	}
	obj, ok := findObject(data, metaNum, metaGen)
	if !ok {
		return nil, false
	}
	return streamContents(obj)
}

// commitFile stages content in a temp file in the target's directory and
// renames it over path. The temp file is removed on every failure path.
func commitFile(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".resume-meta-*.pdf")
	if err != nil {
		return fmt.Errorf("%w: stage temp file: %v", ErrDocumentWrite, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write temp file: %v", ErrDocumentWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: sync temp file: %v", ErrDocumentWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp file: %v", ErrDocumentWrite, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %v", ErrDocumentWrite, err)
	}
	tmpName = ""
	return nil
}
