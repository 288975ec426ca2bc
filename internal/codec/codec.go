// Package codec implements the reversible mapping between a profile record
// and the printable payload string stored in a document's metadata stream.
//
// The pipeline is JSON -> zlib -> base64. encoding/json marshals map keys in
// lexicographic order, so the serialized form is canonical and Encode is a
// deterministic function of its input.
package codec

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
)

// FormatJSONZlibBase64 is the self-describing identifier for this codec.
const FormatJSONZlibBase64 = "json+zlib+base64"

// Record is the untyped profile record: nested maps, slices and scalars as
// produced by encoding/json. The schema is owned by the extraction service;
// the codec never inspects it.
type Record = map[string]any

// Encode serializes the record to canonical JSON, compresses it with zlib at
// the maximum compression level and returns the bytes as standard base64.
// Pure function, no side effects; records holding non-finite numbers or
// unmarshalable values fail here, before anything touches a file.
func Encode(record Record) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("serialize record: %w", err)
	}

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return "", fmt.Errorf("init compressor: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return "", fmt.Errorf("compress record: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress record: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode is the inverse of Encode. The three failure kinds are distinguished
// so callers can tell a mangled base64 string from a truncated zlib stream
// from decompressed bytes that are not a JSON object:
//
//	ErrMalformedPayload - base64 alphabet or padding rejected
//	ErrCorruptPayload   - zlib stream corrupt or truncated
//	ErrMalformedRecord  - decompressed bytes are not valid JSON
func Decode(payload string) (Record, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return record, nil
}
