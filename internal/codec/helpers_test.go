package codec

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"testing"
)

// compressString builds a payload whose decompressed bytes are exactly s,
// bypassing Encode so tests can feed non-JSON plaintext through Decode.
func compressString(t *testing.T, s string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close compressor: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
