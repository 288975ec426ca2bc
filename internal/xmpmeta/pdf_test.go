package xmpmeta

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestTrimStreamEOL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"abc\r\n", "abc"},
		{"abc\n", "abc"},
		{"abc\r", "abc"},
		{"abc\n\n", "abc\n"},
		{"abc", "abc"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := string(trimStreamEOL([]byte(tc.in))); got != tc.want {
			t.Fatalf("trimStreamEOL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// A compressed metadata stream may legitimately end in an EOL byte (the zlib
// checksum is arbitrary bytes). Only the writer's single EOL before endstream
// is framing; stripping more corrupts the stream.
func TestFlateMetadataStreamEndingInEOLByte(t *testing.T) {
	base := `<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about="" xmlns:resume="https://example.com/ai-resume">
   <resume:version>1</resume:version>
   <resume:format>json+zlib+base64</resume:format>
   <resume:payload>cGF5bG9hZA==</resume:payload>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`

	// Vary trailing packet padding until the compressed bytes end in LF.
	var compressed []byte
	for i := 0; i < 4096; i++ {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write([]byte(base + strings.Repeat(" ", i))); err != nil {
			t.Fatalf("compress fixture: %v", err)
		}
		if err := zw.Close(); err != nil {
			t.Fatalf("close compressor: %v", err)
		}
		if b := buf.Bytes(); b[len(b)-1] == '\n' {
			compressed = b
			break
		}
	}
	if compressed == nil {
		t.Fatalf("could not produce a compressed stream ending in LF")
	}

	b := newPDFBuilder()
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R /Metadata 4 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	b.obj(4, fmt.Sprintf("<< /Type /Metadata /Subtype /XML /Filter /FlateDecode /Length %d >>\nstream\n%s\nendstream", len(compressed), compressed))
	path := writeFixture(t, b.finish(1))

	var a Adapter
	fields, ok, err := a.Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !ok {
		t.Fatalf("expected payload from compressed metadata stream")
	}
	if fields.Payload != "cGF5bG9hZA==" {
		t.Fatalf("unexpected payload %q", fields.Payload)
	}
}

func TestFreshPacketCarriesByteOrderMark(t *testing.T) {
	path := writeFixture(t, plainPDF())

	var a Adapter
	if err := a.Write(path, Fields{Version: Version, Format: "json+zlib+base64", Payload: "cGF5bG9hZA=="}); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	marker := append([]byte(`<?xpacket begin="`), 0xEF, 0xBB, 0xBF)
	if !bytes.Contains(data, marker) {
		t.Fatalf("expected UTF-8 byte order mark in xpacket header")
	}
}
