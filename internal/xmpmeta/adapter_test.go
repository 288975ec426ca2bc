package xmpmeta

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pdfBuilder assembles a small but structurally correct PDF fixture, tracking
// byte offsets so the cross-reference table is accurate.
type pdfBuilder struct {
	buf     bytes.Buffer
	offsets map[int]int
	nums    []int
}

func newPDFBuilder() *pdfBuilder {
	b := &pdfBuilder{offsets: map[int]int{}}
	b.buf.WriteString("%PDF-1.4\n")
	return b
}

func (b *pdfBuilder) obj(num int, body string) {
	b.offsets[num] = b.buf.Len()
	b.nums = append(b.nums, num)
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", num, body)
}

func (b *pdfBuilder) finish(rootNum int) []byte {
	xref := b.buf.Len()
	size := len(b.nums) + 1
	fmt.Fprintf(&b.buf, "xref\n0 %d\n", size)
	b.buf.WriteString("0000000000 65535 f \n")
	for _, num := range b.nums {
		fmt.Fprintf(&b.buf, "%010d 00000 n \n", b.offsets[num])
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, rootNum, xref)
	return b.buf.Bytes()
}

// plainPDF is a one-page document with no metadata stream.
func plainPDF() []byte {
	b := newPDFBuilder()
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	return b.finish(1)
}

// pdfWithForeignMetadata carries an XMP packet from another producer.
func pdfWithForeignMetadata() []byte {
	packet := `<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about="" xmlns:dc="http://purl.org/dc/elements/1.1/">
   <dc:title>Original Resume</dc:title>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`

	b := newPDFBuilder()
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R /Metadata 4 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	b.obj(4, fmt.Sprintf("<< /Type /Metadata /Subtype /XML /Length %d >>\nstream\n%s\nendstream", len(packet), packet))
	return b.finish(1)
}

func writeFixture(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestReadNoMetadataIsNotAnError(t *testing.T) {
	path := writeFixture(t, plainPDF())

	var a Adapter
	fields, ok, err := a.Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if ok {
		t.Fatalf("expected no payload, got %+v", fields)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := writeFixture(t, plainPDF())

	var a Adapter
	want := Fields{Version: Version, Format: "json+zlib+base64", Payload: "eJyrVspLzE1VslIKSS0uUdJRSixJBXJLi1OLFGprAXm1CJs="}
	if err := a.Write(path, want); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, ok, err := a.Read(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !ok {
		t.Fatal("expected payload after write")
	}
	if got != want {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestWritePreservesOriginalBytes(t *testing.T) {
	orig := plainPDF()
	path := writeFixture(t, orig)

	var a Adapter
	if err := a.Write(path, Fields{Version: Version, Format: "json+zlib+base64", Payload: "AAAA"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	updated, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read updated: %v", err)
	}
	if !bytes.HasPrefix(updated, orig) {
		t.Fatal("incremental update must leave the original revision byte-identical")
	}
	if len(updated) <= len(orig) {
		t.Fatal("expected appended revision")
	}
}

func TestWriteTwiceLatestWins(t *testing.T) {
	path := writeFixture(t, plainPDF())

	var a Adapter
	first := Fields{Version: Version, Format: "json+zlib+base64", Payload: "Zmlyc3Q="}
	second := Fields{Version: Version, Format: "json+zlib+base64", Payload: "c2Vjb25k"}
	if err := a.Write(path, first); err != nil {
		t.Fatalf("first write: %v", err)
	}
	afterFirst, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read after first: %v", err)
	}
	if err := a.Write(path, second); err != nil {
		t.Fatalf("second write: %v", err)
	}

	got, ok, err := a.Read(path)
	if err != nil || !ok {
		t.Fatalf("read back: ok=%v err=%v", ok, err)
	}
	if got.Payload != second.Payload {
		t.Fatalf("expected latest payload %q, got %q", second.Payload, got.Payload)
	}

	updated, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read final: %v", err)
	}
	if !bytes.HasPrefix(updated, afterFirst) {
		t.Fatal("second write must stack on the first revision")
	}
}

func TestWriteKeepsForeignMetadata(t *testing.T) {
	path := writeFixture(t, pdfWithForeignMetadata())

	var a Adapter
	if err := a.Write(path, Fields{Version: Version, Format: "json+zlib+base64", Payload: "AAAA"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	updated, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read updated: %v", err)
	}
	packet, ok := metadataPacket(updated)
	if !ok {
		t.Fatal("expected metadata packet after write")
	}
	if !strings.Contains(string(packet), "<dc:title>Original Resume</dc:title>") {
		t.Fatalf("foreign dc:title property was clobbered:\n%s", packet)
	}
	if !strings.Contains(string(packet), "<resume:payload>AAAA</resume:payload>") {
		t.Fatalf("resume payload missing from packet:\n%s", packet)
	}
}

func TestEmptyPayloadReportsAbsent(t *testing.T) {
	path := writeFixture(t, plainPDF())

	var a Adapter
	if err := a.Write(path, Fields{Version: Version, Format: "json+zlib+base64", Payload: ""}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, ok, err := a.Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if ok {
		t.Fatal("present-but-empty payload must report absent")
	}
}

func TestWriteFailuresSurfaceAsDocumentWrite(t *testing.T) {
	var a Adapter

	err := a.Write(filepath.Join(t.TempDir(), "missing", "resume.pdf"), Fields{Payload: "AAAA"})
	if !errors.Is(err, ErrDocumentWrite) {
		t.Fatalf("expected ErrDocumentWrite for missing file, got %v", err)
	}

	notPDF := filepath.Join(t.TempDir(), "resume.pdf")
	if err := os.WriteFile(notPDF, []byte("plain text"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := a.Write(notPDF, Fields{Payload: "AAAA"}); !errors.Is(err, ErrDocumentWrite) {
		t.Fatalf("expected ErrDocumentWrite for non-PDF, got %v", err)
	}
}

func TestReadRejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.pdf")
	if err := os.WriteFile(path, []byte("plain text"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	var a Adapter
	_, _, err := a.Read(path)
	if !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestParsePacketAttributeForm(t *testing.T) {
	packet := []byte(`<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about=""
    xmlns:resume="https://example.com/ai-resume"
    resume:version="1"
    resume:format="json+zlib+base64"
    resume:payload="eJyrVkrLz1eyUlBKSixSqgUAJrsFiA=="/>
 </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`)

	f := parsePacket(packet)
	if f.Version != "1" || f.Format != "json+zlib+base64" {
		t.Fatalf("unexpected fields: %+v", f)
	}
	if f.Payload != "eJyrVkrLz1eyUlBKSixSqgUAJrsFiA==" {
		t.Fatalf("unexpected payload: %q", f.Payload)
	}
}
