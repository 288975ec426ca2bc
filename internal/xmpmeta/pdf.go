package xmpmeta

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
)

// Lightweight structural scan of a PDF file: enough to locate the document
// catalog, its metadata stream and the numbers needed to append an
// incremental update. The original file bytes are never modified; an update
// appends overriding objects, a cross-reference section and a trailer, which
// is how PDF revisions are meant to stack.

var (
	reRootRef     = regexp.MustCompile(`/Root\s+(\d+)\s+(\d+)\s+R`)
	reMetadataRef = regexp.MustCompile(`/Metadata\s+(\d+)\s+(\d+)\s+R`)
	reSize        = regexp.MustCompile(`/Size\s+(\d+)`)
	reStartXref   = regexp.MustCompile(`startxref\s+(\d+)`)
	reObjHeader   = regexp.MustCompile(`(\d+)\s+\d+\s+obj\b`)
)

// lastRef returns the object and generation number of the last match of re,
// which wins because incremental updates append later revisions.
func lastRef(re *regexp.Regexp, data []byte) (num, gen int, ok bool) {
	matches := re.FindAllSubmatch(data, -1)
	if len(matches) == 0 {
		return 0, 0, false
	}
	m := matches[len(matches)-1]
	num, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0, 0, false
	}
	gen, err = strconv.Atoi(string(m[2]))
	if err != nil {
		return 0, 0, false
	}
	return num, gen, true
}

func lastInt(re *regexp.Regexp, data []byte) (int, bool) {
	matches := re.FindAllSubmatch(data, -1)
	if len(matches) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(string(matches[len(matches)-1][1]))
	if err != nil {
		return 0, false
	}
	return n, true
}

// findObject returns the body of object num/gen, between the "N G obj" header
// and "endobj". The last occurrence in the file wins.
func findObject(data []byte, num, gen int) ([]byte, bool) {
	pat := []byte(fmt.Sprintf("%d %d obj", num, gen))
	start := -1
	for off := 0; ; {
		i := bytes.Index(data[off:], pat)
		if i < 0 {
			break
		}
		abs := off + i
		// Guard against matching "2 0 obj" inside "12 0 obj".
		if abs == 0 || !isDigit(data[abs-1]) {
			start = abs
		}
		off = abs + len(pat)
	}
	if start < 0 {
		return nil, false
	}
	body := data[start+len(pat):]
	end := bytes.Index(body, []byte("endobj"))
	if end < 0 {
		return nil, false
	}
	return bytes.TrimSpace(body[:end]), true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// trimStreamEOL removes the single end-of-line marker permitted before
// endstream. Only one is trimmed: the stream data itself may legitimately
// end in CR or LF bytes, e.g. a compressed stream whose checksum does.
func trimStreamEOL(data []byte) []byte {
	if bytes.HasSuffix(data, []byte("\r\n")) {
		return data[:len(data)-2]
	}
	if n := len(data); n > 0 && (data[n-1] == '\n' || data[n-1] == '\r') {
		return data[:n-1]
	}
	return data
}

// streamContents returns the decoded contents of a stream object body.
// Metadata streams are normally stored uncompressed, but a FlateDecode filter
// is honored when present.
func streamContents(obj []byte) ([]byte, bool) {
	i := bytes.Index(obj, []byte("stream"))
	if i < 0 {
		return nil, false
	}
	dict := obj[:i]
	data := obj[i+len("stream"):]
	if bytes.HasPrefix(data, []byte("\r\n")) {
		data = data[2:]
	} else if bytes.HasPrefix(data, []byte("\n")) {
		data = data[1:]
	}
	end := bytes.LastIndex(data, []byte("endstream"))
	if end < 0 {
		return nil, false
	}
	data = trimStreamEOL(data[:end])

	if bytes.Contains(dict, []byte("/FlateDecode")) {
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, false
		}
		defer zr.Close()
		inflated, err := io.ReadAll(zr)
		if err != nil {
			return nil, false
		}
		return inflated, true
	}
	return data, true
}

// nextObjectNumber derives the number for a brand-new object from the
// trailer's /Size, falling back to scanning object headers for files whose
// trailer dictionary is unreadable.
func nextObjectNumber(data []byte) int {
	size, _ := lastInt(reSize, data)
	max := 0
	for _, m := range reObjHeader.FindAllSubmatch(data, -1) {
		if n, err := strconv.Atoi(string(m[1])); err == nil && n > max {
			max = n
		}
	}
	if max+1 > size {
		return max + 1
	}
	return size
}

type objUpdate struct {
	num  int
	gen  int
	body string
}

// appendMetadataUpdate returns the original file bytes with an incremental
// update appended that installs packet as the catalog's metadata stream.
// When the catalog already references a metadata object, that object number
// is overridden in place; otherwise a new object is allocated and the catalog
// itself is overridden to reference it.
func appendMetadataUpdate(orig []byte, packet []byte) ([]byte, error) {
	rootNum, rootGen, ok := lastRef(reRootRef, orig)
	if !ok {
		return nil, fmt.Errorf("%w: catalog reference not found", ErrInvalidDocument)
	}
	catalog, ok := findObject(orig, rootNum, rootGen)
	if !ok {
		return nil, fmt.Errorf("%w: catalog object %d %d not found", ErrInvalidDocument, rootNum, rootGen)
	}
	prevStart, _ := lastInt(reStartXref, orig)

	streamBody := fmt.Sprintf("<< /Type /Metadata /Subtype /XML /Length %d >>\nstream\n%s\nendstream",
		len(packet), packet)

	size := nextObjectNumber(orig)
	newSize := size
	var updates []objUpdate

	if metaNum, metaGen, hasMeta := lastRef(reMetadataRef, catalog); hasMeta {
		updates = append(updates, objUpdate{num: metaNum, gen: metaGen, body: streamBody})
	} else {
		metaNum := size
		newSize = size + 1
		updates = append(updates, objUpdate{num: metaNum, gen: 0, body: streamBody})

		end := bytes.LastIndex(catalog, []byte(">>"))
		if end < 0 {
			return nil, fmt.Errorf("%w: catalog is not a dictionary", ErrInvalidDocument)
		}
		newCatalog := fmt.Sprintf("%s/Metadata %d 0 R %s", catalog[:end], metaNum, catalog[end:])
		updates = append(updates, objUpdate{num: rootNum, gen: rootGen, body: newCatalog})
	}

	sort.Slice(updates, func(i, j int) bool { return updates[i].num < updates[j].num })

	var buf bytes.Buffer
	buf.Write(orig)
	if last := orig[len(orig)-1]; last != '\n' && last != '\r' {
		buf.WriteByte('\n')
	}

	offsets := make([]int, len(updates))
	for i, u := range updates {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d %d obj\n%s\nendobj\n", u.num, u.gen, u.body)
	}

	xrefOffset := buf.Len()
	buf.WriteString("xref\n")
	for i, u := range updates {
		fmt.Fprintf(&buf, "%d 1\n%010d %05d n \n", u.num, offsets[i], u.gen)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d %d R /Prev %d >>\nstartxref\n%d\n%%%%EOF\n",
		newSize, rootNum, rootGen, prevStart, xrefOffset)

	return buf.Bytes(), nil
}
