package xmpmeta

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// XMP packet assembly and parsing. The resume:* properties live in their own
// rdf:Description; properties from other producers (dc:, pdf:, xmp:) are
// carried over untouched when a document already holds a packet.

const (
	// NamespaceURI scopes the resume:* property group.
	NamespaceURI = "https://example.com/ai-resume"

	keyVersion = "version"
	keyFormat  = "format"
	keyPayload = "payload"
)

var packetKeys = []string{keyVersion, keyFormat, keyPayload}

type propMatchers struct {
	attr *regexp.Regexp // resume:key="value"
	elem *regexp.Regexp // <resume:key>value</resume:key>
}

var propRes = func() map[string]propMatchers {
	m := make(map[string]propMatchers, len(packetKeys))
	for _, key := range packetKeys {
		m[key] = propMatchers{
			attr: regexp.MustCompile(`resume:` + key + `\s*=\s*"([^"]*)"`),
			elem: regexp.MustCompile(`(?s)<resume:` + key + `(?:\s[^>]*)?>(.*?)</resume:` + key + `>`),
		}
	}
	return m
}()

var rdfClose = []byte("</rdf:RDF>")

// parsePacket pulls the resume:* fields out of an XMP packet. Both
// serialization forms are understood: attribute properties on an
// rdf:Description and child elements. The last occurrence of a key wins.
func parsePacket(packet []byte) Fields {
	var f Fields
	for _, key := range packetKeys {
		res := propRes[key]
		val, ok := lastCapture(res.elem, packet)
		if !ok {
			val, ok = lastCapture(res.attr, packet)
		}
		if !ok {
			continue
		}
		switch key {
		case keyVersion:
			f.Version = val
		case keyFormat:
			f.Format = val
		case keyPayload:
			f.Payload = val
		}
	}
	return f
}

func lastCapture(re *regexp.Regexp, data []byte) (string, bool) {
	matches := re.FindAllSubmatch(data, -1)
	if len(matches) == 0 {
		return "", false
	}
	return unescapeXML(strings.TrimSpace(string(matches[len(matches)-1][1]))), true
}

// buildPacket produces the packet to install: either a fresh skeleton, or the
// existing packet with any prior resume:* properties stripped and the new
// description inserted, so foreign metadata survives a rewrite verbatim.
func buildPacket(existing []byte, f Fields) []byte {
	desc := resumeDescription(f)

	if idx := bytes.LastIndex(existing, rdfClose); idx >= 0 {
		cleaned := stripResumeProps(existing)
		idx = bytes.LastIndex(cleaned, rdfClose)
		var buf bytes.Buffer
		buf.Write(cleaned[:idx])
		buf.WriteString(desc)
		buf.Write(cleaned[idx:])
		return buf.Bytes()
	}

	var buf bytes.Buffer
	buf.WriteString(`<?xpacket begin="` + "\uFEFF" + `" id="W5M0MpCehiHzreSzNTczkc9d"?>` + "\n")
	buf.WriteString("<x:xmpmeta xmlns:x=\"adobe:ns:meta/\">\n")
	buf.WriteString(" <rdf:RDF xmlns:rdf=\"http://www.w3.org/1999/02/22-rdf-syntax-ns#\">\n")
	buf.WriteString(desc)
	buf.WriteString(" </rdf:RDF>\n")
	buf.WriteString("</x:xmpmeta>\n")
	buf.WriteString(`<?xpacket end="w"?>`)
	return buf.Bytes()
}

func resumeDescription(f Fields) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  <rdf:Description rdf:about=\"\" xmlns:resume=%q>\n", NamespaceURI)
	fmt.Fprintf(&b, "   <resume:version>%s</resume:version>\n", escapeXML(f.Version))
	fmt.Fprintf(&b, "   <resume:format>%s</resume:format>\n", escapeXML(f.Format))
	fmt.Fprintf(&b, "   <resume:payload>%s</resume:payload>\n", escapeXML(f.Payload))
	b.WriteString("  </rdf:Description>\n")
	return b.String()
}

// stripResumeProps removes resume:* properties in either form but leaves the
// surrounding descriptions in place, so a description shared with another
// namespace keeps its other properties.
func stripResumeProps(packet []byte) []byte {
	out := packet
	for _, key := range packetKeys {
		res := propRes[key]
		out = res.elem.ReplaceAll(out, nil)
		out = res.attr.ReplaceAll(out, nil)
	}
	return out
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

var xmlUnescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

func escapeXML(s string) string   { return xmlEscaper.Replace(s) }
func unescapeXML(s string) string { return xmlUnescaper.Replace(s) }
