package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"iris-backend/internal/codec"
	"iris-backend/internal/pdfdoc"
	"iris-backend/internal/xmpmeta"
)

// irisinspect reads a resume PDF and prints the embedded profile, if any.
// It is the recruiter-side counterpart of the upload flow: no server, no
// extraction service, just the document and its metadata.
func main() {
	rawOnly := flag.Bool("raw", false, "Print the raw encoded payload instead of decoding it")
	quiet := flag.Bool("quiet", false, "Suppress document info, print only the profile JSON")
	flag.Parse()

	if flag.NArg() != 1 {
		exitErr("usage: irisinspect [-raw] [-quiet] <resume.pdf>")
	}
	path := flag.Arg(0)

	pages, err := pdfdoc.Inspect(path)
	if err != nil {
		exitErr(fmt.Sprintf("inspect document: %v", err))
	}

	fields, ok, err := xmpmeta.Adapter{}.Read(path)
	if err != nil {
		exitErr(fmt.Sprintf("read metadata: %v", err))
	}

	if !*quiet {
		fmt.Fprintf(os.Stderr, "document: %s (%d pages)\n", path, pages)
	}

	if !ok {
		exitErr("no embedded profile found")
	}
	if !*quiet {
		fmt.Fprintf(os.Stderr, "payload: version=%s format=%s (%d bytes encoded)\n",
			fields.Version, fields.Format, len(fields.Payload))
	}

	if *rawOnly {
		fmt.Println(fields.Payload)
		return
	}

	if fields.Format != codec.FormatJSONZlibBase64 {
		exitErr(fmt.Sprintf("unrecognized payload format %q; use -raw to dump it", fields.Format))
	}

	record, err := codec.Decode(fields.Payload)
	if err != nil {
		switch {
		case errors.Is(err, codec.ErrMalformedPayload):
			exitErr(fmt.Sprintf("payload is not valid base64: %v", err))
		case errors.Is(err, codec.ErrCorruptPayload):
			exitErr(fmt.Sprintf("payload is corrupt: %v", err))
		default:
			exitErr(fmt.Sprintf("decode payload: %v", err))
		}
	}

	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("render profile: %v", err))
	}
	fmt.Println(string(out))
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
