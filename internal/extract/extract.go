// Package extract pulls the visible text out of a PDF resume. The text is
// what gets handed to the profile extraction service; page layout, fonts and
// images are ignored.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"
)

// ErrEmptyDocument is returned when the document yields no text at all,
// e.g. a scanned image-only resume.
var ErrEmptyDocument = errors.New("document contains no extractable text")

// VisibleText extracts the plain text of an in-memory PDF.
func VisibleText(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errors.New("empty document data")
	}

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	if buf.Len() == 0 {
		return "", ErrEmptyDocument
	}
	return buf.String(), nil
}

// VisibleTextFromFile extracts the plain text of a PDF on disk.
func VisibleTextFromFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return VisibleText(ctx, data)
}
