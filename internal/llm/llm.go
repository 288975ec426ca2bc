// Package llm abstracts the structured-extraction service that turns raw
// resume text into a profile record.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts extraction providers. Implementations make exactly one
// request per call: retrying against a paid service is the operator's call,
// not the client's.
type Client interface {
	ExtractProfile(ctx context.Context, input ExtractInput) (json.RawMessage, error)
}

// ExtractInput carries the inputs for a profile extraction request.
type ExtractInput struct {
	// ResumeText is the document's visible text, pages concatenated with
	// newline separators.
	ResumeText string
	// SchemaVersion selects the target field schema; empty means current.
	SchemaVersion string
}

// ErrNotConfigured is returned by PlaceholderClient.
var ErrNotConfigured = errors.New("extraction service not configured")

// PlaceholderClient is the stub used in dev when no provider is configured.
type PlaceholderClient struct{}

// ExtractProfile returns ErrNotConfigured.
func (PlaceholderClient) ExtractProfile(ctx context.Context, input ExtractInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotConfigured
}
