package openai

import (
	"fmt"
	"strings"

	"iris-backend/internal/llm"
)

const systemPrompt = "You are a resume parsing engine. Respond with JSON only. " +
	"Output must be a single JSON object whose top-level keys are a subset of the schema's keys. " +
	"Represent dates as ISO-8601 date strings. Omit fields that are unknown or absent; never emit null."

// BuildPrompt creates the chat messages for a profile extraction request.
func BuildPrompt(schemaVersion, resumeText string) ([]chatMessage, error) {
	schema, ok := llm.Schema(schemaVersion)
	if !ok {
		return nil, fmt.Errorf("unknown schema version %q", schemaVersion)
	}

	var user strings.Builder
	user.WriteString("Extract a structured candidate profile from the resume text below.\n\n")
	user.WriteString("Target field schema:\n")
	user.WriteString(schema)
	user.WriteString("\n\nResume text:\n")
	user.WriteString(resumeText)

	return []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: user.String()},
	}, nil
}
