package llm

import "strings"

// Profile field schemas, versioned so the prompt and the consumer evolve
// together. The schema describes the shape the extraction service should
// return; the codec and metadata layers never enforce it.

const schemaV1 = `{
  "basics": {
    "name": {"first": "string", "middle": "string", "last": "string", "full": "string"},
    "headline": "string",
    "summary": "string"
  },
  "contact": {
    "email": "string",
    "phone": "string",
    "location": {"city": "string", "region": "string", "country": "string"}
  },
  "links": [{"label": "string", "url": "string"}],
  "skills": {"<group name>": ["string"]},
  "work_experience": [{
    "company": "string",
    "role": "string",
    "employment_type": "string",
    "location": "string",
    "start_date": "YYYY-MM-DD",
    "end_date": "YYYY-MM-DD",
    "current": "boolean",
    "description": "string"
  }],
  "education": [{
    "institution": "string",
    "course": "string",
    "start_date": "YYYY-MM-DD",
    "end_date": "YYYY-MM-DD",
    "grade": "string",
    "subjects": ["string"]
  }],
  "projects": [{"name": "string", "description": "string", "url": "string"}],
  "extracurriculars": ["string"],
  "achievements": ["string"],
  "certifications": [{"name": "string", "issuer": "string", "date": "YYYY-MM-DD"}],
  "hobbies": ["string"]
}`

var schemas = map[string]string{
	"v1": schemaV1,
}

// DefaultSchemaVersion is used when callers pass an empty version.
const DefaultSchemaVersion = "v1"

// Schema returns the field schema text for a version and whether the version
// is known.
func Schema(version string) (string, bool) {
	v := strings.TrimSpace(version)
	if v == "" {
		v = DefaultSchemaVersion
	}
	s, ok := schemas[v]
	return s, ok
}
