package summarizer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const summarySchema = `{
  "type": "object",
  "properties": {
    "title": {"type": "string"},
    "introduction": {"type": "string"},
    "keyConcepts": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "concept": {"type": "string"},
          "explanation": {"type": "string"}
        }
      }
    },
    "terminology": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "term": {"type": "string"},
          "definition": {"type": "string"}
        }
      }
    },
    "studyTips": {
      "type": "array",
      "items": {"type": "string"}
    }
  }
}`

var schema = mustSchema(summarySchema)

func mustSchema(s string) *gojsonschema.Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("summary schema: %v", err))
	}
	return compiled
}

// CleanJSON strips Markdown code fences and any prose around the outermost
// JSON object.
func CleanJSON(text string) string {
	clean := strings.TrimSpace(text)

	switch {
	case strings.HasPrefix(clean, "```json"):
		clean = strings.TrimSpace(strings.TrimPrefix(clean, "```json"))
	case strings.HasPrefix(clean, "```"):
		clean = strings.TrimSpace(strings.TrimPrefix(clean, "```"))
	}
	clean = strings.TrimSpace(strings.TrimSuffix(clean, "```"))

	first := strings.Index(clean, "{")
	last := strings.LastIndex(clean, "}")
	if first != -1 && last > first {
		clean = clean[first : last+1]
	}

	return clean
}

// ParseSummary cleans, validates and decodes a model response
func ParseSummary(text string) (*LessonSummary, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty response")
	}

	clean := CleanJSON(text)

	result, err := schema.Validate(gojsonschema.NewStringLoader(clean))
	if err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("response does not match schema: %s", schemaErrors(result))
	}

	var summary LessonSummary
	if err := json.Unmarshal([]byte(clean), &summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}

	if summary.Title == "" && summary.KeyConcepts == nil {
		return nil, ErrIncompleteSummary
	}

	return &summary, nil
}

func schemaErrors(result *gojsonschema.Result) string {
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return strings.Join(msgs, "; ")
}
