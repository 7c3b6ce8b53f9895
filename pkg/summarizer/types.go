// Package summarizer generates structured lesson summaries from an LLM and
// turns them into reminder prefills.
package summarizer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidRequest is returned when a request fails validation
	ErrInvalidRequest = errors.New("invalid summary request")
	// ErrIncompleteSummary is returned when a response has neither a title nor key concepts
	ErrIncompleteSummary = errors.New("incomplete summary")
	// ErrNoProvider is returned when no AI profile is configured
	ErrNoProvider = errors.New("no AI provider configured")
)

// Length controls how detailed the summary is
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// Valid reports whether l is a known length
func (l Length) Valid() bool {
	switch l {
	case LengthShort, LengthMedium, LengthLong:
		return true
	}
	return false
}

// Words is the approximate word budget for the length
func (l Length) Words() int {
	switch l {
	case LengthShort:
		return 150
	case LengthLong:
		return 600
	default:
		return 300
	}
}

const (
	DefaultConceptCount = 3
	MinConceptCount     = 1
	MaxConceptCount     = 10
)

// Request describes the lesson to summarize
type Request struct {
	Topic           string `json:"topic"`
	Subject         string `json:"subject"`
	GradeLevel      string `json:"gradeLevel"`
	Length          Length `json:"length,omitempty"`
	ConceptCount    int    `json:"conceptCount,omitempty"`
	IncludeGlossary *bool  `json:"includeGlossary,omitempty"`
}

// WithDefaults fills the optional fields
func (r Request) WithDefaults() Request {
	r.Topic = strings.TrimSpace(r.Topic)
	r.Subject = strings.TrimSpace(r.Subject)
	r.GradeLevel = strings.TrimSpace(r.GradeLevel)
	if r.Length == "" {
		r.Length = LengthMedium
	}
	if r.ConceptCount == 0 {
		r.ConceptCount = DefaultConceptCount
	}
	if r.IncludeGlossary == nil {
		include := true
		r.IncludeGlossary = &include
	}
	return r
}

// Glossary reports whether a glossary was requested
func (r Request) Glossary() bool {
	return r.IncludeGlossary == nil || *r.IncludeGlossary
}

// Validate checks a request that already has defaults applied
func (r Request) Validate() error {
	if r.Topic == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}
	if r.Subject == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidRequest)
	}
	if r.GradeLevel == "" {
		return fmt.Errorf("%w: grade level is required", ErrInvalidRequest)
	}
	if !r.Length.Valid() {
		return fmt.Errorf("%w: unknown length %q", ErrInvalidRequest, r.Length)
	}
	if r.ConceptCount < MinConceptCount || r.ConceptCount > MaxConceptCount {
		return fmt.Errorf("%w: concept count must be between %d and %d", ErrInvalidRequest, MinConceptCount, MaxConceptCount)
	}
	return nil
}

func (r Request) cacheKey() string {
	return fmt.Sprintf("%s|%s|%s|%s|%d|%t",
		strings.ToLower(r.Topic),
		strings.ToLower(r.Subject),
		strings.ToLower(r.GradeLevel),
		r.Length,
		r.ConceptCount,
		r.Glossary(),
	)
}

// KeyConcept is one explained concept. Explanation is Markdown.
type KeyConcept struct {
	Concept     string `json:"concept"`
	Explanation string `json:"explanation"`
}

// Term is a glossary entry
type Term struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// LessonSummary is the structured summary returned by a provider
type LessonSummary struct {
	Title        string       `json:"title"`
	Introduction string       `json:"introduction"`
	KeyConcepts  []KeyConcept `json:"keyConcepts"`
	Terminology  []Term       `json:"terminology"`
	StudyTips    []string     `json:"studyTips"`
}
