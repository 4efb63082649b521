package models

import (
	"fmt"
	"strings"
	"time"
)

// KindUnknown marks a document whose kind could not be inferred, or that
// matched more than one kind in the catalog.
const KindUnknown = "unknown"

// ProcessUnknown is the sentinel returned when no process in the catalog
// scores above zero for a bundle.
const ProcessUnknown = "unknown"

// Severity is the fixed issue severity enumeration.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// ParseSeverity validates a severity string against the enumeration.
// Matching is case-insensitive; anything outside the enumeration is rejected.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	}
	return "", fmt.Errorf("invalid severity %q", s)
}

// Document is one uploaded document after text extraction. Immutable within
// a single analysis run.
type Document struct {
	ID         string
	Paragraphs []string
	Kind       string
}

// Text joins the document paragraphs into a single block, paragraph breaks
// preserved as blank lines.
func (d Document) Text() string {
	return strings.Join(d.Paragraphs, "\n\n")
}

// Process is a named regulatory workflow with its required-document
// checklist and the keyword evidence used to recognize it. Static reference
// data.
type Process struct {
	Name     string
	Required []string
	Keywords []string
}

// ChecklistResult is the outcome of diffing a bundle against a process
// checklist. Missing preserves the canonical required order.
type ChecklistResult struct {
	Process           string
	Recognized        bool
	DocumentsUploaded int
	RequiredCount     int
	Missing           []string
	Unexpected        []string
}

// Issue is a single red flag surfaced for human review. Paragraph is the
// zero-based index used for annotation placement; -1 means the issue has no
// known paragraph and is reported in JSON only.
type Issue struct {
	Section     string   `json:"section"`
	Description string   `json:"issue"`
	Severity    Severity `json:"severity"`
	Suggestion  string   `json:"suggestion"`
	Citation    *string  `json:"citation"`
	Document    string   `json:"document"`
	Paragraph   int      `json:"-"`
}

// ReferenceChunk is one embedded segment of the reference corpus. Chunks are
// only ever held for the lifetime of an index build; a rebuild replaces them
// wholesale.
type ReferenceChunk struct {
	ID        string
	Source    string
	Index     int
	Content   string
	Embedding []float32
}

// Annotation is one inline marker instruction for the external document
// writer: append Marker after the content of paragraph Paragraph.
type Annotation struct {
	Paragraph int    `json:"paragraph"`
	Marker    string `json:"marker"`
}

// AnalysisReport is the externally visible artifact of a run. Written once,
// never mutated.
type AnalysisReport struct {
	Process           string   `json:"process"`
	DocumentsUploaded int      `json:"documents_uploaded"`
	RequiredDocuments int      `json:"required_documents"`
	MissingDocuments  []string `json:"missing_documents"`
	IssuesFound       []Issue  `json:"issues_found"`
	Timestamp         string   `json:"timestamp"`
}

// FormatTimestamp renders a report timestamp as an ISO-8601 UTC string.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
