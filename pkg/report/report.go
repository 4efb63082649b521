package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/lexgate/doccheck/internal/models"
)

// Build assembles the final report. The timestamp is captured exactly once,
// after every issue source has been merged, and is rendered as ISO-8601 UTC.
func Build(checklist models.ChecklistResult, issues []models.Issue, now time.Time) models.AnalysisReport {
	missing := checklist.Missing
	if missing == nil {
		missing = []string{}
	}
	if issues == nil {
		issues = []models.Issue{}
	}
	return models.AnalysisReport{
		Process:           checklist.Process,
		DocumentsUploaded: checklist.DocumentsUploaded,
		RequiredDocuments: checklist.RequiredCount,
		MissingDocuments:  missing,
		IssuesFound:       issues,
		Timestamp:         models.FormatTimestamp(now),
	}
}

// MarkerConfig controls the inline marker text.
type MarkerConfig struct {
	Prefix string
}

// Annotations computes the inline marker instructions for one document:
// one (paragraph index, marker) pair per issue owned by the document with a
// known paragraph. Issues without a paragraph index stay JSON-only. Output
// order follows the issue sequence, so annotation order is as stable as the
// issue order. Markers are append-only; paragraphs without issues are never
// touched.
func Annotations(doc models.Document, issues []models.Issue, cfg MarkerConfig) []models.Annotation {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "REVIEW"
	}

	annotations := []models.Annotation{}
	for _, issue := range issues {
		if issue.Document != doc.ID || issue.Paragraph < 0 || issue.Paragraph >= len(doc.Paragraphs) {
			continue
		}
		annotations = append(annotations, models.Annotation{
			Paragraph: issue.Paragraph,
			Marker:    fmt.Sprintf("[%s: %s | Suggestion: %s]", prefix, issue.Description, issue.Suggestion),
		})
	}
	return annotations
}

// WriteJSON renders the report in the external wire shape.
func WriteJSON(w io.Writer, rep models.AnalysisReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
