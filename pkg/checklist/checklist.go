package checklist

import (
	"github.com/lexgate/doccheck/internal/models"
)

// Evaluate diffs the kinds present in a bundle against a process checklist.
// missing = required - present, in the process's canonical required order.
// Kinds are matched exactly; unknown documents never satisfy a requirement
// but still count toward uploaded. Pure function.
func Evaluate(process models.Process, docs []models.Document) models.ChecklistResult {
	present := make(map[string]bool)
	for _, doc := range docs {
		if doc.Kind != models.KindUnknown {
			present[doc.Kind] = true
		}
	}

	required := make(map[string]bool, len(process.Required))
	missing := []string{}
	for _, kind := range process.Required {
		required[kind] = true
		if !present[kind] {
			missing = append(missing, kind)
		}
	}

	var unexpected []string
	seen := make(map[string]bool)
	for _, doc := range docs {
		if doc.Kind == models.KindUnknown || required[doc.Kind] || seen[doc.Kind] {
			continue
		}
		seen[doc.Kind] = true
		unexpected = append(unexpected, doc.Kind)
	}

	return models.ChecklistResult{
		Process:           process.Name,
		Recognized:        true,
		DocumentsUploaded: len(docs),
		RequiredCount:     len(process.Required),
		Missing:           missing,
		Unexpected:        unexpected,
	}
}

// NotRecognized is the checklist result for a bundle whose process could not
// be classified. The checklist step is skipped entirely.
func NotRecognized(docs []models.Document) models.ChecklistResult {
	return models.ChecklistResult{
		Process:           models.ProcessUnknown,
		Recognized:        false,
		DocumentsUploaded: len(docs),
		Missing:           []string{},
	}
}
