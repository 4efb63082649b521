package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lexgate/doccheck/internal/models"
)

// ParagraphRule fires at most once per paragraph. Match returns the issue
// description for a hit.
type ParagraphRule struct {
	Section    string
	Severity   models.Severity
	Suggestion string
	Match      func(paragraph string) (string, bool)
}

// DocumentRule inspects the whole document once. Issues it produces carry no
// paragraph index and are reported in JSON only.
type DocumentRule struct {
	Section    string
	Severity   models.Severity
	Suggestion string
	Match      func(doc models.Document) (string, bool)
}

// EngineConfig carries the jurisdiction expectations the default rule set is
// built around.
type EngineConfig struct {
	// Jurisdiction terms any compliant document is expected to reference.
	Jurisdiction []string
	// ForeignJurisdictions are court or venue references that flag a
	// paragraph when the expected jurisdiction terms are configured.
	ForeignJurisdictions []string
}

// Engine scans documents with an ordered rule registry. Scanning is a pure
// function of the input document: two passes over the same document yield
// the identical ordered issue sequence.
type Engine struct {
	paragraphRules []ParagraphRule
	documentRules  []DocumentRule
}

var modalPattern = regexp.MustCompile(`(?i)\b(may|might|could)\b`)

// obligationCues mark a paragraph as obligation-bearing, the context in
// which hedging modals are a red flag.
var obligationCues = []string{
	"company", "party", "parties", "shareholder", "director", "member",
	"agreement", "terminate", "obligation", "liable", "payment", "notice",
}

var defaultForeignJurisdictions = []string{
	"difc", "dubai international financial centre", "dubai courts",
	"uae federal courts", "english courts", "courts of england",
	"singapore courts", "new york courts",
}

// NewEngine builds the default red-flag rule set: jurisdiction (High),
// signature (Medium) and ambiguous language (Low).
func NewEngine(cfg EngineConfig) *Engine {
	jurisdiction := cfg.Jurisdiction
	if len(jurisdiction) == 0 {
		jurisdiction = []string{"adgm", "abu dhabi global market"}
	}
	foreign := cfg.ForeignJurisdictions
	if len(foreign) == 0 {
		foreign = defaultForeignJurisdictions
	}

	e := &Engine{}

	e.paragraphRules = append(e.paragraphRules, ParagraphRule{
		Section:    "jurisdiction",
		Severity:   models.SeverityHigh,
		Suggestion: "Update jurisdiction to 'Abu Dhabi Global Market (ADGM)'.",
		Match: func(paragraph string) (string, bool) {
			t := strings.ToLower(paragraph)
			for _, venue := range foreign {
				if strings.Contains(t, venue) {
					return fmt.Sprintf("Jurisdiction clause references %q instead of ADGM", venue), true
				}
			}
			return "", false
		},
	})

	e.paragraphRules = append(e.paragraphRules, ParagraphRule{
		Section:    "language",
		Severity:   models.SeverityLow,
		Suggestion: "Consider replacing the hedging term with clearer mandatory language if an obligation is intended.",
		Match: func(paragraph string) (string, bool) {
			match := modalPattern.FindString(paragraph)
			if match == "" {
				return "", false
			}
			t := strings.ToLower(paragraph)
			for _, cue := range obligationCues {
				if strings.Contains(t, cue) {
					return fmt.Sprintf("Ambiguous use of %q detected; clause could be non-binding", strings.ToLower(match)), true
				}
			}
			return "", false
		},
	})

	e.documentRules = append(e.documentRules, DocumentRule{
		Section:    "jurisdiction",
		Severity:   models.SeverityHigh,
		Suggestion: "Update jurisdiction to 'Abu Dhabi Global Market (ADGM)'.",
		Match: func(doc models.Document) (string, bool) {
			t := strings.ToLower(doc.Text())
			for _, term := range jurisdiction {
				if strings.Contains(t, term) {
					return "", false
				}
			}
			return "Jurisdiction clause does not specify ADGM", true
		},
	})

	e.documentRules = append(e.documentRules, DocumentRule{
		Section:    "signature",
		Severity:   models.SeverityMedium,
		Suggestion: "Add a signatory section with name, capacity, and date.",
		Match: func(doc models.Document) (string, bool) {
			if hasSignatureBlock(doc.Paragraphs) {
				return "", false
			}
			return "No signature block detected", true
		},
	})

	return e
}

var signaturePattern = regexp.MustCompile(`(?i)\b(signature|signed|signatory)\b`)

// hasSignatureBlock looks for a signature pattern near the end of the
// document, the trailing quarter with a floor of three paragraphs.
func hasSignatureBlock(paragraphs []string) bool {
	tail := len(paragraphs) / 4
	if tail < 3 {
		tail = 3
	}
	start := len(paragraphs) - tail
	if start < 0 {
		start = 0
	}
	for _, p := range paragraphs[start:] {
		if signaturePattern.MatchString(p) {
			return true
		}
	}
	return false
}

// Scan runs every rule over the document. Paragraph-scoped issues come
// first in (paragraph, rule registration) order, then document-level issues
// in registration order.
func (e *Engine) Scan(doc models.Document) []models.Issue {
	var issues []models.Issue

	for i, paragraph := range doc.Paragraphs {
		for _, rule := range e.paragraphRules {
			description, ok := rule.Match(paragraph)
			if !ok {
				continue
			}
			issues = append(issues, models.Issue{
				Section:     rule.Section,
				Description: description,
				Severity:    rule.Severity,
				Suggestion:  rule.Suggestion,
				Document:    doc.ID,
				Paragraph:   i,
			})
		}
	}

	for _, rule := range e.documentRules {
		description, ok := rule.Match(doc)
		if !ok {
			continue
		}
		issues = append(issues, models.Issue{
			Section:     rule.Section,
			Description: description,
			Severity:    rule.Severity,
			Suggestion:  rule.Suggestion,
			Document:    doc.ID,
			Paragraph:   -1,
		})
	}

	return issues
}
