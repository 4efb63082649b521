package classifier

import (
	"strings"

	"github.com/lexgate/doccheck/internal/models"
)

// KindRule associates a document kind with the keywords that identify it.
// Rules are evaluated in registration order.
type KindRule struct {
	Kind     string
	Keywords []string
}

// Catalog holds the recognized document kinds and regulatory processes.
// Static reference data; a Catalog is never mutated after construction.
type Catalog struct {
	kindRules []KindRule
	processes []models.Process
}

// DefaultCatalog returns the ADGM corporate services catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		[]KindRule{
			{Kind: "Articles of Association", Keywords: []string{"articles of association", "articles"}},
			{Kind: "Memorandum of Association", Keywords: []string{"memorandum of association", "memorandum", "moa"}},
			{Kind: "Incorporation Application Form", Keywords: []string{"incorporation application", "application for incorporation"}},
			{Kind: "UBO Declaration Form", Keywords: []string{"ubo declaration", "ultimate beneficial owner"}},
			{Kind: "Register of Members and Directors", Keywords: []string{"register of members", "register of directors", "register of members and directors"}},
		},
		[]models.Process{
			{
				Name: "Company Incorporation",
				Required: []string{
					"Articles of Association",
					"Memorandum of Association",
					"Incorporation Application Form",
					"UBO Declaration Form",
					"Register of Members and Directors",
				},
				Keywords: []string{
					"incorporation",
					"articles of association",
					"memorandum of association",
					"ubo declaration",
					"register of members",
				},
			},
		},
	)
}

func NewCatalog(kindRules []KindRule, processes []models.Process) *Catalog {
	return &Catalog{kindRules: kindRules, processes: processes}
}

// Process looks up a process by name.
func (c *Catalog) Process(name string) (models.Process, bool) {
	for _, p := range c.processes {
		if p.Name == name {
			return p, true
		}
	}
	return models.Process{}, false
}

// DetectKind infers the kind of a single document from its text. Rules are
// checked in registration order; a document matching more than one kind is
// ambiguous and reported as unknown rather than guessed.
func (c *Catalog) DetectKind(text string) string {
	t := strings.ToLower(text)
	matched := ""
	for _, rule := range c.kindRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(t, kw) {
				if matched != "" && matched != rule.Kind {
					return models.KindUnknown
				}
				matched = rule.Kind
				break
			}
		}
	}
	if matched == "" {
		return models.KindUnknown
	}
	return matched
}

// ClassifyProcess scores every process in the catalog by counting keyword
// occurrences across the bundle text and returns the highest non-zero
// scorer. Ties break toward the earlier-registered process. A bundle that
// matches nothing classifies as unknown.
func (c *Catalog) ClassifyProcess(docs []models.Document) string {
	best := models.ProcessUnknown
	bestScore := 0
	for _, process := range c.processes {
		score := 0
		for _, doc := range docs {
			t := strings.ToLower(doc.Text())
			for _, kw := range process.Keywords {
				score += strings.Count(t, kw)
			}
		}
		if score > bestScore {
			best = process.Name
			bestScore = score
		}
	}
	return best
}
