package augment

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/lexgate/doccheck/internal/common"
	"github.com/lexgate/doccheck/internal/models"
	"github.com/lexgate/doccheck/internal/types"
)

// Result is the outcome of one augmentation attempt. Issues always contains
// at least the rule-based findings; Degraded marks an attempt that failed
// and fell back, with Reason carrying the diagnostic. Augmentation strictly
// adds, it never removes or blocks the rule-based result.
type Result struct {
	Issues   []models.Issue
	Degraded bool
	Reason   string
}

// Config tunes the orchestrator.
type Config struct {
	// TopK reference chunks retrieved per document.
	TopK int
	// ExcerptLimit caps how much document text goes into the retrieval
	// query and the prompt.
	ExcerptLimit int
}

// Orchestrator augments rule-based findings with evidence retrieved from
// the reference index and elaborated by the generation service.
type Orchestrator struct {
	index     types.Index
	generator types.Generator
	config    Config
}

func New(index types.Index, generator types.Generator, config Config) *Orchestrator {
	if config.TopK == 0 {
		config.TopK = 3
	}
	if config.ExcerptLimit == 0 {
		config.ExcerptLimit = 1500
	}
	return &Orchestrator{index: index, generator: generator, config: config}
}

// serviceResponse is the structured shape the generation service is asked
// to return.
type serviceResponse struct {
	Issues []serviceIssue `json:"issues"`
}

type serviceIssue struct {
	Section    string  `json:"section"`
	Issue      string  `json:"issue"`
	Severity   string  `json:"severity"`
	Suggestion string  `json:"suggestion"`
	Citation   *string `json:"citation"`
}

// Augment runs the retrieval and elaboration step for one document. Any
// failure along the way degrades to the untouched rule-based sequence; a
// missing index or an empty retrieval is a normal skip, not a degradation.
func (o *Orchestrator) Augment(ctx context.Context, doc models.Document, ruleIssues []models.Issue) Result {
	logger := common.Logger()

	if o.index == nil || !o.index.Ready() {
		return Result{Issues: ruleIssues}
	}
	if o.generator == nil {
		return Result{Issues: ruleIssues}
	}

	excerpt := doc.Text()
	if len(excerpt) > o.config.ExcerptLimit {
		excerpt = excerpt[:o.config.ExcerptLimit]
	}

	chunks, err := o.index.Query(ctx, excerpt, o.config.TopK)
	if err != nil {
		logger.Warn("augment: retrieval failed, keeping rule-based result", "document", doc.ID, "error", err)
		return degraded(ruleIssues, fmt.Sprintf("retrieval failed: %v", err))
	}
	if len(chunks) == 0 {
		return Result{Issues: ruleIssues}
	}

	prompt := buildPrompt(ruleIssues, chunks, excerpt)
	out, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		logger.Warn("augment: generation failed, keeping rule-based result", "document", doc.ID, "error", err)
		return degraded(ruleIssues, fmt.Sprintf("generation failed: %v", err))
	}

	parsed, err := parseResponse(out)
	if err != nil {
		logger.Warn("augment: unusable response, keeping rule-based result", "document", doc.ID, "error", err)
		return degraded(ruleIssues, fmt.Sprintf("unusable response: %v", err))
	}

	allowed := make(map[string]bool, len(chunks))
	for _, chunk := range chunks {
		allowed[chunk.ID] = true
	}

	var augmented []models.Issue
	for _, raw := range parsed.Issues {
		issue, ok := validateIssue(raw, allowed, doc.ID)
		if !ok {
			logger.Debug("augment: dropping invalid issue", "document", doc.ID, "section", raw.Section)
			continue
		}
		augmented = append(augmented, issue)
	}

	return Result{Issues: Merge(ruleIssues, augmented)}
}

func degraded(ruleIssues []models.Issue, reason string) Result {
	return Result{Issues: ruleIssues, Degraded: true, Reason: reason}
}

// validateIssue enforces the structural contract on one augmented issue.
// A missing section, description or severity drops the issue; a citation
// outside the retrieved allow-list is stripped while the issue is kept.
func validateIssue(raw serviceIssue, allowed map[string]bool, docID string) (models.Issue, bool) {
	section := strings.TrimSpace(raw.Section)
	description := strings.TrimSpace(raw.Issue)
	if section == "" || description == "" {
		return models.Issue{}, false
	}
	severity, err := models.ParseSeverity(raw.Severity)
	if err != nil {
		return models.Issue{}, false
	}

	citation := raw.Citation
	if citation != nil && !allowed[strings.TrimSpace(*citation)] {
		citation = nil
	}

	return models.Issue{
		Section:     section,
		Description: description,
		Severity:    severity,
		Suggestion:  strings.TrimSpace(raw.Suggestion),
		Citation:    citation,
		Document:    docID,
		Paragraph:   -1,
	}, true
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// parseResponse decodes the service response, recovering a trailing JSON
// object from responses that wrap it in prose or fences.
func parseResponse(out string) (*serviceResponse, error) {
	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return nil, fmt.Errorf("empty response")
	}

	var resp serviceResponse
	if err := json.Unmarshal([]byte(trimmed), &resp); err == nil {
		return &resp, nil
	}

	match := jsonObjectPattern.FindString(trimmed)
	if match == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(match), &resp); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %v", err)
	}
	return &resp, nil
}

// Merge combines rule-based and augmented issues. Every rule-based issue
// survives by identity; augmented duplicates, keyed by section plus
// normalized description, only contribute a citation to an uncited match.
func Merge(ruleIssues, augmented []models.Issue) []models.Issue {
	out := make([]models.Issue, len(ruleIssues))
	copy(out, ruleIssues)

	seen := make(map[string]int, len(out))
	for i, issue := range out {
		seen[mergeKey(issue)] = i
	}

	for _, issue := range augmented {
		key := mergeKey(issue)
		if idx, ok := seen[key]; ok {
			if issue.Citation != nil && out[idx].Citation == nil {
				out[idx].Citation = issue.Citation
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, issue)
	}

	return out
}

func mergeKey(issue models.Issue) string {
	return issue.Section + "|" + strings.ToLower(strings.TrimSpace(issue.Description))
}

func buildPrompt(ruleIssues []models.Issue, chunks []models.ReferenceChunk, excerpt string) string {
	var b strings.Builder

	b.WriteString("You are an ADGM compliance reviewer. Using ONLY the reference passages in CONTEXT, ")
	b.WriteString("analyze the DOCUMENT excerpt and return STRICT JSON with a single key \"issues\".\n")
	b.WriteString("Each issue needs: section, issue, severity (Low, Medium or High), suggestion, ")
	b.WriteString("and citation (a passage id from CONTEXT, or null).\n\n")

	b.WriteString("CONTEXT:\n")
	for i, chunk := range chunks {
		fmt.Fprintf(&b, "[Passage %d | id: %s | source: %s]\n%s\n\n", i+1, chunk.ID, chunk.Source, chunk.Content)
	}

	if len(ruleIssues) > 0 {
		b.WriteString("RULE_FINDINGS:\n")
		for _, issue := range ruleIssues {
			fmt.Fprintf(&b, "- [%s/%s] %s\n", issue.Section, issue.Severity, issue.Description)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "DOCUMENT_EXCERPT:\n%s\n\n", excerpt)
	b.WriteString("Return only valid JSON.")

	return b.String()
}
