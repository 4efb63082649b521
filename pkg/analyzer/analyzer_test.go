package analyzer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexgate/doccheck/internal/models"
	"github.com/lexgate/doccheck/pkg/analyzer"
	"github.com/lexgate/doccheck/pkg/augment"
	"github.com/lexgate/doccheck/pkg/classifier"
	"github.com/lexgate/doccheck/pkg/rules"
)

type fakeIndex struct {
	chunks []models.ReferenceChunk
	err    error
}

func (f *fakeIndex) Build(context.Context, []models.ReferenceChunk) error { return nil }

func (f *fakeIndex) Query(context.Context, string, int) ([]models.ReferenceChunk, error) {
	return f.chunks, f.err
}

func (f *fakeIndex) Ready() bool { return true }

type fakeGenerator struct {
	response string
	err      error
}

func (f *fakeGenerator) Generate(context.Context, string) (string, error) {
	return f.response, f.err
}

func incorporationBundle() []models.Document {
	return []models.Document{
		{
			ID: "articles.html",
			Paragraphs: []string{
				"Articles of Association of Example Holdings Ltd.",
				"These articles are adopted for the purpose of incorporation in the Abu Dhabi Global Market (ADGM).",
				"The Company may terminate this agreement at its discretion.",
				"Signed by the authorised signatory.",
			},
		},
		{
			ID: "moa.txt",
			Paragraphs: []string{
				"Memorandum of Association of Example Holdings Ltd.",
				"The registered office shall be situated in ADGM.",
				"Signature: ____________",
			},
		},
	}
}

func newPipeline(orch *augment.Orchestrator) *analyzer.Analyzer {
	return analyzer.New(classifier.DefaultCatalog(), rules.NewEngine(rules.EngineConfig{}), orch, analyzer.Config{})
}

func TestRunRecognizesIncorporationProcess(t *testing.T) {
	pipeline := newPipeline(nil)

	result := pipeline.Run(context.Background(), incorporationBundle())

	assert.Equal(t, "Company Incorporation", result.Checklist.Process)
	assert.True(t, result.Checklist.Recognized)
	assert.Equal(t, 2, result.Checklist.DocumentsUploaded)
	assert.Equal(t, 5, result.Checklist.RequiredCount)
	assert.Equal(t, []string{
		"Incorporation Application Form",
		"UBO Declaration Form",
		"Register of Members and Directors",
	}, result.Checklist.Missing)
}

func TestRunRuleOnlyIssuesAndAnnotations(t *testing.T) {
	pipeline := newPipeline(nil)

	result := pipeline.Run(context.Background(), incorporationBundle())

	require.Len(t, result.Documents, 2)
	articles := result.Documents[0]
	assert.Equal(t, "articles.html", articles.Document.ID)
	assert.False(t, articles.Degraded)

	require.Len(t, articles.Issues, 1)
	assert.Equal(t, "language", articles.Issues[0].Section)
	assert.Equal(t, models.SeverityLow, articles.Issues[0].Severity)
	assert.Equal(t, 2, articles.Issues[0].Paragraph)

	require.Len(t, articles.Annotations, 1)
	assert.Equal(t, 2, articles.Annotations[0].Paragraph)
	assert.Contains(t, articles.Annotations[0].Marker, "[REVIEW: ")

	moa := result.Documents[1]
	assert.Empty(t, moa.Issues)
	assert.Empty(t, moa.Annotations)
}

func TestRunReportAggregatesAllDocuments(t *testing.T) {
	pipeline := newPipeline(nil)
	bundle := incorporationBundle()

	result := pipeline.Run(context.Background(), bundle)

	assert.Equal(t, "Company Incorporation", result.Report.Process)
	assert.Equal(t, 2, result.Report.DocumentsUploaded)
	assert.Equal(t, 5, result.Report.RequiredDocuments)
	var total int
	for _, doc := range result.Documents {
		total += len(doc.Issues)
	}
	assert.Len(t, result.Report.IssuesFound, total)
	assert.NotEmpty(t, result.Report.Timestamp)
}

func TestRunUnknownProcessSkipsChecklist(t *testing.T) {
	pipeline := newPipeline(nil)
	docs := []models.Document{
		{ID: "grocery.txt", Paragraphs: []string{"Milk, eggs and bread."}},
	}

	result := pipeline.Run(context.Background(), docs)

	assert.Equal(t, "unknown", result.Checklist.Process)
	assert.False(t, result.Checklist.Recognized)
	assert.Equal(t, 1, result.Checklist.DocumentsUploaded)
	assert.Equal(t, 0, result.Checklist.RequiredCount)
	assert.Empty(t, result.Checklist.Missing)
}

func TestRunEmptyBundle(t *testing.T) {
	pipeline := newPipeline(nil)

	result := pipeline.Run(context.Background(), nil)

	assert.Equal(t, "unknown", result.Checklist.Process)
	assert.Equal(t, 0, result.Checklist.DocumentsUploaded)
	assert.Empty(t, result.Documents)
	assert.Empty(t, result.Report.IssuesFound)
	assert.NotNil(t, result.Report.MissingDocuments)
}

func TestRunWithAugmentationAddsIssues(t *testing.T) {
	idx := &fakeIndex{chunks: []models.ReferenceChunk{
		{ID: "adgm_rules.txt__0", Source: "adgm_rules.txt", Index: 0, Content: "Articles must state the share capital."},
	}}
	gen := &fakeGenerator{response: `{"issues": [
		{"section": "share capital", "issue": "Share capital clause is absent", "severity": "Medium", "suggestion": "Add a share capital clause.", "citation": "adgm_rules.txt__0"}
	]}`}
	pipeline := newPipeline(augment.New(idx, gen, augment.Config{}))

	result := pipeline.Run(context.Background(), incorporationBundle())

	articles := result.Documents[0]
	assert.False(t, articles.Degraded)
	sections := make([]string, 0, len(articles.Issues))
	for _, issue := range articles.Issues {
		sections = append(sections, issue.Section)
	}
	assert.Contains(t, sections, "language")
	assert.Contains(t, sections, "share capital")
}

func TestRunAugmentationFailureIsolatedPerDocument(t *testing.T) {
	idx := &fakeIndex{err: errors.New("connection reset")}
	pipeline := newPipeline(augment.New(idx, &fakeGenerator{}, augment.Config{}))

	result := pipeline.Run(context.Background(), incorporationBundle())

	for _, doc := range result.Documents {
		assert.True(t, doc.Degraded)
		assert.Contains(t, doc.Reason, "retrieval failed")
	}

	// Rule findings still flow into the report.
	require.Len(t, result.Documents[0].Issues, 1)
	assert.Equal(t, "language", result.Documents[0].Issues[0].Section)
}

func TestRunIsDeterministicAcrossRepeats(t *testing.T) {
	pipeline := newPipeline(nil)

	first := pipeline.Run(context.Background(), incorporationBundle())
	second := pipeline.Run(context.Background(), incorporationBundle())

	assert.Equal(t, first.Checklist, second.Checklist)
	assert.Equal(t, first.Report.IssuesFound, second.Report.IssuesFound)
	assert.Equal(t, first.Report.MissingDocuments, second.Report.MissingDocuments)
}
