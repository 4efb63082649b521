package checklist_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexgate/doccheck/internal/models"
	"github.com/lexgate/doccheck/pkg/checklist"
	"github.com/lexgate/doccheck/pkg/classifier"
)

func incorporationProcess(t *testing.T) models.Process {
	t.Helper()
	process, ok := classifier.DefaultCatalog().Process("Company Incorporation")
	require.True(t, ok)
	return process
}

func TestEvaluateEmptyBundle(t *testing.T) {
	process := incorporationProcess(t)

	result := checklist.Evaluate(process, nil)

	assert.Equal(t, "Company Incorporation", result.Process)
	assert.Equal(t, 0, result.DocumentsUploaded)
	assert.Equal(t, 5, result.RequiredCount)
	assert.Equal(t, process.Required, result.Missing)
}

func TestEvaluateMissingIsRequiredMinusPresent(t *testing.T) {
	process := incorporationProcess(t)

	docs := []models.Document{
		{ID: "aoa.txt", Kind: "Articles of Association"},
		{ID: "moa.txt", Kind: "Memorandum of Association"},
		{ID: "notes.txt", Kind: models.KindUnknown},
	}
	result := checklist.Evaluate(process, docs)

	assert.Equal(t, 3, result.DocumentsUploaded)
	assert.Equal(t, []string{
		"Incorporation Application Form",
		"UBO Declaration Form",
		"Register of Members and Directors",
	}, result.Missing)

	// missing never intersects the present set
	for _, doc := range docs {
		assert.NotContains(t, result.Missing, doc.Kind)
	}
}

func TestEvaluateExactMatchOnly(t *testing.T) {
	process := incorporationProcess(t)

	docs := []models.Document{
		{ID: "near.txt", Kind: "Articles of Incorporation"},
	}
	result := checklist.Evaluate(process, docs)

	assert.Len(t, result.Missing, 5)
	assert.Equal(t, []string{"Articles of Incorporation"}, result.Unexpected)
}

func TestEvaluateMissingPreservesCanonicalOrder(t *testing.T) {
	process := incorporationProcess(t)

	docs := []models.Document{
		{ID: "ubo.txt", Kind: "UBO Declaration Form"},
	}
	result := checklist.Evaluate(process, docs)

	assert.Equal(t, []string{
		"Articles of Association",
		"Memorandum of Association",
		"Incorporation Application Form",
		"Register of Members and Directors",
	}, result.Missing)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	process := incorporationProcess(t)
	docs := []models.Document{
		{ID: "a.txt", Kind: "Articles of Association"},
		{ID: "b.txt", Kind: models.KindUnknown},
	}

	first := checklist.Evaluate(process, docs)
	second := checklist.Evaluate(process, docs)
	assert.Equal(t, first, second)
}

func TestNotRecognized(t *testing.T) {
	docs := []models.Document{{ID: "a.txt", Kind: models.KindUnknown}}

	result := checklist.NotRecognized(docs)

	assert.False(t, result.Recognized)
	assert.Equal(t, models.ProcessUnknown, result.Process)
	assert.Equal(t, 1, result.DocumentsUploaded)
	assert.Empty(t, result.Missing)
	assert.Equal(t, 0, result.RequiredCount)
}
