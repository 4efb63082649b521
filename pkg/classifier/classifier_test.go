package classifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lexgate/doccheck/internal/models"
	"github.com/lexgate/doccheck/pkg/classifier"
)

func TestDetectKind(t *testing.T) {
	catalog := classifier.DefaultCatalog()

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "articles of association",
			text: "These Articles of Association set out the internal rules of the company.",
			want: "Articles of Association",
		},
		{
			name: "ubo declaration",
			text: "Declaration of the Ultimate Beneficial Owner pursuant to the regulations.",
			want: "UBO Declaration Form",
		},
		{
			name: "no catalog match",
			text: "Minutes of the annual general meeting held on 3 March.",
			want: models.KindUnknown,
		},
		{
			name: "ambiguous multi-kind document",
			text: "This Memorandum of Association is filed together with the Articles of Association.",
			want: models.KindUnknown,
		},
		{
			name: "case insensitive",
			text: "REGISTER OF MEMBERS AND DIRECTORS of Example Holdings Ltd",
			want: "Register of Members and Directors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, catalog.DetectKind(tt.text))
		})
	}
}

func TestClassifyProcess(t *testing.T) {
	catalog := classifier.DefaultCatalog()

	docs := []models.Document{
		{ID: "a.txt", Paragraphs: []string{"Application for incorporation of a private company limited by shares."}},
		{ID: "b.txt", Paragraphs: []string{"The articles of association of the proposed company."}},
	}
	assert.Equal(t, "Company Incorporation", catalog.ClassifyProcess(docs))
}

func TestClassifyProcessUnknown(t *testing.T) {
	catalog := classifier.DefaultCatalog()

	docs := []models.Document{
		{ID: "misc.txt", Paragraphs: []string{"A letter about an unrelated topic."}},
	}
	assert.Equal(t, models.ProcessUnknown, catalog.ClassifyProcess(docs))
}

func TestClassifyProcessTieBreaksByRegistrationOrder(t *testing.T) {
	catalog := classifier.NewCatalog(nil, []models.Process{
		{Name: "First Process", Keywords: []string{"shared keyword"}},
		{Name: "Second Process", Keywords: []string{"shared keyword"}},
	})

	docs := []models.Document{
		{ID: "doc.txt", Paragraphs: []string{"This mentions the shared keyword once."}},
	}
	assert.Equal(t, "First Process", catalog.ClassifyProcess(docs))
}
