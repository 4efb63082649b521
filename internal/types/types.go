package types

import (
	"context"

	"github.com/lexgate/doccheck/internal/models"
)

// Extractor turns a raw document payload into ordered paragraph text.
type Extractor interface {
	Paragraphs(name string, data []byte) ([]string, error)
}

// Embedder produces fixed-length vectors for a batch of texts. All vectors
// returned by one call come from the same embedding space.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator sends a prompt to the external generation service and returns
// its raw textual response.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Index is a similarity index over reference-document chunks. Build replaces
// the queryable corpus atomically; a failed build never leaves a partial
// index behind. Query returns an empty result, not an error, when no index
// has been built.
type Index interface {
	Build(ctx context.Context, chunks []models.ReferenceChunk) error
	Query(ctx context.Context, text string, topK int) ([]models.ReferenceChunk, error)
	Ready() bool
}
