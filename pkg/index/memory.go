package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/lexgate/doccheck/internal/models"
	"github.com/lexgate/doccheck/internal/types"
)

// BuildError marks a failed index build. No partial index is ever installed:
// after a failed build, queries keep answering from the previous snapshot or
// return empty if none exists.
type BuildError struct {
	Err error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("index build failed: %v", e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

type snapshot struct {
	chunks []models.ReferenceChunk
}

// Memory is an in-memory similarity index over reference chunks. Build
// embeds the whole corpus, assembles a fresh snapshot and installs it with a
// single atomic pointer swap; readers see either the old complete snapshot
// or the new one, never a truncated mix.
type Memory struct {
	embedder types.Embedder
	current  atomic.Pointer[snapshot]
}

func NewMemory(embedder types.Embedder) *Memory {
	return &Memory{embedder: embedder}
}

func (m *Memory) Build(ctx context.Context, chunks []models.ReferenceChunk) error {
	if len(chunks) == 0 {
		return &BuildError{Err: fmt.Errorf("no reference chunks to index")}
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return &BuildError{Err: err}
	}
	if len(vectors) != len(chunks) {
		return &BuildError{Err: fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(chunks))}
	}

	dim := len(vectors[0])
	embedded := make([]models.ReferenceChunk, len(chunks))
	for i, chunk := range chunks {
		if len(vectors[i]) != dim {
			return &BuildError{Err: fmt.Errorf("embedding dimension mismatch at chunk %d: %d != %d", i, len(vectors[i]), dim)}
		}
		chunk.Embedding = vectors[i]
		embedded[i] = chunk
	}

	m.current.Store(&snapshot{chunks: embedded})
	return nil
}

func (m *Memory) Query(ctx context.Context, text string, topK int) ([]models.ReferenceChunk, error) {
	snap := m.current.Load()
	if snap == nil || len(snap.chunks) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = 3
	}

	vectors, err := m.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	query := vectors[0]

	type scored struct {
		chunk models.ReferenceChunk
		score float64
	}
	results := make([]scored, 0, len(snap.chunks))
	for _, chunk := range snap.chunks {
		results = append(results, scored{chunk: chunk, score: cosineSimilarity(query, chunk.Embedding)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].chunk.Index < results[j].chunk.Index
	})

	if len(results) > topK {
		results = results[:topK]
	}
	out := make([]models.ReferenceChunk, len(results))
	for i, r := range results {
		out[i] = r.chunk
	}
	return out, nil
}

func (m *Memory) Ready() bool {
	snap := m.current.Load()
	return snap != nil && len(snap.chunks) > 0
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
