package extract

import (
	"fmt"
	"strings"

	"github.com/lexgate/doccheck/internal/models"
)

// Chunker packs reference-document paragraphs into chunks no larger than
// Size characters. Paragraphs are never split: one longer than Size becomes
// a chunk on its own.
type Chunker struct {
	Size int
}

func NewChunker(size int) Chunker {
	if size <= 0 {
		size = 1000
	}
	return Chunker{Size: size}
}

// Chunk converts one reference document into ordered chunks. Chunk ids are
// "<source>__<index>", the identifier format citations refer back to.
func (c Chunker) Chunk(source string, paragraphs []string) []models.ReferenceChunk {
	var chunks []models.ReferenceChunk
	var cur []string
	curLen := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		idx := len(chunks)
		chunks = append(chunks, models.ReferenceChunk{
			ID:      fmt.Sprintf("%s__%d", source, idx),
			Source:  source,
			Index:   idx,
			Content: strings.Join(cur, "\n\n"),
		})
		cur = nil
		curLen = 0
	}

	for _, p := range paragraphs {
		if p == "" {
			continue
		}
		if curLen+len(p) > c.Size && len(cur) > 0 {
			flush()
		}
		cur = append(cur, p)
		curLen += len(p)
	}
	flush()

	return chunks
}
