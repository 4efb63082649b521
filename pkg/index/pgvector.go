package index

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/lexgate/doccheck/internal/models"
	"github.com/lexgate/doccheck/internal/types"
)

// PGVectorConfig configures the Postgres-backed index.
type PGVectorConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
}

// PGVector keeps the reference corpus in a pgvector table. A rebuild runs
// delete and insert inside one transaction, so concurrent queries answer
// from the old corpus until the new one commits.
type PGVector struct {
	config   PGVectorConfig
	embedder types.Embedder
	pool     *pgxpool.Pool
	ready    atomic.Bool
}

func NewPGVector(config PGVectorConfig, embedder types.Embedder) (*PGVector, error) {
	if config.TableName == "" {
		config.TableName = "reference_chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	idx := &PGVector{
		config:   config,
		embedder: embedder,
		pool:     pool,
	}

	if err := idx.initialize(); err != nil {
		pool.Close()
		return nil, err
	}

	return idx, nil
}

func (p *PGVector) initialize() error {
	ctx := context.Background()

	_, err := p.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d)
		)`, p.config.TableName, p.config.VectorDim)

	if _, err := p.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		p.config.TableName, p.config.TableName)

	if _, err := p.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	var count int
	row := p.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", p.config.TableName))
	if err := row.Scan(&count); err != nil {
		return fmt.Errorf("failed to count existing chunks: %v", err)
	}
	p.ready.Store(count > 0)

	return nil
}

func (p *PGVector) Build(ctx context.Context, chunks []models.ReferenceChunk) error {
	if len(chunks) == 0 {
		return &BuildError{Err: fmt.Errorf("no reference chunks to index")}
	}

	// Embed the whole corpus up front: one failed chunk rejects the build
	// before any row is touched.
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return &BuildError{Err: err}
	}
	if len(vectors) != len(chunks) {
		return &BuildError{Err: fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(chunks))}
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return &BuildError{Err: fmt.Errorf("failed to begin transaction: %v", err)}
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s", p.config.TableName)); err != nil {
		return &BuildError{Err: fmt.Errorf("failed to clear previous corpus: %v", err)}
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, source, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4, $5)`,
		p.config.TableName)

	for i, chunk := range chunks {
		_, err := tx.Exec(ctx, stmt,
			chunk.ID,
			chunk.Source,
			chunk.Index,
			chunk.Content,
			pgvector.NewVector(vectors[i]),
		)
		if err != nil {
			return &BuildError{Err: fmt.Errorf("failed to insert chunk %s: %v", chunk.ID, err)}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &BuildError{Err: fmt.Errorf("failed to commit corpus: %v", err)}
	}

	p.ready.Store(true)
	return nil
}

func (p *PGVector) Query(ctx context.Context, text string, topK int) ([]models.ReferenceChunk, error) {
	if !p.ready.Load() {
		return nil, nil
	}
	if topK <= 0 {
		topK = 3
	}

	vectors, err := p.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, source, chunk_index, content
		FROM %s
		ORDER BY embedding <=> $1, chunk_index ASC
		LIMIT $2`,
		p.config.TableName)

	rows, err := p.pool.Query(ctx, query, pgvector.NewVector(vectors[0]), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %v", err)
	}
	defer rows.Close()

	var chunks []models.ReferenceChunk
	for rows.Next() {
		var chunk models.ReferenceChunk
		if err := rows.Scan(&chunk.ID, &chunk.Source, &chunk.Index, &chunk.Content); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (p *PGVector) Ready() bool {
	return p.ready.Load()
}

func (p *PGVector) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}
