package knowledge

import (
	"context"
	"fmt"
)

// embedBatchSize bounds how many chunks are embedded per upstream call.
const embedBatchSize = 64

// Index couples a Store with an Embedder, exposing text-level Add and Search.
// This is the type the knowledge tool and the ingestion pipeline talk to.
type Index struct {
	store    *Store
	embedder Embedder
}

// NewIndex creates an index over the given store and embedder.
func NewIndex(store *Store, embedder Embedder) *Index {
	return &Index{store: store, embedder: embedder}
}

// Add embeds the documents' chunks in batches and persists them.
func (ix *Index) Add(ctx context.Context, contents []string, source string) error {
	for start := 0; start < len(contents); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(contents) {
			end = len(contents)
		}
		batch := contents[start:end]

		vectors, err := ix.embedder.Embed(ctx, batch)
		if err != nil {
			return fmt.Errorf("embed batch from %s: %w", source, err)
		}

		chunks := make([]Chunk, len(batch))
		for i, content := range batch {
			chunks[i] = Chunk{Content: content, Source: source, Embedding: vectors[i]}
		}
		if err := ix.store.Add(ctx, chunks); err != nil {
			return err
		}
	}
	return nil
}

// Search embeds the query and returns the top-k most similar chunks.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Match, error) {
	vectors, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return ix.store.Search(ctx, vectors[0], k)
}

// Count returns the number of indexed chunks.
func (ix *Index) Count(ctx context.Context) (int, error) { return ix.store.Count(ctx) }

// Reset clears the index.
func (ix *Index) Reset(ctx context.Context) error { return ix.store.Reset(ctx) }
