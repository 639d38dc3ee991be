// Package index couples the embedding service and the vector store into a
// single adapter: chunks go in once per document, nearest chunks come out per
// query.
package index

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/llmsdlc/workshop-qa/chunking"
	"github.com/llmsdlc/workshop-qa/embeddings"
	"github.com/llmsdlc/workshop-qa/tokens"
)

// ErrRetrievalUnavailable wraps embedding-service or vector-store failures.
// The orchestrator surfaces it without retrying.
var ErrRetrievalUnavailable = errors.New("retrieval unavailable")

// RetrievalResult is one retrieved chunk with its store-reported similarity.
type RetrievalResult struct {
	Chunk chunking.Chunk
	Score float64
}

type Adapter struct {
	embedder embeddings.Embedder
	store    Store
	counter  tokens.Counter
	// tokenCap is the embedding service's maximum input size. Longer text
	// is split and its piece embeddings averaged.
	tokenCap int
	logger   *log.Logger
}

func NewAdapter(embedder embeddings.Embedder, store Store, counter tokens.Counter, tokenCap int, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.Default()
	}
	if tokenCap <= 0 {
		tokenCap = 8191
	}
	return &Adapter{
		embedder: embedder,
		store:    store,
		counter:  counter,
		tokenCap: tokenCap,
		logger:   logger,
	}
}

// AddDocument embeds and upserts a document's chunks. It is idempotent keyed
// by document id: when the store already holds entries for documentID the
// call is a no-op returning 0, so re-running ingestion never duplicates a
// document.
func (a *Adapter) AddDocument(ctx context.Context, documentID string, chunks []chunking.Chunk) (int, error) {
	existing, err := a.store.CountWhere(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("check existing chunks for %s: %w: %w", documentID, ErrRetrievalUnavailable, err)
	}
	if existing > 0 {
		a.logger.Printf("document %s already indexed (%d chunks), skipping", documentID, existing)
		return 0, nil
	}

	records := make([]Record, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := a.embedText(ctx, chunk.Text)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d of %s: %w", chunk.Position, documentID, err)
		}
		records = append(records, Record{
			ID:     fmt.Sprintf("%s_%s", documentID, chunk.ID),
			Vector: vector,
			Text:   chunk.Text,
			Metadata: Metadata{
				DocumentID: documentID,
				Position:   chunk.Position,
				TokenCount: chunk.TokenCount,
				Timestamp:  chunk.Timestamp,
				Speaker:    chunk.Speaker,
			},
		})
	}

	if err := a.store.Upsert(ctx, records...); err != nil {
		return 0, fmt.Errorf("upsert chunks for %s: %w: %w", documentID, ErrRetrievalUnavailable, err)
	}

	return len(records), nil
}

// Query embeds the question once and returns the k nearest chunks, optionally
// restricted to the given document ids. Ordering is the store's ranking; no
// re-ranking happens here.
func (a *Adapter) Query(ctx context.Context, question string, k int, documentIDs []string) ([]RetrievalResult, error) {
	vector, err := a.embedText(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	var filter *Filter
	if len(documentIDs) > 0 {
		filter = &Filter{DocumentIDs: documentIDs}
	}

	matches, err := a.store.Query(ctx, vector, k, filter)
	if err != nil {
		return nil, fmt.Errorf("query vector store: %w: %w", ErrRetrievalUnavailable, err)
	}

	results := make([]RetrievalResult, 0, len(matches))
	for _, match := range matches {
		results = append(results, RetrievalResult{
			Chunk: chunking.Chunk{
				ID:         match.ID,
				DocumentID: match.Metadata.DocumentID,
				Position:   match.Metadata.Position,
				Text:       match.Text,
				TokenCount: match.Metadata.TokenCount,
				Timestamp:  match.Metadata.Timestamp,
				Speaker:    match.Metadata.Speaker,
			},
			Score: match.Score,
		})
	}

	return results, nil
}

// Count reports the total number of indexed chunks.
func (a *Adapter) Count(ctx context.Context) (int, error) {
	count, err := a.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count indexed chunks: %w: %w", ErrRetrievalUnavailable, err)
	}
	return count, nil
}

// CountDocument reports the number of indexed chunks for one document.
func (a *Adapter) CountDocument(ctx context.Context, documentID string) (int, error) {
	count, err := a.store.CountWhere(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("count chunks for %s: %w: %w", documentID, ErrRetrievalUnavailable, err)
	}
	return count, nil
}

// embedText embeds text, splitting input above the service cap and averaging
// the piece vectors, since the embedding call rejects oversized input.
func (a *Adapter) embedText(ctx context.Context, text string) ([]float32, error) {
	parts := chunking.SplitToFit(text, a.tokenCap, a.counter)
	if len(parts) == 0 {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	vectors, err := a.embedder.Embed(ctx, parts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrievalUnavailable, err)
	}
	if len(vectors) != len(parts) {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for %d inputs", ErrRetrievalUnavailable, len(vectors), len(parts))
	}
	if len(parts) == 1 {
		return vectors[0], nil
	}

	return averageVectors(vectors), nil
}

func averageVectors(vectors [][]float32) []float32 {
	avg := make([]float32, len(vectors[0]))
	for _, vec := range vectors {
		for i, v := range vec {
			avg[i] += v
		}
	}
	n := float32(len(vectors))
	for i := range avg {
		avg[i] /= n
	}
	return avg
}
