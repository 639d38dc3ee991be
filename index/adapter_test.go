package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmsdlc/workshop-qa/chunking"
	"github.com/llmsdlc/workshop-qa/embeddings"
	"github.com/llmsdlc/workshop-qa/tokens"
)

type stubEmbedder struct {
	vectors map[string][]float32
	calls   [][]string
	err     error
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	s.calls = append(s.calls, texts)
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if vec, ok := s.vectors[text]; ok {
			out[i] = vec
			continue
		}
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

var _ embeddings.Embedder = (*stubEmbedder)(nil)

type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

var _ tokens.Counter = wordCounter{}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testChunks(documentID string, n int) []chunking.Chunk {
	chunks := make([]chunking.Chunk, n)
	for i := range chunks {
		chunks[i] = chunking.Chunk{
			ID:         fmt.Sprintf("chunk-%d", i),
			DocumentID: documentID,
			Position:   i,
			Text:       fmt.Sprintf("content of chunk %d", i),
			TokenCount: 4,
			Timestamp:  "0:00:01.000",
			Speaker:    "Hugo",
		}
	}
	return chunks
}

func TestAddDocumentIndexesChunks(t *testing.T) {
	store := NewMemoryStore()
	adapter := NewAdapter(&stubEmbedder{}, store, wordCounter{}, 100, testLogger())

	indexed, err := adapter.AddDocument(context.Background(), "WS1", testChunks("WS1", 3))
	require.NoError(t, err)
	assert.Equal(t, 3, indexed)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestAddDocumentIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	adapter := NewAdapter(&stubEmbedder{}, store, wordCounter{}, 100, testLogger())
	ctx := context.Background()

	_, err := adapter.AddDocument(ctx, "WS1", testChunks("WS1", 3))
	require.NoError(t, err)

	indexed, err := adapter.AddDocument(ctx, "WS1", testChunks("WS1", 3))
	require.NoError(t, err)
	assert.Equal(t, 0, indexed)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// A different document still indexes.
	indexed, err = adapter.AddDocument(ctx, "WS2", testChunks("WS2", 2))
	require.NoError(t, err)
	assert.Equal(t, 2, indexed)
}

func TestAddDocumentSplitsOversizedChunkText(t *testing.T) {
	store := NewMemoryStore()
	embedder := &stubEmbedder{}
	adapter := NewAdapter(embedder, store, wordCounter{}, 5, testLogger())

	words := make([]string, 12)
	for i := range words {
		words[i] = "w"
	}
	chunk := chunking.Chunk{ID: "c0", DocumentID: "WS1", Text: strings.Join(words, " "), TokenCount: 12}

	_, err := adapter.AddDocument(context.Background(), "WS1", []chunking.Chunk{chunk})
	require.NoError(t, err)

	require.Len(t, embedder.calls, 1)
	assert.Greater(t, len(embedder.calls[0]), 1)
	for _, part := range embedder.calls[0] {
		assert.LessOrEqual(t, wordCounter{}.Count(part), 5)
	}
}

func TestAddDocumentWrapsEmbedderFailure(t *testing.T) {
	store := NewMemoryStore()
	adapter := NewAdapter(&stubEmbedder{err: errors.New("service down")}, store, wordCounter{}, 100, testLogger())

	_, err := adapter.AddDocument(context.Background(), "WS1", testChunks("WS1", 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRetrievalUnavailable))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestQueryMapsMetadataBack(t *testing.T) {
	store := NewMemoryStore()
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"content of chunk 0": {1, 0, 0},
		"content of chunk 1": {0, 1, 0},
		"near chunk zero":    {0.9, 0.1, 0},
	}}
	adapter := NewAdapter(embedder, store, wordCounter{}, 100, testLogger())
	ctx := context.Background()

	_, err := adapter.AddDocument(ctx, "WS1", testChunks("WS1", 2))
	require.NoError(t, err)

	results, err := adapter.Query(ctx, "near chunk zero", 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "WS1", results[0].Chunk.DocumentID)
	assert.Equal(t, 0, results[0].Chunk.Position)
	assert.Equal(t, "content of chunk 0", results[0].Chunk.Text)
	assert.Equal(t, 4, results[0].Chunk.TokenCount)
	assert.Equal(t, "Hugo", results[0].Chunk.Speaker)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestQueryFiltersByDocument(t *testing.T) {
	store := NewMemoryStore()
	adapter := NewAdapter(&stubEmbedder{}, store, wordCounter{}, 100, testLogger())
	ctx := context.Background()

	_, err := adapter.AddDocument(ctx, "WS1", testChunks("WS1", 2))
	require.NoError(t, err)
	_, err = adapter.AddDocument(ctx, "WS2", testChunks("WS2", 2))
	require.NoError(t, err)

	results, err := adapter.Query(ctx, "anything", 10, []string{"WS2"})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, result := range results {
		assert.Equal(t, "WS2", result.Chunk.DocumentID)
	}
}

func TestCountDocument(t *testing.T) {
	store := NewMemoryStore()
	adapter := NewAdapter(&stubEmbedder{}, store, wordCounter{}, 100, testLogger())
	ctx := context.Background()

	_, err := adapter.AddDocument(ctx, "WS1", testChunks("WS1", 3))
	require.NoError(t, err)

	count, err := adapter.CountDocument(ctx, "WS1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = adapter.CountDocument(ctx, "WS9")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
