package qa

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmsdlc/workshop-qa/chunking"
	"github.com/llmsdlc/workshop-qa/index"
	"github.com/llmsdlc/workshop-qa/tokens"
)

type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

var _ tokens.Counter = wordCounter{}

type stubRetriever struct {
	byDocument map[string][]index.RetrievalResult
	err        error
	called     bool
}

func (s *stubRetriever) Query(_ context.Context, _ string, k int, documentIDs []string) ([]index.RetrievalResult, error) {
	s.called = true
	if s.err != nil {
		return nil, s.err
	}
	var results []index.RetrievalResult
	for _, id := range documentIDs {
		results = append(results, s.byDocument[id]...)
	}
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

var _ Retriever = (*stubRetriever)(nil)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func retrievalResult(documentID string, position, tokenCount int, text string) index.RetrievalResult {
	return index.RetrievalResult{
		Chunk: chunking.Chunk{
			DocumentID: documentID,
			Position:   position,
			Text:       text,
			TokenCount: tokenCount,
		},
		Score: 0.9,
	}
}

func TestAssembleNeverExceedsBudget(t *testing.T) {
	retriever := &stubRetriever{byDocument: map[string][]index.RetrievalResult{
		"WS1": {
			retrievalResult("WS1", 0, 900, "first block"),
			retrievalResult("WS1", 1, 900, "second block"),
			retrievalResult("WS1", 2, 900, "third block"),
		},
	}}
	assembler := NewAssembler(retriever, wordCounter{}, testLogger())

	budget := Budget{MaxTotalTokens: 2500, ReservedTokens: 500}
	assembled, err := assembler.Assemble(context.Background(), "q", []string{"WS1"}, 3, budget)
	require.NoError(t, err)

	// Two 900-token chunks plus separators fit in 2000; the third would
	// overflow and is dropped whole.
	assert.Len(t, assembled.UsedChunks, 2)
	assert.LessOrEqual(t, assembled.TotalTokens, budget.Available())
	assert.Contains(t, assembled.Text, "first block")
	assert.Contains(t, assembled.Text, "second block")
	assert.NotContains(t, assembled.Text, "third block")
}

func TestAssembleOrdersByPriorityThenPosition(t *testing.T) {
	retriever := &stubRetriever{byDocument: map[string][]index.RetrievalResult{
		"WS2": {
			retrievalResult("WS2", 5, 10, "ws2 late"),
			retrievalResult("WS2", 2, 10, "ws2 early"),
		},
		"WS1": {
			retrievalResult("WS1", 0, 10, "ws1 start"),
		},
	}}
	assembler := NewAssembler(retriever, wordCounter{}, testLogger())

	assembled, err := assembler.Assemble(context.Background(), "q",
		[]string{"WS2", "WS1"}, 2, Budget{MaxTotalTokens: 1000})
	require.NoError(t, err)

	require.Len(t, assembled.UsedChunks, 3)
	assert.Equal(t, "ws2 early", assembled.UsedChunks[0].Text)
	assert.Equal(t, "ws2 late", assembled.UsedChunks[1].Text)
	assert.Equal(t, "ws1 start", assembled.UsedChunks[2].Text)
}

func TestAssembleSeparators(t *testing.T) {
	retriever := &stubRetriever{byDocument: map[string][]index.RetrievalResult{
		"WS1": {retrievalResult("WS1", 0, 10, "alpha")},
		"WS2": {retrievalResult("WS2", 0, 10, "beta")},
	}}
	assembler := NewAssembler(retriever, wordCounter{}, testLogger())

	assembled, err := assembler.Assemble(context.Background(), "q",
		[]string{"WS1", "WS2"}, 1, Budget{MaxTotalTokens: 1000})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(assembled.Text, "=== WS1 Content ===\n"))
	assert.Contains(t, assembled.Text, "\n--- WS2 ---\n")
}

func TestAssembleEmptyRetrievalIsNotAnError(t *testing.T) {
	retriever := &stubRetriever{}
	assembler := NewAssembler(retriever, wordCounter{}, testLogger())

	assembled, err := assembler.Assemble(context.Background(), "q",
		[]string{"WS1"}, 2, Budget{MaxTotalTokens: 1000})
	require.NoError(t, err)
	assert.Empty(t, assembled.UsedChunks)
	assert.Empty(t, assembled.Text)
	assert.Zero(t, assembled.TotalTokens)
}

func TestAssembleFailsOnExhaustedBudget(t *testing.T) {
	retriever := &stubRetriever{}
	assembler := NewAssembler(retriever, wordCounter{}, testLogger())

	_, err := assembler.Assemble(context.Background(), "q",
		[]string{"WS1"}, 2, Budget{MaxTotalTokens: 400, ReservedTokens: 500})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBudgetExceeded))
	assert.False(t, retriever.called)
}

func TestAssembleWrapsRetrieverFailure(t *testing.T) {
	retriever := &stubRetriever{err: errors.New("store down")}
	assembler := NewAssembler(retriever, wordCounter{}, testLogger())

	_, err := assembler.Assemble(context.Background(), "q",
		[]string{"WS1"}, 2, Budget{MaxTotalTokens: 1000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WS1")
}

func TestBudgetForModel(t *testing.T) {
	gptWindow := 8192
	fallbackWindow := 6000
	budget := BudgetForModel("gpt-4o-mini", 500)
	assert.Equal(t, int(float64(gptWindow)*0.65), budget.MaxTotalTokens)
	assert.Equal(t, 500, budget.ReservedTokens)
	assert.Equal(t, budget.MaxTotalTokens-500, budget.Available())

	fallback := BudgetForModel("mystery-model", 0)
	assert.Equal(t, int(float64(fallbackWindow)*0.65), fallback.MaxTotalTokens)
}
