package qa

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/llmsdlc/workshop-qa/index"
	"github.com/llmsdlc/workshop-qa/tokens"
)

// Retriever is the slice of the index adapter the assembler needs.
type Retriever interface {
	Query(ctx context.Context, question string, k int, documentIDs []string) ([]index.RetrievalResult, error)
}

// Assembler packs retrieved chunks into a single context block that never
// exceeds the budget's available tokens.
type Assembler struct {
	retriever Retriever
	counter   tokens.Counter
	logger    *log.Logger
}

func NewAssembler(retriever Retriever, counter tokens.Counter, logger *log.Logger) *Assembler {
	if logger == nil {
		logger = log.Default()
	}
	return &Assembler{retriever: retriever, counter: counter, logger: logger}
}

type taggedResult struct {
	index.RetrievalResult
	// priority is the routing rank of the chunk's document; lower is more
	// relevant.
	priority int
}

// Assemble retrieves chunksPerDocument nearest chunks from each shortlisted
// document, orders them by (router priority, transcript position) to rebuild
// narrative order, and greedily packs them under budget.Available(). Chunks
// are atomic: the first chunk that would overflow stops packing, nothing is
// truncated mid-chunk. An empty retrieval yields an empty context, not an
// error.
func (a *Assembler) Assemble(ctx context.Context, question string, documentIDs []string, chunksPerDocument int, budget Budget) (AssembledContext, error) {
	available := budget.Available()
	if available <= 0 {
		return AssembledContext{}, fmt.Errorf("available budget %d: %w", available, ErrBudgetExceeded)
	}
	if chunksPerDocument <= 0 {
		chunksPerDocument = 2
	}

	var retrieved []taggedResult
	for priority, documentID := range documentIDs {
		results, err := a.retriever.Query(ctx, question, chunksPerDocument, []string{documentID})
		if err != nil {
			return AssembledContext{}, fmt.Errorf("retrieve chunks from %s: %w", documentID, err)
		}
		for _, result := range results {
			retrieved = append(retrieved, taggedResult{RetrievalResult: result, priority: priority})
		}
	}

	if len(retrieved) == 0 {
		return AssembledContext{}, nil
	}

	sort.SliceStable(retrieved, func(i, j int) bool {
		if retrieved[i].priority != retrieved[j].priority {
			return retrieved[i].priority < retrieved[j].priority
		}
		return retrieved[i].Chunk.Position < retrieved[j].Chunk.Position
	})

	var (
		sb        strings.Builder
		assembled AssembledContext
	)
	for _, result := range retrieved {
		separator := fmt.Sprintf("\n--- %s ---\n", result.Chunk.DocumentID)
		if len(assembled.UsedChunks) == 0 {
			separator = fmt.Sprintf("=== %s Content ===\n", result.Chunk.DocumentID)
		}
		separatorTokens := a.counter.Count(separator)

		if assembled.TotalTokens+result.Chunk.TokenCount+separatorTokens > available {
			a.logger.Printf("context full at %d/%d tokens, dropping remaining chunks", assembled.TotalTokens, available)
			break
		}

		sb.WriteString(separator)
		sb.WriteString(result.Chunk.Text)
		assembled.UsedChunks = append(assembled.UsedChunks, result.Chunk)
		assembled.TotalTokens += result.Chunk.TokenCount + separatorTokens
	}

	assembled.Text = sb.String()
	a.logger.Printf("assembled context: %d chunks, %d tokens", len(assembled.UsedChunks), assembled.TotalTokens)
	return assembled, nil
}
