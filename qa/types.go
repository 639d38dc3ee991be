// Package qa composes routing, retrieval, and context assembly into the
// answer pipeline. It returns a prompt-ready context and sources; turning
// those into natural language is the caller's generation step.
package qa

import (
	"errors"

	"github.com/llmsdlc/workshop-qa/chunking"
	"github.com/llmsdlc/workshop-qa/config"
)

// ErrBudgetExceeded reports a non-positive available context budget. The
// request fails fast before any retrieval.
var ErrBudgetExceeded = errors.New("context budget exceeded")

// contextShare is the fraction of a model's context window granted to
// retrieved context; the rest stays free for the prompt and the completion.
const contextShare = 0.65

// Budget is the token allowance for assembled context.
type Budget struct {
	MaxTotalTokens int
	// ReservedTokens is headroom for the question, the system prompt, and
	// the expected completion.
	ReservedTokens int
}

// Available is the budget left for retrieved chunks.
func (b Budget) Available() int {
	return b.MaxTotalTokens - b.ReservedTokens
}

// BudgetForModel derives a budget from a completion model's context window.
func BudgetForModel(model string, reservedTokens int) Budget {
	return Budget{
		MaxTotalTokens: int(float64(config.ContextWindow(model)) * contextShare),
		ReservedTokens: reservedTokens,
	}
}

// AssembledContext is the packed retrieval context for one question. It is
// built fresh per question and never cached: the chunk ranking is
// question-specific.
type AssembledContext struct {
	Text        string
	UsedChunks  []chunking.Chunk
	TotalTokens int
}

// Source describes one chunk that made it into the context.
type Source struct {
	DocumentID string
	Position   int
	Timestamp  string
	Speaker    string
	Snippet    string
	Score      float64
}

// Result outcome origins and negative-result reasons.
const (
	OriginMetadata  = "metadata"
	OriginRetrieval = "retrieval"

	ReasonNoRelevantDocument = "no_relevant_document"
	ReasonNoChunks           = "no_chunks"
)

// Result is the typed outcome of one answer request. Negative outcomes
// (nothing routed, nothing retrieved) are results, not errors.
type Result struct {
	Success bool
	// Origin is OriginMetadata for catalog-answered meta-questions and
	// OriginRetrieval for transcript-backed contexts.
	Origin string
	// Answer is the complete answer text for metadata results.
	Answer string
	// Context is the packed transcript context for retrieval results.
	Context       string
	ContextTokens int
	Sources       []Source
	// Documents is the routed shortlist, in priority order.
	Documents []string
	// Method records how routing decided: keyword, fallback-classifier,
	// or none.
	Method string
	// Reason is set when Success is false.
	Reason string
}
