package qa

import (
	"context"
	"fmt"
	"log"
	"strings"
)

const snippetLimit = 200

// DocumentRouter selects the documents relevant to a question.
type DocumentRouter interface {
	Route(ctx context.Context, question string) (RoutingDecision, error)
}

// RoutingDecision mirrors routing.Decision without importing it, so tests can
// stub the router directly.
type RoutingDecision struct {
	DocumentIDs []string
	Method      string
}

// Service is the answer orchestrator: classify, then either answer from
// metadata or route, assemble context, and hand back (context, sources) for
// the external generation call. No retries happen here; failures come back
// as typed errors or negative Results, never as panics past this boundary.
type Service struct {
	classifier        *MetaClassifier
	meta              *MetaAnswerer
	router            DocumentRouter
	assembler         *Assembler
	budget            Budget
	chunksPerDocument int
	logger            *log.Logger
}

func NewService(classifier *MetaClassifier, meta *MetaAnswerer, router DocumentRouter, assembler *Assembler, budget Budget, chunksPerDocument int, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if chunksPerDocument <= 0 {
		chunksPerDocument = 2
	}
	return &Service{
		classifier:        classifier,
		meta:              meta,
		router:            router,
		assembler:         assembler,
		budget:            budget,
		chunksPerDocument: chunksPerDocument,
		logger:            logger,
	}
}

func (s *Service) Answer(ctx context.Context, question string) (Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Result{}, fmt.Errorf("question cannot be empty")
	}

	category := s.classifier.Classify(question)
	if category != CategoryContent {
		if answer, ok := s.meta.Answer(question, category); ok {
			s.logger.Printf("meta-question (%s) answered from catalog", category)
			return Result{
				Success: true,
				Origin:  OriginMetadata,
				Answer:  answer,
				Method:  string(category),
			}, nil
		}
		// Unresolvable meta-question; treat it as content.
		s.logger.Printf("meta-question (%s) unresolved, falling through to retrieval", category)
	}

	if s.budget.Available() <= 0 {
		return Result{}, fmt.Errorf("reserved %d of %d tokens: %w", s.budget.ReservedTokens, s.budget.MaxTotalTokens, ErrBudgetExceeded)
	}

	decision, err := s.router.Route(ctx, question)
	if err != nil {
		return Result{}, fmt.Errorf("route question: %w", err)
	}
	if len(decision.DocumentIDs) == 0 {
		return Result{
			Origin: OriginRetrieval,
			Method: decision.Method,
			Reason: ReasonNoRelevantDocument,
		}, nil
	}

	assembled, err := s.assembler.Assemble(ctx, question, decision.DocumentIDs, s.chunksPerDocument, s.budget)
	if err != nil {
		return Result{}, err
	}
	if len(assembled.UsedChunks) == 0 {
		return Result{
			Origin:    OriginRetrieval,
			Documents: decision.DocumentIDs,
			Method:    decision.Method,
			Reason:    ReasonNoChunks,
		}, nil
	}

	sources := make([]Source, 0, len(assembled.UsedChunks))
	for _, chunk := range assembled.UsedChunks {
		snippet := chunk.Text
		if len(snippet) > snippetLimit {
			snippet = snippet[:snippetLimit] + "..."
		}
		sources = append(sources, Source{
			DocumentID: chunk.DocumentID,
			Position:   chunk.Position,
			Timestamp:  chunk.Timestamp,
			Speaker:    chunk.Speaker,
			Snippet:    snippet,
		})
	}

	return Result{
		Success:       true,
		Origin:        OriginRetrieval,
		Context:       assembled.Text,
		ContextTokens: assembled.TotalTokens,
		Sources:       sources,
		Documents:     decision.DocumentIDs,
		Method:        decision.Method,
	}, nil
}
