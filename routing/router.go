// Package routing decides which workshop documents are relevant to a
// question: keyword scoring against the catalog topic table first, an LLM
// classifier as fallback when no keyword matches.
package routing

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"unicode"

	"github.com/llmsdlc/workshop-qa/catalog"
	"github.com/llmsdlc/workshop-qa/llm"
)

const (
	MethodKeyword  = "keyword"
	MethodFallback = "fallback-classifier"
	MethodNone     = "none"

	exactMatchScore   = 2.0
	partialMatchScore = 0.5
	// Constituent words of a multi-word keyword only score when longer
	// than this, to keep stopwords from matching.
	partialMinWordLen = 3

	fallbackSampleKeywords = 5
)

// Decision is an ordered shortlist of document ids and how it was produced.
type Decision struct {
	DocumentIDs []string
	Method      string
}

type Router struct {
	catalog  *catalog.Catalog
	fallback llm.Client
	maxDocs  int
	logger   *log.Logger
}

// New builds a router over the given catalog. fallback may be nil, in which
// case questions with no keyword signal route nowhere.
func New(cat *catalog.Catalog, fallback llm.Client, maxDocs int, logger *log.Logger) *Router {
	if logger == nil {
		logger = log.Default()
	}
	if maxDocs <= 0 {
		maxDocs = 2
	}
	return &Router{catalog: cat, fallback: fallback, maxDocs: maxDocs, logger: logger}
}

// Route scores every workshop by keyword overlap with the question. When the
// top score is zero it defers to the fallback classifier. Ties keep catalog
// order.
func (r *Router) Route(ctx context.Context, question string) (Decision, error) {
	type scored struct {
		id    string
		score float64
	}

	questionLower := strings.ToLower(question)
	ranked := make([]scored, 0, len(r.catalog.Workshops))
	for _, workshop := range r.catalog.Workshops {
		ranked = append(ranked, scored{id: workshop.ID, score: scoreKeywords(questionLower, workshop.Keywords)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) == 0 {
		return Decision{Method: MethodNone}, nil
	}

	if ranked[0].score == 0 {
		return r.routeWithClassifier(ctx, question)
	}

	shortlist := make([]string, 0, r.maxDocs)
	for _, entry := range ranked {
		if entry.score > 0 && len(shortlist) < r.maxDocs {
			shortlist = append(shortlist, entry.id)
		}
	}
	// Pad with the next-highest scorers so the shortlist reaches maxDocs
	// whenever the catalog is large enough.
	for _, entry := range ranked {
		if len(shortlist) >= r.maxDocs {
			break
		}
		if !contains(shortlist, entry.id) {
			shortlist = append(shortlist, entry.id)
		}
	}

	r.logger.Printf("routed question to %s via keyword scoring", strings.Join(shortlist, ", "))
	return Decision{DocumentIDs: shortlist, Method: MethodKeyword}, nil
}

func scoreKeywords(questionLower string, keywords []string) float64 {
	var score float64
	for _, keyword := range keywords {
		if strings.Contains(questionLower, keyword) {
			score += exactMatchScore
			continue
		}
		words := strings.Fields(keyword)
		if len(words) < 2 {
			continue
		}
		for _, word := range words {
			if len(word) > partialMinWordLen && strings.Contains(questionLower, word) {
				score += partialMatchScore
			}
		}
	}
	return score
}

// routeWithClassifier asks the fallback LLM to pick documents. Its response
// contract is a bare comma-separated id list or the literal NONE; anything
// else degrades to an empty routing rather than being string-mined.
func (r *Router) routeWithClassifier(ctx context.Context, question string) (Decision, error) {
	if r.fallback == nil {
		return Decision{Method: MethodNone}, nil
	}

	response, err := r.fallback.Generate(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: r.classifierPrompt(question)}},
		Temperature: 0,
		MaxTokens:   50,
	})
	if err != nil {
		// Fallback routing is best effort; an unreachable classifier
		// means no routing, not a failed request.
		r.logger.Printf("fallback classifier error: %v", err)
		return Decision{Method: MethodNone}, nil
	}

	ids := r.parseClassifierResponse(response)
	if len(ids) == 0 {
		r.logger.Printf("fallback classifier found no relevant documents")
		return Decision{Method: MethodNone}, nil
	}

	r.logger.Printf("routed question to %s via fallback classifier", strings.Join(ids, ", "))
	return Decision{DocumentIDs: ids, Method: MethodFallback}, nil
}

func (r *Router) classifierPrompt(question string) string {
	var sb strings.Builder
	sb.WriteString("You are a course assistant. Your job is to find the most relevant workshop(s) for a user's question.\n\n")
	fmt.Fprintf(&sb, "User's Question: %q\n\n", question)
	sb.WriteString("Here are the available workshops and their topics:\n")
	for _, workshop := range r.catalog.Workshops {
		samples := workshop.Keywords
		if len(samples) > fallbackSampleKeywords {
			samples = samples[:fallbackSampleKeywords]
		}
		fmt.Fprintf(&sb, "%s: %s (Covers: %s)\n", workshop.ID, workshop.Title, strings.Join(samples, ", "))
	}
	fmt.Fprintf(&sb, "\nBased on the user's question, which %d workshops are the most likely to contain the answer?\n", r.maxDocs)
	sb.WriteString("Respond with only the workshop IDs (e.g., WS1, WS3) separated by commas. If no workshop seems relevant, respond with the single word \"NONE\".")
	return sb.String()
}

func (r *Router) parseClassifierResponse(response string) []string {
	tokens := strings.FieldsFunc(response, func(c rune) bool {
		return c == ',' || unicode.IsSpace(c)
	})

	ids := make([]string, 0, r.maxDocs)
	for _, token := range tokens {
		token = strings.ToUpper(strings.TrimSpace(token))
		if token == "NONE" {
			return nil
		}
		if _, ok := r.catalog.Lookup(token); !ok {
			continue
		}
		if contains(ids, token) {
			continue
		}
		ids = append(ids, token)
		if len(ids) == r.maxDocs {
			break
		}
	}
	return ids
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
