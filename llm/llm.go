// Package llm abstracts the text-generation collaborator. The core uses it
// only for the fallback document classifier; answer generation happens
// outside the retrieval core.
package llm

import (
	"context"
	"fmt"

	"github.com/llmsdlc/workshop-qa/config"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Request carries one generation call. Temperature 0 keeps routing decisions
// repeatable.
type Request struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type Options struct {
	Provider string
	Model    string

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

// New builds the completion client for cfg.LLM.Model.
func New(cfg config.Config) (Client, error) {
	return newClient(cfg, cfg.LLM.Model)
}

// NewRouterClient builds the cheaper client used by the fallback router.
func NewRouterClient(cfg config.Config) (Client, error) {
	return newClient(cfg, cfg.LLM.RouterModel)
}

func newClient(cfg config.Config, model string) (Client, error) {
	opts := Options{
		Provider:      cfg.LLM.Provider,
		Model:         model,
		OllamaHost:    cfg.OllamaHost,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
	}

	switch opts.Provider {
	case config.ProviderOllama:
		return NewOllamaClient(opts), nil
	case config.ProviderOpenAI:
		if opts.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY not set")
		}
		return NewOpenAIClient(opts), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", opts.Provider)
	}
}
