// Package config loads runtime configuration from the environment.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// contextWindows maps completion models to their context window in tokens.
var contextWindows = map[string]int{
	"gpt-4o-mini":       8192,
	"gpt-4o":            128000,
	"gpt-3.5-turbo":     4096,
	"gpt-3.5-turbo-16k": 16384,
}

const defaultContextWindow = 6000

type EmbeddingsConfig struct {
	Provider  string
	Model     string
	Dimension int
	// TokenCap is the embedding service's maximum input size in tokens.
	TokenCap int
}

type LLMConfig struct {
	Provider string
	Model    string
	// RouterModel is the cheaper model used by the fallback document router.
	RouterModel string
}

type ChunkingConfig struct {
	TargetTokens int
	OverlapUnits int
	MinTokens    int
}

type RetrievalConfig struct {
	MaxDocuments      int
	ChunksPerDocument int
	ReservedTokens    int
}

type Config struct {
	PostgresDSN string
	DataDir     string

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string

	Embeddings EmbeddingsConfig
	LLM        LLMConfig
	Chunking   ChunkingConfig
	Retrieval  RetrievalConfig
}

func Load() Config {
	// Best effort; a missing .env file is not an error.
	_ = godotenv.Load()

	return Config{
		PostgresDSN: getEnv("POSTGRES_DSN", "postgres://localhost:5432/workshop-qa?sslmode=disable"),
		DataDir:     getEnv("DATA_DIR", "data"),

		OllamaHost:    getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),

		Embeddings: EmbeddingsConfig{
			Provider:  getEnv("EMBEDDINGS_PROVIDER", ProviderOpenAI),
			Model:     getEnv("EMBEDDINGS_MODEL", "text-embedding-3-small"),
			Dimension: getEnvInt("EMBEDDINGS_DIMENSION", 1536),
			TokenCap:  getEnvInt("EMBEDDINGS_TOKEN_CAP", 8191),
		},
		LLM: LLMConfig{
			Provider:    getEnv("LLM_PROVIDER", ProviderOpenAI),
			Model:       getEnv("LLM_MODEL", "gpt-4o-mini"),
			RouterModel: getEnv("ROUTER_MODEL", "gpt-3.5-turbo"),
		},
		Chunking: ChunkingConfig{
			TargetTokens: getEnvInt("CHUNK_TARGET_TOKENS", 500),
			OverlapUnits: getEnvInt("CHUNK_OVERLAP_UNITS", 0),
			MinTokens:    getEnvInt("CHUNK_MIN_TOKENS", 15),
		},
		Retrieval: RetrievalConfig{
			MaxDocuments:      getEnvInt("MAX_DOCUMENTS", 2),
			ChunksPerDocument: getEnvInt("CHUNKS_PER_DOCUMENT", 2),
			ReservedTokens:    getEnvInt("RESERVED_TOKENS", 500),
		},
	}
}

// ContextWindow returns the context window for a completion model, falling
// back to a conservative default for unknown models.
func ContextWindow(model string) int {
	if limit, ok := contextWindows[model]; ok {
		return limit
	}
	return defaultContextWindow
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
