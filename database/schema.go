package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the pgvector extension and the transcript chunk table.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS transcript_chunks (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			position INT NOT NULL,
			token_count INT NOT NULL,
			started_at TEXT,
			speaker TEXT,
			content TEXT NOT NULL,
			embedding VECTOR(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(document_id, position)
		)`, dimension),
		"CREATE INDEX IF NOT EXISTS idx_transcript_chunks_document ON transcript_chunks(document_id)",
		"CREATE INDEX IF NOT EXISTS idx_transcript_chunks_embedding ON transcript_chunks USING ivfflat (embedding vector_l2_ops)",
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}

	return nil
}
