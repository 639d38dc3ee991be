package index

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresStore persists chunk vectors in Postgres with the pgvector
// extension.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Upsert(ctx context.Context, records ...Record) error {
	if s.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	for _, record := range records {
		if _, err := s.pool.Exec(ctx, `
			INSERT INTO transcript_chunks (id, document_id, position, token_count, started_at, speaker, content, embedding, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
			ON CONFLICT (id) DO UPDATE SET
				document_id = EXCLUDED.document_id,
				position = EXCLUDED.position,
				token_count = EXCLUDED.token_count,
				started_at = EXCLUDED.started_at,
				speaker = EXCLUDED.speaker,
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding,
				updated_at = NOW()
		`, record.ID, record.Metadata.DocumentID, record.Metadata.Position, record.Metadata.TokenCount,
			record.Metadata.Timestamp, record.Metadata.Speaker, record.Text, pgvector.NewVector(record.Vector)); err != nil {
			return fmt.Errorf("upsert chunk %s: %w", record.ID, err)
		}
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, vector []float32, k int, filter *Filter) ([]Match, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	if k <= 0 {
		k = 5
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	probes := k * 10
	if probes < 10 {
		probes = 10
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET ivfflat.probes = %d", probes)); err != nil {
		return nil, fmt.Errorf("set ivfflat probes: %w", err)
	}

	query := `
		SELECT id, document_id, position, token_count, started_at, speaker, content,
		       (embedding <-> $1::vector) AS distance
		FROM transcript_chunks`
	args := []any{pgvector.NewVector(vector)}
	if filter != nil && len(filter.DocumentIDs) > 0 {
		query += " WHERE document_id = ANY($2)"
		args = append(args, filter.DocumentIDs)
	}
	query += fmt.Sprintf(" ORDER BY embedding <-> $1::vector LIMIT %d", k)

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query similar chunks: %w", err)
	}
	defer rows.Close()

	matches := make([]Match, 0, k)
	for rows.Next() {
		var (
			match    Match
			distance float64
		)
		if err := rows.Scan(&match.ID, &match.Metadata.DocumentID, &match.Metadata.Position,
			&match.Metadata.TokenCount, &match.Metadata.Timestamp, &match.Metadata.Speaker,
			&match.Text, &distance); err != nil {
			return nil, fmt.Errorf("scan similar chunk: %w", err)
		}
		match.Score = 1 / (1 + distance)
		matches = append(matches, match)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return matches, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM transcript_chunks").Scan(&count); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) CountWhere(ctx context.Context, documentID string) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM transcript_chunks WHERE document_id = $1", documentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count chunks for %s: %w", documentID, err)
	}
	return count, nil
}

var _ Store = (*PostgresStore)(nil)
