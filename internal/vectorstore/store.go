// Package vectorstore wraps a pgx connection pool against the
// document_chunks table, grounded on Strob0t-CodeForge's
// internal/adapter/postgres store adapters: thin methods that issue one
// SQL statement each, wrapping failures with fmt.Errorf("...: %w", err).
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Hit is one similarity match returned by the match_documents procedure.
type Hit struct {
	ChunkID   string   `json:"chunk_id"`
	MapID     string   `json:"map_id"`
	ChunkText string   `json:"chunk_text"`
	Score     float64  `json:"similarity_score"`
	Tags      []string `json:"tags,omitempty"`
}

// Filters narrows a similarity search.
type Filters struct {
	MapID string
	Tags  []string
}

// Store wraps a pgxpool.Pool against the document_chunks table and its
// match_documents stored procedure.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store from an already-connected pool. Pool creation
// and migration are the caller's (cmd/*) responsibility, the same
// ownership split the teacher's postgres.NewPool/RunMigrations draw.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Search calls match_documents(query_embedding, match_count,
// filter_map_id, filter_tags, match_threshold) and returns hits ordered by
// the procedure's own similarity ranking.
func (s *Store) Search(ctx context.Context, embedding []float32, topK int, threshold float64, filters Filters) ([]Hit, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT chunk_id, map_id, chunk_text, similarity_score, tags
		 FROM match_documents($1, $2, $3, $4, $5)`,
		pgVector(embedding), topK, nullableString(filters.MapID), filters.Tags, threshold,
	)
	if err != nil {
		return nil, fmt.Errorf("match_documents: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ChunkID, &h.MapID, &h.ChunkText, &h.Score, &h.Tags); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Insert adds one chunk and its embedding to document_chunks. It exists
// for an out-of-scope seeding script; the agents never call it.
func (s *Store) Insert(ctx context.Context, mapID, chunkText string, embedding []float32, tags []string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO document_chunks (map_id, chunk_text, embedding, tags)
		 VALUES ($1, $2, $3, $4)`,
		mapID, chunkText, pgVector(embedding), tags,
	)
	if err != nil {
		return fmt.Errorf("insert document chunk: %w", err)
	}
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// pgVector renders a float32 slice as the pgvector text literal
// "[v1,v2,...]" that pgx sends as the positional parameter for a
// vector(768) column.
func pgVector(embedding []float32) string {
	b, _ := json.Marshal(embedding)
	return string(b)
}
