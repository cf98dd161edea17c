// Package retriever implements the Retriever agent's three A2A skills:
// retrieve, smart_retrieve, and retrieve_missing. All three embed each
// query, search the vector store, drop hits below the threshold and sort
// by score descending; only retrieve truncates the result to top_k.
package retriever

import (
	"github.com/praxis/droneflow/internal/vectorstore"
)

// RetrievalHit is the wire shape of one similarity match returned to
// callers, a thin projection of vectorstore.Hit.
type RetrievalHit struct {
	ChunkID   string   `json:"chunk_id"`
	MapID     string   `json:"map_id"`
	ChunkText string   `json:"chunk_text"`
	Score     float64  `json:"similarity_score"`
	Tags      []string `json:"tags,omitempty"`
}

func fromStoreHit(h vectorstore.Hit) RetrievalHit {
	return RetrievalHit{ChunkID: h.ChunkID, MapID: h.MapID, ChunkText: h.ChunkText, Score: h.Score, Tags: h.Tags}
}

// RetrievalIntent is the language model's decomposition of a user query
// into concrete searchable targets, produced by smart_retrieve's first
// step.
type RetrievalIntent struct {
	Targets       []string `json:"targets"`
	Reasoning     string   `json:"reasoning"`
	OriginalQuery string   `json:"original_query"`
}

// RetrieveResult is the output of the retrieve skill.
type RetrieveResult struct {
	Hits       []RetrievalHit `json:"hits"`
	TotalFound int            `json:"total_found"`
	DurationMs int64          `json:"duration_ms"`
}

// SmartRetrieveResult is the output of the smart_retrieve skill. PerTarget
// lets the Orchestrator detect which decomposed targets produced zero
// hits, driving the missing_locations feedback loop.
type SmartRetrieveResult struct {
	Hits       []RetrievalHit            `json:"hits"`
	TotalFound int                       `json:"total_found"`
	PerTarget  map[string][]RetrievalHit `json:"per_target"`
	Intent     RetrievalIntent           `json:"intent"`
	DurationMs int64                     `json:"duration_ms"`
}

// RetrieveMissingResult is the output of the retrieve_missing skill.
type RetrieveMissingResult struct {
	Hits       []RetrievalHit `json:"hits"`
	TotalFound int            `json:"total_found"`
	DurationMs int64          `json:"duration_ms"`
}
