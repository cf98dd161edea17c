package retriever

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/praxis/droneflow/internal/apperror"
	"github.com/praxis/droneflow/internal/vectorstore"
	"github.com/sirupsen/logrus"
)

const (
	defaultThreshold = 0.5
	missingThreshold = 0.4
)

// Skills implements the Retriever agent's A2A handlers against an
// Embedder, a Generator, and a Searcher — each narrowed interfaces so
// tests can stub the LLM and vector store without a live database.
type Skills struct {
	embedder  Embedder
	generator Generator
	searcher  Searcher
	logger    *logrus.Logger
}

// New creates a Skills handler set.
func New(embedder Embedder, generator Generator, searcher Searcher, logger *logrus.Logger) *Skills {
	if logger == nil {
		logger = logrus.New()
	}
	return &Skills{embedder: embedder, generator: generator, searcher: searcher, logger: logger}
}

// Filters narrows a retrieval call to a map and/or a tag set.
type Filters struct {
	MapID string   `json:"map_id,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

func (f Filters) toStore() vectorstore.Filters {
	return vectorstore.Filters{MapID: f.MapID, Tags: f.Tags}
}

// Retrieve implements the `retrieve` skill: embed, search with
// top_k+3 headroom, filter below threshold, sort by score descending,
// truncate to top_k.
func (s *Skills) Retrieve(ctx context.Context, query string, topK int, filters Filters) (RetrieveResult, error) {
	start := time.Now()
	if topK <= 0 {
		topK = 5
	}

	hits, err := s.searchQuery(ctx, query, topK+3, defaultThreshold, filters)
	if err != nil {
		return RetrieveResult{}, err
	}

	hits = truncate(sortByScoreDesc(hits), topK)
	return RetrieveResult{
		Hits:       hits,
		TotalFound: len(hits),
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// SmartRetrieve implements the `smart_retrieve` skill: decompose the
// query into concrete targets via the language model, search each target
// plus a fallback search on the original query, merge and dedupe by
// chunk_text keeping the highest score, then sort by score descending. Each
// search applies the same threshold as Retrieve; the merged hits are not
// truncated to a top_k.
func (s *Skills) SmartRetrieve(ctx context.Context, query string, filters Filters) (SmartRetrieveResult, error) {
	start := time.Now()

	intent, err := s.decomposeIntent(ctx, query)
	if err != nil {
		s.logger.Warnf("intent decomposition failed, falling back to original-query-only search: %v", err)
		intent = RetrievalIntent{OriginalQuery: query}
	}

	perTarget := make(map[string][]RetrievalHit)
	var merged []RetrievalHit

	for _, target := range intent.Targets {
		hits, err := s.searchQuery(ctx, target, 3, defaultThreshold, filters)
		if err != nil {
			s.logger.Warnf("search for target %q failed: %v", target, err)
			continue
		}
		perTarget[target] = hits
		merged = append(merged, hits...)
	}

	fallback, err := s.searchQuery(ctx, query, 3, defaultThreshold, filters)
	if err != nil {
		return SmartRetrieveResult{}, err
	}
	merged = append(merged, fallback...)

	deduped := truncate(sortByScoreDesc(dedupeByChunkText(merged)), len(merged))
	return SmartRetrieveResult{
		Hits:       deduped,
		TotalFound: len(deduped),
		PerTarget:  perTarget,
		Intent:     intent,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// RetrieveMissing implements the `retrieve_missing` skill: broaden search
// criteria for targets the Planner reported as missing_locations, trying
// several textual variations per target and keeping whichever variation
// produced the best top hit, at a lowered threshold.
func (s *Skills) RetrieveMissing(ctx context.Context, missingTargets []string, filters Filters) (RetrieveMissingResult, error) {
	start := time.Now()

	var merged []RetrievalHit
	for _, target := range missingTargets {
		best := s.bestVariation(ctx, target, filters)
		merged = append(merged, best...)
	}

	deduped := sortByScoreDesc(dedupeByChunkText(merged))
	return RetrieveMissingResult{
		Hits:       deduped,
		TotalFound: len(deduped),
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// bestVariation runs every textual variation of target and returns the
// hits from whichever variation produced the highest-scoring top hit.
func (s *Skills) bestVariation(ctx context.Context, target string, filters Filters) []RetrievalHit {
	var bestHits []RetrievalHit
	bestScore := -1.0

	for _, variation := range variations(target) {
		hits, err := s.searchQuery(ctx, variation, 5, missingThreshold, filters)
		if err != nil {
			s.logger.Warnf("retrieve_missing variation %q for target %q failed: %v", variation, target, err)
			continue
		}
		if len(hits) == 0 {
			continue
		}
		if hits[0].Score > bestScore {
			bestScore = hits[0].Score
			bestHits = hits
		}
	}
	return bestHits
}

func (s *Skills) searchQuery(ctx context.Context, query string, topK int, threshold float64, filters Filters) ([]RetrievalHit, error) {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, apperror.Model(fmt.Sprintf("embed query %q", query), err)
	}

	storeHits, err := s.searcher.Search(ctx, embedding, topK, threshold, filters.toStore())
	if err != nil {
		return nil, apperror.Transport("search", err)
	}

	out := make([]RetrievalHit, 0, len(storeHits))
	for _, h := range storeHits {
		if h.Score < threshold {
			continue
		}
		out = append(out, fromStoreHit(h))
	}
	return out, nil
}

func (s *Skills) decomposeIntent(ctx context.Context, query string) (RetrievalIntent, error) {
	const systemPrompt = `You extract concrete searchable targets from a drone-navigation request.
Targets are named landmarks, numeric ids, or color+shape pairs mentioned in the request.
Respond with strict JSON: {"targets": ["..."], "reasoning": "..."}.
Return an empty targets array if no concrete target is mentioned.`

	raw, err := s.generator.GenerateJSON(ctx, systemPrompt, query, 0.1)
	if err != nil {
		return RetrievalIntent{}, apperror.Model("generate intent", err)
	}

	var intent RetrievalIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return RetrievalIntent{}, apperror.Model("parse intent JSON", err)
	}
	intent.OriginalQuery = query
	return intent, nil
}

func sortByScoreDesc(hits []RetrievalHit) []RetrievalHit {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits
}

func truncate(hits []RetrievalHit, n int) []RetrievalHit {
	if n < 0 || len(hits) <= n {
		return hits
	}
	return hits[:n]
}

func dedupeByChunkText(hits []RetrievalHit) []RetrievalHit {
	best := make(map[string]RetrievalHit)
	var order []string
	for _, h := range hits {
		existing, ok := best[h.ChunkText]
		if !ok {
			order = append(order, h.ChunkText)
			best[h.ChunkText] = h
			continue
		}
		if h.Score > existing.Score {
			best[h.ChunkText] = h
		}
	}
	out := make([]RetrievalHit, 0, len(order))
	for _, text := range order {
		out = append(out, best[text])
	}
	return out
}
