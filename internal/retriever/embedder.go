package retriever

import (
	"context"
	"encoding/json"

	"github.com/praxis/droneflow/internal/vectorstore"
)

// Embedder is the subset of llmclient.Client the Retriever depends on,
// narrowed to ease stubbing in tests (the teacher's agent_test.go stubs
// contracts.ExecutionEngine the same way).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator is the subset of llmclient.Client used for intent
// decomposition in smart_retrieve.
type Generator interface {
	GenerateJSON(ctx context.Context, systemPrompt, prompt string, temperature float32) (json.RawMessage, error)
}

// Searcher is the subset of vectorstore.Store the Retriever depends on.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, topK int, threshold float64, filters vectorstore.Filters) ([]vectorstore.Hit, error)
}
